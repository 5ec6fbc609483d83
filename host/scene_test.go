package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/wire"
)

func (h *harness) items(scene uint64) []wire.ObjectRef {
	h.t.Helper()
	var items []wire.ObjectRef
	h.must(&items, "Scene", "GetItems", scene)
	return items
}

func itemNames(items []wire.ObjectRef) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

// populate creates a scene holding one color source per name.
func (h *harness) populate(scene string, names ...string) (wire.ObjectRef, []wire.ObjectRef) {
	s := h.ref("Scene", "Create", scene)
	var items []wire.ObjectRef
	for _, n := range names {
		in := h.input(n)
		items = append(items, h.ref("Scene", "AddSource", s.ID, in.ID))
	}
	return s, items
}

func TestItemIDsAreNotReused(t *testing.T) {
	h := newHarness(t)
	scene, items := h.populate("main", "a", "b")
	assert.Equal(t, int64(1), items[0].ItemID)
	assert.Equal(t, int64(2), items[1].ItemID)
	assert.Equal(t, scene.ID, items[0].SceneID)

	h.must(nil, "SceneItem", "Remove", items[1].ID)
	c := h.ref("Scene", "AddSource", scene.ID, h.input("c").ID)
	assert.Equal(t, int64(3), c.ItemID)

	// Counters are per scene.
	_, other := h.populate("other", "d")
	assert.Equal(t, int64(1), other[0].ItemID)

	var id int64
	h.must(&id, "SceneItem", "GetId", c.ID)
	assert.Equal(t, int64(3), id)
}

func TestAddSourceTransform(t *testing.T) {
	h := newHarness(t)
	scene := h.ref("Scene", "Create", "main")
	in := h.input("cam")

	plain := h.ref("Scene", "AddSource", scene.ID, in.ID)
	var tf wire.TransformInfo
	h.must(&tf, "SceneItem", "GetTransformInfo", plain.ID)
	assert.Equal(t, wire.Vec2{X: 1, Y: 1}, tf.Scale)
	assert.Equal(t, wire.AlignTopLeft, tf.Alignment)

	var visible bool
	h.must(&visible, "SceneItem", "IsVisible", plain.ID)
	assert.True(t, visible)

	placed := h.ref("Scene", "AddSource", scene.ID, in.ID, wire.TransformInfo{
		Pos:   wire.Vec2{X: 10, Y: 20},
		Scale: wire.Vec2{X: 2, Y: 2},
	})
	var pos wire.Vec2
	h.must(&pos, "SceneItem", "GetPosition", placed.ID)
	assert.Equal(t, wire.Vec2{X: 10, Y: 20}, pos)
}

func TestMoveItemByIndex(t *testing.T) {
	h := newHarness(t)
	scene, items := h.populate("main", "a", "b", "c")

	var moved bool
	h.must(&moved, "Scene", "MoveItem", scene.ID, 0, 2)
	assert.True(t, moved)
	assert.Equal(t, []string{"b", "c", "a"}, itemNames(h.items(scene.ID)))

	h.must(&moved, "Scene", "MoveItem", scene.ID, 2, 0)
	assert.Equal(t, []string{"a", "b", "c"}, itemNames(h.items(scene.ID)))

	h.must(&moved, "Scene", "MoveItem", scene.ID, 0, 3)
	assert.False(t, moved)
	h.must(&moved, "Scene", "MoveItem", scene.ID, -1, 0)
	assert.False(t, moved)
	assert.Equal(t, []string{"a", "b", "c"}, itemNames(h.items(scene.ID)))

	at := h.ref("Scene", "GetItem", scene.ID, 1)
	assert.Equal(t, items[1].ID, at.ID)
	h.fails(errors.KindOutOfBounds, "Scene", "GetItem", scene.ID, 3)
}

func TestItemMovement(t *testing.T) {
	h := newHarness(t)
	scene, items := h.populate("main", "a", "b", "c")

	h.must(nil, "SceneItem", "MoveUp", items[0].ID)
	assert.Equal(t, []string{"b", "a", "c"}, itemNames(h.items(scene.ID)))

	h.must(nil, "SceneItem", "MoveTop", items[0].ID)
	assert.Equal(t, []string{"b", "c", "a"}, itemNames(h.items(scene.ID)))

	h.must(nil, "SceneItem", "MoveUp", items[0].ID)
	assert.Equal(t, []string{"b", "c", "a"}, itemNames(h.items(scene.ID)))

	h.must(nil, "SceneItem", "MoveBottom", items[0].ID)
	assert.Equal(t, []string{"a", "b", "c"}, itemNames(h.items(scene.ID)))

	h.must(nil, "SceneItem", "MoveDown", items[2].ID)
	assert.Equal(t, []string{"a", "c", "b"}, itemNames(h.items(scene.ID)))

	h.must(nil, "SceneItem", "Move", items[0].ID, 10)
	assert.Equal(t, []string{"c", "b", "a"}, itemNames(h.items(scene.ID)))
}

func TestOrderItems(t *testing.T) {
	h := newHarness(t)
	scene, items := h.populate("main", "a", "b", "c")

	h.must(nil, "Scene", "OrderItems", scene.ID, []int64{items[2].ItemID, items[0].ItemID, items[1].ItemID})
	assert.Equal(t, []string{"c", "a", "b"}, itemNames(h.items(scene.ID)))

	h.fails(errors.KindInvalidArgument, "Scene", "OrderItems", scene.ID, []int64{items[0].ItemID})
	h.fails(errors.KindInvalidArgument, "Scene", "OrderItems", scene.ID, []int64{1, 1, 2})
}

func TestItemsInRange(t *testing.T) {
	h := newHarness(t)
	scene, _ := h.populate("main", "a", "b", "c", "d")

	var items []wire.ObjectRef
	h.must(&items, "Scene", "GetItemsInRange", scene.ID, 1, 2)
	assert.Equal(t, []string{"b", "c"}, itemNames(items))

	h.must(&items, "Scene", "GetItemsInRange", scene.ID, -5, 10)
	assert.Len(t, items, 4)

	h.must(&items, "Scene", "GetItemsInRange", scene.ID, 3, 1)
	assert.Empty(t, items)
}

func TestFindItem(t *testing.T) {
	h := newHarness(t)
	scene, items := h.populate("main", "a", "b")

	assert.Equal(t, items[1].ID, h.ref("Scene", "FindItemByName", scene.ID, "b").ID)
	assert.Equal(t, items[0].ID, h.ref("Scene", "FindItemById", scene.ID, items[0].ItemID).ID)
	assert.False(t, h.ref("Scene", "FindItemByName", scene.ID, "zzz").Valid())
	assert.False(t, h.ref("Scene", "FindItemById", scene.ID, 42).Valid())

	src := h.ref("SceneItem", "GetSource", items[0].ID)
	assert.Equal(t, "a", src.Name)
	assert.Equal(t, scene.ID, h.ref("SceneItem", "GetScene", items[0].ID).ID)
}

func TestSceneCannotContainItself(t *testing.T) {
	h := newHarness(t)
	a := h.ref("Scene", "Create", "a")
	b := h.ref("Scene", "Create", "b")

	h.fails(errors.KindInvalidArgument, "Scene", "AddSource", a.ID, a.ID)
	h.ref("Scene", "AddSource", a.ID, b.ID)
	h.fails(errors.KindInvalidArgument, "Scene", "AddSource", b.ID, a.ID)

	f := h.ref("Filter", "Create", "color_filter", "f")
	h.fails(errors.KindInvalidArgument, "Scene", "AddSource", a.ID, f.ID)
}

func TestSceneSignals(t *testing.T) {
	h := newHarness(t)
	scene := h.ref("Scene", "Create", "main")
	in := h.input("cam")

	h.ref("Scene", "AddSource", scene.ID, in.ID)
	assert.Empty(t, h.rec.take(), "no signals before Connect")

	h.must(nil, "Scene", "Connect", scene.ID)
	item := h.ref("Scene", "AddSource", scene.ID, in.ID)
	h.must(nil, "SceneItem", "SetVisible", item.ID, false)
	h.must(nil, "SceneItem", "SetVisible", item.ID, false)
	h.must(nil, "SceneItem", "SetSelected", item.ID, true)
	h.must(nil, "SceneItem", "SetRotation", item.ID, 90.0)
	h.must(nil, "SceneItem", "MoveBottom", item.ID)

	events := h.rec.take()
	var sigs []wire.Signal
	for _, m := range events {
		assert.Equal(t, scene.ID, m.Handle)
		sigs = append(sigs, m.Signal)
	}
	assert.Equal(t, []wire.Signal{
		wire.SignalItemAdd,
		wire.SignalItemVisible,
		wire.SignalItemSelect,
		wire.SignalItemTransform,
		wire.SignalReorder,
	}, sigs)

	var data wire.SceneSignalData
	require.NoError(t, wire.DecodeValue(events[0].Payload, &data))
	assert.Equal(t, item.ID, data.Item)
	assert.Equal(t, item.ItemID, data.ItemID)
	assert.Equal(t, in.ID, data.Source)

	h.must(nil, "Scene", "Disconnect", scene.ID)
	h.must(nil, "SceneItem", "SetVisible", item.ID, true)
	assert.Empty(t, h.rec.take())
}

func TestDeferredTransform(t *testing.T) {
	h := newHarness(t)
	scene, items := h.populate("main", "a")
	h.must(nil, "Scene", "Connect", scene.ID)

	h.must(nil, "SceneItem", "DeferUpdateBegin", items[0].ID)
	h.must(nil, "SceneItem", "SetPosition", items[0].ID, wire.Vec2{X: 1})
	h.must(nil, "SceneItem", "SetScale", items[0].ID, wire.Vec2{X: 2, Y: 2})
	h.must(nil, "SceneItem", "SetCrop", items[0].ID, wire.CropInfo{Left: 4})
	assert.Zero(t, h.rec.count(wire.SignalItemTransform))

	h.must(nil, "SceneItem", "DeferUpdateEnd", items[0].ID)
	assert.Equal(t, 1, h.rec.count(wire.SignalItemTransform))

	var crop wire.CropInfo
	h.must(&crop, "SceneItem", "GetCrop", items[0].ID)
	assert.Equal(t, int32(4), crop.Left)

	h.fails(errors.KindInvalidArgument, "SceneItem", "SetBoundsType", items[0].ID, 99)
}

func TestDuplicateScene(t *testing.T) {
	h := newHarness(t)
	scene, items := h.populate("main", "a", "b")
	h.must(nil, "SceneItem", "SetVisible", items[1].ID, false)

	refsDup := h.ref("Scene", "Duplicate", scene.ID, "shared", wire.DupRefs)
	shared := h.items(refsDup.ID)
	require.Len(t, shared, 2)
	assert.Equal(t, items[0].SourceID, shared[0].SourceID)
	// Creation, the original item and the duplicated item.
	assert.Equal(t, 3, h.refCount(items[0].SourceID))

	var visible bool
	h.must(&visible, "SceneItem", "IsVisible", shared[1].ID)
	assert.False(t, visible)

	copyDup := h.ref("Scene", "Duplicate", scene.ID, "copied", wire.DupPrivateCopy)
	copied := h.items(copyDup.ID)
	require.Len(t, copied, 2)
	assert.NotEqual(t, items[0].SourceID, copied[0].SourceID)
	assert.Equal(t, "a", copied[0].Name)
	assert.Equal(t, 1, h.refCount(copied[0].SourceID))
	assert.False(t, h.ref("Scene", "FromName", "copied").Valid())

	h.fails(errors.KindInvalidArgument, "Scene", "Duplicate", scene.ID, "shared", wire.DupRefs)
	h.fails(errors.KindInvalidArgument, "Scene", "Duplicate", scene.ID, "x", 9)

	// Removing the private copy destroys its copied sources.
	h.rec.take()
	h.must(nil, "Object", "Remove", copyDup.ID)
	gone := destroyed(h.rec.take())
	assert.Contains(t, gone, copied[0].SourceID)
	assert.NotContains(t, gone, items[0].SourceID)
}
