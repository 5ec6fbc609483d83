package osn

import (
	"context"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/signal"
	"github.com/wippyai/obs-ipc/wire"
)

// Scene composes sources as an ordered list of items.
type Scene struct {
	Source
}

// SceneEvent is delivered to scene signal callbacks. Handles are raw ids;
// resolve them with FindItemByID or Items when a proxy is needed.
type SceneEvent struct {
	Signal wire.Signal
	wire.SceneSignalData
}

func (c *conn) scene(ref wire.ObjectRef) *Scene {
	return c.source(ref).Scene()
}

func (c *conn) item(ref wire.ObjectRef) *SceneItem {
	if !ref.Valid() {
		return nil
	}
	return &SceneItem{object: newObject(c, ref), itemID: ref.ItemID}
}

func (c *conn) items(refs []wire.ObjectRef) []*SceneItem {
	out := make([]*SceneItem, 0, len(refs))
	for _, r := range refs {
		if it := c.item(r); it != nil {
			out = append(out, it)
		}
	}
	return out
}

// Add places src on top of the scene. tf may be nil for the default
// transform. The item takes a reference on src.
func (s *Scene) Add(ctx context.Context, src Sourcer, tf *wire.TransformInfo) (*SceneItem, error) {
	h, err := sourceHandle(src)
	if err != nil {
		return nil, err
	}
	if h == 0 {
		return nil, errors.InvalidArgument(errors.PhaseCall, []string{"source"}, "source is nil")
	}
	args := []any{h}
	if tf != nil {
		args = append(args, *tf)
	}
	ref, err := get[wire.ObjectRef](ctx, s.object, "Scene", "AddSource", args...)
	if err != nil {
		return nil, err
	}
	return s.c.item(ref), nil
}

// Duplicate copies the scene. dup selects whether item sources are shared
// or copied and whether the copy is private.
func (s *Scene) Duplicate(ctx context.Context, name string, dup wire.SceneDupType) (*Scene, error) {
	ref, err := get[wire.ObjectRef](ctx, s.object, "Scene", "Duplicate", name, int(dup))
	if err != nil {
		return nil, err
	}
	return s.c.scene(ref), nil
}

// MoveItem moves the item at index from to index to, both in Items order.
// It reports false and leaves the order alone when either is out of range.
func (s *Scene) MoveItem(ctx context.Context, from, to int) (bool, error) {
	return get[bool](ctx, s.object, "Scene", "MoveItem", from, to)
}

// OrderItems replaces the order with ids, bottom to top. ids must list
// every item exactly once.
func (s *Scene) OrderItems(ctx context.Context, ids []int64) error {
	return set(ctx, s.object, "Scene", "OrderItems", ids)
}

// FindItem returns the first item showing a source named name, or nil.
func (s *Scene) FindItem(ctx context.Context, name string) (*SceneItem, error) {
	ref, err := get[wire.ObjectRef](ctx, s.object, "Scene", "FindItemByName", name)
	if err != nil {
		return nil, err
	}
	return s.c.item(ref), nil
}

// FindItemByID returns the item with the scene-local id, or nil.
func (s *Scene) FindItemByID(ctx context.Context, id int64) (*SceneItem, error) {
	ref, err := get[wire.ObjectRef](ctx, s.object, "Scene", "FindItemById", id)
	if err != nil {
		return nil, err
	}
	return s.c.item(ref), nil
}

// ItemAt returns the item at idx in Items order.
func (s *Scene) ItemAt(ctx context.Context, idx int) (*SceneItem, error) {
	ref, err := get[wire.ObjectRef](ctx, s.object, "Scene", "GetItem", idx)
	if err != nil {
		return nil, err
	}
	return s.c.item(ref), nil
}

// Items lists the items bottom to top.
func (s *Scene) Items(ctx context.Context) ([]*SceneItem, error) {
	refs, err := get[[]wire.ObjectRef](ctx, s.object, "Scene", "GetItems")
	if err != nil {
		return nil, err
	}
	return s.c.items(refs), nil
}

// ItemsInRange lists items from index from to index to inclusive. The
// range is clamped to the list.
func (s *Scene) ItemsInRange(ctx context.Context, from, to int) ([]*SceneItem, error) {
	refs, err := get[[]wire.ObjectRef](ctx, s.object, "Scene", "GetItemsInRange", from, to)
	if err != nil {
		return nil, err
	}
	return s.c.items(refs), nil
}

// Connect registers fn for sig. Callbacks run in registration order on the
// signal's own goroutine, never on the caller's.
func (s *Scene) Connect(ctx context.Context, sig wire.SceneSignal, fn func(SceneEvent)) (signal.Token, error) {
	name, ok := sig.Signal()
	if !ok {
		return signal.NilToken, errors.InvalidArgument(errors.PhaseCall, []string{"signal"}, "unknown scene signal")
	}
	if fn == nil {
		return signal.NilToken, errors.InvalidArgument(errors.PhaseCall, []string{"callback"}, "callback is nil")
	}
	if err := set(ctx, s.object, "Scene", "Connect"); err != nil {
		return signal.NilToken, err
	}
	return s.c.disp.Attach(s.Handle(), name, func(ev signal.Event) {
		out := SceneEvent{Signal: ev.Signal}
		if err := ev.Decode(&out.SceneSignalData); err != nil {
			Logger().Warn("bad scene event payload")
			return
		}
		fn(out)
	}), nil
}

// Disconnect removes a callback registered with Connect. Unknown tokens
// are ignored.
func (s *Scene) Disconnect(ctx context.Context, tok signal.Token) error {
	if !s.c.disp.Detach(tok) {
		return nil
	}
	if s.State() != Live {
		return nil
	}
	return set(ctx, s.object, "Scene", "Disconnect")
}

// SceneFactory creates and finds scenes.
type SceneFactory struct {
	s *Session
}

// Scenes returns the scene factory.
func (s *Session) Scenes() SceneFactory { return SceneFactory{s: s} }

func (f SceneFactory) Create(ctx context.Context, name string) (*Scene, error) {
	c, ref, err := callRef(ctx, f.s, "Scene", "Create", name)
	if err != nil {
		return nil, err
	}
	return c.scene(ref), nil
}

// CreatePrivate makes a scene hidden from FromName and PublicScenes.
func (f SceneFactory) CreatePrivate(ctx context.Context, name string) (*Scene, error) {
	c, ref, err := callRef(ctx, f.s, "Scene", "CreatePrivate", name)
	if err != nil {
		return nil, err
	}
	return c.scene(ref), nil
}

// FromName finds a public scene, or returns nil.
func (f SceneFactory) FromName(ctx context.Context, name string) (*Scene, error) {
	c, ref, err := callRef(ctx, f.s, "Scene", "FromName", name)
	if err != nil {
		return nil, err
	}
	return c.scene(ref), nil
}

func (f SceneFactory) PublicScenes(ctx context.Context) ([]*Scene, error) {
	c, refs, err := callRefs(ctx, f.s, "Scene", "GetPublicScenes")
	if err != nil {
		return nil, err
	}
	out := make([]*Scene, 0, len(refs))
	for _, r := range refs {
		if sc := c.scene(r); sc != nil {
			out = append(out, sc)
		}
	}
	return out, nil
}

// SceneItem places a source in a scene with its own transform. Releasing
// an item proxy never removes the item; use Remove for that.
type SceneItem struct {
	*object
	itemID int64
}

// ID returns the item id, unique within its scene and never reused.
func (it *SceneItem) ID() int64 { return it.itemID }

func (it *SceneItem) Source(ctx context.Context) (*Source, error) {
	ref, err := get[wire.ObjectRef](ctx, it.object, "SceneItem", "GetSource")
	if err != nil {
		return nil, err
	}
	return it.c.source(ref), nil
}

func (it *SceneItem) Scene(ctx context.Context) (*Scene, error) {
	ref, err := get[wire.ObjectRef](ctx, it.object, "SceneItem", "GetScene")
	if err != nil {
		return nil, err
	}
	return it.c.scene(ref), nil
}

func (it *SceneItem) Selected(ctx context.Context) (bool, error) {
	return get[bool](ctx, it.object, "SceneItem", "IsSelected")
}

func (it *SceneItem) SetSelected(ctx context.Context, v bool) error {
	return set(ctx, it.object, "SceneItem", "SetSelected", v)
}

func (it *SceneItem) Visible(ctx context.Context) (bool, error) {
	return get[bool](ctx, it.object, "SceneItem", "IsVisible")
}

func (it *SceneItem) SetVisible(ctx context.Context, v bool) error {
	return set(ctx, it.object, "SceneItem", "SetVisible", v)
}

func (it *SceneItem) Position(ctx context.Context) (wire.Vec2, error) {
	return get[wire.Vec2](ctx, it.object, "SceneItem", "GetPosition")
}

func (it *SceneItem) SetPosition(ctx context.Context, v wire.Vec2) error {
	return set(ctx, it.object, "SceneItem", "SetPosition", v)
}

// Rotation is in degrees.
func (it *SceneItem) Rotation(ctx context.Context) (float64, error) {
	return get[float64](ctx, it.object, "SceneItem", "GetRotation")
}

func (it *SceneItem) SetRotation(ctx context.Context, deg float64) error {
	return set(ctx, it.object, "SceneItem", "SetRotation", deg)
}

func (it *SceneItem) Scale(ctx context.Context) (wire.Vec2, error) {
	return get[wire.Vec2](ctx, it.object, "SceneItem", "GetScale")
}

func (it *SceneItem) SetScale(ctx context.Context, v wire.Vec2) error {
	return set(ctx, it.object, "SceneItem", "SetScale", v)
}

func (it *SceneItem) Alignment(ctx context.Context) (wire.Alignment, error) {
	return get[wire.Alignment](ctx, it.object, "SceneItem", "GetAlignment")
}

func (it *SceneItem) SetAlignment(ctx context.Context, a wire.Alignment) error {
	return set(ctx, it.object, "SceneItem", "SetAlignment", a)
}

func (it *SceneItem) BoundsAlignment(ctx context.Context) (uint32, error) {
	return get[uint32](ctx, it.object, "SceneItem", "GetBoundsAlignment")
}

func (it *SceneItem) SetBoundsAlignment(ctx context.Context, a uint32) error {
	return set(ctx, it.object, "SceneItem", "SetBoundsAlignment", a)
}

func (it *SceneItem) Bounds(ctx context.Context) (wire.Vec2, error) {
	return get[wire.Vec2](ctx, it.object, "SceneItem", "GetBounds")
}

func (it *SceneItem) SetBounds(ctx context.Context, v wire.Vec2) error {
	return set(ctx, it.object, "SceneItem", "SetBounds", v)
}

func (it *SceneItem) BoundsType(ctx context.Context) (wire.BoundsType, error) {
	return get[wire.BoundsType](ctx, it.object, "SceneItem", "GetBoundsType")
}

func (it *SceneItem) SetBoundsType(ctx context.Context, t wire.BoundsType) error {
	return set(ctx, it.object, "SceneItem", "SetBoundsType", t)
}

func (it *SceneItem) ScaleFilter(ctx context.Context) (wire.ScaleType, error) {
	return get[wire.ScaleType](ctx, it.object, "SceneItem", "GetScaleFilter")
}

func (it *SceneItem) SetScaleFilter(ctx context.Context, t wire.ScaleType) error {
	return set(ctx, it.object, "SceneItem", "SetScaleFilter", t)
}

func (it *SceneItem) Crop(ctx context.Context) (wire.CropInfo, error) {
	return get[wire.CropInfo](ctx, it.object, "SceneItem", "GetCrop")
}

func (it *SceneItem) SetCrop(ctx context.Context, c wire.CropInfo) error {
	return set(ctx, it.object, "SceneItem", "SetCrop", c)
}

// TransformInfo returns the whole transform in one round trip.
func (it *SceneItem) TransformInfo(ctx context.Context) (wire.TransformInfo, error) {
	return get[wire.TransformInfo](ctx, it.object, "SceneItem", "GetTransformInfo")
}

func (it *SceneItem) SetTransformInfo(ctx context.Context, tf wire.TransformInfo) error {
	return set(ctx, it.object, "SceneItem", "SetTransformInfo", tf)
}

// MoveUp moves the item one step toward the top.
func (it *SceneItem) MoveUp(ctx context.Context) error {
	return set(ctx, it.object, "SceneItem", "MoveUp")
}

func (it *SceneItem) MoveDown(ctx context.Context) error {
	return set(ctx, it.object, "SceneItem", "MoveDown")
}

func (it *SceneItem) MoveTop(ctx context.Context) error {
	return set(ctx, it.object, "SceneItem", "MoveTop")
}

func (it *SceneItem) MoveBottom(ctx context.Context) error {
	return set(ctx, it.object, "SceneItem", "MoveBottom")
}

// Move places the item at pos in Items order, clamped to the list.
func (it *SceneItem) Move(ctx context.Context, pos int) error {
	return set(ctx, it.object, "SceneItem", "Move", pos)
}

// Remove takes the item out of its scene and drops its source reference.
func (it *SceneItem) Remove(ctx context.Context) error {
	if _, err := get[wire.ReleaseResult](ctx, it.object, "SceneItem", "Remove"); err != nil {
		return err
	}
	it.drop()
	return nil
}

// DeferUpdateBegin holds item_transform signals until the matching
// DeferUpdateEnd. Calls nest.
func (it *SceneItem) DeferUpdateBegin(ctx context.Context) error {
	return set(ctx, it.object, "SceneItem", "DeferUpdateBegin")
}

func (it *SceneItem) DeferUpdateEnd(ctx context.Context) error {
	return set(ctx, it.object, "SceneItem", "DeferUpdateEnd")
}
