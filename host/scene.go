package host

import (
	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/ipc"
	"github.com/wippyai/obs-ipc/wire"
)

func defaultTransform() wire.TransformInfo {
	return wire.TransformInfo{
		Scale:           wire.Vec2{X: 1, Y: 1},
		Alignment:       wire.AlignTopLeft,
		BoundsAlignment: uint32(wire.AlignCenter),
	}
}

func (e *Engine) createScene(private bool) ipc.Func {
	return e.fn(func(_ *txn, call *ipc.Call) (any, error) {
		name, err := call.Args.String(0)
		if err != nil {
			return nil, err
		}
		if err := e.claimName(name, private); err != nil {
			return nil, err
		}
		o := e.alloc(wire.KindScene, e.sceneType, name, private)
		o.scene = &sceneState{}
		return o.ref(), nil
	})
}

// contains reports whether scene shows target directly or through nested
// scenes.
func contains(scene, target *object) bool {
	if scene == target {
		return true
	}
	if scene.scene == nil {
		return false
	}
	for _, it := range scene.scene.items {
		if contains(it.item.source, target) {
			return true
		}
	}
	return false
}

// addItem places src on top of scene. The item takes a reference on src.
func (e *Engine) addItem(tx *txn, scene, src *object, tf *wire.TransformInfo) *object {
	scene.scene.nextItemID++
	it := e.alloc(wire.KindSceneItem, nil, "", true)
	it.item = &itemState{
		scene:     scene,
		source:    src,
		itemID:    scene.scene.nextItemID,
		visible:   true,
		transform: defaultTransform(),
	}
	if tf != nil {
		it.item.transform = *tf
	}
	e.addRef(src)
	scene.scene.items = append(scene.scene.items, it)
	e.sceneSignal(tx, it, wire.SignalItemAdd)
	return it
}

// unlinkItem detaches a dying item from its scene and drops its source
// reference.
func (e *Engine) unlinkItem(tx *txn, it *object) {
	scene := it.item.scene
	scene.scene.items = removeObject(scene.scene.items, it)
	e.sceneSignal(tx, it, wire.SignalItemRemove)
	e.unref(tx, it.item.source)
}

func (e *Engine) sceneSignal(tx *txn, it *object, sig wire.Signal) {
	scene := it.item.scene
	if scene.dead || scene.scene.signals == 0 {
		return
	}
	tx.emit(scene.id, sig, wire.SceneSignalData{
		Scene:  scene.id,
		Item:   it.id,
		ItemID: it.item.itemID,
		Source: it.item.source.id,
	})
}

func (e *Engine) reorderSignal(tx *txn, scene *object) {
	if scene.scene.signals == 0 {
		return
	}
	tx.emit(scene.id, wire.SignalReorder, wire.SceneSignalData{Scene: scene.id})
}

// transformChanged emits item_transform unless updates are deferred.
func (e *Engine) transformChanged(tx *txn, it *object) {
	if it.item.deferred > 0 {
		it.item.dirty = true
		return
	}
	e.sceneSignal(tx, it, wire.SignalItemTransform)
}

func (e *Engine) duplicateScene(tx *txn, src *object, name string, dup wire.SceneDupType) *object {
	o := e.alloc(wire.KindScene, e.sceneType, name, dup.Private())
	o.scene = &sceneState{}
	o.settings = src.settings.Clone()

	for _, it := range src.scene.items {
		source := it.item.source
		if dup.Copies() && source.kind == wire.KindInput {
			source = e.duplicateInput(source, source.name, true)
			// The new item holds the only reference.
			source.refs = 0
		}
		tf := it.item.transform
		n := e.addItem(tx, o, source, &tf)
		n.item.visible = it.item.visible
		n.item.crop = it.item.crop
		n.item.scaleFilter = it.item.scaleFilter
	}
	return o
}

func (e *Engine) findItem(scene *object, match func(*itemState) bool) wire.ObjectRef {
	for _, it := range scene.scene.items {
		if match(it.item) {
			return it.ref()
		}
	}
	return wire.ObjectRef{}
}

func (e *Engine) sceneFuncs() map[string]ipc.Func {
	scene := only(wire.KindScene)
	return map[string]ipc.Func{
		"Create":        e.createScene(false),
		"CreatePrivate": e.createScene(true),
		"FromName":      e.fromName(wire.KindScene),
		"GetPublicScenes": e.fn(func(*txn, *ipc.Call) (any, error) {
			return refs(e.publicOf(wire.KindScene)), nil
		}),
		"Duplicate": e.on(scene, func(tx *txn, o *object, call *ipc.Call) (any, error) {
			name, err := call.Args.String(1)
			if err != nil {
				return nil, err
			}
			dt, err := call.Args.Int(2)
			if err != nil {
				return nil, err
			}
			dup := wire.SceneDupType(dt)
			if dup < wire.DupRefs || dup > wire.DupPrivateCopy {
				return nil, errors.InvalidArgument(errors.PhaseHost, []string{"type"}, "unknown duplicate type")
			}
			if err := e.claimName(name, dup.Private()); err != nil {
				return nil, err
			}
			return e.duplicateScene(tx, o, name, dup).ref(), nil
		}),
		"AddSource": e.on(scene, func(tx *txn, o *object, call *ipc.Call) (any, error) {
			src, err := e.arg(call, 1, sourceKind)
			if err != nil {
				return nil, err
			}
			if src.kind == wire.KindFilter {
				return nil, errors.InvalidArgument(errors.PhaseHost, []string{"source"}, "filters cannot be placed in a scene")
			}
			if contains(src, o) {
				return nil, errors.InvalidArgument(errors.PhaseHost, []string{"source"}, "scene would contain itself")
			}
			var tf *wire.TransformInfo
			if call.Args.Has(2) {
				tf = new(wire.TransformInfo)
				if err := call.Args.Decode(2, tf); err != nil {
					return nil, err
				}
			}
			return e.addItem(tx, o, src, tf).ref(), nil
		}),
		"FindItemByName": e.on(scene, func(_ *txn, o *object, call *ipc.Call) (any, error) {
			name, err := call.Args.String(1)
			if err != nil {
				return nil, err
			}
			return e.findItem(o, func(it *itemState) bool { return it.source.name == name }), nil
		}),
		"FindItemById": e.on(scene, func(_ *txn, o *object, call *ipc.Call) (any, error) {
			id, err := call.Args.Int64(1)
			if err != nil {
				return nil, err
			}
			return e.findItem(o, func(it *itemState) bool { return it.itemID == id }), nil
		}),
		// MoveItem treats indices as positions in GetItems order. Out of
		// range indices leave the order unchanged.
		"MoveItem": e.on(scene, func(tx *txn, o *object, call *ipc.Call) (any, error) {
			from, err := call.Args.Int(1)
			if err != nil {
				return nil, err
			}
			to, err := call.Args.Int(2)
			if err != nil {
				return nil, err
			}
			items := o.scene.items
			if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
				return false, nil
			}
			moveTo(items, from, to)
			if from != to {
				e.reorderSignal(tx, o)
			}
			return true, nil
		}),
		"OrderItems": e.on(scene, func(tx *txn, o *object, call *ipc.Call) (any, error) {
			var ids []int64
			if err := call.Args.Decode(1, &ids); err != nil {
				return nil, err
			}
			if len(ids) != len(o.scene.items) {
				return nil, errors.InvalidArgument(errors.PhaseHost, []string{"order"}, "order must list every item once")
			}
			byID := make(map[int64]*object, len(ids))
			for _, it := range o.scene.items {
				byID[it.item.itemID] = it
			}
			next := make([]*object, 0, len(ids))
			for _, id := range ids {
				it, ok := byID[id]
				if !ok {
					return nil, errors.InvalidArgument(errors.PhaseHost, []string{"order"}, "order must list every item once")
				}
				delete(byID, id)
				next = append(next, it)
			}
			o.scene.items = next
			e.reorderSignal(tx, o)
			return nil, nil
		}),
		"GetItem": e.on(scene, func(_ *txn, o *object, call *ipc.Call) (any, error) {
			idx, err := call.Args.Int(1)
			if err != nil {
				return nil, err
			}
			if idx < 0 || idx >= len(o.scene.items) {
				return nil, errors.OutOfBounds(errors.PhaseHost, []string{"index"}, idx, len(o.scene.items))
			}
			return o.scene.items[idx].ref(), nil
		}),
		"GetItems": e.on(scene, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return refs(o.scene.items), nil
		}),
		"GetItemsInRange": e.on(scene, func(_ *txn, o *object, call *ipc.Call) (any, error) {
			from, err := call.Args.Int(1)
			if err != nil {
				return nil, err
			}
			to, err := call.Args.Int(2)
			if err != nil {
				return nil, err
			}
			from = max(0, from)
			to = min(len(o.scene.items)-1, to)
			if from > to {
				return []wire.ObjectRef{}, nil
			}
			return refs(o.scene.items[from : to+1]), nil
		}),
		"Connect": e.on(scene, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			o.scene.signals++
			return nil, nil
		}),
		"Disconnect": e.on(scene, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			if o.scene.signals > 0 {
				o.scene.signals--
			}
			return nil, nil
		}),
	}
}

// itemFunc adapts a function over item state.
func (e *Engine) itemFunc(h func(tx *txn, o *object, it *itemState, call *ipc.Call) (any, error)) ipc.Func {
	return e.on(only(wire.KindSceneItem), func(tx *txn, o *object, call *ipc.Call) (any, error) {
		return h(tx, o, o.item, call)
	})
}

func (e *Engine) sceneItemFuncs() map[string]ipc.Func {
	get := func(read func(it *itemState) any) ipc.Func {
		return e.itemFunc(func(_ *txn, _ *object, it *itemState, _ *ipc.Call) (any, error) {
			return read(it), nil
		})
	}
	// setTransform decodes argument 1 into the field write picks, then
	// reports the transform change.
	setTransform := func(write func(it *itemState, call *ipc.Call) error) ipc.Func {
		return e.itemFunc(func(tx *txn, o *object, it *itemState, call *ipc.Call) (any, error) {
			if err := write(it, call); err != nil {
				return nil, err
			}
			e.transformChanged(tx, o)
			return nil, nil
		})
	}
	move := func(m wire.OrderMovement) ipc.Func {
		return e.itemFunc(func(tx *txn, o *object, it *itemState, _ *ipc.Call) (any, error) {
			items := it.scene.scene.items
			i := indexOf(items, o)
			// Items are listed bottom to top: up is toward the end.
			var to int
			switch m {
			case wire.OrderUp:
				to = min(len(items)-1, i+1)
			case wire.OrderDown:
				to = max(0, i-1)
			case wire.OrderTop:
				to = len(items) - 1
			case wire.OrderBottom:
				to = 0
			}
			if to != i {
				moveTo(items, i, to)
				e.reorderSignal(tx, it.scene)
			}
			return nil, nil
		})
	}

	return map[string]ipc.Func{
		"GetSource": get(func(it *itemState) any { return it.source.ref() }),
		"GetScene":  get(func(it *itemState) any { return it.scene.ref() }),
		"GetId":     get(func(it *itemState) any { return it.itemID }),
		"IsSelected": get(func(it *itemState) any { return it.selected }),
		"SetSelected": e.itemFunc(func(tx *txn, o *object, it *itemState, call *ipc.Call) (any, error) {
			v, err := call.Args.Bool(1)
			if err != nil {
				return nil, err
			}
			if v == it.selected {
				return nil, nil
			}
			it.selected = v
			if v {
				e.sceneSignal(tx, o, wire.SignalItemSelect)
			} else {
				e.sceneSignal(tx, o, wire.SignalItemDeselect)
			}
			return nil, nil
		}),
		"IsVisible": get(func(it *itemState) any { return it.visible }),
		"SetVisible": e.itemFunc(func(tx *txn, o *object, it *itemState, call *ipc.Call) (any, error) {
			v, err := call.Args.Bool(1)
			if err != nil {
				return nil, err
			}
			if v != it.visible {
				it.visible = v
				e.sceneSignal(tx, o, wire.SignalItemVisible)
			}
			return nil, nil
		}),
		"GetPosition": get(func(it *itemState) any { return it.transform.Pos }),
		"SetPosition": setTransform(func(it *itemState, call *ipc.Call) error {
			return call.Args.Decode(1, &it.transform.Pos)
		}),
		"GetRotation": get(func(it *itemState) any { return it.transform.Rot }),
		"SetRotation": setTransform(func(it *itemState, call *ipc.Call) error {
			return call.Args.Decode(1, &it.transform.Rot)
		}),
		"GetScale": get(func(it *itemState) any { return it.transform.Scale }),
		"SetScale": setTransform(func(it *itemState, call *ipc.Call) error {
			return call.Args.Decode(1, &it.transform.Scale)
		}),
		"GetAlignment": get(func(it *itemState) any { return it.transform.Alignment }),
		"SetAlignment": setTransform(func(it *itemState, call *ipc.Call) error {
			return call.Args.Decode(1, &it.transform.Alignment)
		}),
		"GetBoundsAlignment": get(func(it *itemState) any { return it.transform.BoundsAlignment }),
		"SetBoundsAlignment": setTransform(func(it *itemState, call *ipc.Call) error {
			return call.Args.Decode(1, &it.transform.BoundsAlignment)
		}),
		"GetBounds": get(func(it *itemState) any { return it.transform.Bounds }),
		"SetBounds": setTransform(func(it *itemState, call *ipc.Call) error {
			return call.Args.Decode(1, &it.transform.Bounds)
		}),
		"GetBoundsType": get(func(it *itemState) any { return it.transform.BoundsType }),
		"SetBoundsType": setTransform(func(it *itemState, call *ipc.Call) error {
			var v wire.BoundsType
			if err := call.Args.Decode(1, &v); err != nil {
				return err
			}
			if v < wire.BoundsNone || v > wire.BoundsMaxOnly {
				return errors.InvalidArgument(errors.PhaseHost, []string{"boundsType"}, "unknown bounds type")
			}
			it.transform.BoundsType = v
			return nil
		}),
		"GetScaleFilter": get(func(it *itemState) any { return it.scaleFilter }),
		"SetScaleFilter": setTransform(func(it *itemState, call *ipc.Call) error {
			return call.Args.Decode(1, &it.scaleFilter)
		}),
		"GetCrop": get(func(it *itemState) any { return it.crop }),
		"SetCrop": setTransform(func(it *itemState, call *ipc.Call) error {
			return call.Args.Decode(1, &it.crop)
		}),
		"GetTransformInfo": get(func(it *itemState) any { return it.transform }),
		"SetTransformInfo": setTransform(func(it *itemState, call *ipc.Call) error {
			return call.Args.Decode(1, &it.transform)
		}),
		"MoveUp":     move(wire.OrderUp),
		"MoveDown":   move(wire.OrderDown),
		"MoveTop":    move(wire.OrderTop),
		"MoveBottom": move(wire.OrderBottom),
		"Move": e.itemFunc(func(tx *txn, o *object, it *itemState, call *ipc.Call) (any, error) {
			pos, err := call.Args.Int(1)
			if err != nil {
				return nil, err
			}
			items := it.scene.scene.items
			i := indexOf(items, o)
			to := max(0, min(len(items)-1, pos))
			if to != i {
				moveTo(items, i, to)
				e.reorderSignal(tx, it.scene)
			}
			return nil, nil
		}),
		"Remove": e.itemFunc(func(tx *txn, o *object, _ *itemState, _ *ipc.Call) (any, error) {
			e.destroy(tx, o)
			return releaseResult(o), nil
		}),
		"DeferUpdateBegin": e.itemFunc(func(_ *txn, _ *object, it *itemState, _ *ipc.Call) (any, error) {
			it.deferred++
			return nil, nil
		}),
		"DeferUpdateEnd": e.itemFunc(func(tx *txn, o *object, it *itemState, _ *ipc.Call) (any, error) {
			if it.deferred == 0 {
				return nil, nil
			}
			it.deferred--
			if it.deferred == 0 && it.dirty {
				it.dirty = false
				e.sceneSignal(tx, o, wire.SignalItemTransform)
			}
			return nil, nil
		}),
	}
}
