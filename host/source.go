package host

import (
	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/ipc"
	"github.com/wippyai/obs-ipc/wire"
)

// createSource handles Create and CreatePrivate for source factories:
// (typeID, name, settings?, hotkeys?).
func (e *Engine) createSource(kind wire.Kind, cat *catalog, private bool) ipc.Func {
	return e.fn(func(_ *txn, call *ipc.Call) (any, error) {
		typeID, err := call.Args.String(0)
		if err != nil {
			return nil, err
		}
		typ, ok := cat.lookup(typeID)
		if !ok {
			return nil, errors.InvalidType(errors.PhaseHost, call.Class, typeID)
		}
		name, err := call.Args.String(1)
		if err != nil {
			return nil, err
		}
		settings, err := call.Args.Settings(2)
		if err != nil {
			return nil, err
		}
		if err := validateSettings(typ, settings); err != nil {
			return nil, err
		}
		if kind != wire.KindFilter {
			if err := e.claimName(name, private); err != nil {
				return nil, err
			}
		}

		o := e.alloc(kind, typ, name, private)
		o.settings = o.settings.Merge(settings)
		if kind == wire.KindTransition {
			o.transition = &transitionState{}
		}
		return o.ref(), nil
	})
}

// fromName finds a public source of kind by name. A miss returns an empty
// reference rather than an error.
func (e *Engine) fromName(kind wire.Kind) ipc.Func {
	return e.fn(func(_ *txn, call *ipc.Call) (any, error) {
		name, err := call.Args.String(0)
		if err != nil {
			return nil, err
		}
		o, ok := e.names[name]
		if !ok || o.kind != kind {
			return wire.ObjectRef{}, nil
		}
		return o.ref(), nil
	})
}

func (e *Engine) publicOf(kind wire.Kind) []*object {
	var out []*object
	for _, o := range e.snapshot() {
		if o.kind == kind && public(o) {
			out = append(out, o)
		}
	}
	return out
}

// showing reports whether target is reachable from an output channel
// through visible items and active transitions.
func (e *Engine) showing(target *object) bool {
	seen := make(map[*object]bool)
	var visit func(o *object) bool
	visit = func(o *object) bool {
		if o == nil || seen[o] {
			return false
		}
		seen[o] = true
		if o == target {
			return true
		}
		if o.scene != nil {
			for _, it := range o.scene.items {
				if it.item.visible && visit(it.item.source) {
					return true
				}
			}
		}
		if o.transition != nil {
			return visit(o.transition.active)
		}
		return false
	}
	for _, c := range e.channels {
		if visit(c) {
			return true
		}
	}
	return false
}

func (e *Engine) sourceFuncs() map[string]ipc.Func {
	return map[string]ipc.Func{
		"GetType": e.on(sourceKind, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.kind.SourceType(), nil
		}),
		"GetOutputFlags": e.on(sourceKind, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.outputFlags(), nil
		}),
		"GetFlags": e.on(sourceKind, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.flags, nil
		}),
		"SetFlags": e.on(sourceKind, func(_ *txn, o *object, call *ipc.Call) (any, error) {
			v, err := call.Args.Uint64(1)
			if err != nil {
				return nil, err
			}
			o.flags = uint32(v)
			return nil, nil
		}),
		"GetMuted": e.on(sourceKind, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.muted, nil
		}),
		"SetMuted": e.on(sourceKind, func(_ *txn, o *object, call *ipc.Call) (any, error) {
			v, err := call.Args.Bool(1)
			if err != nil {
				return nil, err
			}
			o.muted = v
			return nil, nil
		}),
		"GetEnabled": e.on(sourceKind, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.enabled, nil
		}),
		"SetEnabled": e.on(sourceKind, func(_ *txn, o *object, call *ipc.Call) (any, error) {
			v, err := call.Args.Bool(1)
			if err != nil {
				return nil, err
			}
			o.enabled = v
			return nil, nil
		}),
	}
}

func (e *Engine) inputFuncs() map[string]ipc.Func {
	input := only(wire.KindInput)
	return map[string]ipc.Func{
		"Types": e.fn(func(*txn, *ipc.Call) (any, error) {
			return e.inputs.ids(), nil
		}),
		"Create":        e.createSource(wire.KindInput, e.inputs, false),
		"CreatePrivate": e.createSource(wire.KindInput, e.inputs, true),
		"FromName":      e.fromName(wire.KindInput),
		"GetPublicSources": e.fn(func(*txn, *ipc.Call) (any, error) {
			return refs(e.publicOf(wire.KindInput)), nil
		}),
		"Duplicate": e.on(input, func(_ *txn, o *object, call *ipc.Call) (any, error) {
			name, err := call.Args.String(1)
			if err != nil && call.Args.Has(1) {
				return nil, err
			}
			private, _ := call.Args.Bool(2)
			if name == "" {
				name = e.uniqueName(o.name)
			}
			if err := e.claimName(name, private); err != nil {
				return nil, err
			}
			return e.duplicateInput(o, name, private).ref(), nil
		}),
		"GetVolume": e.on(input, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.volume, nil
		}),
		"SetVolume": e.on(input, func(tx *txn, o *object, call *ipc.Call) (any, error) {
			v, err := call.Args.Float(1)
			if err != nil {
				return nil, err
			}
			if v < 0 {
				return nil, errors.InvalidArgument(errors.PhaseHost, []string{"volume"}, "volume cannot be negative")
			}
			e.setVolume(tx, o, v)
			return nil, nil
		}),
		"GetSyncOffset": e.on(input, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.syncOffset, nil
		}),
		"SetSyncOffset": e.on(input, func(_ *txn, o *object, call *ipc.Call) (any, error) {
			v, err := call.Args.Int64(1)
			if err != nil {
				return nil, err
			}
			o.syncOffset = v
			return nil, nil
		}),
		"GetShowing": e.on(input, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return e.showing(o), nil
		}),
		"GetActive": e.on(input, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return e.showing(o), nil
		}),
		"GetAudioMixers": e.on(input, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.mixers, nil
		}),
		"SetAudioMixers": e.on(input, func(_ *txn, o *object, call *ipc.Call) (any, error) {
			v, err := call.Args.Uint64(1)
			if err != nil {
				return nil, err
			}
			o.mixers = uint32(v)
			return nil, nil
		}),
		"GetMonitoringType": e.on(input, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.monitoring, nil
		}),
		"SetMonitoringType": e.on(input, func(_ *txn, o *object, call *ipc.Call) (any, error) {
			v, err := call.Args.Int(1)
			if err != nil {
				return nil, err
			}
			if v < int(wire.MonitoringNone) || v > int(wire.MonitoringAndOutput) {
				return nil, errors.InvalidArgument(errors.PhaseHost, []string{"monitoringType"}, "unknown monitoring type")
			}
			o.monitoring = wire.MonitoringType(v)
			return nil, nil
		}),
		"GetDeInterlaceFieldOrder": e.on(input, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.fieldOrder, nil
		}),
		"SetDeInterlaceFieldOrder": e.on(input, func(_ *txn, o *object, call *ipc.Call) (any, error) {
			v, err := call.Args.Int(1)
			if err != nil {
				return nil, err
			}
			o.fieldOrder = wire.DeinterlaceFieldOrder(v)
			return nil, nil
		}),
		"GetDeInterlaceMode": e.on(input, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.deinterlace, nil
		}),
		"SetDeInterlaceMode": e.on(input, func(_ *txn, o *object, call *ipc.Call) (any, error) {
			v, err := call.Args.Int(1)
			if err != nil {
				return nil, err
			}
			if v < int(wire.DeinterlaceDisable) || v > int(wire.DeinterlaceYadif2X) {
				return nil, errors.InvalidArgument(errors.PhaseHost, []string{"deinterlaceMode"}, "unknown deinterlace mode")
			}
			o.deinterlace = wire.DeinterlaceMode(v)
			return nil, nil
		}),
		"GetWidth": e.on(input, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.width(), nil
		}),
		"GetHeight": e.on(input, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.height(), nil
		}),
		"GetFilters": e.on(sourceKind, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return refs(o.filters), nil
		}),
		"AddFilter": e.on(sourceKind, func(_ *txn, o *object, call *ipc.Call) (any, error) {
			f, err := e.arg(call, 1, only(wire.KindFilter))
			if err != nil {
				return nil, err
			}
			if f.parent != nil {
				return nil, errors.InvalidArgument(errors.PhaseHost, []string{"filter"}, "filter is already attached")
			}
			e.addRef(f)
			f.parent = o
			o.filters = append(o.filters, f)
			return nil, nil
		}),
		"RemoveFilter": e.on(sourceKind, func(tx *txn, o *object, call *ipc.Call) (any, error) {
			f, err := e.arg(call, 1, only(wire.KindFilter))
			if err != nil {
				return nil, err
			}
			if f.parent != o {
				return nil, errors.NotFound(errors.PhaseHost, "filter", f.name)
			}
			o.filters = removeObject(o.filters, f)
			f.parent = nil
			e.unref(tx, f)
			return nil, nil
		}),
		"FindFilter": e.on(sourceKind, func(_ *txn, o *object, call *ipc.Call) (any, error) {
			name, err := call.Args.String(1)
			if err != nil {
				return nil, err
			}
			for _, f := range o.filters {
				if f.name == name {
					return f.ref(), nil
				}
			}
			return wire.ObjectRef{}, nil
		}),
		"SetFilterOrder": e.on(sourceKind, func(_ *txn, o *object, call *ipc.Call) (any, error) {
			f, err := e.arg(call, 1, only(wire.KindFilter))
			if err != nil {
				return nil, err
			}
			m, err := call.Args.Int(2)
			if err != nil {
				return nil, err
			}
			i := indexOf(o.filters, f)
			if i < 0 {
				return nil, errors.NotFound(errors.PhaseHost, "filter", f.name)
			}
			to, err := orderTarget(i, len(o.filters), wire.OrderMovement(m))
			if err != nil {
				return nil, err
			}
			moveTo(o.filters, i, to)
			return nil, nil
		}),
	}
}

func (e *Engine) filterFuncs() map[string]ipc.Func {
	return map[string]ipc.Func{
		"Types": e.fn(func(*txn, *ipc.Call) (any, error) {
			return e.filters.ids(), nil
		}),
		"Create": e.createSource(wire.KindFilter, e.filters, true),
		"GetParent": e.on(only(wire.KindFilter), func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.parent.ref(), nil
		}),
	}
}

// duplicateInput copies configuration and filters, not scene placement.
func (e *Engine) duplicateInput(src *object, name string, private bool) *object {
	o := e.alloc(src.kind, src.typ, name, private)
	o.settings = src.settings.Clone()
	o.flags = src.flags
	o.volume = src.volume
	o.muted = src.muted
	o.enabled = src.enabled
	o.syncOffset = src.syncOffset
	o.mixers = src.mixers
	o.monitoring = src.monitoring
	o.fieldOrder = src.fieldOrder
	o.deinterlace = src.deinterlace

	for _, f := range src.filters {
		cp := e.alloc(wire.KindFilter, f.typ, f.name, true)
		cp.settings = f.settings.Clone()
		cp.enabled = f.enabled
		cp.parent = o
		// The chain holds the only reference.
		o.filters = append(o.filters, cp)
	}
	return o
}

func (e *Engine) setVolume(tx *txn, o *object, v float64) {
	o.volume = v
	db := mulToDB(v)
	for _, f := range e.snapshot() {
		if f.fader != nil && f.fader.source == o {
			f.fader.db = db
			if f.fader.callbacks > 0 {
				tx.emit(f.id, wire.SignalFader, wire.FaderData{DB: db})
			}
		}
	}
}

// orderTarget resolves a movement from index i in a chain of n, clamped to
// the chain's ends.
func orderTarget(i, n int, m wire.OrderMovement) (int, error) {
	var to int
	switch m {
	case wire.OrderUp:
		to = i - 1
	case wire.OrderDown:
		to = i + 1
	case wire.OrderTop:
		to = 0
	case wire.OrderBottom:
		to = n - 1
	default:
		return 0, errors.InvalidArgument(errors.PhaseHost, []string{"movement"}, "unknown movement")
	}
	return max(0, min(n-1, to)), nil
}

// moveTo moves list[from] to index to, shifting the elements between by one.
func moveTo(list []*object, from, to int) {
	if from == to {
		return
	}
	o := list[from]
	if from < to {
		copy(list[from:to], list[from+1:to+1])
	} else {
		copy(list[to+1:from+1], list[to:from])
	}
	list[to] = o
}
