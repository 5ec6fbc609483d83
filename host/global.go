package host

import (
	"go.uber.org/zap"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/ipc"
	"github.com/wippyai/obs-ipc/wire"
)

func channelArg(call *ipc.Call) (int, error) {
	ch, err := call.Args.Int(0)
	if err != nil {
		return 0, err
	}
	if ch < 0 || ch >= Channels {
		return 0, errors.OutOfBounds(errors.PhaseHost, []string{"channel"}, ch, Channels)
	}
	return ch, nil
}

// shutdown destroys every object. Must hold e.mu.
func (e *Engine) shutdown(tx *txn) {
	for i, c := range e.channels {
		e.channels[i] = nil
		e.unref(tx, c)
	}
	for _, o := range e.snapshot() {
		e.destroy(tx, o)
	}
	e.modulePaths = nil
	e.initialized = false
}

// typeFlags looks up the output flags of a source type id.
func (e *Engine) typeFlags(id string) (wire.OutputFlags, bool) {
	if id == e.sceneType.id {
		return e.sceneType.flags, true
	}
	for _, cat := range []*catalog{e.inputs, e.filters, e.transitions} {
		if t, ok := cat.lookup(id); ok {
			return t.flags, true
		}
	}
	return 0, false
}

func (e *Engine) globalFuncs() map[string]ipc.Func {
	return map[string]ipc.Func{
		"Startup": e.fn(func(_ *txn, call *ipc.Call) (any, error) {
			locale, err := call.Args.String(0)
			if err != nil {
				return nil, err
			}
			dataPath, _ := call.Args.String(1)
			if e.initialized {
				return nil, errors.InvalidArgument(errors.PhaseHost, nil, "engine already started")
			}
			if locale != "" {
				e.locale = locale
			}
			e.dataPath = dataPath
			e.initialized = true
			Logger().Info("engine started", zap.String("locale", e.locale), zap.String("data", dataPath))
			return true, nil
		}),
		"Shutdown": e.fn(func(tx *txn, _ *ipc.Call) (any, error) {
			e.shutdown(tx)
			Logger().Info("engine shut down", zap.Int("destroyed", len(tx.events)))
			return nil, nil
		}),
		"GetInfo": e.fn(func(*txn, *ipc.Call) (any, error) {
			return wire.GlobalInfo{
				Initialized: e.initialized,
				Locale:      e.locale,
				DataPath:    e.dataPath,
				Version:     Version,
			}, nil
		}),
		"GetLocale": e.fn(func(*txn, *ipc.Call) (any, error) {
			return e.locale, nil
		}),
		"SetLocale": e.fn(func(_ *txn, call *ipc.Call) (any, error) {
			locale, err := call.Args.String(0)
			if err != nil {
				return nil, err
			}
			if locale == "" {
				return nil, errors.InvalidArgument(errors.PhaseHost, []string{"locale"}, "locale cannot be empty")
			}
			e.locale = locale
			return nil, nil
		}),
		// SetOutputSource(channel, source|0). The channel holds a reference.
		"SetOutputSource": e.fn(func(tx *txn, call *ipc.Call) (any, error) {
			ch, err := channelArg(call)
			if err != nil {
				return nil, err
			}
			src, err := e.optArg(call, 1, sourceKind)
			if err != nil {
				return nil, err
			}
			if src != nil && src.kind == wire.KindFilter {
				return nil, errors.InvalidArgument(errors.PhaseHost, []string{"source"}, "filters cannot feed a channel")
			}
			e.swap(tx, &e.channels[ch], src)
			return nil, nil
		}),
		"GetOutputSource": e.fn(func(_ *txn, call *ipc.Call) (any, error) {
			ch, err := channelArg(call)
			if err != nil {
				return nil, err
			}
			return e.channels[ch].ref(), nil
		}),
		"GetOutputFlagsFromId": e.fn(func(_ *txn, call *ipc.Call) (any, error) {
			id, err := call.Args.String(0)
			if err != nil {
				return nil, err
			}
			flags, ok := e.typeFlags(id)
			if !ok {
				return nil, errors.InvalidType(errors.PhaseHost, call.Class, id)
			}
			return flags, nil
		}),
	}
}

func (e *Engine) propertiesFuncs() map[string]ipc.Func {
	return map[string]ipc.Func{
		"Get": e.on(anyKind, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.properties(), nil
		}),
		// ButtonClicked(handle, property) reports whether the property list
		// changed as a result.
		"ButtonClicked": e.on(sourceKind, func(_ *txn, o *object, call *ipc.Call) (any, error) {
			name, err := call.Args.String(1)
			if err != nil {
				return nil, err
			}
			for _, p := range o.properties() {
				if p.Name != name {
					continue
				}
				if p.Type != wire.PropertyButton {
					return nil, errors.InvalidArgument(errors.PhaseHost, []string{"property", name}, "property is not a button")
				}
				Logger().Debug("button clicked", zap.Uint64("handle", o.id), zap.String("property", name))
				if o.typeID() == "dshow_input" && name == "activate" {
					active, _ := o.settings["active"].(bool)
					o.settings["active"] = !active
					return true, nil
				}
				return false, nil
			}
			return nil, errors.NotFound(errors.PhaseHost, "property", name)
		}),
	}
}
