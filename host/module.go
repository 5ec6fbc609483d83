package host

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/ipc"
	"github.com/wippyai/obs-ipc/wire"
)

// modulePath is a search location registered with Module.AddPath.
type modulePath struct {
	bin  string
	data string
}

var moduleExts = map[string]bool{".so": true, ".dll": true, ".dylib": true}

// openModule registers the plugin binary at bin. Must hold e.mu.
func (e *Engine) openModule(bin, data string) (*object, error) {
	if _, err := os.Stat(bin); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(errors.PhaseHost, "module", bin)
		}
		return nil, errors.Wrap(errors.PhaseHost, errors.KindRemote, err, "stat module")
	}
	file := filepath.Base(bin)
	name := strings.TrimSuffix(file, filepath.Ext(file))
	o := e.alloc(wire.KindModule, nil, name, true)
	o.module = &moduleState{info: wire.ModuleInfo{
		FileName: file,
		Name:     name,
		BinPath:  bin,
		DataPath: data,
	}}
	return o, nil
}

func (e *Engine) loaded(bin string) bool {
	for _, o := range e.objects {
		if o.module != nil && o.module.info.BinPath == bin {
			return true
		}
	}
	return false
}

// loadAll opens every plugin found in the registered paths that is not
// already open.
func (e *Engine) loadAll() []*object {
	var out []*object
	for _, p := range e.modulePaths {
		entries, err := os.ReadDir(p.bin)
		if err != nil {
			Logger().Warn("module path unreadable", zap.String("path", p.bin), zap.Error(err))
			continue
		}
		for _, ent := range entries {
			if ent.IsDir() || !moduleExts[filepath.Ext(ent.Name())] {
				continue
			}
			bin := filepath.Join(p.bin, ent.Name())
			if e.loaded(bin) {
				continue
			}
			stem := strings.TrimSuffix(ent.Name(), filepath.Ext(ent.Name()))
			o, err := e.openModule(bin, strings.ReplaceAll(p.data, "%module%", stem))
			if err != nil {
				Logger().Warn("module open failed", zap.String("path", bin), zap.Error(err))
				continue
			}
			out = append(out, o)
		}
	}
	return out
}

func (e *Engine) modules() []*object {
	var out []*object
	for _, o := range e.snapshot() {
		if o.module != nil {
			out = append(out, o)
		}
	}
	return out
}

func (e *Engine) moduleFuncs() map[string]ipc.Func {
	module := only(wire.KindModule)
	return map[string]ipc.Func{
		"Open": e.fn(func(_ *txn, call *ipc.Call) (any, error) {
			bin, err := call.Args.String(0)
			if err != nil {
				return nil, err
			}
			data, err := call.Args.String(1)
			if err != nil {
				return nil, err
			}
			o, err := e.openModule(bin, data)
			if err != nil {
				return nil, err
			}
			return o.ref(), nil
		}),
		"Modules": e.fn(func(*txn, *ipc.Call) (any, error) {
			return refs(e.modules()), nil
		}),
		"AddPath": e.fn(func(_ *txn, call *ipc.Call) (any, error) {
			bin, err := call.Args.String(0)
			if err != nil {
				return nil, err
			}
			data, err := call.Args.String(1)
			if err != nil {
				return nil, err
			}
			e.modulePaths = append(e.modulePaths, modulePath{bin: bin, data: data})
			return nil, nil
		}),
		"LoadAll": e.fn(func(*txn, *ipc.Call) (any, error) {
			return refs(e.loadAll()), nil
		}),
		"LogLoaded": e.fn(func(*txn, *ipc.Call) (any, error) {
			mods := e.modules()
			Logger().Info("loaded modules", zap.Int("count", len(mods)))
			for _, o := range mods {
				Logger().Info("module",
					zap.String("file", o.module.info.FileName),
					zap.Bool("initialized", o.module.info.Initialized))
			}
			return nil, nil
		}),
		"Initialize": e.on(module, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			if o.module.info.Initialized {
				return false, nil
			}
			o.module.info.Initialized = true
			return true, nil
		}),
		"GetInfo": e.on(module, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.module.info, nil
		}),
	}
}

func (e *Engine) displayFuncs() map[string]ipc.Func {
	display := func(h func(o *object, d *displayState, call *ipc.Call) (any, error)) ipc.Func {
		return e.on(only(wire.KindDisplay), func(_ *txn, o *object, call *ipc.Call) (any, error) {
			return h(o, o.display, call)
		})
	}
	drawer := func(call *ipc.Call) (string, error) {
		name, err := call.Args.String(1)
		if err == nil && name == "" {
			err = errors.InvalidArgument(errors.PhaseHost, []string{"drawer"}, "drawer name cannot be empty")
		}
		return name, err
	}

	return map[string]ipc.Func{
		// Create(name, init)
		"Create": e.fn(func(_ *txn, call *ipc.Call) (any, error) {
			name, err := call.Args.String(0)
			if err != nil {
				return nil, err
			}
			var init wire.DisplayInit
			if call.Args.Has(1) {
				if err := call.Args.Decode(1, &init); err != nil {
					return nil, err
				}
			}
			if init.Width == 0 || init.Height == 0 {
				init.Width, init.Height = 1920, 1080
			}
			o := e.alloc(wire.KindDisplay, nil, name, true)
			o.display = &displayState{init: init}
			return o.ref(), nil
		}),
		"Destroy": e.on(only(wire.KindDisplay), func(tx *txn, o *object, _ *ipc.Call) (any, error) {
			e.destroy(tx, o)
			return releaseResult(o), nil
		}),
		"AddDrawer": display(func(_ *object, d *displayState, call *ipc.Call) (any, error) {
			name, err := drawer(call)
			if err != nil {
				return nil, err
			}
			for _, x := range d.drawers {
				if x == name {
					return nil, nil
				}
			}
			d.drawers = append(d.drawers, name)
			return nil, nil
		}),
		"RemoveDrawer": display(func(_ *object, d *displayState, call *ipc.Call) (any, error) {
			name, err := drawer(call)
			if err != nil {
				return nil, err
			}
			for i, x := range d.drawers {
				if x == name {
					d.drawers = append(d.drawers[:i], d.drawers[i+1:]...)
					return nil, nil
				}
			}
			return nil, errors.NotFound(errors.PhaseHost, "drawer", name)
		}),
		"GetDrawers": display(func(_ *object, d *displayState, _ *ipc.Call) (any, error) {
			return append([]string{}, d.drawers...), nil
		}),
		"GetEnabled": display(func(o *object, _ *displayState, _ *ipc.Call) (any, error) {
			return o.enabled, nil
		}),
		"SetEnabled": display(func(o *object, _ *displayState, call *ipc.Call) (any, error) {
			v, err := call.Args.Bool(1)
			if err != nil {
				return nil, err
			}
			o.enabled = v
			return nil, nil
		}),
		"GetSize": display(func(_ *object, d *displayState, _ *ipc.Call) (any, error) {
			return wire.Vec2{X: float64(d.init.Width), Y: float64(d.init.Height)}, nil
		}),
	}
}
