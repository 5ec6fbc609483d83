package host

import (
	"math"
	"time"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/ipc"
	"github.com/wippyai/obs-ipc/wire"
)

// meterChannels is the channel count reported for stereo sources.
const meterChannels = 2

func faderType(call *ipc.Call, i int) (wire.FaderType, error) {
	v, err := call.Args.Int(i)
	if err != nil {
		return 0, err
	}
	t := wire.FaderType(v)
	if t < wire.FaderCubic || t > wire.FaderLog {
		return 0, errors.InvalidArgument(errors.PhaseHost, []string{"type"}, "unknown fader type")
	}
	return t, nil
}

// audioSource resolves argument i as a source carrying audio.
func (e *Engine) audioSource(call *ipc.Call, i int) (*object, error) {
	src, err := e.arg(call, i, sourceKind)
	if err != nil {
		return nil, err
	}
	if !src.hasAudio() {
		return nil, errors.InvalidArgument(errors.PhaseHost, []string{"source"}, "source has no audio")
	}
	return src, nil
}

// setFaderDB moves the fader and the attached source's volume.
func (e *Engine) setFaderDB(tx *txn, o *object, db float64) {
	db = math.Max(minDB, math.Min(0, db))
	f := o.fader
	if f.source != nil {
		e.setVolume(tx, f.source, dbToMul(db))
		// setVolume rounds through the multiplier; keep the exact level.
		f.db = db
		return
	}
	f.db = db
	if f.callbacks > 0 {
		tx.emit(o.id, wire.SignalFader, wire.FaderData{DB: db})
	}
}

func (e *Engine) faderFuncs() map[string]ipc.Func {
	fader := func(h func(tx *txn, o *object, f *faderState, call *ipc.Call) (any, error)) ipc.Func {
		return e.on(only(wire.KindFader), func(tx *txn, o *object, call *ipc.Call) (any, error) {
			return h(tx, o, o.fader, call)
		})
	}
	return map[string]ipc.Func{
		"Create": e.fn(func(_ *txn, call *ipc.Call) (any, error) {
			t, err := faderType(call, 0)
			if err != nil {
				return nil, err
			}
			o := e.alloc(wire.KindFader, nil, "", true)
			o.fader = &faderState{typ: t}
			return o.ref(), nil
		}),
		"GetDeziBel": fader(func(_ *txn, _ *object, f *faderState, _ *ipc.Call) (any, error) {
			return f.db, nil
		}),
		"SetDeziBel": fader(func(tx *txn, o *object, _ *faderState, call *ipc.Call) (any, error) {
			db, err := call.Args.Float(1)
			if err != nil {
				return nil, err
			}
			e.setFaderDB(tx, o, db)
			return nil, nil
		}),
		"GetDeflection": fader(func(_ *txn, _ *object, f *faderState, _ *ipc.Call) (any, error) {
			return deflection(f.typ, f.db), nil
		}),
		"SetDeflection": fader(func(tx *txn, o *object, f *faderState, call *ipc.Call) (any, error) {
			v, err := call.Args.Float(1)
			if err != nil {
				return nil, err
			}
			e.setFaderDB(tx, o, fromDeflection(f.typ, v))
			return nil, nil
		}),
		"GetMultiplier": fader(func(_ *txn, _ *object, f *faderState, _ *ipc.Call) (any, error) {
			return dbToMul(f.db), nil
		}),
		"SetMultiplier": fader(func(tx *txn, o *object, _ *faderState, call *ipc.Call) (any, error) {
			v, err := call.Args.Float(1)
			if err != nil {
				return nil, err
			}
			if v < 0 {
				return nil, errors.InvalidArgument(errors.PhaseHost, []string{"multiplier"}, "multiplier must not be negative")
			}
			e.setFaderDB(tx, o, mulToDB(v))
			return nil, nil
		}),
		// Attach does not take a reference: a destroyed source detaches
		// itself.
		"Attach": fader(func(_ *txn, _ *object, f *faderState, call *ipc.Call) (any, error) {
			src, err := e.audioSource(call, 1)
			if err != nil {
				return nil, err
			}
			f.source = src
			f.db = mulToDB(src.volume)
			return nil, nil
		}),
		"Detach": fader(func(_ *txn, _ *object, f *faderState, _ *ipc.Call) (any, error) {
			f.source = nil
			return nil, nil
		}),
		"AddCallback": fader(func(_ *txn, _ *object, f *faderState, _ *ipc.Call) (any, error) {
			f.callbacks++
			return nil, nil
		}),
		"RemoveCallback": fader(func(_ *txn, _ *object, f *faderState, _ *ipc.Call) (any, error) {
			if f.callbacks > 0 {
				f.callbacks--
			}
			return nil, nil
		}),
	}
}

// levels returns the synthetic per channel level of src.
func levels(src *object) wire.VolmeterData {
	db := minDB
	if !src.muted && src.enabled {
		db = mulToDB(src.volume)
	}
	d := wire.VolmeterData{
		Level:     make([]float64, meterChannels),
		Magnitude: make([]float64, meterChannels),
		Peak:      make([]float64, meterChannels),
		Muted:     src.muted,
	}
	for i := range meterChannels {
		d.Level[i] = db
		d.Magnitude[i] = db
		d.Peak[i] = db
	}
	return d
}

// startMeter runs the update loop of a volmeter with callbacks. Must hold
// e.mu.
func (e *Engine) startMeter(o *object) {
	v := o.volmeter
	if v.stop != nil || e.closed {
		return
	}
	v.stop = make(chan struct{})
	interval := time.Duration(v.interval) * time.Millisecond
	e.wg.Add(1)
	go e.meter(o, v.stop, interval)
}

func (e *Engine) stopMeter(o *object) {
	if v := o.volmeter; v.stop != nil {
		close(v.stop)
		v.stop = nil
	}
}

func (e *Engine) meter(o *object, stop <-chan struct{}, interval time.Duration) {
	defer e.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		tx := &txn{e: e}
		e.mu.Lock()
		select {
		case <-stop:
			e.mu.Unlock()
			return
		default:
		}
		if src := o.volmeter.source; src != nil {
			tx.emit(o.id, wire.SignalVolmeter, levels(src))
		}
		em := e.emitter
		e.mu.Unlock()
		tx.flush(em)
	}
}

func (e *Engine) volmeterFuncs() map[string]ipc.Func {
	volmeter := func(h func(tx *txn, o *object, v *volmeterState, call *ipc.Call) (any, error)) ipc.Func {
		return e.on(only(wire.KindVolmeter), func(tx *txn, o *object, call *ipc.Call) (any, error) {
			return h(tx, o, o.volmeter, call)
		})
	}
	return map[string]ipc.Func{
		"Create": e.fn(func(_ *txn, call *ipc.Call) (any, error) {
			t, err := faderType(call, 0)
			if err != nil {
				return nil, err
			}
			o := e.alloc(wire.KindVolmeter, nil, "", true)
			o.volmeter = &volmeterState{
				typ:      t,
				interval: int(e.opts.VolmeterInterval / time.Millisecond),
			}
			return o.ref(), nil
		}),
		"Attach": volmeter(func(_ *txn, _ *object, v *volmeterState, call *ipc.Call) (any, error) {
			src, err := e.audioSource(call, 1)
			if err != nil {
				return nil, err
			}
			v.source = src
			return nil, nil
		}),
		"Detach": volmeter(func(_ *txn, _ *object, v *volmeterState, _ *ipc.Call) (any, error) {
			v.source = nil
			return nil, nil
		}),
		"GetPeakHold": volmeter(func(_ *txn, _ *object, v *volmeterState, _ *ipc.Call) (any, error) {
			return v.peakHold, nil
		}),
		"SetPeakHold": volmeter(func(_ *txn, _ *object, v *volmeterState, call *ipc.Call) (any, error) {
			n, err := call.Args.Int(1)
			if err != nil {
				return nil, err
			}
			if n < 0 {
				return nil, errors.InvalidArgument(errors.PhaseHost, []string{"peakHold"}, "peak hold must not be negative")
			}
			v.peakHold = n
			return nil, nil
		}),
		"GetUpdateInterval": volmeter(func(_ *txn, _ *object, v *volmeterState, _ *ipc.Call) (any, error) {
			return v.interval, nil
		}),
		"SetUpdateInterval": volmeter(func(_ *txn, o *object, v *volmeterState, call *ipc.Call) (any, error) {
			ms, err := call.Args.Int(1)
			if err != nil {
				return nil, err
			}
			if ms <= 0 {
				return nil, errors.InvalidArgument(errors.PhaseHost, []string{"interval"}, "interval must be positive")
			}
			v.interval = ms
			if v.stop != nil {
				e.stopMeter(o)
				e.startMeter(o)
			}
			return nil, nil
		}),
		"AddCallback": volmeter(func(_ *txn, o *object, v *volmeterState, _ *ipc.Call) (any, error) {
			v.callbacks++
			e.startMeter(o)
			return nil, nil
		}),
		"RemoveCallback": volmeter(func(_ *txn, o *object, v *volmeterState, _ *ipc.Call) (any, error) {
			if v.callbacks == 0 {
				return nil, nil
			}
			v.callbacks--
			if v.callbacks == 0 {
				e.stopMeter(o)
			}
			return nil, nil
		}),
	}
}
