package host

import (
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/obs-ipc/ipc"
	"github.com/wippyai/obs-ipc/wire"
)

// setActive makes src the shown source of transition o, cancelling any
// transition in flight.
func (e *Engine) setActive(tx *txn, o *object, src *object) {
	t := o.transition
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
	if p := t.pending; p != nil {
		t.pending = nil
		e.unref(tx, p)
	}
	e.addRef(src)
	old := t.active
	t.active = src
	e.unref(tx, old)
}

// finish completes the transition started as generation gen.
func (e *Engine) finish(o *object, gen uint64) {
	tx := &txn{e: e}
	e.mu.Lock()
	t := o.transition
	if o.dead || e.closed || t.gen != gen || t.pending == nil {
		e.mu.Unlock()
		return
	}
	t.timer = nil
	old := t.active
	t.active = t.pending
	t.pending = nil
	e.unref(tx, old)
	tx.emit(o.id, wire.SignalTransitionStop, o.ref())
	active := t.active.id
	em := e.emitter
	e.mu.Unlock()

	Logger().Debug("transition finished", zap.Uint64("handle", o.id), zap.Uint64("active", active))
	tx.flush(em)
}

func (e *Engine) transitionFuncs() map[string]ipc.Func {
	transition := only(wire.KindTransition)
	return map[string]ipc.Func{
		"Types": e.fn(func(*txn, *ipc.Call) (any, error) {
			return e.transitions.ids(), nil
		}),
		"Create":        e.createSource(wire.KindTransition, e.transitions, false),
		"CreatePrivate": e.createSource(wire.KindTransition, e.transitions, true),
		"FromName":      e.fromName(wire.KindTransition),
		"GetActiveSource": e.on(transition, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.transition.active.ref(), nil
		}),
		"Clear": e.on(transition, func(tx *txn, o *object, _ *ipc.Call) (any, error) {
			t := o.transition
			if t.timer != nil {
				t.timer.Stop()
				t.timer = nil
			}
			t.gen++
			if p := t.pending; p != nil {
				t.pending = nil
				e.unref(tx, p)
			}
			if a := t.active; a != nil {
				t.active = nil
				e.unref(tx, a)
			}
			return nil, nil
		}),
		"Set": e.on(transition, func(tx *txn, o *object, call *ipc.Call) (any, error) {
			src, err := e.arg(call, 1, sourceKind)
			if err != nil {
				return nil, err
			}
			e.setActive(tx, o, src)
			return nil, nil
		}),
		// Start(handle, ms, source) moves to source over ms milliseconds.
		// Cut transitions and non-positive durations switch at once.
		"Start": e.on(transition, func(tx *txn, o *object, call *ipc.Call) (any, error) {
			ms, err := call.Args.Int(1)
			if err != nil {
				return nil, err
			}
			src, err := e.arg(call, 2, sourceKind)
			if err != nil {
				return nil, err
			}
			if ms <= 0 || o.typeID() == "cut_transition" {
				e.setActive(tx, o, src)
				tx.emit(o.id, wire.SignalTransitionStop, o.ref())
				return true, nil
			}

			t := o.transition
			if t.timer != nil {
				t.timer.Stop()
			}
			if p := t.pending; p != nil {
				t.pending = nil
				e.unref(tx, p)
			}
			e.addRef(src)
			t.pending = src
			t.gen++
			gen := t.gen
			t.timer = time.AfterFunc(time.Duration(ms)*time.Millisecond, func() {
				e.finish(o, gen)
			})
			return true, nil
		}),
	}
}
