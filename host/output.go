package host

import (
	"go.uber.org/zap"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/ipc"
	"github.com/wippyai/obs-ipc/wire"
)

// MaxAudioEncoders is the number of audio tracks an output can carry.
const MaxAudioEncoders = 6

// Encoder kinds reported by Encoder.GetType.
const (
	EncoderAudio = 0
	EncoderVideo = 1
)

// createPlain serves Create for outputs, encoders and services:
// (typeID, name, settings?). These never enter the name index.
func (e *Engine) createPlain(kind wire.Kind, cat *catalog, init func(o *object)) ipc.Func {
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
		o := e.alloc(kind, typ, name, true)
		o.settings = o.settings.Merge(settings)
		init(o)
		return o.ref(), nil
	})
}

func (e *Engine) outputSignal(tx *txn, o *object, sig wire.Signal, code int) {
	if o.output.signals == 0 {
		return
	}
	tx.emit(o.id, sig, wire.OutputSignalData{Code: code, Error: o.output.lastError})
}

// encoders returns the encoders attached to o.
func (o *object) encoders() []*object {
	var out []*object
	if o.output.video != nil {
		out = append(out, o.output.video)
	}
	for i := range MaxAudioEncoders {
		if a := o.output.audio[i]; a != nil {
			out = append(out, a)
		}
	}
	return out
}

// encoderInUse reports whether an active output other than skip uses enc.
func (e *Engine) encoderInUse(enc, skip *object) bool {
	for _, o := range e.objects {
		if o == skip || o.output == nil || !o.output.active {
			continue
		}
		if indexOf(o.encoders(), enc) >= 0 {
			return true
		}
	}
	return false
}

func (e *Engine) startOutput(tx *txn, o *object) bool {
	out := o.output
	if out.active {
		return true
	}
	out.lastError = ""
	if o.typeID() != "null_output" {
		switch {
		case out.video == nil:
			out.lastError = "no video encoder set"
		case out.audio[0] == nil:
			out.lastError = "no audio encoder set"
		case o.typeID() == "rtmp_output" && out.service == nil:
			out.lastError = "no service set"
		}
	}
	if out.lastError != "" {
		Logger().Warn("output failed to start",
			zap.Uint64("handle", o.id),
			zap.String("output", o.name),
			zap.String("error", out.lastError))
		return false
	}

	out.active = true
	for _, enc := range o.encoders() {
		enc.encoder.active = true
	}
	e.outputSignal(tx, o, wire.SignalOutputStart, 0)
	return true
}

// stopOutput deactivates o, reporting code with the stop signal.
func (e *Engine) stopOutput(tx *txn, o *object, code int) {
	out := o.output
	if !out.active {
		return
	}
	out.active = false
	for _, enc := range o.encoders() {
		if !e.encoderInUse(enc, o) {
			enc.encoder.active = false
		}
	}
	e.outputSignal(tx, o, wire.SignalOutputStop, code)
}

// detachPart clears a dying encoder or service from every output.
func (e *Engine) detachPart(part *object) {
	for _, o := range e.objects {
		if o.output == nil {
			continue
		}
		out := o.output
		if out.video == part {
			out.video = nil
		}
		for idx, a := range out.audio {
			if a == part {
				delete(out.audio, idx)
			}
		}
		if out.service == part {
			out.service = nil
		}
	}
}

// swap replaces *slot with next, moving the container's reference.
func (e *Engine) swap(tx *txn, slot **object, next *object) {
	e.addRef(next)
	old := *slot
	*slot = next
	e.unref(tx, old)
}

func (e *Engine) outputFuncs() map[string]ipc.Func {
	output := func(h func(tx *txn, o *object, out *outputState, call *ipc.Call) (any, error)) ipc.Func {
		return e.on(only(wire.KindOutput), func(tx *txn, o *object, call *ipc.Call) (any, error) {
			return h(tx, o, o.output, call)
		})
	}
	encoder := only(wire.KindEncoder)
	// Encoders cannot be swapped under a running output.
	idle := func(o *object) error {
		if o.output.active {
			return errors.InvalidArgument(errors.PhaseHost, []string{"output"}, "output is active")
		}
		return nil
	}

	return map[string]ipc.Func{
		"Types": e.fn(func(*txn, *ipc.Call) (any, error) {
			return e.outputs.ids(), nil
		}),
		"Create": e.createPlain(wire.KindOutput, e.outputs, func(o *object) {
			o.output = &outputState{audio: make(map[int]*object)}
		}),
		"GetVideoEncoder": output(func(_ *txn, _ *object, out *outputState, _ *ipc.Call) (any, error) {
			return out.video.ref(), nil
		}),
		"SetVideoEncoder": output(func(tx *txn, o *object, out *outputState, call *ipc.Call) (any, error) {
			enc, err := e.optArg(call, 1, encoder)
			if err != nil {
				return nil, err
			}
			if enc != nil && enc.encoder.audio {
				return nil, errors.InvalidArgument(errors.PhaseHost, []string{"encoder"}, "not a video encoder")
			}
			if err := idle(o); err != nil {
				return nil, err
			}
			e.swap(tx, &out.video, enc)
			return nil, nil
		}),
		"GetAudioEncoder": output(func(_ *txn, _ *object, out *outputState, call *ipc.Call) (any, error) {
			idx, err := call.Args.Int(1)
			if err != nil {
				return nil, err
			}
			if idx < 0 || idx >= MaxAudioEncoders {
				return nil, errors.OutOfBounds(errors.PhaseHost, []string{"track"}, idx, MaxAudioEncoders)
			}
			return out.audio[idx].ref(), nil
		}),
		"SetAudioEncoder": output(func(tx *txn, o *object, out *outputState, call *ipc.Call) (any, error) {
			enc, err := e.optArg(call, 1, encoder)
			if err != nil {
				return nil, err
			}
			idx, err := call.Args.Int(2)
			if err != nil {
				return nil, err
			}
			if idx < 0 || idx >= MaxAudioEncoders {
				return nil, errors.OutOfBounds(errors.PhaseHost, []string{"track"}, idx, MaxAudioEncoders)
			}
			if enc != nil && !enc.encoder.audio {
				return nil, errors.InvalidArgument(errors.PhaseHost, []string{"encoder"}, "not an audio encoder")
			}
			if err := idle(o); err != nil {
				return nil, err
			}
			slot := out.audio[idx]
			e.swap(tx, &slot, enc)
			if slot == nil {
				delete(out.audio, idx)
			} else {
				out.audio[idx] = slot
			}
			return nil, nil
		}),
		"GetService": output(func(_ *txn, _ *object, out *outputState, _ *ipc.Call) (any, error) {
			return out.service.ref(), nil
		}),
		"SetService": output(func(tx *txn, o *object, out *outputState, call *ipc.Call) (any, error) {
			svc, err := e.optArg(call, 1, only(wire.KindService))
			if err != nil {
				return nil, err
			}
			if err := idle(o); err != nil {
				return nil, err
			}
			e.swap(tx, &out.service, svc)
			return nil, nil
		}),
		"Start": output(func(tx *txn, o *object, _ *outputState, _ *ipc.Call) (any, error) {
			return e.startOutput(tx, o), nil
		}),
		"Stop": output(func(tx *txn, o *object, _ *outputState, _ *ipc.Call) (any, error) {
			e.stopOutput(tx, o, 0)
			return nil, nil
		}),
		"GetActive": output(func(_ *txn, _ *object, out *outputState, _ *ipc.Call) (any, error) {
			return out.active, nil
		}),
		"GetLastError": output(func(_ *txn, _ *object, out *outputState, _ *ipc.Call) (any, error) {
			return out.lastError, nil
		}),
		"Connect": output(func(_ *txn, _ *object, out *outputState, _ *ipc.Call) (any, error) {
			out.signals++
			return nil, nil
		}),
		"Disconnect": output(func(_ *txn, _ *object, out *outputState, _ *ipc.Call) (any, error) {
			if out.signals > 0 {
				out.signals--
			}
			return nil, nil
		}),
	}
}

func (e *Engine) encoderFuncs() map[string]ipc.Func {
	encoder := only(wire.KindEncoder)
	return map[string]ipc.Func{
		// Types(audio?) lists every encoder, or only audio or video ones.
		"Types": e.fn(func(_ *txn, call *ipc.Call) (any, error) {
			if !call.Args.Has(0) {
				return e.encoders.ids(), nil
			}
			audio, err := call.Args.Bool(0)
			if err != nil {
				return nil, err
			}
			out := []string{}
			for _, id := range e.encoders.order {
				t, _ := e.encoders.lookup(id)
				if (t.flags&wire.FlagVideo == 0) == audio {
					out = append(out, id)
				}
			}
			return out, nil
		}),
		"Create": e.createPlain(wire.KindEncoder, e.encoders, func(o *object) {
			o.encoder = &encoderState{audio: o.outputFlags()&wire.FlagVideo == 0}
		}),
		"GetType": e.on(encoder, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			if o.encoder.audio {
				return EncoderAudio, nil
			}
			return EncoderVideo, nil
		}),
		"GetActive": e.on(encoder, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.encoder.active, nil
		}),
		"GetLastError": e.on(encoder, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.encoder.lastError, nil
		}),
	}
}

func (e *Engine) serviceFuncs() map[string]ipc.Func {
	setting := func(key string) ipc.Func {
		return e.on(only(wire.KindService), func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			v, _ := o.settings[key].(string)
			return v, nil
		})
	}
	return map[string]ipc.Func{
		"Types": e.fn(func(*txn, *ipc.Call) (any, error) {
			return e.services.ids(), nil
		}),
		"Create":      e.createPlain(wire.KindService, e.services, func(*object) {}),
		"GetURL":      setting("server"),
		"GetKey":      setting("key"),
		"GetUsername": setting("username"),
		"GetPassword": setting("password"),
	}
}
