package osn

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/host"
	"github.com/wippyai/obs-ipc/signal"
	"github.com/wippyai/obs-ipc/wire"
)

// Output sends encoded media to a file or a streaming service.
type Output struct {
	*object
}

// Encoder compresses audio or video for an output.
type Encoder struct {
	*object
}

// Service describes a streaming destination.
type Service struct {
	*object
}

func encoderHandle(e *Encoder) (uint64, error) {
	if e == nil {
		return 0, nil
	}
	return handleOf(e.object)
}

func (o *Output) encoder(ref wire.ObjectRef) *Encoder {
	if !ref.Valid() {
		return nil
	}
	return &Encoder{newObject(o.c, ref)}
}

// SetVideoEncoder replaces the video encoder; nil clears it. The output
// must be stopped.
func (o *Output) SetVideoEncoder(ctx context.Context, enc *Encoder) error {
	h, err := encoderHandle(enc)
	if err != nil {
		return err
	}
	return set(ctx, o.object, "Output", "SetVideoEncoder", h)
}

func (o *Output) VideoEncoder(ctx context.Context) (*Encoder, error) {
	ref, err := get[wire.ObjectRef](ctx, o.object, "Output", "GetVideoEncoder")
	if err != nil {
		return nil, err
	}
	return o.encoder(ref), nil
}

// SetAudioEncoder sets the encoder of audio track idx; nil clears it.
func (o *Output) SetAudioEncoder(ctx context.Context, enc *Encoder, idx int) error {
	if idx < 0 || idx >= host.MaxAudioEncoders {
		return errors.OutOfBounds(errors.PhaseCall, []string{"track"}, idx, host.MaxAudioEncoders)
	}
	h, err := encoderHandle(enc)
	if err != nil {
		return err
	}
	return set(ctx, o.object, "Output", "SetAudioEncoder", h, idx)
}

func (o *Output) AudioEncoder(ctx context.Context, idx int) (*Encoder, error) {
	ref, err := get[wire.ObjectRef](ctx, o.object, "Output", "GetAudioEncoder", idx)
	if err != nil {
		return nil, err
	}
	return o.encoder(ref), nil
}

// SetService replaces the streaming service; nil clears it.
func (o *Output) SetService(ctx context.Context, svc *Service) error {
	var h uint64
	if svc != nil {
		var err error
		if h, err = handleOf(svc.object); err != nil {
			return err
		}
	}
	return set(ctx, o.object, "Output", "SetService", h)
}

func (o *Output) Service(ctx context.Context) (*Service, error) {
	ref, err := get[wire.ObjectRef](ctx, o.object, "Output", "GetService")
	if err != nil || !ref.Valid() {
		return nil, err
	}
	return &Service{newObject(o.c, ref)}, nil
}

// Start begins output. It reports false when the output is not ready;
// LastError says why.
func (o *Output) Start(ctx context.Context) (bool, error) {
	return get[bool](ctx, o.object, "Output", "Start")
}

func (o *Output) Stop(ctx context.Context) error {
	return set(ctx, o.object, "Output", "Stop")
}

func (o *Output) Active(ctx context.Context) (bool, error) {
	return get[bool](ctx, o.object, "Output", "GetActive")
}

func (o *Output) LastError(ctx context.Context) (string, error) {
	return get[string](ctx, o.object, "Output", "GetLastError")
}

// Connect registers fn for the start or stop signal.
func (o *Output) Connect(ctx context.Context, sig wire.Signal, fn func(wire.OutputSignalData)) (signal.Token, error) {
	if sig != wire.SignalOutputStart && sig != wire.SignalOutputStop {
		return signal.NilToken, errors.InvalidArgument(errors.PhaseCall, []string{"signal"}, "unknown output signal")
	}
	if err := set(ctx, o.object, "Output", "Connect"); err != nil {
		return signal.NilToken, err
	}
	return o.c.disp.Attach(o.Handle(), sig, func(ev signal.Event) {
		var d wire.OutputSignalData
		if err := ev.Decode(&d); err != nil {
			Logger().Warn("bad output payload", zap.Uint64("handle", ev.Handle), zap.Error(err))
			return
		}
		fn(d)
	}), nil
}

func (o *Output) Disconnect(ctx context.Context, tok signal.Token) error {
	if !o.c.disp.Detach(tok) || o.State() != Live {
		return nil
	}
	return set(ctx, o.object, "Output", "Disconnect")
}

// Audio reports whether the encoder handles audio rather than video.
func (e *Encoder) Audio(ctx context.Context) (bool, error) {
	t, err := get[int](ctx, e.object, "Encoder", "GetType")
	return t == host.EncoderAudio, err
}

func (e *Encoder) Active(ctx context.Context) (bool, error) {
	return get[bool](ctx, e.object, "Encoder", "GetActive")
}

func (e *Encoder) LastError(ctx context.Context) (string, error) {
	return get[string](ctx, e.object, "Encoder", "GetLastError")
}

func (s *Service) URL(ctx context.Context) (string, error) {
	return get[string](ctx, s.object, "Service", "GetURL")
}

func (s *Service) Key(ctx context.Context) (string, error) {
	return get[string](ctx, s.object, "Service", "GetKey")
}

func (s *Service) Username(ctx context.Context) (string, error) {
	return get[string](ctx, s.object, "Service", "GetUsername")
}

func (s *Service) Password(ctx context.Context) (string, error) {
	return get[string](ctx, s.object, "Service", "GetPassword")
}

// OutputFactory creates outputs.
type OutputFactory struct {
	s *Session
}

// Outputs returns the output factory.
func (s *Session) Outputs() OutputFactory { return OutputFactory{s: s} }

func (f OutputFactory) Types(ctx context.Context) ([]string, error) {
	return call[[]string](ctx, f.s, "Output", "Types")
}

func (f OutputFactory) Create(ctx context.Context, typeID, name string, settings wire.Settings) (*Output, error) {
	c, ref, err := callRef(ctx, f.s, "Output", "Create", typeID, name, settings)
	if err != nil {
		return nil, err
	}
	return &Output{newObject(c, ref)}, nil
}

// EncoderFactory creates encoders.
type EncoderFactory struct {
	s *Session
}

// Encoders returns the encoder factory.
func (s *Session) Encoders() EncoderFactory { return EncoderFactory{s: s} }

// Types lists every encoder type id.
func (f EncoderFactory) Types(ctx context.Context) ([]string, error) {
	return call[[]string](ctx, f.s, "Encoder", "Types")
}

func (f EncoderFactory) AudioTypes(ctx context.Context) ([]string, error) {
	return call[[]string](ctx, f.s, "Encoder", "Types", true)
}

func (f EncoderFactory) VideoTypes(ctx context.Context) ([]string, error) {
	return call[[]string](ctx, f.s, "Encoder", "Types", false)
}

func (f EncoderFactory) Create(ctx context.Context, typeID, name string, settings wire.Settings) (*Encoder, error) {
	c, ref, err := callRef(ctx, f.s, "Encoder", "Create", typeID, name, settings)
	if err != nil {
		return nil, err
	}
	return &Encoder{newObject(c, ref)}, nil
}

// ServiceFactory creates streaming services.
type ServiceFactory struct {
	s *Session
}

// Services returns the service factory.
func (s *Session) Services() ServiceFactory { return ServiceFactory{s: s} }

func (f ServiceFactory) Types(ctx context.Context) ([]string, error) {
	return call[[]string](ctx, f.s, "Service", "Types")
}

func (f ServiceFactory) Create(ctx context.Context, typeID, name string, settings wire.Settings) (*Service, error) {
	c, ref, err := callRef(ctx, f.s, "Service", "Create", typeID, name, settings)
	if err != nil {
		return nil, err
	}
	return &Service{newObject(c, ref)}, nil
}
