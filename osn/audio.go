package osn

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/signal"
	"github.com/wippyai/obs-ipc/wire"
)

// Fader maps a control position to a source's volume.
type Fader struct {
	*object
}

// DB returns the level in decibels, in [-96, 0].
func (f *Fader) DB(ctx context.Context) (float64, error) {
	return get[float64](ctx, f.object, "Fader", "GetDeziBel")
}

// SetDB sets the level, clamped to [-96, 0]. An attached source follows.
func (f *Fader) SetDB(ctx context.Context, db float64) error {
	return set(ctx, f.object, "Fader", "SetDeziBel", db)
}

// Deflection returns the control position in [0, 1] for the fader type.
func (f *Fader) Deflection(ctx context.Context) (float64, error) {
	return get[float64](ctx, f.object, "Fader", "GetDeflection")
}

func (f *Fader) SetDeflection(ctx context.Context, v float64) error {
	return set(ctx, f.object, "Fader", "SetDeflection", v)
}

// Multiplier returns the linear gain.
func (f *Fader) Multiplier(ctx context.Context) (float64, error) {
	return get[float64](ctx, f.object, "Fader", "GetMultiplier")
}

func (f *Fader) SetMultiplier(ctx context.Context, v float64) error {
	return set(ctx, f.object, "Fader", "SetMultiplier", v)
}

// Attach binds the fader to an audio source. The fader holds no reference.
func (f *Fader) Attach(ctx context.Context, src Sourcer) error {
	h, err := requiredSource(src)
	if err != nil {
		return err
	}
	return set(ctx, f.object, "Fader", "Attach", h)
}

func (f *Fader) Detach(ctx context.Context) error {
	return set(ctx, f.object, "Fader", "Detach")
}

// AddCallback registers fn for level changes. Under load intermediate
// levels may be skipped; the latest is always delivered.
func (f *Fader) AddCallback(ctx context.Context, fn func(db float64)) (signal.Token, error) {
	if err := set(ctx, f.object, "Fader", "AddCallback"); err != nil {
		return signal.NilToken, err
	}
	return f.c.disp.Attach(f.Handle(), wire.SignalFader, func(ev signal.Event) {
		var d wire.FaderData
		if err := ev.Decode(&d); err != nil {
			Logger().Warn("bad fader payload", zap.Uint64("handle", ev.Handle), zap.Error(err))
			return
		}
		fn(d.DB)
	}), nil
}

// RemoveCallback removes a callback registered with AddCallback.
func (f *Fader) RemoveCallback(ctx context.Context, tok signal.Token) error {
	if !f.c.disp.Detach(tok) || f.State() != Live {
		return nil
	}
	return set(ctx, f.object, "Fader", "RemoveCallback")
}

// Volmeter reports audio levels of an attached source at a fixed interval.
type Volmeter struct {
	*object
}

// PeakHold returns the peak hold time in update ticks.
func (v *Volmeter) PeakHold(ctx context.Context) (int, error) {
	return get[int](ctx, v.object, "Volmeter", "GetPeakHold")
}

func (v *Volmeter) SetPeakHold(ctx context.Context, ticks int) error {
	return set(ctx, v.object, "Volmeter", "SetPeakHold", ticks)
}

func (v *Volmeter) UpdateInterval(ctx context.Context) (time.Duration, error) {
	ms, err := get[int64](ctx, v.object, "Volmeter", "GetUpdateInterval")
	return time.Duration(ms) * time.Millisecond, err
}

// SetUpdateInterval sets the reporting period with millisecond precision.
func (v *Volmeter) SetUpdateInterval(ctx context.Context, d time.Duration) error {
	if d < time.Millisecond {
		return errors.InvalidArgument(errors.PhaseCall, []string{"interval"}, "interval must be at least 1ms")
	}
	return set(ctx, v.object, "Volmeter", "SetUpdateInterval", d.Milliseconds())
}

// Attach binds the meter to an audio source. The meter holds no reference.
func (v *Volmeter) Attach(ctx context.Context, src Sourcer) error {
	h, err := requiredSource(src)
	if err != nil {
		return err
	}
	return set(ctx, v.object, "Volmeter", "Attach", h)
}

func (v *Volmeter) Detach(ctx context.Context) error {
	return set(ctx, v.object, "Volmeter", "Detach")
}

// AddCallback registers fn for level snapshots. Snapshots are lossy: a
// slow callback sees the most recent ones and skips the rest.
func (v *Volmeter) AddCallback(ctx context.Context, fn func(wire.VolmeterData)) (signal.Token, error) {
	if err := set(ctx, v.object, "Volmeter", "AddCallback"); err != nil {
		return signal.NilToken, err
	}
	return v.c.disp.Attach(v.Handle(), wire.SignalVolmeter, func(ev signal.Event) {
		var d wire.VolmeterData
		if err := ev.Decode(&d); err != nil {
			Logger().Warn("bad volmeter payload", zap.Uint64("handle", ev.Handle), zap.Error(err))
			return
		}
		fn(d)
	}), nil
}

func (v *Volmeter) RemoveCallback(ctx context.Context, tok signal.Token) error {
	if !v.c.disp.Detach(tok) || v.State() != Live {
		return nil
	}
	return set(ctx, v.object, "Volmeter", "RemoveCallback")
}

// FaderFactory creates faders.
type FaderFactory struct {
	s *Session
}

// Faders returns the fader factory.
func (s *Session) Faders() FaderFactory { return FaderFactory{s: s} }

func (f FaderFactory) Create(ctx context.Context, t wire.FaderType) (*Fader, error) {
	c, ref, err := callRef(ctx, f.s, "Fader", "Create", int(t))
	if err != nil {
		return nil, err
	}
	return &Fader{newObject(c, ref)}, nil
}

// VolmeterFactory creates volmeters.
type VolmeterFactory struct {
	s *Session
}

// Volmeters returns the volmeter factory.
func (s *Session) Volmeters() VolmeterFactory { return VolmeterFactory{s: s} }

func (f VolmeterFactory) Create(ctx context.Context, t wire.FaderType) (*Volmeter, error) {
	c, ref, err := callRef(ctx, f.s, "Volmeter", "Create", int(t))
	if err != nil {
		return nil, err
	}
	return &Volmeter{newObject(c, ref)}, nil
}
