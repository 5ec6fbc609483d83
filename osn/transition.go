package osn

import (
	"context"
	"time"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/signal"
	"github.com/wippyai/obs-ipc/wire"
)

// Transition switches between sources, either at once or over a duration.
type Transition struct {
	Source
}

// ActiveSource returns the source currently shown, or nil. After Start the
// change becomes visible once the transition finishes.
func (t *Transition) ActiveSource(ctx context.Context) (*Source, error) {
	ref, err := get[wire.ObjectRef](ctx, t.object, "Transition", "GetActiveSource")
	if err != nil {
		return nil, err
	}
	return t.c.source(ref), nil
}

// Clear drops the active and pending sources.
func (t *Transition) Clear(ctx context.Context) error {
	return set(ctx, t.object, "Transition", "Clear")
}

// Set makes src active immediately.
func (t *Transition) Set(ctx context.Context, src Sourcer) error {
	h, err := requiredSource(src)
	if err != nil {
		return err
	}
	return set(ctx, t.object, "Transition", "Set", h)
}

// Start moves to src over d. Cut transitions and non-positive durations
// switch at once.
func (t *Transition) Start(ctx context.Context, d time.Duration, src Sourcer) (bool, error) {
	h, err := requiredSource(src)
	if err != nil {
		return false, err
	}
	return get[bool](ctx, t.object, "Transition", "Start", d.Milliseconds(), h)
}

// OnStop registers fn to run when a transition completes.
func (t *Transition) OnStop(fn func()) (signal.Token, error) {
	if err := t.check(); err != nil {
		return signal.NilToken, err
	}
	return t.c.disp.Attach(t.Handle(), wire.SignalTransitionStop, func(signal.Event) { fn() }), nil
}

// RemoveOnStop removes a callback registered with OnStop.
func (t *Transition) RemoveOnStop(tok signal.Token) bool {
	return t.c.disp.Detach(tok)
}

func requiredSource(src Sourcer) (uint64, error) {
	h, err := sourceHandle(src)
	if err != nil {
		return 0, err
	}
	if h == 0 {
		return 0, errors.InvalidArgument(errors.PhaseCall, []string{"source"}, "source is nil")
	}
	return h, nil
}

// TransitionFactory creates and finds transitions.
type TransitionFactory struct {
	s *Session
}

// Transitions returns the transition factory.
func (s *Session) Transitions() TransitionFactory { return TransitionFactory{s: s} }

func (f TransitionFactory) Types(ctx context.Context) ([]string, error) {
	return call[[]string](ctx, f.s, "Transition", "Types")
}

func (f TransitionFactory) Create(ctx context.Context, typeID, name string, settings wire.Settings) (*Transition, error) {
	return f.create(ctx, "Create", typeID, name, settings)
}

func (f TransitionFactory) CreatePrivate(ctx context.Context, typeID, name string, settings wire.Settings) (*Transition, error) {
	return f.create(ctx, "CreatePrivate", typeID, name, settings)
}

func (f TransitionFactory) create(ctx context.Context, method, typeID, name string, settings wire.Settings) (*Transition, error) {
	c, ref, err := callRef(ctx, f.s, "Transition", method, typeID, name, settings)
	if err != nil {
		return nil, err
	}
	return c.source(ref).Transition(), nil
}

// FromName finds a public transition, or returns nil.
func (f TransitionFactory) FromName(ctx context.Context, name string) (*Transition, error) {
	c, ref, err := callRef(ctx, f.s, "Transition", "FromName", name)
	if err != nil {
		return nil, err
	}
	return c.source(ref).Transition(), nil
}
