package osn

import (
	"context"
	"sync/atomic"

	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/resource"
	"github.com/wippyai/obs-ipc/wire"
)

// State is the lifecycle state of a proxy.
type State int

const (
	// Live proxies may be used.
	Live State = iota
	// Released proxies gave up their claim; the object may live on.
	Released
	// Destroyed proxies point at an object the host no longer has.
	Destroyed
)

func (s State) String() string {
	switch s {
	case Live:
		return "live"
	case Released:
		return "released"
	case Destroyed:
		return "destroyed"
	}
	return "unknown"
}

// object is the part every proxy shares.
type object struct {
	c        *conn
	cell     *resource.Cell
	typeID   string
	released atomic.Bool
}

func newObject(c *conn, ref wire.ObjectRef) *object {
	return &object{
		c:      c,
		cell:   c.table.Register(ref.ID, ref.Kind),
		typeID: ref.TypeID,
	}
}

// Handle returns the remote object id.
func (o *object) Handle() uint64 { return o.cell.ID() }

// Type returns the object kind.
func (o *object) Type() wire.Kind { return o.cell.Kind() }

// ID returns the type id the object was created with, such as
// "ffmpeg_source".
func (o *object) ID() string { return o.typeID }

// State reports the proxy's lifecycle state without a round trip.
func (o *object) State() State {
	switch {
	case !o.cell.Valid():
		return Destroyed
	case o.released.Load():
		return Released
	}
	return Live
}

func (o *object) class() string { return o.cell.Kind().Class() }

// check fails fast for released proxies and destroyed objects.
func (o *object) check() error {
	if o.State() != Live {
		return errors.InvalidHandle(errors.PhaseCall, o.Handle(), o.class())
	}
	return nil
}

// call issues class.method with the handle as the first argument.
func (o *object) call(ctx context.Context, class, method string, args ...any) (json.RawMessage, error) {
	if err := o.check(); err != nil {
		return nil, err
	}
	r, err := o.c.client.Call(ctx, class, method, append([]any{o.Handle()}, args...)...)
	if err != nil {
		return nil, err
	}
	return r.Result, nil
}

// get calls class.method and decodes the result as T.
func get[T any](ctx context.Context, o *object, class, method string, args ...any) (T, error) {
	var v T
	raw, err := o.call(ctx, class, method, args...)
	if err != nil {
		return v, err
	}
	if err := wire.DecodeValue(raw, &v); err != nil {
		return v, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Call(class, method).
			Handle(o.Handle()).
			Cause(err).
			Build()
	}
	return v, nil
}

// set calls class.method and discards the result.
func set(ctx context.Context, o *object, class, method string, args ...any) error {
	_, err := o.call(ctx, class, method, args...)
	return err
}

// handleOf resolves an optional argument proxy to its handle; nil is 0.
func handleOf(o *object) (uint64, error) {
	if o == nil {
		return 0, nil
	}
	if err := o.check(); err != nil {
		return 0, err
	}
	return o.Handle(), nil
}

// Status asks the host whether the object exists. A handle already known
// to be gone reports CodeInvalidReference without a round trip.
func (o *object) Status(ctx context.Context) (wire.Code, error) {
	if !o.cell.Valid() {
		return wire.CodeInvalidReference, nil
	}
	code, err := get[wire.Code](ctx, o, "Object", "GetStatus")
	if err != nil {
		if errors.KindOf(err) == errors.KindInvalidHandle {
			return wire.CodeInvalidReference, nil
		}
		return wire.CodeError, err
	}
	if code == wire.CodeInvalidReference && o.c.table.Invalidate(o.Handle()) > 0 {
		Logger().Debug("stale handle invalidated", zap.Uint64("handle", o.Handle()))
	}
	return code, nil
}

func (o *object) Name(ctx context.Context) (string, error) {
	return get[string](ctx, o, "Object", "GetName")
}

func (o *object) SetName(ctx context.Context, name string) error {
	return set(ctx, o, "Object", "SetName", name)
}

// Refs returns the host's reference count for the object.
func (o *object) Refs(ctx context.Context) (int, error) {
	return get[int](ctx, o, "Object", "GetRefs")
}

// Settings returns the current settings.
func (o *object) Settings(ctx context.Context) (wire.Settings, error) {
	return get[wire.Settings](ctx, o, "Object", "GetSettings")
}

// Update merges settings into the current ones: keys not present keep
// their values. It returns the merged settings.
func (o *object) Update(ctx context.Context, settings wire.Settings) (wire.Settings, error) {
	return get[wire.Settings](ctx, o, "Object", "Update", settings)
}

// Configurable reports whether the object type has properties.
func (o *object) Configurable(ctx context.Context) (bool, error) {
	return get[bool](ctx, o, "Object", "IsConfigurable")
}

// Properties fetches the property list as it applies to the current
// settings.
func (o *object) Properties(ctx context.Context) (*Properties, error) {
	p := &Properties{owner: o}
	if err := p.fetch(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Release drops the reference this proxy stands for. The object is
// destroyed when no reference remains; the proxy is unusable either way.
func (o *object) Release(ctx context.Context) (wire.ReleaseResult, error) {
	res, err := get[wire.ReleaseResult](ctx, o, "Object", "Release")
	if err != nil {
		return res, err
	}
	o.drop()
	return res, nil
}

// Remove destroys the object regardless of outstanding references. Every
// alias observes it as destroyed.
func (o *object) Remove(ctx context.Context) error {
	if _, err := get[wire.ReleaseResult](ctx, o, "Object", "Remove"); err != nil {
		return err
	}
	o.drop()
	return nil
}

func (o *object) drop() {
	if o.released.CompareAndSwap(false, true) {
		o.c.table.Release(o.cell)
	}
}
