package osn

import (
	"context"
	"time"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/wire"
)

// Source is any proxy that produces audio or video: inputs, filters,
// transitions and scenes.
type Source struct {
	*object
}

// Sourcer is implemented by every source proxy.
type Sourcer interface {
	AsSource() *Source
}

// AsSource returns the source view of the proxy.
func (s *Source) AsSource() *Source { return s }

// sourceHandle resolves an optional source argument; nil is 0.
func sourceHandle(src Sourcer) (uint64, error) {
	switch v := src.(type) {
	case nil:
		return 0, nil
	case *Input:
		if v == nil {
			return 0, nil
		}
	case *Scene:
		if v == nil {
			return 0, nil
		}
	case *Filter:
		if v == nil {
			return 0, nil
		}
	case *Transition:
		if v == nil {
			return 0, nil
		}
	}
	s := src.AsSource()
	if s == nil {
		return 0, nil
	}
	return handleOf(s.object)
}

func (c *conn) source(ref wire.ObjectRef) *Source {
	if !ref.Valid() {
		return nil
	}
	return &Source{newObject(c, ref)}
}

func (c *conn) sources(refs []wire.ObjectRef) []*Source {
	out := make([]*Source, 0, len(refs))
	for _, r := range refs {
		if s := c.source(r); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Input returns the input view of s, or nil when s is not an input.
func (s *Source) Input() *Input {
	if s == nil || s.Type() != wire.KindInput {
		return nil
	}
	return &Input{Source: *s}
}

// Scene returns the scene view of s, or nil when s is not a scene.
func (s *Source) Scene() *Scene {
	if s == nil || s.Type() != wire.KindScene {
		return nil
	}
	return &Scene{Source: *s}
}

// Filter returns the filter view of s, or nil when s is not a filter.
func (s *Source) Filter() *Filter {
	if s == nil || s.Type() != wire.KindFilter {
		return nil
	}
	return &Filter{Source: *s}
}

// Transition returns the transition view of s, or nil otherwise.
func (s *Source) Transition() *Transition {
	if s == nil || s.Type() != wire.KindTransition {
		return nil
	}
	return &Transition{Source: *s}
}

func (s *Source) SourceType(ctx context.Context) (wire.SourceType, error) {
	return get[wire.SourceType](ctx, s.object, "Source", "GetType")
}

func (s *Source) OutputFlags(ctx context.Context) (wire.OutputFlags, error) {
	return get[wire.OutputFlags](ctx, s.object, "Source", "GetOutputFlags")
}

func (s *Source) Flags(ctx context.Context) (uint32, error) {
	return get[uint32](ctx, s.object, "Source", "GetFlags")
}

func (s *Source) SetFlags(ctx context.Context, flags uint32) error {
	return set(ctx, s.object, "Source", "SetFlags", flags)
}

func (s *Source) Muted(ctx context.Context) (bool, error) {
	return get[bool](ctx, s.object, "Source", "GetMuted")
}

func (s *Source) SetMuted(ctx context.Context, muted bool) error {
	return set(ctx, s.object, "Source", "SetMuted", muted)
}

func (s *Source) Enabled(ctx context.Context) (bool, error) {
	return get[bool](ctx, s.object, "Source", "GetEnabled")
}

func (s *Source) SetEnabled(ctx context.Context, enabled bool) error {
	return set(ctx, s.object, "Source", "SetEnabled", enabled)
}

// Filters returns the filter chain in render order.
func (s *Source) Filters(ctx context.Context) ([]*Filter, error) {
	refs, err := get[[]wire.ObjectRef](ctx, s.object, "Input", "GetFilters")
	if err != nil {
		return nil, err
	}
	out := make([]*Filter, 0, len(refs))
	for _, src := range s.c.sources(refs) {
		out = append(out, &Filter{Source: *src})
	}
	return out, nil
}

// AddFilter appends f to the chain. The chain takes a reference.
func (s *Source) AddFilter(ctx context.Context, f *Filter) error {
	h, err := filterHandle(f)
	if err != nil {
		return err
	}
	return set(ctx, s.object, "Input", "AddFilter", h)
}

// RemoveFilter detaches f and drops the chain's reference.
func (s *Source) RemoveFilter(ctx context.Context, f *Filter) error {
	h, err := filterHandle(f)
	if err != nil {
		return err
	}
	return set(ctx, s.object, "Input", "RemoveFilter", h)
}

// FindFilter returns the attached filter named name, or nil.
func (s *Source) FindFilter(ctx context.Context, name string) (*Filter, error) {
	ref, err := get[wire.ObjectRef](ctx, s.object, "Input", "FindFilter", name)
	if err != nil {
		return nil, err
	}
	return s.c.source(ref).Filter(), nil
}

// SetFilterOrder moves f within the chain. Moves past either end clamp.
func (s *Source) SetFilterOrder(ctx context.Context, f *Filter, m wire.OrderMovement) error {
	h, err := filterHandle(f)
	if err != nil {
		return err
	}
	return set(ctx, s.object, "Input", "SetFilterOrder", h, m)
}

func filterHandle(f *Filter) (uint64, error) {
	if f == nil {
		return 0, errors.InvalidArgument(errors.PhaseCall, []string{"filter"}, "filter is nil")
	}
	return handleOf(f.object)
}

// Input is a media input such as a capture device or a file.
type Input struct {
	Source
}

func (i *Input) Volume(ctx context.Context) (float64, error) {
	return get[float64](ctx, i.object, "Input", "GetVolume")
}

// SetVolume sets the linear volume multiplier.
func (i *Input) SetVolume(ctx context.Context, v float64) error {
	return set(ctx, i.object, "Input", "SetVolume", v)
}

func (i *Input) SyncOffset(ctx context.Context) (time.Duration, error) {
	ns, err := get[int64](ctx, i.object, "Input", "GetSyncOffset")
	return time.Duration(ns), err
}

func (i *Input) SetSyncOffset(ctx context.Context, d time.Duration) error {
	return set(ctx, i.object, "Input", "SetSyncOffset", d.Nanoseconds())
}

// Showing reports whether the input is visible on an output channel.
func (i *Input) Showing(ctx context.Context) (bool, error) {
	return get[bool](ctx, i.object, "Input", "GetShowing")
}

func (i *Input) Active(ctx context.Context) (bool, error) {
	return get[bool](ctx, i.object, "Input", "GetActive")
}

func (i *Input) AudioMixers(ctx context.Context) (uint32, error) {
	return get[uint32](ctx, i.object, "Input", "GetAudioMixers")
}

func (i *Input) SetAudioMixers(ctx context.Context, mixers uint32) error {
	return set(ctx, i.object, "Input", "SetAudioMixers", mixers)
}

func (i *Input) MonitoringType(ctx context.Context) (wire.MonitoringType, error) {
	return get[wire.MonitoringType](ctx, i.object, "Input", "GetMonitoringType")
}

func (i *Input) SetMonitoringType(ctx context.Context, t wire.MonitoringType) error {
	return set(ctx, i.object, "Input", "SetMonitoringType", t)
}

func (i *Input) DeinterlaceFieldOrder(ctx context.Context) (wire.DeinterlaceFieldOrder, error) {
	return get[wire.DeinterlaceFieldOrder](ctx, i.object, "Input", "GetDeInterlaceFieldOrder")
}

func (i *Input) SetDeinterlaceFieldOrder(ctx context.Context, o wire.DeinterlaceFieldOrder) error {
	return set(ctx, i.object, "Input", "SetDeInterlaceFieldOrder", o)
}

func (i *Input) DeinterlaceMode(ctx context.Context) (wire.DeinterlaceMode, error) {
	return get[wire.DeinterlaceMode](ctx, i.object, "Input", "GetDeInterlaceMode")
}

func (i *Input) SetDeinterlaceMode(ctx context.Context, m wire.DeinterlaceMode) error {
	return set(ctx, i.object, "Input", "SetDeInterlaceMode", m)
}

func (i *Input) Width(ctx context.Context) (uint32, error) {
	return get[uint32](ctx, i.object, "Input", "GetWidth")
}

func (i *Input) Height(ctx context.Context) (uint32, error) {
	return get[uint32](ctx, i.object, "Input", "GetHeight")
}

// Duplicate copies the input's configuration and filters. An empty name
// derives a free one.
func (i *Input) Duplicate(ctx context.Context, name string, private bool) (*Input, error) {
	ref, err := get[wire.ObjectRef](ctx, i.object, "Input", "Duplicate", name, private)
	if err != nil {
		return nil, err
	}
	return i.c.source(ref).Input(), nil
}

// Filter processes the output of the source it is attached to.
type Filter struct {
	Source
}

// Parent returns the source f is attached to, or nil.
func (f *Filter) Parent(ctx context.Context) (*Source, error) {
	ref, err := get[wire.ObjectRef](ctx, f.object, "Filter", "GetParent")
	if err != nil {
		return nil, err
	}
	return f.c.source(ref), nil
}

// InputFactory creates and finds inputs.
type InputFactory struct {
	s *Session
}

// Inputs returns the input factory.
func (s *Session) Inputs() InputFactory { return InputFactory{s: s} }

// Types lists the available input type ids.
func (f InputFactory) Types(ctx context.Context) ([]string, error) {
	return call[[]string](ctx, f.s, "Input", "Types")
}

// Create makes a public input. settings may be nil.
func (f InputFactory) Create(ctx context.Context, typeID, name string, settings wire.Settings) (*Input, error) {
	return f.create(ctx, "Create", typeID, name, settings)
}

// CreatePrivate makes an input hidden from FromName and PublicSources.
func (f InputFactory) CreatePrivate(ctx context.Context, typeID, name string, settings wire.Settings) (*Input, error) {
	return f.create(ctx, "CreatePrivate", typeID, name, settings)
}

func (f InputFactory) create(ctx context.Context, method, typeID, name string, settings wire.Settings) (*Input, error) {
	c, ref, err := callRef(ctx, f.s, "Input", method, typeID, name, settings)
	if err != nil {
		return nil, err
	}
	return c.source(ref).Input(), nil
}

// FromName finds a public input. It returns nil when none matches.
func (f InputFactory) FromName(ctx context.Context, name string) (*Input, error) {
	c, ref, err := callRef(ctx, f.s, "Input", "FromName", name)
	if err != nil {
		return nil, err
	}
	return c.source(ref).Input(), nil
}

// PublicSources lists every public input.
func (f InputFactory) PublicSources(ctx context.Context) ([]*Input, error) {
	c, refs, err := callRefs(ctx, f.s, "Input", "GetPublicSources")
	if err != nil {
		return nil, err
	}
	out := make([]*Input, 0, len(refs))
	for _, src := range c.sources(refs) {
		out = append(out, src.Input())
	}
	return out, nil
}

// FilterFactory creates filters. Filters are always private.
type FilterFactory struct {
	s *Session
}

// Filters returns the filter factory.
func (s *Session) Filters() FilterFactory { return FilterFactory{s: s} }

func (f FilterFactory) Types(ctx context.Context) ([]string, error) {
	return call[[]string](ctx, f.s, "Filter", "Types")
}

func (f FilterFactory) Create(ctx context.Context, typeID, name string, settings wire.Settings) (*Filter, error) {
	c, ref, err := callRef(ctx, f.s, "Filter", "Create", typeID, name, settings)
	if err != nil {
		return nil, err
	}
	return c.source(ref).Filter(), nil
}
