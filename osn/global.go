package osn

import (
	"context"

	"github.com/wippyai/obs-ipc/wire"
)

// OutputChannels is the number of global output channels.
const OutputChannels = 64

// Startup initializes the host engine. It fails when already started.
func (s *Session) Startup(ctx context.Context, locale, dataPath string) error {
	_, err := call[bool](ctx, s, "Global", "Startup", locale, dataPath)
	return err
}

// Shutdown destroys every object on the host. Every proxy becomes invalid.
func (s *Session) Shutdown(ctx context.Context) error {
	_, err := call[struct{}](ctx, s, "Global", "Shutdown")
	return err
}

func (s *Session) Info(ctx context.Context) (wire.GlobalInfo, error) {
	return call[wire.GlobalInfo](ctx, s, "Global", "GetInfo")
}

func (s *Session) Initialized(ctx context.Context) (bool, error) {
	info, err := s.Info(ctx)
	return info.Initialized, err
}

// Version returns the engine version as major<<24 | minor<<16 | patch.
func (s *Session) Version(ctx context.Context) (uint32, error) {
	info, err := s.Info(ctx)
	return info.Version, err
}

func (s *Session) Locale(ctx context.Context) (string, error) {
	return call[string](ctx, s, "Global", "GetLocale")
}

func (s *Session) SetLocale(ctx context.Context, locale string) error {
	_, err := call[struct{}](ctx, s, "Global", "SetLocale", locale)
	return err
}

// SetOutputSource binds src to channel ch; nil clears the channel. The
// channel holds a reference on src.
func (s *Session) SetOutputSource(ctx context.Context, ch int, src Sourcer) error {
	h, err := sourceHandle(src)
	if err != nil {
		return err
	}
	_, err = call[struct{}](ctx, s, "Global", "SetOutputSource", ch, h)
	return err
}

// OutputSource returns the source bound to channel ch, or nil.
func (s *Session) OutputSource(ctx context.Context, ch int) (*Source, error) {
	c, ref, err := callRef(ctx, s, "Global", "GetOutputSource", ch)
	if err != nil {
		return nil, err
	}
	return c.source(ref), nil
}

// OutputFlagsFromID returns the capabilities of a source type.
func (s *Session) OutputFlagsFromID(ctx context.Context, typeID string) (wire.OutputFlags, error) {
	return call[wire.OutputFlags](ctx, s, "Global", "GetOutputFlagsFromId", typeID)
}
