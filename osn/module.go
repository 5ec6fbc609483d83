package osn

import (
	"context"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/wire"
)

// Module is a loaded plugin binary.
type Module struct {
	*object
}

// Initialize runs the module's load hook. It reports false when the module
// was already initialized.
func (m *Module) Initialize(ctx context.Context) (bool, error) {
	return get[bool](ctx, m.object, "Module", "Initialize")
}

func (m *Module) Info(ctx context.Context) (wire.ModuleInfo, error) {
	return get[wire.ModuleInfo](ctx, m.object, "Module", "GetInfo")
}

func (m *Module) FileName(ctx context.Context) (string, error) {
	info, err := m.Info(ctx)
	return info.FileName, err
}

func (m *Module) BinaryPath(ctx context.Context) (string, error) {
	info, err := m.Info(ctx)
	return info.BinPath, err
}

func (m *Module) DataPath(ctx context.Context) (string, error) {
	info, err := m.Info(ctx)
	return info.DataPath, err
}

// Author is empty when the module does not declare one.
func (m *Module) Author(ctx context.Context) (string, error) {
	info, err := m.Info(ctx)
	return info.Author, err
}

func (m *Module) Description(ctx context.Context) (string, error) {
	info, err := m.Info(ctx)
	return info.Description, err
}

// ModuleFactory opens and enumerates modules.
type ModuleFactory struct {
	s *Session
}

// Modules returns the module factory.
func (s *Session) Modules() ModuleFactory { return ModuleFactory{s: s} }

// Open registers the plugin at bin with its data directory.
func (f ModuleFactory) Open(ctx context.Context, bin, data string) (*Module, error) {
	c, ref, err := callRef(ctx, f.s, "Module", "Open", bin, data)
	if err != nil {
		return nil, err
	}
	return &Module{newObject(c, ref)}, nil
}

// AddPath adds a search location for LoadAll. %module% in data is
// replaced with each module's name.
func (f ModuleFactory) AddPath(ctx context.Context, bin, data string) error {
	_, err := call[struct{}](ctx, f.s, "Module", "AddPath", bin, data)
	return err
}

// LoadAll opens every module found on the search paths and returns the
// newly loaded ones.
func (f ModuleFactory) LoadAll(ctx context.Context) ([]*Module, error) {
	c, refs, err := callRefs(ctx, f.s, "Module", "LoadAll")
	if err != nil {
		return nil, err
	}
	return modules(c, refs), nil
}

// LogLoaded writes the module list to the host log.
func (f ModuleFactory) LogLoaded(ctx context.Context) error {
	_, err := call[struct{}](ctx, f.s, "Module", "LogLoaded")
	return err
}

func (f ModuleFactory) List(ctx context.Context) ([]*Module, error) {
	c, refs, err := callRefs(ctx, f.s, "Module", "Modules")
	if err != nil {
		return nil, err
	}
	return modules(c, refs), nil
}

func modules(c *conn, refs []wire.ObjectRef) []*Module {
	out := make([]*Module, 0, len(refs))
	for _, r := range refs {
		if r.Valid() {
			out = append(out, &Module{newObject(c, r)})
		}
	}
	return out
}

// Display is a render target with named drawers.
type Display struct {
	*object
}

// Destroy removes the display.
func (d *Display) Destroy(ctx context.Context) error {
	if _, err := get[wire.ReleaseResult](ctx, d.object, "Display", "Destroy"); err != nil {
		return err
	}
	d.drop()
	return nil
}

// AddDrawer registers a draw callback by name. Adding it twice is a no-op.
func (d *Display) AddDrawer(ctx context.Context, name string) error {
	if name == "" {
		return errors.InvalidArgument(errors.PhaseCall, []string{"drawer"}, "drawer name cannot be empty")
	}
	return set(ctx, d.object, "Display", "AddDrawer", name)
}

func (d *Display) RemoveDrawer(ctx context.Context, name string) error {
	return set(ctx, d.object, "Display", "RemoveDrawer", name)
}

func (d *Display) Drawers(ctx context.Context) ([]string, error) {
	return get[[]string](ctx, d.object, "Display", "GetDrawers")
}

func (d *Display) Enabled(ctx context.Context) (bool, error) {
	return get[bool](ctx, d.object, "Display", "GetEnabled")
}

func (d *Display) SetEnabled(ctx context.Context, v bool) error {
	return set(ctx, d.object, "Display", "SetEnabled", v)
}

// Size returns the width and height in pixels.
func (d *Display) Size(ctx context.Context) (width, height uint32, err error) {
	v, err := get[wire.Vec2](ctx, d.object, "Display", "GetSize")
	return uint32(v.X), uint32(v.Y), err
}

// DisplayFactory creates displays.
type DisplayFactory struct {
	s *Session
}

// Displays returns the display factory.
func (s *Session) Displays() DisplayFactory { return DisplayFactory{s: s} }

// Create makes a display. A zero size defaults to 1920x1080.
func (f DisplayFactory) Create(ctx context.Context, name string, init wire.DisplayInit) (*Display, error) {
	c, ref, err := callRef(ctx, f.s, "Display", "Create", name, init)
	if err != nil {
		return nil, err
	}
	return &Display{newObject(c, ref)}, nil
}
