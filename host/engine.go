package host

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/ipc"
	"github.com/wippyai/obs-ipc/wire"
)

// Channels is the number of global output channels.
const Channels = 64

// Version is the engine version reported by Global.GetInfo.
const Version uint32 = 30<<24 | 1<<16 | 2

// DefaultVolmeterInterval is the update interval of a new volmeter.
const DefaultVolmeterInterval = 50 * time.Millisecond

// Emitter pushes events to connected clients. *ipc.Server implements it.
type Emitter interface {
	Emit(*wire.Message)
}

// Options configures an Engine.
type Options struct {
	VolmeterInterval time.Duration
}

// Engine holds every remote object.
type Engine struct {
	objects  map[uint64]*object
	names    map[string]*object
	emitter  Emitter
	channels [Channels]*object

	inputs      *catalog
	filters     *catalog
	transitions *catalog
	outputs     *catalog
	encoders    *catalog
	services    *catalog
	sceneType   *typeInfo

	modulePaths []modulePath
	locale      string
	dataPath    string

	opts   Options
	wg     sync.WaitGroup
	nextID uint64
	mu     sync.Mutex

	initialized bool
	closed      bool
}

// New creates an empty engine.
func New(opts Options) *Engine {
	if opts.VolmeterInterval <= 0 {
		opts.VolmeterInterval = DefaultVolmeterInterval
	}
	return &Engine{
		objects:     make(map[uint64]*object),
		names:       make(map[string]*object),
		inputs:      inputCatalog(),
		filters:     filterCatalog(),
		transitions: transitionCatalog(),
		outputs:     outputCatalog(),
		encoders:    encoderCatalog(),
		services:    serviceCatalog(),
		sceneType:   sceneType(),
		locale:      "en-US",
		opts:        opts,
	}
}

// SetEmitter installs the event sink. Events raised before it is set are
// discarded.
func (e *Engine) SetEmitter(em Emitter) {
	e.mu.Lock()
	e.emitter = em
	e.mu.Unlock()
}

// Register adds every engine class to reg.
func (e *Engine) Register(reg *ipc.Registry) error {
	classes := map[string]map[string]ipc.Func{
		"Object":     e.objectFuncs(),
		"Source":     e.sourceFuncs(),
		"Input":      e.inputFuncs(),
		"Filter":     e.filterFuncs(),
		"Transition": e.transitionFuncs(),
		"Scene":      e.sceneFuncs(),
		"SceneItem":  e.sceneItemFuncs(),
		"Fader":      e.faderFuncs(),
		"Volmeter":   e.volmeterFuncs(),
		"Output":     e.outputFuncs(),
		"Encoder":    e.encoderFuncs(),
		"Service":    e.serviceFuncs(),
		"Display":    e.displayFuncs(),
		"Module":     e.moduleFuncs(),
		"Properties": e.propertiesFuncs(),
		"Global":     e.globalFuncs(),
	}
	for class, funcs := range classes {
		if err := reg.Register(class, funcs); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of live objects.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.objects)
}

// Close stops timers and meters. Objects are left in place.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	for _, o := range e.objects {
		e.stopTimers(o)
	}
	e.mu.Unlock()

	e.wg.Wait()
	return nil
}

func (e *Engine) stopTimers(o *object) {
	if t := o.transition; t != nil && t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if o.volmeter != nil {
		e.stopMeter(o)
	}
}

// txn collects events raised while the engine lock is held. They are
// pushed after the lock is released and before the reply is sent.
type txn struct {
	e      *Engine
	events []*wire.Message
}

func (tx *txn) emit(handle uint64, sig wire.Signal, payload any) {
	m, err := wire.NewEvent(handle, sig, payload)
	if err != nil {
		Logger().Error("encode event", zap.String("signal", string(sig)), zap.Error(err))
		return
	}
	tx.events = append(tx.events, m)
}

func (tx *txn) flush(em Emitter) {
	if em == nil {
		return
	}
	for _, m := range tx.events {
		em.Emit(m)
	}
}

type handlerFunc func(tx *txn, call *ipc.Call) (any, error)

type objectFunc func(tx *txn, o *object, call *ipc.Call) (any, error)

// kindFilter accepts the object kinds a class operates on.
type kindFilter func(wire.Kind) bool

func anyKind(wire.Kind) bool { return true }

func sourceKind(k wire.Kind) bool { return k.IsSource() }

func only(kinds ...wire.Kind) kindFilter {
	return func(k wire.Kind) bool {
		for _, want := range kinds {
			if k == want {
				return true
			}
		}
		return false
	}
}

// fn runs h under the engine lock and flushes its events.
func (e *Engine) fn(h handlerFunc) ipc.Func {
	return func(_ context.Context, call *ipc.Call) (any, error) {
		tx := &txn{e: e}
		e.mu.Lock()
		res, err := h(tx, call)
		em := e.emitter
		e.mu.Unlock()
		tx.flush(em)
		return res, err
	}
}

// on resolves argument 0 as an object accepted by accept.
func (e *Engine) on(accept kindFilter, h objectFunc) ipc.Func {
	return e.fn(func(tx *txn, call *ipc.Call) (any, error) {
		o, err := e.arg(call, 0, accept)
		if err != nil {
			return nil, err
		}
		return h(tx, o, call)
	})
}

// arg resolves argument i as a live object. Must hold e.mu.
func (e *Engine) arg(call *ipc.Call, i int, accept kindFilter) (*object, error) {
	id, err := call.Args.Uint64(i)
	if err != nil {
		return nil, err
	}
	o, ok := e.objects[id]
	if !ok {
		return nil, errors.InvalidHandle(errors.PhaseHost, id, call.Class)
	}
	if !accept(o.kind) {
		return nil, errors.New(errors.PhaseHost, errors.KindInvalidHandle).
			Call(call.Class, call.Method).
			Handle(id).
			Detail("object is a %s", o.kind).
			Build()
	}
	return o, nil
}

// optArg resolves argument i as an object, treating 0 or absence as nil.
func (e *Engine) optArg(call *ipc.Call, i int, accept kindFilter) (*object, error) {
	if !call.Args.Has(i) {
		return nil, nil
	}
	id, err := call.Args.Uint64(i)
	if err != nil || id == 0 {
		return nil, err
	}
	return e.arg(call, i, accept)
}

// alloc registers a new object holding one creation reference.
func (e *Engine) alloc(kind wire.Kind, typ *typeInfo, name string, private bool) *object {
	e.nextID++
	o := &object{
		id:      e.nextID,
		kind:    kind,
		typ:     typ,
		name:    name,
		private: private,
		refs:    1,
		enabled: true,
		volume:  1,
		mixers:  0x3F,
	}
	if typ != nil {
		o.settings = typ.defaults.Clone()
	} else {
		o.settings = wire.Settings{}
	}
	e.objects[o.id] = o
	if e.named(o) {
		e.names[name] = o
	}

	Logger().Debug("object created",
		zap.Uint64("handle", o.id),
		zap.String("kind", string(kind)),
		zap.String("type", o.typeID()),
		zap.String("name", name),
		zap.Bool("private", private))
	return o
}

// public reports whether o takes part in name lookups.
func public(o *object) bool {
	if o.private {
		return false
	}
	switch o.kind {
	case wire.KindInput, wire.KindScene, wire.KindTransition:
		return true
	}
	return false
}

// named reports whether o belongs in the public name index.
func (e *Engine) named(o *object) bool {
	return public(o) && o.name != ""
}

// claimName fails when name is taken by another public source.
func (e *Engine) claimName(name string, private bool) error {
	if private {
		return nil
	}
	if name == "" {
		return errors.InvalidArgument(errors.PhaseHost, []string{"name"}, "name cannot be empty")
	}
	if _, taken := e.names[name]; taken {
		return errors.InvalidArgument(errors.PhaseHost, []string{"name"}, "name already in use: "+name)
	}
	return nil
}

// uniqueName derives a free public name from base.
func (e *Engine) uniqueName(base string) string {
	for i := 2; ; i++ {
		name := base + " " + strconv.Itoa(i)
		if _, taken := e.names[name]; !taken {
			return name
		}
	}
}

func (e *Engine) rename(o *object, name string) error {
	if o.name == name {
		return nil
	}
	if public(o) {
		if err := e.claimName(name, false); err != nil {
			return err
		}
	}
	if e.names[o.name] == o {
		delete(e.names, o.name)
	}
	o.name = name
	if e.named(o) {
		e.names[name] = o
	}
	return nil
}

func (e *Engine) addRef(o *object) {
	if o != nil {
		o.refs++
	}
}

// unref drops one reference and destroys o when none remain.
func (e *Engine) unref(tx *txn, o *object) {
	if o == nil || o.dead {
		return
	}
	o.refs--
	if o.refs <= 0 {
		e.destroy(tx, o)
	}
}

// destroy tears o down regardless of its reference count, detaching it
// from every container.
func (e *Engine) destroy(tx *txn, o *object) {
	if o.dead {
		return
	}
	o.dead = true
	o.refs = 0
	delete(e.objects, o.id)
	if e.names[o.name] == o {
		delete(e.names, o.name)
	}
	e.stopTimers(o)

	if o.kind.IsSource() {
		e.detachSource(tx, o)
	}

	switch {
	case o.scene != nil:
		for len(o.scene.items) > 0 {
			e.destroy(tx, o.scene.items[len(o.scene.items)-1])
		}
	case o.item != nil:
		e.unlinkItem(tx, o)
	case o.transition != nil:
		if p := o.transition.pending; p != nil {
			o.transition.pending = nil
			e.unref(tx, p)
		}
		if a := o.transition.active; a != nil {
			o.transition.active = nil
			e.unref(tx, a)
		}
	case o.encoder != nil, o.kind == wire.KindService:
		e.detachPart(o)
	case o.output != nil:
		e.stopOutput(tx, o, 0)
		if v := o.output.video; v != nil {
			o.output.video = nil
			e.unref(tx, v)
		}
		for idx, a := range o.output.audio {
			delete(o.output.audio, idx)
			e.unref(tx, a)
		}
		if s := o.output.service; s != nil {
			o.output.service = nil
			e.unref(tx, s)
		}
	}

	Logger().Debug("object destroyed",
		zap.Uint64("handle", o.id),
		zap.String("kind", string(o.kind)),
		zap.String("name", o.name))
	tx.emit(o.id, wire.SignalDestroyed, wire.ObjectRef{ID: o.id, Kind: o.kind})
}

// detachSource removes a dying source from filter chains, scenes,
// transitions, channels and meters.
func (e *Engine) detachSource(tx *txn, src *object) {
	if p := src.parent; p != nil {
		p.filters = removeObject(p.filters, src)
		src.parent = nil
	}
	for len(src.filters) > 0 {
		f := src.filters[0]
		src.filters = src.filters[1:]
		f.parent = nil
		e.unref(tx, f)
	}

	for _, o := range e.snapshot() {
		switch {
		case o.item != nil && o.item.source == src:
			e.destroy(tx, o)
		case o.transition != nil:
			if o.transition.active == src {
				o.transition.active = nil
			}
			if o.transition.pending == src {
				o.transition.pending = nil
			}
		case o.fader != nil && o.fader.source == src:
			o.fader.source = nil
		case o.volmeter != nil && o.volmeter.source == src:
			o.volmeter.source = nil
		}
	}
	for i, c := range e.channels {
		if c == src {
			e.channels[i] = nil
		}
	}
}

// snapshot returns live objects ordered by id.
func (e *Engine) snapshot() []*object {
	out := make([]*object, 0, len(e.objects))
	for id := uint64(1); id <= e.nextID && len(out) < len(e.objects); id++ {
		if o, ok := e.objects[id]; ok {
			out = append(out, o)
		}
	}
	return out
}

func removeObject(list []*object, o *object) []*object {
	for i, x := range list {
		if x == o {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func indexOf(list []*object, o *object) int {
	for i, x := range list {
		if x == o {
			return i
		}
	}
	return -1
}

func releaseResult(o *object) wire.ReleaseResult {
	return wire.ReleaseResult{Destroyed: o.dead, Refs: o.refs}
}

// objectFuncs serve the lifecycle and configuration calls shared by every
// kind.
func (e *Engine) objectFuncs() map[string]ipc.Func {
	return map[string]ipc.Func{
		"GetStatus": e.fn(func(_ *txn, call *ipc.Call) (any, error) {
			id, err := call.Args.Uint64(0)
			if err != nil {
				return nil, err
			}
			if _, ok := e.objects[id]; !ok {
				return wire.CodeInvalidReference, nil
			}
			return wire.CodeOk, nil
		}),
		"Release": e.on(anyKind, func(tx *txn, o *object, _ *ipc.Call) (any, error) {
			// Items belong to their scene; a client release only drops
			// the proxy.
			if o.kind == wire.KindSceneItem {
				return releaseResult(o), nil
			}
			e.unref(tx, o)
			return releaseResult(o), nil
		}),
		"Remove": e.on(anyKind, func(tx *txn, o *object, _ *ipc.Call) (any, error) {
			e.destroy(tx, o)
			return releaseResult(o), nil
		}),
		"GetRefs": e.on(anyKind, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.refs, nil
		}),
		"GetId": e.on(anyKind, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.typeID(), nil
		}),
		"GetName": e.on(anyKind, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			if o.item != nil {
				return o.item.source.name, nil
			}
			return o.name, nil
		}),
		"SetName": e.on(anyKind, func(_ *txn, o *object, call *ipc.Call) (any, error) {
			name, err := call.Args.String(1)
			if err != nil {
				return nil, err
			}
			return nil, e.rename(o, name)
		}),
		"GetSettings": e.on(anyKind, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.settings, nil
		}),
		"Update": e.on(anyKind, func(_ *txn, o *object, call *ipc.Call) (any, error) {
			s, err := call.Args.Settings(1)
			if err != nil {
				return nil, err
			}
			if err := validateSettings(o.typ, s); err != nil {
				return nil, err
			}
			o.settings = o.settings.Merge(s)
			return o.settings, nil
		}),
		"GetProperties": e.on(anyKind, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.properties(), nil
		}),
		"IsConfigurable": e.on(anyKind, func(_ *txn, o *object, _ *ipc.Call) (any, error) {
			return o.typ != nil && len(o.typ.props) > 0, nil
		}),
	}
}
