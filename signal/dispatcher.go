package signal

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"

	"github.com/wippyai/obs-ipc/wire"
)

// DefaultLossyDepth bounds the mailbox of lossy signals when Options leaves
// it unset.
const DefaultLossyDepth = 8

// Event is one host-originated signal.
type Event struct {
	Handle  uint64
	Signal  wire.Signal
	Payload json.RawMessage
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	return wire.DecodeValue(e.Payload, v)
}

// Handler receives events of the group it was attached to.
type Handler func(Event)

// Token identifies one attached handler.
type Token uuid.UUID

// NilToken is never returned by Attach.
var NilToken Token

func (t Token) String() string { return uuid.UUID(t).String() }

// Options configures a Dispatcher.
type Options struct {
	// LossyDepth bounds pending snapshots per lossy group.
	LossyDepth int
}

// GroupStats reports counters of one (handle, signal) group.
type GroupStats struct {
	Handle    uint64
	Signal    wire.Signal
	Handlers  int
	Pending   int
	Delivered uint64
	Dropped   uint64
}

type groupKey struct {
	handle uint64
	signal wire.Signal
}

type entry struct {
	token Token
	fn    Handler
}

type group struct {
	key       groupKey
	box       *mailbox
	handlers  atomic.Pointer[[]entry]
	delivered atomic.Uint64
	done      chan struct{}
}

// Dispatcher routes events to handlers by (handle, signal).
type Dispatcher struct {
	groups     map[groupKey]*group
	tokens     map[Token]groupKey
	lossyDepth int
	wg         sync.WaitGroup
	mu         sync.Mutex
	closed     bool
}

// NewDispatcher creates an idle dispatcher.
func NewDispatcher(opts Options) *Dispatcher {
	depth := opts.LossyDepth
	if depth <= 0 {
		depth = DefaultLossyDepth
	}
	return &Dispatcher{
		groups:     make(map[groupKey]*group),
		tokens:     make(map[Token]groupKey),
		lossyDepth: depth,
	}
}

// Attach registers fn for events of (handle, sig). Handlers of one group
// run in the order they were attached. A closed dispatcher returns NilToken.
func (d *Dispatcher) Attach(handle uint64, sig wire.Signal, fn Handler) Token {
	if fn == nil {
		return NilToken
	}
	key := groupKey{handle: handle, signal: sig}
	tok := Token(uuid.New())

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return NilToken
	}

	g, ok := d.groups[key]
	if !ok {
		depth := 0
		if sig.Lossy() {
			depth = d.lossyDepth
		}
		g = &group{key: key, box: newMailbox(depth), done: make(chan struct{})}
		empty := []entry{}
		g.handlers.Store(&empty)
		d.groups[key] = g
		d.wg.Add(1)
		go d.run(g)
	}

	old := *g.handlers.Load()
	next := make([]entry, len(old), len(old)+1)
	copy(next, old)
	next = append(next, entry{token: tok, fn: fn})
	g.handlers.Store(&next)
	d.tokens[tok] = key

	Logger().Debug("callback attached",
		zap.Uint64("handle", handle),
		zap.String("signal", string(sig)),
		zap.Stringer("token", tok))
	return tok
}

// Detach removes the handler registered under tok. It reports whether the
// token was known. A group with no handlers left stops its goroutine and
// discards pending events.
func (d *Dispatcher) Detach(tok Token) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	key, ok := d.tokens[tok]
	if !ok {
		return false
	}
	delete(d.tokens, tok)

	g := d.groups[key]
	old := *g.handlers.Load()
	next := make([]entry, 0, len(old))
	for _, e := range old {
		if e.token != tok {
			next = append(next, e)
		}
	}
	g.handlers.Store(&next)

	if len(next) == 0 {
		delete(d.groups, key)
		g.box.close()
	}
	return true
}

// DetachHandle removes every handler attached to handle, as when the
// remote object is destroyed. It returns the number of handlers removed.
func (d *Dispatcher) DetachHandle(handle uint64) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for key, g := range d.groups {
		if key.handle != handle {
			continue
		}
		for _, e := range *g.handlers.Load() {
			delete(d.tokens, e.token)
			n++
		}
		empty := []entry{}
		g.handlers.Store(&empty)
		delete(d.groups, key)
		g.box.close()
	}
	return n
}

// Deliver queues ev for its group. It reports false when nothing is
// attached to (ev.Handle, ev.Signal).
func (d *Dispatcher) Deliver(ev Event) bool {
	d.mu.Lock()
	g, ok := d.groups[groupKey{handle: ev.Handle, signal: ev.Signal}]
	d.mu.Unlock()
	if !ok {
		return false
	}

	dropped, ok := g.box.push(ev)
	if dropped {
		Logger().Warn("lossy signal dropped",
			zap.Uint64("handle", ev.Handle),
			zap.String("signal", string(ev.Signal)))
	}
	return ok
}

// Attached returns the number of live handlers.
func (d *Dispatcher) Attached() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tokens)
}

// Stats returns per-group counters.
func (d *Dispatcher) Stats() []GroupStats {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]GroupStats, 0, len(d.groups))
	for key, g := range d.groups {
		out = append(out, GroupStats{
			Handle:    key.handle,
			Signal:    key.signal,
			Handlers:  len(*g.handlers.Load()),
			Pending:   g.box.pending(),
			Delivered: g.delivered.Load(),
			Dropped:   g.box.drops(),
		})
	}
	return out
}

// Close detaches everything and waits for in-flight deliveries to finish.
// Must not be called from inside a handler.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	for key, g := range d.groups {
		delete(d.groups, key)
		g.box.close()
	}
	clear(d.tokens)
	d.mu.Unlock()

	d.wg.Wait()
	return nil
}

func (d *Dispatcher) run(g *group) {
	defer d.wg.Done()
	for {
		ev, ok := g.box.pop()
		if !ok {
			return
		}
		for _, e := range *g.handlers.Load() {
			d.invoke(e, ev)
		}
		g.delivered.Add(1)
	}
}

func (d *Dispatcher) invoke(e entry, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("callback panicked",
				zap.Uint64("handle", ev.Handle),
				zap.String("signal", string(ev.Signal)),
				zap.Stringer("token", e.token),
				zap.Any("panic", r))
		}
	}()
	e.fn(ev)
}
