package ipc

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/transport"
	"github.com/wippyai/obs-ipc/wire"
)

const (
	DefaultCallTimeout      = 10 * time.Second
	DefaultHandshakeTimeout = 5 * time.Second
)

// EventHandler receives host events on the dispatch loop. It must not block
// on a call made through the same client.
type EventHandler func(*wire.Message)

// Options configures a Client.
type Options struct {
	// Client is sent in the hello message for host-side logs.
	Client string

	// Session overrides the generated session id.
	Session string

	// CallTimeout applies to calls whose context has no deadline.
	// Negative disables it.
	CallTimeout time.Duration

	HandshakeTimeout time.Duration

	OnEvent EventHandler
}

func (o Options) withDefaults() Options {
	if o.CallTimeout == 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if o.Session == "" {
		o.Session = uuid.NewString()
	}
	return o
}

// Client issues requests over one transport.
type Client struct {
	t       transport.Transport
	onEvent atomic.Pointer[EventHandler]
	pending map[uint64]chan *wire.Message
	err     error
	done    chan struct{}
	opts    Options
	server  string
	nextID  atomic.Uint64
	writeMu sync.Mutex
	mu      sync.Mutex
	closing bool
}

// Connect performs the handshake on t and starts the dispatch loop. On
// failure t is closed.
func Connect(ctx context.Context, t transport.Transport, opts Options) (*Client, error) {
	opts = opts.withDefaults()
	c := &Client{
		t:       t,
		opts:    opts,
		pending: make(map[uint64]chan *wire.Message),
		done:    make(chan struct{}),
	}
	if opts.OnEvent != nil {
		c.OnEvent(opts.OnEvent)
	}

	if err := c.handshake(ctx); err != nil {
		_ = t.Close()
		return nil, err
	}

	Logger().Info("connected",
		zap.String("session", opts.Session),
		zap.String("server", c.server))

	go c.loop()
	return c, nil
}

func (c *Client) handshake(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.HandshakeTimeout)
	defer cancel()

	hello, err := wire.EncodeValue(wire.Hello{
		Version: wire.ProtocolVersion,
		Session: c.opts.Session,
		Client:  c.opts.Client,
	})
	if err != nil {
		return err
	}
	if err := c.t.Send(ctx, &wire.Message{Type: wire.TypeHello, Payload: hello}); err != nil {
		return errors.Connection("send hello", err)
	}

	m, err := c.t.Receive(ctx)
	if err != nil {
		return errors.Connection("await welcome", err)
	}

	switch m.Type {
	case wire.TypeWelcome:
		var w wire.Welcome
		if err := wire.DecodeValue(m.Payload, &w); err != nil {
			return errors.Protocol(errors.PhaseConnect, "malformed welcome", err)
		}
		if w.Version != wire.ProtocolVersion {
			return errors.ProtocolMismatch(wire.ProtocolVersion, w.Version)
		}
		c.server = w.Server
		return nil
	case wire.TypeResponse:
		if m.Code == wire.CodeProtocolMismatch {
			var remote int
			_ = wire.DecodeValue(m.Result, &remote)
			return errors.ProtocolMismatch(wire.ProtocolVersion, remote)
		}
		return errors.Protocol(errors.PhaseConnect, "handshake rejected: "+m.Error, nil)
	}
	return errors.Protocol(errors.PhaseConnect, "unexpected "+string(m.Type)+" during handshake", nil)
}

// OnEvent installs the event handler, replacing any previous one.
func (c *Client) OnEvent(fn EventHandler) {
	if fn == nil {
		c.onEvent.Store(nil)
		return
	}
	c.onEvent.Store(&fn)
}

// Session returns the session id sent in the handshake.
func (c *Client) Session() string { return c.opts.Session }

// Server returns the name the host announced.
func (c *Client) Server() string { return c.server }

// Done is closed once the dispatch loop has stopped.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns the terminal connection error, or nil while connected.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Call sends a request and waits for its reply. Error replies come back
// as *errors.Error with the kind mapped from the host code.
func (c *Client) Call(ctx context.Context, class, method string, args ...any) (*Reply, error) {
	id := c.nextID.Add(1)
	req, err := wire.NewRequest(id, class, method, args...)
	if err != nil {
		return nil, err
	}

	ch := make(chan *wire.Message, 1)
	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return nil, err
	}
	c.pending[id] = ch
	c.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok && c.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.CallTimeout)
		defer cancel()
	}

	Logger().Debug("call",
		zap.Uint64("id", id),
		zap.String("class", class),
		zap.String("method", method))

	c.writeMu.Lock()
	err = c.t.Send(ctx, req)
	c.writeMu.Unlock()
	if err != nil {
		c.discard(id)
		if terr := c.Err(); terr != nil {
			return nil, terr
		}
		if ctx.Err() != nil {
			return nil, errors.Timeout(class, method, ctx.Err())
		}
		return nil, err
	}

	select {
	case m, ok := <-ch:
		if !ok {
			return nil, c.Err()
		}
		if m.Code != wire.CodeOk {
			return nil, remoteError(class, method, m)
		}
		return &Reply{Class: class, Method: method, Result: m.Result}, nil
	case <-ctx.Done():
		c.discard(id)
		return nil, errors.Timeout(class, method, ctx.Err())
	}
}

func (c *Client) discard(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Close shuts the transport down and waits for the dispatch loop. Pending
// and later calls fail with a ConnectionError.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closing = true
	c.mu.Unlock()

	err := c.t.Close()
	<-c.done
	return err
}

func (c *Client) loop() {
	defer close(c.done)
	for {
		m, err := c.t.Receive(context.Background())
		if err != nil {
			c.fail(err)
			return
		}

		switch m.Type {
		case wire.TypeResponse:
			c.mu.Lock()
			ch, ok := c.pending[m.ID]
			delete(c.pending, m.ID)
			c.mu.Unlock()
			if !ok {
				Logger().Warn("late reply dropped", zap.Uint64("id", m.ID))
				continue
			}
			ch <- m
		case wire.TypeEvent:
			if fn := c.onEvent.Load(); fn != nil {
				(*fn)(m)
			}
		default:
			Logger().Error("unexpected message",
				zap.String("type", string(m.Type)),
				zap.Uint64("id", m.ID))
		}
	}
}

// fail records the terminal error and releases every pending caller.
func (c *Client) fail(cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closing:
		c.err = errors.Connection("connection closed", nil)
	case errors.KindOf(cause) == errors.KindDisconnected:
		c.err = cause
	default:
		c.err = errors.Disconnected(cause)
	}

	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}

	if c.closing {
		Logger().Info("disconnected", zap.String("session", c.opts.Session))
	} else {
		Logger().Warn("connection lost",
			zap.String("session", c.opts.Session),
			zap.Error(cause))
	}
}
