package osn

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/host"
	"github.com/wippyai/obs-ipc/ipc"
	"github.com/wippyai/obs-ipc/resource"
	"github.com/wippyai/obs-ipc/signal"
	"github.com/wippyai/obs-ipc/transport"
	"github.com/wippyai/obs-ipc/wire"
)

// Options configures a Session.
type Options struct {
	// Client names this process in the handshake.
	Client string

	// CallTimeout bounds each call without its own deadline. Zero uses
	// ipc.DefaultCallTimeout; negative disables it.
	CallTimeout time.Duration

	HandshakeTimeout time.Duration

	// LossyDepth bounds queued volmeter and fader snapshots per callback
	// group.
	LossyDepth int

	// Engine configures the engine started by Host.
	Engine host.Options
}

// Session owns at most one connection to a host.
type Session struct {
	cur  *conn
	opts Options
	mu   sync.Mutex
}

// conn is the state of one connection. Proxies keep the conn they were
// created on, so a stale proxy never touches a newer connection.
type conn struct {
	client *ipc.Client
	table  *resource.Table
	disp   *signal.Dispatcher
	name   string

	// set when this session hosts the engine
	server    *ipc.Server
	engine    *host.Engine
	cancel    context.CancelFunc
	served    chan struct{}
	closeOnce sync.Once
}

// NewSession creates a disconnected session.
func NewSession(opts Options) *Session {
	if opts.Client == "" {
		opts.Client = "osn"
	}
	return &Session{opts: opts}
}

// active returns the live connection, dropping one whose peer has gone.
// Must hold s.mu.
func (s *Session) active() *conn {
	c := s.cur
	if c == nil {
		return nil
	}
	select {
	case <-c.client.Done():
		s.cur = nil
		_ = c.close()
		return nil
	default:
		return c
	}
}

// Host starts an engine serving name and connects to it. It fails with a
// ConnectionError when the session is already connected or another host
// serves name.
func (s *Session) Host(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active() != nil {
		return errors.Connection("session already connected", nil)
	}

	l, err := transport.Listen(name)
	if err != nil {
		return err
	}

	eng := host.New(s.opts.Engine)
	reg := ipc.NewRegistry()
	if err := eng.Register(reg); err != nil {
		_ = l.Close()
		return err
	}
	srv := ipc.NewServer(reg, ipc.ServerOptions{Name: name})
	eng.SetEmitter(srv)

	sctx, cancel := context.WithCancel(context.Background())
	served := make(chan struct{})
	go func() {
		defer close(served)
		if err := srv.Serve(sctx, l); err != nil {
			Logger().Error("serve failed", zap.String("name", name), zap.Error(err))
		}
	}()
	stop := func() {
		cancel()
		_ = srv.Close()
		<-served
		_ = eng.Close()
	}

	t, err := transport.Dial(ctx, l.Addr())
	if err != nil {
		stop()
		return err
	}
	c, err := s.attach(ctx, t, name)
	if err != nil {
		stop()
		return err
	}
	c.server, c.engine, c.cancel, c.served = srv, eng, cancel, served
	s.cur = c

	Logger().Info("hosting", zap.String("name", name), zap.String("addr", l.Addr()))
	return nil
}

// Connect attaches to the host serving name.
func (s *Session) Connect(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active() != nil {
		return errors.Connection("session already connected", nil)
	}

	t, err := transport.Dial(ctx, transport.Address(name))
	if err != nil {
		return err
	}
	c, err := s.attach(ctx, t, name)
	if err != nil {
		return err
	}
	s.cur = c
	return nil
}

// Attach connects over an established transport.
func (s *Session) Attach(ctx context.Context, t transport.Transport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active() != nil {
		_ = t.Close()
		return errors.Connection("session already connected", nil)
	}
	c, err := s.attach(ctx, t, "")
	if err != nil {
		return err
	}
	s.cur = c
	return nil
}

func (s *Session) attach(ctx context.Context, t transport.Transport, name string) (*conn, error) {
	c := &conn{
		table: resource.NewTable(),
		disp:  signal.NewDispatcher(signal.Options{LossyDepth: s.opts.LossyDepth}),
		name:  name,
	}
	client, err := ipc.Connect(ctx, t, ipc.Options{
		Client:           s.opts.Client,
		Session:          uuid.NewString(),
		CallTimeout:      s.opts.CallTimeout,
		HandshakeTimeout: s.opts.HandshakeTimeout,
		OnEvent:          c.onEvent,
	})
	if err != nil {
		_ = c.disp.Close()
		_ = c.table.Close()
		return nil, err
	}
	c.client = client
	if c.name == "" {
		c.name = client.Server()
	}

	go func() {
		<-client.Done()
		if n := c.table.InvalidateAll(); n > 0 {
			Logger().Debug("handles invalidated", zap.String("name", c.name), zap.Int("count", n))
		}
	}()
	return c, nil
}

// onEvent runs on the client's dispatch loop, so a destroyed event is
// applied before the reply that follows it is read.
func (c *conn) onEvent(m *wire.Message) {
	if m.Signal == wire.SignalDestroyed {
		c.table.Invalidate(m.Handle)
		c.disp.DetachHandle(m.Handle)
		return
	}
	c.disp.Deliver(signal.Event{Handle: m.Handle, Signal: m.Signal, Payload: m.Payload})
}

func (c *conn) close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.client.Close()
		c.table.InvalidateAll()
		_ = c.disp.Close()
		_ = c.table.Close()
		if c.server != nil {
			c.cancel()
			_ = c.server.Close()
			<-c.served
			_ = c.engine.Close()
		}
	})
	return err
}

// Disconnect closes the connection and, when hosting, stops the engine.
// Every proxy of the connection becomes invalid.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	c := s.cur
	s.cur = nil
	s.mu.Unlock()
	if c == nil {
		return errors.Connection("session not connected", nil)
	}
	Logger().Info("disconnecting", zap.String("name", c.name))
	return c.close()
}

// Connected reports whether the session has a live connection.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active() != nil
}

// Name returns the host name of the current connection.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return ""
	}
	return s.cur.name
}

// Handles returns the number of distinct remote objects with live proxies.
func (s *Session) Handles() int {
	c, err := s.conn()
	if err != nil {
		return 0
	}
	return c.table.Len()
}

// Stats reports the callback groups of the current connection.
func (s *Session) Stats() []signal.GroupStats {
	c, err := s.conn()
	if err != nil {
		return nil
	}
	return c.disp.Stats()
}

func (s *Session) conn() (*conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return nil, errors.Connection("session not connected", nil)
	}
	return s.cur, nil
}

// Call issues a raw request on the current connection.
func (s *Session) Call(ctx context.Context, class, method string, args ...any) (*ipc.Reply, error) {
	c, err := s.conn()
	if err != nil {
		return nil, err
	}
	return c.client.Call(ctx, class, method, args...)
}

// call issues a factory or global request and decodes the result as T.
func call[T any](ctx context.Context, s *Session, class, method string, args ...any) (T, error) {
	_, v, err := callOn[T](ctx, s, class, method, args...)
	return v, err
}

// callOn is call that also returns the connection used, so proxies built
// from the result bind to it.
func callOn[T any](ctx context.Context, s *Session, class, method string, args ...any) (*conn, T, error) {
	var v T
	c, err := s.conn()
	if err != nil {
		return nil, v, err
	}
	r, err := c.client.Call(ctx, class, method, args...)
	if err != nil {
		return nil, v, err
	}
	if err := r.Decode(&v); err != nil {
		return nil, v, err
	}
	return c, v, nil
}

func callRef(ctx context.Context, s *Session, class, method string, args ...any) (*conn, wire.ObjectRef, error) {
	return callOn[wire.ObjectRef](ctx, s, class, method, args...)
}

func callRefs(ctx context.Context, s *Session, class, method string, args ...any) (*conn, []wire.ObjectRef, error) {
	return callOn[[]wire.ObjectRef](ctx, s, class, method, args...)
}
