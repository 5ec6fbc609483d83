package ipc

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/transport"
	"github.com/wippyai/obs-ipc/wire"
)

// DefaultWriteTimeout bounds how long Emit waits on one slow connection.
const DefaultWriteTimeout = 5 * time.Second

// ServerOptions configures a Server.
type ServerOptions struct {
	// Name is announced in the welcome message.
	Name string

	// Version is the protocol version accepted. Zero means the current one.
	Version int

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

// Server serves registered functions to connected clients.
type Server struct {
	reg       *Registry
	conns     map[*conn]struct{}
	listeners map[transport.Listener]struct{}
	opts      ServerOptions
	wg        sync.WaitGroup
	mu        sync.Mutex
	closed    bool
}

type conn struct {
	t       transport.Transport
	session string
	writeMu sync.Mutex
}

func (c *conn) send(ctx context.Context, m *wire.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.t.Send(ctx, m)
}

// NewServer creates a server dispatching to reg.
func NewServer(reg *Registry, opts ServerOptions) *Server {
	if opts.Version == 0 {
		opts.Version = wire.ProtocolVersion
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	return &Server{
		reg:       reg,
		opts:      opts,
		conns:     make(map[*conn]struct{}),
		listeners: make(map[transport.Listener]struct{}),
	}
}

// Serve accepts connections from l until ctx ends or the server closes.
// It closes l before returning.
func (s *Server) Serve(ctx context.Context, l transport.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = l.Close()
		return errors.Connection("server closed", nil)
	}
	s.listeners[l] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.listeners, l)
		s.mu.Unlock()
		_ = l.Close()
	}()

	Logger().Info("serving", zap.String("addr", l.Addr()), zap.String("name", s.opts.Name))

	for {
		t, err := l.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || s.isClosed() {
				return nil
			}
			return err
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.ServeConn(ctx, t); err != nil {
				Logger().Warn("connection ended", zap.Error(err))
			}
		}()
	}
}

// ServeConn runs the handshake on t and handles its requests in order until
// the peer disconnects. t is closed on return.
func (s *Server) ServeConn(ctx context.Context, t transport.Transport) error {
	defer t.Close()

	c, err := s.accept(ctx, t)
	if err != nil {
		return err
	}

	if !s.track(c) {
		return errors.Connection("server closed", nil)
	}
	defer s.untrack(c)

	// Closing the transport unblocks Receive when ctx ends.
	stop := context.AfterFunc(ctx, func() { _ = t.Close() })
	defer stop()

	for {
		m, err := t.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.KindOf(err) == errors.KindDisconnected {
				Logger().Info("client left", zap.String("session", c.session))
				return nil
			}
			return err
		}
		if m.Type != wire.TypeRequest {
			Logger().Error("unexpected message",
				zap.String("session", c.session),
				zap.String("type", string(m.Type)))
			continue
		}
		if err := c.send(ctx, s.handle(ctx, c, m)); err != nil {
			if errors.KindOf(err) == errors.KindDisconnected {
				return nil
			}
			return err
		}
	}
}

func (s *Server) accept(ctx context.Context, t transport.Transport) (*conn, error) {
	hctx, cancel := context.WithTimeout(ctx, s.opts.HandshakeTimeout)
	defer cancel()

	m, err := t.Receive(hctx)
	if err != nil {
		return nil, errors.Connection("await hello", err)
	}
	if m.Type != wire.TypeHello {
		return nil, errors.Protocol(errors.PhaseConnect, "expected hello, got "+string(m.Type), nil)
	}
	var hello wire.Hello
	if err := wire.DecodeValue(m.Payload, &hello); err != nil {
		return nil, errors.Protocol(errors.PhaseConnect, "malformed hello", err)
	}

	if hello.Version != s.opts.Version {
		result, _ := wire.EncodeValue(s.opts.Version)
		_ = t.Send(hctx, &wire.Message{
			Type:   wire.TypeResponse,
			Code:   wire.CodeProtocolMismatch,
			Error:  "protocol version mismatch",
			Result: result,
		})
		return nil, errors.ProtocolMismatch(s.opts.Version, hello.Version)
	}

	welcome, err := wire.EncodeValue(wire.Welcome{
		Version: s.opts.Version,
		Session: hello.Session,
		Server:  s.opts.Name,
	})
	if err != nil {
		return nil, err
	}
	if err := t.Send(hctx, &wire.Message{Type: wire.TypeWelcome, Payload: welcome}); err != nil {
		return nil, errors.Connection("send welcome", err)
	}

	Logger().Info("client joined",
		zap.String("session", hello.Session),
		zap.String("client", hello.Client))
	return &conn{t: t, session: hello.Session}, nil
}

func (s *Server) handle(ctx context.Context, c *conn, m *wire.Message) *wire.Message {
	res := &wire.Message{Type: wire.TypeResponse, ID: m.ID}

	fn, ok := s.reg.Lookup(m.Class, m.Method)
	if !ok {
		res.Code = wire.CodeNotFound
		res.Error = "unknown method " + m.Class + "." + m.Method
		return res
	}

	call := &Call{
		Class:   m.Class,
		Method:  m.Method,
		Session: c.session,
		ID:      m.ID,
		Args:    Args(m.Args),
	}
	result, err := s.invoke(ctx, fn, call)
	var data json.RawMessage
	if err == nil {
		data, err = wire.EncodeValue(result)
	}
	if err != nil {
		res.Code = codeOf(err)
		res.Error = err.Error()
		var e *errors.Error
		if stderrors.As(err, &e) {
			res.Handle = e.Handle
		}
		Logger().Debug("call failed",
			zap.String("class", m.Class),
			zap.String("method", m.Method),
			zap.Error(err))
		return res
	}
	res.Result = data
	return res
}

func (s *Server) invoke(ctx context.Context, fn Func, call *Call) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("handler panicked",
				zap.String("class", call.Class),
				zap.String("method", call.Method),
				zap.Any("panic", r))
			err = errors.New(errors.PhaseHost, errors.KindRemote).
				Call(call.Class, call.Method).
				Detail("handler panicked").
				Build()
		}
	}()
	return fn(ctx, call)
}

// Emit sends m to every connected client. A connection that cannot take the
// event within the write timeout is closed.
func (s *Server) Emit(m *wire.Message) {
	s.mu.Lock()
	conns := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.WriteTimeout)
		err := c.send(ctx, m)
		cancel()
		if err != nil {
			Logger().Warn("emit failed, dropping client",
				zap.String("session", c.session),
				zap.String("signal", string(m.Signal)),
				zap.Error(err))
			_ = c.t.Close()
		}
	}
}

// Connections returns the number of live client connections.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Close stops every listener and connection and waits for them to finish.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for l := range s.listeners {
		_ = l.Close()
	}
	for c := range s.conns {
		_ = c.t.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) track(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c *conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}
