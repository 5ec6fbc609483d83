package transport

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/coder/websocket"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/wire"
)

// Subprotocol is negotiated on websocket upgrades.
const Subprotocol = "osn.ipc"

// WebSocket carries one message per binary websocket frame.
type WebSocket struct {
	conn      *websocket.Conn
	done      chan struct{}
	closeOnce sync.Once
}

func newWebSocket(conn *websocket.Conn) *WebSocket {
	conn.SetReadLimit(wire.MaxFrameSize)
	return &WebSocket{conn: conn, done: make(chan struct{})}
}

// DialWebSocket connects to a websocket host.
func DialWebSocket(ctx context.Context, address string) (*WebSocket, error) {
	conn, _, err := websocket.Dial(ctx, address, &websocket.DialOptions{
		Subprotocols: []string{Subprotocol},
	})
	if err != nil {
		return nil, errors.Connection("dial websocket "+address, err)
	}
	return newWebSocket(conn), nil
}

// Send writes one message.
func (w *WebSocket) Send(ctx context.Context, m *wire.Message) error {
	data, err := wire.Marshal(m)
	if err != nil {
		return err
	}
	if err := w.conn.Write(ctx, websocket.MessageBinary, data); err != nil {
		return w.mapError(ctx, err)
	}
	return nil
}

// Receive reads the next message.
func (w *WebSocket) Receive(ctx context.Context) (*wire.Message, error) {
	typ, data, err := w.conn.Read(ctx)
	if err != nil {
		return nil, w.mapError(ctx, err)
	}
	if typ != websocket.MessageBinary {
		return nil, errors.Protocol(errors.PhaseDecode, "unexpected text frame", nil)
	}
	return wire.Unmarshal(data)
}

// Close performs a normal closure.
func (w *WebSocket) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.conn.Close(websocket.StatusNormalClosure, "")
		close(w.done)
	})
	return err
}

func (w *WebSocket) mapError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if websocket.CloseStatus(err) != -1 || disconnected(err) {
		return errors.Disconnected(err)
	}
	return errors.Connection("websocket i/o", err)
}

type wsListener struct {
	srv      *http.Server
	ln       net.Listener
	addr     string
	accepted chan *WebSocket
	closed   chan struct{}
	once     sync.Once
}

// ListenWebSocket serves websocket upgrades on the host and path of address.
// Port 0 picks a free port; Addr reports the bound URL.
func ListenWebSocket(address string) (Listener, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, errors.Connection("parse websocket address "+address, err)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	ln, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, errors.Connection("listen "+u.Host, err)
	}

	l := &wsListener{
		ln:       ln,
		addr:     u.Scheme + "://" + ln.Addr().String() + path,
		accepted: make(chan *WebSocket),
		closed:   make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, l.upgrade)
	l.srv = &http.Server{Handler: mux}

	go func() {
		_ = l.srv.Serve(ln)
	}()
	return l, nil
}

func (l *wsListener) upgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: []string{Subprotocol},
	})
	if err != nil {
		return
	}

	t := newWebSocket(conn)
	select {
	case l.accepted <- t:
	case <-l.closed:
		_ = conn.Close(websocket.StatusGoingAway, "listener closed")
		return
	}

	// Hold the handler until the transport is done with the connection.
	select {
	case <-t.done:
	case <-l.closed:
	}
}

func (l *wsListener) Accept(ctx context.Context) (Transport, error) {
	select {
	case t := <-l.accepted:
		return t, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closed:
		return nil, errors.Connection("accept", io.EOF)
	}
}

func (l *wsListener) Close() error {
	var err error
	l.once.Do(func() {
		close(l.closed)
		err = l.srv.Close()
	})
	return err
}

func (l *wsListener) Addr() string {
	return l.addr
}
