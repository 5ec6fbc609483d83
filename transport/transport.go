package transport

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/wire"
)

// Transport is a bidirectional message channel.
type Transport interface {
	Send(ctx context.Context, m *wire.Message) error
	Receive(ctx context.Context) (*wire.Message, error)
	Close() error
}

// Listener accepts incoming transports.
type Listener interface {
	Accept(ctx context.Context) (Transport, error)
	Close() error
	Addr() string
}

// Address resolves a server name to a dialable address. Websocket URLs and
// paths are returned unchanged.
func Address(name string) string {
	if IsWebSocket(name) || strings.ContainsRune(name, os.PathSeparator) {
		return name
	}
	return filepath.Join(os.TempDir(), "osn-"+name+".sock")
}

// IsWebSocket reports whether address is a websocket URL.
func IsWebSocket(address string) bool {
	return strings.HasPrefix(address, "ws://") || strings.HasPrefix(address, "wss://")
}

// Dial connects to address.
func Dial(ctx context.Context, address string) (Transport, error) {
	if IsWebSocket(address) {
		ws, err := DialWebSocket(ctx, address)
		if err != nil {
			return nil, err
		}
		return ws, nil
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", Address(address))
	if err != nil {
		return nil, errors.Connection("dial "+address, err)
	}
	return NewStream(conn), nil
}

// Listen binds address.
func Listen(address string) (Listener, error) {
	if IsWebSocket(address) {
		return ListenWebSocket(address)
	}
	ln, err := listenUnix(Address(address))
	if err != nil {
		return nil, err
	}
	return ln, nil
}

// disconnected classifies read failures that mean the peer is gone.
func disconnected(err error) bool {
	if err == nil {
		return false
	}
	return err == io.EOF ||
		err == io.ErrUnexpectedEOF ||
		err == io.ErrClosedPipe ||
		stderrors.Is(err, net.ErrClosed) ||
		stderrors.Is(err, syscall.ECONNRESET) ||
		stderrors.Is(err, syscall.EPIPE)
}
