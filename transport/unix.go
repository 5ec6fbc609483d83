package transport

import (
	"context"
	"net"
	"os"
	"time"

	"github.com/wippyai/obs-ipc/errors"
)

type unixListener struct {
	ln   *net.UnixListener
	path string
}

func listenUnix(path string) (*unixListener, error) {
	if _, err := os.Stat(path); err == nil {
		conn, dialErr := net.DialTimeout("unix", path, 250*time.Millisecond)
		if dialErr == nil {
			_ = conn.Close()
			return nil, errors.Connection("a server is already bound to "+path, nil)
		}
		// Stale socket left behind by a crashed host.
		if err := os.Remove(path); err != nil {
			return nil, errors.Connection("remove stale socket "+path, err)
		}
	}

	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, errors.Connection("listen "+path, err)
	}
	return &unixListener{ln: ln, path: path}, nil
}

func (l *unixListener) Accept(ctx context.Context) (Transport, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = l.ln.SetDeadline(time.Now())
	})
	defer func() {
		if !stop() {
			_ = l.ln.SetDeadline(time.Time{})
		}
	}()

	conn, err := l.ln.Accept()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.Connection("accept", err)
	}
	return NewStream(conn), nil
}

func (l *unixListener) Close() error {
	return l.ln.Close()
}

func (l *unixListener) Addr() string {
	return l.path
}
