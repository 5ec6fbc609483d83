package transport

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/wire"
)

// Stream frames messages over a byte stream.
type Stream struct {
	conn      io.ReadWriteCloser
	enc       *wire.Encoder
	dec       *wire.Decoder
	readMu    sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewStream wraps conn. The Stream owns conn from here on.
func NewStream(conn io.ReadWriteCloser) *Stream {
	return &Stream{
		conn: conn,
		enc:  wire.NewEncoder(conn),
		dec:  wire.NewDecoder(conn),
	}
}

// Pipe returns two connected in-memory transports.
func Pipe() (*Stream, *Stream) {
	a, b := net.Pipe()
	return NewStream(a), NewStream(b)
}

// Send writes one message.
func (s *Stream) Send(ctx context.Context, m *wire.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if nc, ok := s.conn.(net.Conn); ok {
		if deadline, ok := ctx.Deadline(); ok {
			_ = nc.SetWriteDeadline(deadline)
			defer func() { _ = nc.SetWriteDeadline(time.Time{}) }()
		}
	}

	if err := s.enc.Encode(m); err != nil {
		return s.mapError(ctx, err)
	}
	return nil
}

// Receive reads the next message.
func (s *Stream) Receive(ctx context.Context) (*wire.Message, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	if nc, ok := s.conn.(net.Conn); ok {
		stop := context.AfterFunc(ctx, func() {
			_ = nc.SetReadDeadline(time.Now())
		})
		defer func() {
			if !stop() {
				_ = nc.SetReadDeadline(time.Time{})
			}
		}()
	}

	m, err := s.dec.Decode()
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	return m, nil
}

// Close closes the underlying stream.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

func (s *Stream) mapError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if _, ok := err.(*errors.Error); ok {
		return err
	}
	if disconnected(err) {
		return errors.Disconnected(err)
	}
	return errors.Connection("stream i/o", err)
}
