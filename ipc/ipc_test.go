package ipc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/transport"
	"github.com/wippyai/obs-ipc/wire"
)

type pair struct {
	client *Client
	server *Server
	remote transport.Transport
}

func setup(t *testing.T, reg *Registry, opts Options) *pair {
	t.Helper()
	srv := NewServer(reg, ServerOptions{Name: "test"})
	a, b := transport.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- srv.ServeConn(ctx, b) }()

	c, err := Connect(context.Background(), a, opts)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
		cancel()
		_ = srv.Close()
		<-served
	})
	return &pair{client: c, server: srv, remote: b}
}

func echoRegistry(t *testing.T) *Registry {
	reg := NewRegistry()
	require.NoError(t, reg.Register("Test", map[string]Func{
		"echo": func(_ context.Context, call *Call) (any, error) {
			return call.Args.String(0)
		},
		"add": func(_ context.Context, call *Call) (any, error) {
			a, err := call.Args.Int(0)
			if err != nil {
				return nil, err
			}
			b, err := call.Args.Int(1)
			if err != nil {
				return nil, err
			}
			return a + b, nil
		},
		"nothing": func(context.Context, *Call) (any, error) {
			return nil, nil
		},
	}))
	return reg
}

func TestClient_Call(t *testing.T) {
	p := setup(t, echoRegistry(t), Options{Client: "unit"})
	ctx := context.Background()

	assert.Equal(t, "test", p.client.Server())
	assert.NotEmpty(t, p.client.Session())

	reply, err := p.client.Call(ctx, "Test", "echo", "hello")
	require.NoError(t, err)
	var s string
	require.NoError(t, reply.Decode(&s))
	assert.Equal(t, "hello", s)

	reply, err = p.client.Call(ctx, "Test", "nothing")
	require.NoError(t, err)
	assert.True(t, reply.Empty())
}

func TestClient_Pipelining(t *testing.T) {
	p := setup(t, echoRegistry(t), Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reply, err := p.client.Call(ctx, "Test", "add", i, 1000)
			if !assert.NoError(t, err) {
				return
			}
			var sum int
			assert.NoError(t, reply.Decode(&sum))
			assert.Equal(t, i+1000, sum)
		}()
	}
	wg.Wait()
}

func TestClient_RemoteErrors(t *testing.T) {
	reg := echoRegistry(t)
	require.NoError(t, reg.RegisterFunc("Test", "gone", func(context.Context, *Call) (any, error) {
		return nil, errors.InvalidHandle(errors.PhaseHost, 77, "Input")
	}))
	require.NoError(t, reg.RegisterFunc("Test", "panic", func(context.Context, *Call) (any, error) {
		panic("boom")
	}))
	p := setup(t, reg, Options{})
	ctx := context.Background()

	_, err := p.client.Call(ctx, "Test", "gone")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidHandle)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, uint64(77), e.Handle)
	assert.Equal(t, "gone", e.Method)

	_, err = p.client.Call(ctx, "Test", "missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, err = p.client.Call(ctx, "Test", "add", 1)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = p.client.Call(ctx, "Test", "panic")
	assert.ErrorIs(t, err, errors.ErrRemote)

	// The connection survives object-level errors.
	_, err = p.client.Call(ctx, "Test", "echo", "still here")
	assert.NoError(t, err)
}

func TestClient_EventsPrecedeReply(t *testing.T) {
	reg := NewRegistry()
	var srv *Server
	require.NoError(t, reg.RegisterFunc("Test", "destroy", func(_ context.Context, call *Call) (any, error) {
		id, err := call.Args.Uint64(0)
		if err != nil {
			return nil, err
		}
		ev, err := wire.NewEvent(id, wire.SignalDestroyed, nil)
		if err != nil {
			return nil, err
		}
		srv.Emit(ev)
		return wire.ReleaseResult{Destroyed: true}, nil
	}))

	var mu sync.Mutex
	var seen []uint64
	p := setup(t, reg, Options{OnEvent: func(m *wire.Message) {
		mu.Lock()
		seen = append(seen, m.Handle)
		mu.Unlock()
	}})
	srv = p.server

	reply, err := p.client.Call(context.Background(), "Test", "destroy", 12)
	require.NoError(t, err)
	var res wire.ReleaseResult
	require.NoError(t, reply.Decode(&res))
	assert.True(t, res.Destroyed)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{12}, seen)
}

func TestClient_PeerLossFailsPendingCalls(t *testing.T) {
	reg := echoRegistry(t)
	entered := make(chan struct{})
	gate := make(chan struct{})
	require.NoError(t, reg.RegisterFunc("Test", "block", func(context.Context, *Call) (any, error) {
		close(entered)
		<-gate
		return nil, nil
	}))
	p := setup(t, reg, Options{CallTimeout: -1})
	defer close(gate)

	errCh := make(chan error, 1)
	go func() {
		_, err := p.client.Call(context.Background(), "Test", "block")
		errCh <- err
	}()
	<-entered

	require.NoError(t, p.remote.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, errors.ErrDisconnected)
	case <-time.After(2 * time.Second):
		t.Fatal("pending call hung after peer loss")
	}

	<-p.client.Done()
	_, err := p.client.Call(context.Background(), "Test", "echo", "x")
	assert.ErrorIs(t, err, errors.ErrDisconnected)
	assert.ErrorIs(t, p.client.Err(), errors.ErrDisconnected)
}

func TestClient_CloseFailsLaterCalls(t *testing.T) {
	p := setup(t, echoRegistry(t), Options{})
	require.NoError(t, p.client.Close())

	_, err := p.client.Call(context.Background(), "Test", "echo", "x")
	assert.ErrorIs(t, err, errors.ErrConnection)
}

func TestClient_TimeoutDiscardsLateReply(t *testing.T) {
	reg := echoRegistry(t)
	gate := make(chan struct{})
	require.NoError(t, reg.RegisterFunc("Test", "slow", func(context.Context, *Call) (any, error) {
		<-gate
		return "late", nil
	}))
	p := setup(t, reg, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.client.Call(ctx, "Test", "slow")
	assert.ErrorIs(t, err, errors.ErrTimeout)

	close(gate)

	reply, err := p.client.Call(context.Background(), "Test", "echo", "next")
	require.NoError(t, err)
	var s string
	require.NoError(t, reply.Decode(&s))
	assert.Equal(t, "next", s)
}

func TestConnect_VersionMismatch(t *testing.T) {
	srv := NewServer(NewRegistry(), ServerOptions{Version: wire.ProtocolVersion + 1})
	a, b := transport.Pipe()

	served := make(chan error, 1)
	go func() { served <- srv.ServeConn(context.Background(), b) }()

	_, err := Connect(context.Background(), a, Options{})
	assert.ErrorIs(t, err, errors.ErrProtocol)
	assert.ErrorIs(t, <-served, errors.ErrProtocol)
}

func TestServer_Serve(t *testing.T) {
	addr := t.TempDir() + "/serve.sock"
	ln, err := transport.Listen(addr)
	require.NoError(t, err)

	srv := NewServer(echoRegistry(t), ServerOptions{Name: "sock"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	tr, err := transport.Dial(ctx, addr)
	require.NoError(t, err)
	c, err := Connect(ctx, tr, Options{})
	require.NoError(t, err)

	reply, err := c.Call(ctx, "Test", "add", 2, 3)
	require.NoError(t, err)
	var sum int
	require.NoError(t, reply.Decode(&sum))
	assert.Equal(t, 5, sum)
	assert.Equal(t, 1, srv.Connections())

	require.NoError(t, c.Close())
	cancel()
	assert.NoError(t, <-done)
	require.NoError(t, srv.Close())
}

func TestArgs(t *testing.T) {
	raw, err := wire.EncodeArgs(uint64(9), "name", 1.5, true, wire.Settings{"k": "v"}, nil)
	require.NoError(t, err)
	args := Args(raw)

	u, err := args.Uint64(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), u)

	s, err := args.String(1)
	require.NoError(t, err)
	assert.Equal(t, "name", s)

	f, err := args.Float(2)
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)

	b, err := args.Bool(3)
	require.NoError(t, err)
	assert.True(t, b)

	settings, err := args.Settings(4)
	require.NoError(t, err)
	assert.Equal(t, "v", settings["k"])

	settings, err = args.Settings(5)
	require.NoError(t, err)
	assert.Empty(t, settings)
	assert.False(t, args.Has(5))

	_, err = args.String(0)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = args.Uint64(10)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestRegistry(t *testing.T) {
	reg := echoRegistry(t)
	assert.Equal(t, []string{"Test"}, reg.Classes())
	assert.Equal(t, []string{"add", "echo", "nothing"}, reg.Methods("Test"))

	assert.Error(t, reg.Register("", nil))
	assert.Error(t, reg.RegisterFunc("Test", "", nil))

	_, ok := reg.Lookup("Test", "echo")
	assert.True(t, ok)
	_, ok = reg.Lookup("Other", "echo")
	assert.False(t, ok)
}
