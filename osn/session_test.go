package osn

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/host"
	"github.com/wippyai/obs-ipc/ipc"
	"github.com/wippyai/obs-ipc/transport"
	"github.com/wippyai/obs-ipc/wire"
)

type fixture struct {
	s      *Session
	remote transport.Transport
	ctx    context.Context
}

// attached connects a session to an in-process engine over a pipe.
func attached(t *testing.T) *fixture {
	t.Helper()
	eng := host.New(host.Options{VolmeterInterval: 5 * time.Millisecond})
	reg := ipc.NewRegistry()
	require.NoError(t, eng.Register(reg))
	srv := ipc.NewServer(reg, ipc.ServerOptions{Name: "test"})
	eng.SetEmitter(srv)

	a, b := transport.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- srv.ServeConn(ctx, b) }()

	s := NewSession(Options{Client: "osn-test"})
	require.NoError(t, s.Attach(context.Background(), a))

	t.Cleanup(func() {
		_ = s.Disconnect()
		cancel()
		_ = srv.Close()
		<-served
		_ = eng.Close()
	})
	return &fixture{s: s, remote: b, ctx: context.Background()}
}

func (f *fixture) input(t *testing.T, name string) *Input {
	t.Helper()
	in, err := f.s.Inputs().Create(f.ctx, "color_source", name, nil)
	require.NoError(t, err)
	require.NotNil(t, in)
	return in
}

func kindOf(t *testing.T, err error) errors.Kind {
	t.Helper()
	require.Error(t, err)
	return errors.KindOf(err)
}

func hostName() string {
	return "t" + uuid.NewString()[:8]
}

func TestSession_NotConnected(t *testing.T) {
	s := NewSession(Options{})
	assert.False(t, s.Connected())

	_, err := s.Inputs().Types(context.Background())
	assert.Equal(t, errors.KindConnection, kindOf(t, err))
	assert.Equal(t, errors.KindConnection, kindOf(t, s.Disconnect()))
	assert.Zero(t, s.Handles())
}

func TestSession_HostAndConnect(t *testing.T) {
	ctx := context.Background()
	name := hostName()

	owner := NewSession(Options{})
	require.NoError(t, owner.Host(ctx, name))
	t.Cleanup(func() { _ = owner.Disconnect() })
	assert.Equal(t, name, owner.Name())

	// One connection per session.
	assert.Equal(t, errors.KindConnection, kindOf(t, owner.Host(ctx, name)))
	assert.Equal(t, errors.KindConnection, kindOf(t, owner.Connect(ctx, name)))

	// A second host cannot claim a served name.
	other := NewSession(Options{})
	assert.Equal(t, errors.KindConnection, kindOf(t, other.Host(ctx, name)))

	// But it can connect and see the same objects.
	_, err := owner.Inputs().Create(ctx, "color_source", "shared", nil)
	require.NoError(t, err)
	require.NoError(t, other.Connect(ctx, name))
	found, err := other.Inputs().FromName(ctx, "shared")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.NoError(t, other.Disconnect())

	require.NoError(t, owner.Disconnect())
	assert.False(t, owner.Connected())
}

func TestSession_ConnectWithoutHost(t *testing.T) {
	s := NewSession(Options{})
	err := s.Connect(context.Background(), hostName())
	assert.Equal(t, errors.KindConnection, kindOf(t, err))
}

func TestSession_PeerLossInvalidates(t *testing.T) {
	f := attached(t)
	in := f.input(t, "cam")
	require.Equal(t, Live, in.State())

	require.NoError(t, f.remote.Close())

	assert.Eventually(t, func() bool { return in.State() == Destroyed }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return !f.s.Connected() }, time.Second, 5*time.Millisecond)

	_, err := in.Name(f.ctx)
	assert.Equal(t, errors.KindInvalidHandle, kindOf(t, err))
}

func TestSession_CallsFailAfterPeerLoss(t *testing.T) {
	f := attached(t)
	require.NoError(t, f.remote.Close())

	s := f.s
	assert.Eventually(t, func() bool {
		_, err := s.Call(f.ctx, "Input", "Types")
		return errors.KindOf(err) == errors.KindDisconnected
	}, time.Second, 5*time.Millisecond)
}

func TestSession_DisconnectInvalidatesProxies(t *testing.T) {
	f := attached(t)
	in := f.input(t, "cam")
	require.NoError(t, f.s.Disconnect())
	assert.Equal(t, Destroyed, in.State())
}

func TestSession_Global(t *testing.T) {
	f := attached(t)

	require.NoError(t, f.s.Startup(f.ctx, "de-DE", "/data"))
	assert.Equal(t, errors.KindInvalidArgument, kindOf(t, f.s.Startup(f.ctx, "en-US", "")))

	ok, err := f.s.Initialized(f.ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	locale, err := f.s.Locale(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "de-DE", locale)

	v, err := f.s.Version(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, host.Version, v)

	flags, err := f.s.OutputFlagsFromID(f.ctx, "wasapi_input_capture")
	require.NoError(t, err)
	assert.NotZero(t, flags&wire.FlagAudio)
	_, err = f.s.OutputFlagsFromID(f.ctx, "nope")
	assert.Equal(t, errors.KindInvalidType, kindOf(t, err))
}

func TestSession_OutputChannels(t *testing.T) {
	f := attached(t)
	in := f.input(t, "cam")

	require.NoError(t, f.s.SetOutputSource(f.ctx, 0, in))
	src, err := f.s.OutputSource(f.ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, src)
	assert.Equal(t, in.Handle(), src.Handle())

	refs, err := in.Refs(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, refs)

	require.NoError(t, f.s.SetOutputSource(f.ctx, 0, nil))
	src, err = f.s.OutputSource(f.ctx, 0)
	require.NoError(t, err)
	assert.Nil(t, src)

	_, err = f.s.OutputSource(f.ctx, OutputChannels)
	assert.Equal(t, errors.KindOutOfBounds, kindOf(t, err))
}

func TestSession_ShutdownDestroysEverything(t *testing.T) {
	f := attached(t)
	in := f.input(t, "cam")
	sc, err := f.s.Scenes().Create(f.ctx, "main")
	require.NoError(t, err)

	require.NoError(t, f.s.Shutdown(f.ctx))
	assert.Equal(t, Destroyed, in.State())
	assert.Equal(t, Destroyed, sc.State())
	assert.Zero(t, f.s.Handles())
}
