package obsipc

import (
	"context"

	"github.com/wippyai/obs-ipc/ipc"
	"github.com/wippyai/obs-ipc/osn"
)

// Caller issues raw requests against a host.
type Caller interface {
	Call(ctx context.Context, class, method string, args ...any) (*ipc.Reply, error)
}

// Connector establishes a session with a host by name.
type Connector interface {
	Connect(ctx context.Context, name string) error
	Disconnect() error
	Connected() bool
}

var (
	_ Caller    = (*ipc.Client)(nil)
	_ Caller    = (*osn.Session)(nil)
	_ Connector = (*osn.Session)(nil)
)
