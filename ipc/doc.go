// Package ipc implements the request/response layer between a client and
// a host process.
//
// # Client
//
// A Client owns one transport. Connect performs the hello/welcome handshake
// and starts a single dispatch loop that reads every incoming message in
// order:
//
//	c, err := ipc.Connect(ctx, t, ipc.Options{CallTimeout: 5 * time.Second})
//	reply, err := c.Call(ctx, "Input", "getName", handle)
//	var name string
//	err = reply.Decode(&name)
//
// Calls are correlated by request id, so many goroutines may have calls in
// flight at once. A caller that gives up (context or timeout) only discards
// its slot; the host still executes the request and a late reply is dropped.
//
// Events are routed to the handler installed with Options.OnEvent or
// Client.OnEvent, on the dispatch loop, before any reply that follows them
// on the wire.
//
// When the peer goes away every pending call, and every later call, fails
// with a RemoteDisconnected error. After Close they fail with a
// ConnectionError.
//
// # Server
//
// A Server dispatches requests to functions registered by class and method:
//
//	reg := ipc.NewRegistry()
//	reg.Register("Input", map[string]ipc.Func{
//	    "getName": func(ctx context.Context, call *ipc.Call) (any, error) {
//	        id, err := call.Args.Uint64(0)
//	        ...
//	    },
//	})
//	srv := ipc.NewServer(reg, ipc.ServerOptions{Name: "studio"})
//	go srv.Serve(ctx, listener)
//
// Requests of one connection are handled in arrival order. Emit pushes an
// event to every connected client.
package ipc
