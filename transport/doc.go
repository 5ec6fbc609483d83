// Package transport carries wire.Message values between a client and a host.
//
// A Transport is a bidirectional, message-oriented channel:
//
//	Send(ctx, msg)    writes one message; safe for concurrent use
//	Receive(ctx)      reads the next message; one reader at a time
//	Close()           tears the channel down; pending reads fail
//
// Three implementations are provided:
//
//	Stream     length-prefixed frames over any byte stream (unix sockets, net.Pipe)
//	WebSocket  one message per binary websocket frame (github.com/coder/websocket)
//	Pipe()     two connected in-memory Streams, for tests and in-process hosts
//
// Addresses select the implementation: "ws://" and "wss://" dial websockets,
// anything else names a unix socket. A bare server name such as "studio" maps
// to a socket in the temp directory (see Address).
//
// Reads that hit a closed or reset peer fail with a Disconnected error so
// callers can fail every pending request deterministically.
package transport
