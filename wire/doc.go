// Package wire defines the obs-ipc protocol vocabulary and its framing.
//
// Every exchange between a client and a host is a Message. Messages travel
// either as length-prefixed JSON frames on a byte stream (unix sockets,
// in-memory pipes) or as one JSON document per websocket message:
//
//	┌──────────────┬────────────────────────────┐
//	│ u32 BE length│ JSON body (Message)        │
//	└──────────────┴────────────────────────────┘
//
// # Message Types
//
//	hello    client -> host   protocol version and session id
//	welcome  host -> client   handshake accepted
//	request  client -> host   Class.Method(Args...) with a request ID
//	response host -> client   Code, Error and Result for a request ID
//	event    host -> client   Signal and Payload for a Handle, no request ID
//
// Responses are correlated by ID, never by arrival order. Events are tagged
// with their own type so a reader can route them without confusing them for
// replies.
//
// # Object References
//
// Remote objects are identified by a numeric id plus a Kind. The host returns
// ObjectRef values from every call that produces or looks up an object.
//
// # Error Codes
//
// Code mirrors the host's error codes. Code 0 (CodeOk) also serves as the
// "valid" status of an object.
package wire
