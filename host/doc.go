// Package host is an in-memory media engine that serves the remote object
// protocol.
//
// The Engine keeps every remote object in one id space with a reference
// count. Objects handed back to clients by lookups (FromName, GetItems,
// GetActiveSource) do not take a reference; only creation and containment
// do (a scene item holds its source, an attached filter is held by its
// source, a transition holds its active source, an output channel holds its
// source).
//
// Release drops the creation reference and destroys the object once nothing
// holds it. Remove destroys it immediately and detaches it from every
// container. Every destroyed object is announced with a "destroyed" event
// pushed to all clients before the reply of the call that destroyed it.
//
// Register wires the engine into an ipc.Registry:
//
//	e := host.New(host.Options{})
//	reg := ipc.NewRegistry()
//	e.Register(reg)
//	srv := ipc.NewServer(reg, ipc.ServerOptions{Name: "studio"})
//	e.SetEmitter(srv)
//
// Media is not processed. Volmeters synthesize level snapshots from the
// attached source's volume and mute state.
package host
