// Package resource provides the client-side handle table for remote objects.
//
// Remote objects live in the host process. The client refers to them by an
// opaque numeric id plus a kind tag. Any number of local proxies may point at
// the same remote object; the table makes them share one Cell so that
// validity is observed consistently across every alias.
//
// # Handle Table
//
// The Table maps (id, kind) keys to shared cells:
//
//	table := resource.NewTable()
//
//	// Register a reference; aliases get the same cell back
//	a := table.Register(42, wire.KindInput)
//	b := table.Register(42, wire.KindInput) // a == b, a.Aliases() == 2
//
//	// Look up without registering
//	cell, ok := table.Lookup(42, wire.KindInput)
//
//	// The host destroyed object 42: every alias turns invalid at once
//	table.Invalidate(42)
//	a.Valid() // false
//	b.Valid() // false
//
// Invalidate works on the id alone. One remote object can be referenced
// under several kinds (a scene is also reachable as a source), and every one
// of those cells is invalidated together.
//
// # Observers
//
// Register observers to track handle lifecycle events:
//
//	table.Subscribe(observer)
//
//	func (o *myObserver) OnHandleEvent(e resource.Event) {
//	    switch e.Type {
//	    case resource.EventRegistered:
//	    case resource.EventInvalidated:
//	    }
//	}
//
// # Concurrency
//
// The table is written from the connection's dispatch loop (invalidation
// pushes) and from caller goroutines (registration). All methods are safe
// for concurrent use; Cell.Valid is a single atomic load.
//
// # Memory Management
//
// Cells are dropped from the table when invalidated, when the last local
// alias releases them, or when Forget is called. A later reference to the
// same live remote object simply registers a fresh cell.
package resource
