// Package signal delivers host-originated events to locally attached
// callbacks.
//
// Callbacks are attached per (handle, signal) group and identified by an
// opaque Token, so callback lifetime is independent of any proxy that
// registered it:
//
//	d := signal.NewDispatcher(signal.Options{LossyDepth: 4})
//	tok := d.Attach(handle, wire.SignalVolmeter, func(ev signal.Event) { ... })
//	d.Deliver(signal.Event{Handle: handle, Signal: wire.SignalVolmeter, Payload: raw})
//	d.Detach(tok)
//
// Each group owns one mailbox and one delivery goroutine. Handlers of a
// group run in registration order, one event at a time, in arrival order.
// The handler list is captured when an event is taken from the mailbox, so a
// Detach never interrupts a delivery already in progress and takes effect at
// the next one.
//
// Lossy signals (volmeter, fader) use a bounded mailbox: when it is full the
// oldest pending snapshot is dropped and counted. Other signals queue without
// loss.
package signal
