package resource

import (
	"github.com/wippyai/obs-ipc/wire"
)

// Key identifies one remote object reference. Aliasing is by Key equality.
type Key struct {
	ID   uint64
	Kind wire.Kind
}

// EventType classifies handle lifecycle notifications.
type EventType uint8

const (
	EventRegistered EventType = iota
	EventAliased
	EventInvalidated
	EventForgotten
)

// Event represents a handle lifecycle event.
type Event struct {
	Key     Key
	Type    EventType
	Aliases int
}

// Observer receives notifications about handle lifecycle events.
type Observer interface {
	OnHandleEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnHandleEvent(e Event) { f(e) }
