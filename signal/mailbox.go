package signal

import (
	"sync"
)

// mailbox is a FIFO of pending events for one group. A bounded mailbox
// drops its oldest entry on overflow; depth 0 means unbounded.
type mailbox struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Event
	depth   int
	dropped uint64
	closed  bool
}

func newMailbox(depth int) *mailbox {
	m := &mailbox{depth: depth}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// push enqueues ev without blocking. Reports false once closed.
func (m *mailbox) push(ev Event) (dropped bool, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, false
	}
	if m.depth > 0 && len(m.queue) >= m.depth {
		copy(m.queue, m.queue[1:])
		m.queue = m.queue[:len(m.queue)-1]
		m.dropped++
		dropped = true
	}
	m.queue = append(m.queue, ev)
	m.cond.Signal()
	return dropped, true
}

// pop blocks until an event is available or the mailbox is closed.
func (m *mailbox) pop() (Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for len(m.queue) == 0 && !m.closed {
		m.cond.Wait()
	}
	if m.closed {
		return Event{}, false
	}
	ev := m.queue[0]
	m.queue[0] = Event{}
	m.queue = m.queue[1:]
	return ev, true
}

func (m *mailbox) pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *mailbox) drops() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.queue = nil
	m.cond.Broadcast()
	m.mu.Unlock()
}
