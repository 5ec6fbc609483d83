package resource

import (
	"sync"
	"sync/atomic"

	"github.com/wippyai/obs-ipc/wire"
)

// Cell is the shared invalidation state for every alias of one remote object.
type Cell struct {
	key     Key
	valid   atomic.Bool
	aliases atomic.Int32
}

func newCell(key Key, valid bool) *Cell {
	c := &Cell{key: key}
	c.valid.Store(valid)
	return c
}

// Key returns the cell's remote key.
func (c *Cell) Key() Key { return c.key }

// ID returns the remote object id.
func (c *Cell) ID() uint64 { return c.key.ID }

// Kind returns the remote object kind.
func (c *Cell) Kind() wire.Kind { return c.key.Kind }

// Valid reports whether the remote object is still known to exist.
func (c *Cell) Valid() bool { return c.valid.Load() }

// Aliases returns the number of local references registered on the cell.
func (c *Cell) Aliases() int { return int(c.aliases.Load()) }

// Table maps remote keys to shared cells.
type Table struct {
	cells     map[Key]*Cell
	byID      map[uint64]map[wire.Kind]*Cell
	observers []Observer
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		cells: make(map[Key]*Cell),
		byID:  make(map[uint64]map[wire.Kind]*Cell),
	}
}

// Register records one more local reference to (id, kind) and returns the
// cell shared by every alias. A closed table hands out cells that are
// already invalid.
func (t *Table) Register(id uint64, kind wire.Kind) *Cell {
	key := Key{ID: id, Kind: kind}

	t.mu.Lock()
	if t.closed || id == 0 {
		t.mu.Unlock()
		return newCell(key, false)
	}

	evType := EventAliased
	c, ok := t.cells[key]
	if !ok {
		c = newCell(key, true)
		t.cells[key] = c
		kinds := t.byID[id]
		if kinds == nil {
			kinds = make(map[wire.Kind]*Cell, 1)
			t.byID[id] = kinds
		}
		kinds[kind] = c
		evType = EventRegistered
	}
	n := c.aliases.Add(1)
	t.mu.Unlock()

	t.notify(Event{Key: key, Type: evType, Aliases: int(n)})
	return c
}

// Lookup returns the cell for (id, kind) without adding a reference.
func (t *Table) Lookup(id uint64, kind wire.Kind) (*Cell, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.cells[Key{ID: id, Kind: kind}]
	return c, ok
}

// Release drops one local reference. The cell leaves the table when no
// local reference remains; it stays valid for anyone still holding it.
func (t *Table) Release(c *Cell) {
	if c == nil {
		return
	}
	if c.aliases.Add(-1) > 0 {
		return
	}
	t.Forget(c.key.ID, c.key.Kind)
}

// Forget removes (id, kind) from the table without invalidating it.
func (t *Table) Forget(id uint64, kind wire.Kind) bool {
	key := Key{ID: id, Kind: kind}

	t.mu.Lock()
	c, ok := t.cells[key]
	if ok {
		t.remove(c)
	}
	t.mu.Unlock()

	if ok {
		t.notify(Event{Key: key, Type: EventForgotten, Aliases: c.Aliases()})
	}
	return ok
}

// Invalidate marks every cell registered under id invalid and drops them
// from the table. It returns the number of cells invalidated.
func (t *Table) Invalidate(id uint64) int {
	t.mu.Lock()
	kinds := t.byID[id]
	cells := make([]*Cell, 0, len(kinds))
	for _, c := range kinds {
		cells = append(cells, c)
	}
	for _, c := range cells {
		t.remove(c)
	}
	t.mu.Unlock()

	n := 0
	for _, c := range cells {
		if c.valid.CompareAndSwap(true, false) {
			n++
			t.notify(Event{Key: c.key, Type: EventInvalidated, Aliases: c.Aliases()})
		}
	}
	return n
}

// InvalidateAll invalidates every cell, as on connection loss.
func (t *Table) InvalidateAll() int {
	t.mu.Lock()
	cells := make([]*Cell, 0, len(t.cells))
	for _, c := range t.cells {
		cells = append(cells, c)
	}
	t.cells = make(map[Key]*Cell)
	t.byID = make(map[uint64]map[wire.Kind]*Cell)
	t.mu.Unlock()

	n := 0
	for _, c := range cells {
		if c.valid.CompareAndSwap(true, false) {
			n++
			t.notify(Event{Key: c.key, Type: EventInvalidated, Aliases: c.Aliases()})
		}
	}
	return n
}

// Len returns the number of tracked cells.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.cells)
}

// Each iterates over tracked cells until fn returns false.
func (t *Table) Each(fn func(*Cell) bool) {
	t.mu.RLock()
	cells := make([]*Cell, 0, len(t.cells))
	for _, c := range t.cells {
		cells = append(cells, c)
	}
	t.mu.RUnlock()

	for _, c := range cells {
		if !fn(c) {
			return
		}
	}
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Close invalidates everything and stops handing out valid cells.
func (t *Table) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	t.InvalidateAll()
	return nil
}

// remove must be called with t.mu held.
func (t *Table) remove(c *Cell) {
	delete(t.cells, c.key)
	if kinds := t.byID[c.key.ID]; kinds != nil {
		delete(kinds, c.key.Kind)
		if len(kinds) == 0 {
			delete(t.byID, c.key.ID)
		}
	}
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnHandleEvent(e)
	}
}
