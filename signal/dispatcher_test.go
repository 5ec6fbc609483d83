package signal

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/obs-ipc/wire"
)

func payload(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := wire.EncodeValue(v)
	require.NoError(t, err)
	return raw
}

type recorder struct {
	mu  sync.Mutex
	got []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.got = append(r.got, s)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.got...)
}

func TestDispatcher_RegistrationOrder(t *testing.T) {
	d := NewDispatcher(Options{})
	defer d.Close()

	rec := &recorder{}
	for _, name := range []string{"a", "b", "c"} {
		d.Attach(1, wire.SignalItemAdd, func(Event) { rec.add(name) })
	}

	require.True(t, d.Deliver(Event{Handle: 1, Signal: wire.SignalItemAdd}))
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 3 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, rec.snapshot())
}

func TestDispatcher_RoutesByHandleAndSignal(t *testing.T) {
	d := NewDispatcher(Options{})
	defer d.Close()

	rec := &recorder{}
	d.Attach(1, wire.SignalItemAdd, func(Event) { rec.add("1/add") })
	d.Attach(2, wire.SignalItemAdd, func(Event) { rec.add("2/add") })
	d.Attach(1, wire.SignalItemRemove, func(Event) { rec.add("1/remove") })

	d.Deliver(Event{Handle: 2, Signal: wire.SignalItemAdd})
	assert.False(t, d.Deliver(Event{Handle: 3, Signal: wire.SignalItemAdd}))

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, []string{"2/add"}, rec.snapshot())
}

func TestDispatcher_LosslessPreservesOrder(t *testing.T) {
	d := NewDispatcher(Options{})
	defer d.Close()

	var mu sync.Mutex
	var got []int64
	d.Attach(5, wire.SignalItemAdd, func(ev Event) {
		var data wire.SceneSignalData
		assert.NoError(t, ev.Decode(&data))
		mu.Lock()
		got = append(got, data.ItemID)
		mu.Unlock()
	})

	for i := int64(1); i <= 100; i++ {
		d.Deliver(Event{Handle: 5, Signal: wire.SignalItemAdd, Payload: payload(t, wire.SceneSignalData{ItemID: i})})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 100
	}, time.Second, time.Millisecond)
	for i, id := range got {
		assert.Equal(t, int64(i+1), id)
	}
}

func TestDispatcher_LossyDropsOldestKeepsOrder(t *testing.T) {
	d := NewDispatcher(Options{LossyDepth: 2})
	defer d.Close()

	release := make(chan struct{})
	var mu sync.Mutex
	var got []float64
	d.Attach(9, wire.SignalFader, func(ev Event) {
		<-release
		var data wire.FaderData
		assert.NoError(t, ev.Decode(&data))
		mu.Lock()
		got = append(got, data.DB)
		mu.Unlock()
	})

	// The first event is taken by the delivery goroutine and blocks there.
	d.Deliver(Event{Handle: 9, Signal: wire.SignalFader, Payload: payload(t, wire.FaderData{DB: 0})})
	require.Eventually(t, func() bool {
		for _, s := range d.Stats() {
			if s.Handle == 9 && s.Pending == 0 {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)

	for i := 1; i <= 10; i++ {
		d.Deliver(Event{Handle: 9, Signal: wire.SignalFader, Payload: payload(t, wire.FaderData{DB: float64(-i)})})
	}
	close(release)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, time.Second, time.Millisecond)
	assert.Equal(t, []float64{0, -9, -10}, got)

	stats := d.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, uint64(8), stats[0].Dropped)
}

func TestDispatcher_DetachTakesEffectNextDelivery(t *testing.T) {
	d := NewDispatcher(Options{})
	defer d.Close()

	rec := &recorder{}
	var second Token
	first := d.Attach(1, wire.SignalReorder, func(Event) {
		rec.add("first")
		d.Detach(second)
	})
	second = d.Attach(1, wire.SignalReorder, func(Event) { rec.add("second") })
	require.NotEqual(t, first, second)

	// Detach inside the first handler does not cut the running delivery.
	d.Deliver(Event{Handle: 1, Signal: wire.SignalReorder})
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, time.Millisecond)

	d.Deliver(Event{Handle: 1, Signal: wire.SignalReorder})
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 3 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"first", "second", "first"}, rec.snapshot())

	assert.False(t, d.Detach(second))
	assert.True(t, d.Detach(first))
	assert.Equal(t, 0, d.Attached())
	assert.False(t, d.Deliver(Event{Handle: 1, Signal: wire.SignalReorder}))
}

func TestDispatcher_DetachHandle(t *testing.T) {
	d := NewDispatcher(Options{})
	defer d.Close()

	d.Attach(1, wire.SignalItemAdd, func(Event) {})
	d.Attach(1, wire.SignalVolmeter, func(Event) {})
	d.Attach(2, wire.SignalItemAdd, func(Event) {})

	assert.Equal(t, 2, d.DetachHandle(1))
	assert.Equal(t, 1, d.Attached())
}

func TestDispatcher_PanicIsContained(t *testing.T) {
	d := NewDispatcher(Options{})
	defer d.Close()

	rec := &recorder{}
	d.Attach(1, wire.SignalOutputStart, func(Event) { panic("boom") })
	d.Attach(1, wire.SignalOutputStart, func(Event) { rec.add("ok") })

	d.Deliver(Event{Handle: 1, Signal: wire.SignalOutputStart})
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, time.Millisecond)
}

func TestDispatcher_Close(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Attach(1, wire.SignalItemAdd, func(Event) {})
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	assert.Equal(t, NilToken, d.Attach(1, wire.SignalItemAdd, func(Event) {}))
	assert.False(t, d.Deliver(Event{Handle: 1, Signal: wire.SignalItemAdd}))
	assert.Equal(t, NilToken, d.Attach(1, wire.SignalItemAdd, nil))
}
