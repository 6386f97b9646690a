package playa

import "testing"

func TestEventBusSubscriberFanOutOrdering(t *testing.T) {
	b := NewEventBus()
	var order []int
	b.Subscribe(func(Event) { order = append(order, 1) })
	b.Subscribe(func(Event) { order = append(order, 2) })
	b.Subscribe(func(Event) { order = append(order, 3) })

	b.Emit(Event{Kind: EventPlay})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("fan-out order = %v, want subscription order [1 2 3]", order)
	}
}

func TestEventBusSubscriberSeesPayload(t *testing.T) {
	b := NewEventBus()
	var got any
	b.Subscribe(func(e Event) { got = e.Payload })
	b.Emit(Event{Kind: EventSetFrame, Payload: 42})
	if got != 42 {
		t.Errorf("payload = %v, want 42", got)
	}
}

func TestEventBusPollDrainsAndClears(t *testing.T) {
	b := NewEventBus()
	b.Emit(Event{Kind: EventPlay})
	b.Emit(Event{Kind: EventPause})

	evts := b.Poll()
	if len(evts) != 2 {
		t.Fatalf("Poll = %v, want 2 events", evts)
	}
	if evts[0].Kind != EventPlay || evts[1].Kind != EventPause {
		t.Errorf("Poll order = %v, want [Play Pause]", evts)
	}
	if len(b.Poll()) != 0 {
		t.Error("second Poll should return nothing, queue was drained")
	}
}

func TestEventBusOverflowEvictsOldestHalf(t *testing.T) {
	b := NewEventBus()
	for i := 0; i < maxQueuedEvents; i++ {
		b.Emit(Event{Kind: EventSetFrame, Payload: i})
	}
	// One more push should trigger the half-eviction before appending.
	b.Emit(Event{Kind: EventSetFrame, Payload: maxQueuedEvents})

	evts := b.Poll()
	if len(evts) >= maxQueuedEvents {
		t.Fatalf("queue len = %d, want fewer than %d after overflow eviction", len(evts), maxQueuedEvents)
	}
	// The oldest surviving payload should be from the back half, not 0.
	first := evts[0].Payload.(int)
	if first < maxQueuedEvents/2 {
		t.Errorf("oldest surviving payload = %d, want >= %d", first, maxQueuedEvents/2)
	}
	// The final emitted event must always survive.
	last := evts[len(evts)-1].Payload.(int)
	if last != maxQueuedEvents {
		t.Errorf("last payload = %d, want %d", last, maxQueuedEvents)
	}
}
