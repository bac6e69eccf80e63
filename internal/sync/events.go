package sync

import (
	gosync "sync"
	"time"
)

// EventType identifies a UI-facing sync event.
type EventType string

const (
	// EventSaleSynced fires once per sale after it has been relocated from
	// the pending to the synced partition.
	EventSaleSynced EventType = "SALE_SYNCED"

	// EventPendingCount fires when the number of pending sales changes.
	EventPendingCount EventType = "PENDING_COUNT"

	// EventConnectivity mirrors connectivity transitions for status displays.
	EventConnectivity EventType = "CONNECTIVITY"
)

// Event is an advisory notification for the UI layer. Delivery is
// fire-and-forget and at-least-once; ordering across distinct sale ids is
// not guaranteed.
type Event struct {
	Type         EventType `json:"type"`
	SaleID       string    `json:"sale_id,omitempty"`
	PendingCount int       `json:"pending_count,omitempty"`
	Online       bool      `json:"online,omitempty"`
	At           time.Time `json:"at"`
}

// Broadcaster fans events out to subscribers. Sends never block: a
// subscriber with a full buffer misses the event, which is acceptable for
// an advisory surface.
type Broadcaster struct {
	mu     gosync.Mutex
	subs   map[int]chan Event
	nextID int
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[int]chan Event),
	}
}

// Subscribe registers a new subscriber. The returned cancel func releases
// the subscription and closes the channel.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, 16)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Publish delivers an event to all current subscribers without blocking.
func (b *Broadcaster) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	b.mu.Lock()
	subs := make([]chan Event, 0, len(b.subs))
	for _, ch := range b.subs {
		subs = append(subs, ch)
	}
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}
