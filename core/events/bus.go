package events

import (
	"sync"
	"time"
)

const (
	// TopicLedgerChanged is published after every reconcile pass or accepted mutation.
	TopicLedgerChanged = "ledger.changed"
	// TopicDataChanged is raised by other parts of the application when they
	// mutated something the ledger should pick up.
	TopicDataChanged = "data.changed"
)

// Event is the opaque notification payload. The ledger never interprets it
// beyond deciding to reconcile.
type Event struct {
	Source    string `json:"source"`
	Timestamp int64  `json:"timestamp"`
	EntityID  string `json:"entityId,omitempty"`
}

// NewEvent stamps an event with the current time in epoch millis.
func NewEvent(source, entityID string) Event {
	return Event{Source: source, Timestamp: time.Now().UnixMilli(), EntityID: entityID}
}

// Bus fans events out to per-topic subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]map[int]chan Event
	nextID int
	buffer int
}

// NewBus creates a bus whose subscriber channels hold up to buffer events.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 1
	}
	return &Bus{subs: make(map[string]map[int]chan Event), buffer: buffer}
}

// Subscribe returns a channel receiving events for topic and a function that
// unsubscribes and closes the channel.
func (b *Bus) Subscribe(topic string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.buffer)
	id := b.nextID
	b.nextID++
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]chan Event)
	}
	b.subs[topic][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[topic], id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers ev to every subscriber of topic without blocking.
// A subscriber whose buffer is full misses the event; it already has a
// notification queued that will trigger the same work.
func (b *Bus) Publish(topic string, ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[topic] {
		select {
		case ch <- ev:
		default:
		}
	}
}
