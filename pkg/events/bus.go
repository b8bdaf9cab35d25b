package events

import "sync"

// EventType enumerates event categories.
type EventType string

const (
	EventBookEdited           EventType = "book.edited"
	EventBookFileImported     EventType = "book_file.imported"
	EventBookFileImportFailed EventType = "book_file.import_failed"
	EventBookImported         EventType = "book.imported"
)

// Event is anything that can be published on the bus.
type Event interface {
	Type() EventType
}

// Subscriber receives events.
type Subscriber chan Event

// Bus implements a simple in-process pubsub. Publish never blocks: a
// subscriber whose buffer is full misses the event.
type Bus struct {
	mu   sync.RWMutex
	subs map[EventType][]Subscriber
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[EventType][]Subscriber)}
}

// Subscribe registers a subscriber for event type with the given buffer size.
func (b *Bus) Subscribe(eventType EventType, buffer int) Subscriber {
	ch := make(Subscriber, buffer)
	b.mu.Lock()
	b.subs[eventType] = append(b.subs[eventType], ch)
	b.mu.Unlock()
	return ch
}

// Publish sends the event to subscribers of its type.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	subs := append([]Subscriber(nil), b.subs[event.Type()]...)
	b.mu.RUnlock()
	for _, sub := range subs {
		select {
		case sub <- event:
		default:
		}
	}
}

// Unsubscribe removes the subscriber and closes it.
func (b *Bus) Unsubscribe(eventType EventType, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[eventType]
	for i, candidate := range subs {
		if candidate == sub {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	b.subs[eventType] = subs
	close(sub)
}
