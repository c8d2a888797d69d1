package eventbus

import (
	"sync"
	"sync/atomic"
)

// Kind tags a change event.
type Kind int

const (
	ProductChanged Kind = iota
	ProductDeleted
	CategoryChanged
	CategoryDeleted
)

// String returns the event kind name used in logs and outbound subjects.
func (k Kind) String() string {
	switch k {
	case ProductChanged:
		return "product.changed"
	case ProductDeleted:
		return "product.deleted"
	case CategoryChanged:
		return "category.changed"
	case CategoryDeleted:
		return "category.deleted"
	default:
		return "unknown"
	}
}

// Event is an identifier-only change notification. It never carries entity
// state; subscribers re-fetch from the ledger so coalesced events still
// resolve to the latest value.
type Event struct {
	Kind Kind
	ID   int64
}

// Bus is a process-wide publish point with independently buffered
// subscribers. Publish never blocks: a subscriber whose buffer is full has
// the event dropped and its overflow flag set, which the subscriber must
// treat as "unknown change, resync everything". Delivery order per
// subscriber matches publish order.
type Bus struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// Subscription is one subscriber's ordered event feed.
type Subscription struct {
	bus        *Bus
	ch         chan Event
	overflowed atomic.Bool
	closeOnce  sync.Once
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a new subscriber with the given buffer size.
func (b *Bus) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 64
	}
	sub := &Subscription{bus: b, ch: make(chan Event, buffer)}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Publish delivers the event to every subscriber without blocking.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		select {
		case sub.ch <- ev:
		default:
			sub.overflowed.Store(true)
		}
	}
}

// SubscriberCount returns the number of live subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Events returns the subscriber's feed. The channel is closed when the
// subscription is closed.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Overflowed reports whether any event was dropped since the last call,
// and resets the flag.
func (s *Subscription) Overflowed() bool {
	return s.overflowed.Swap(false)
}

// Close unregisters the subscription and closes its channel. Safe to call
// more than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		close(s.ch)
		s.bus.mu.Unlock()
	})
}
