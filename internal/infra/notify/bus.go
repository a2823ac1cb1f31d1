package notify

import (
	"sync"

	"subscription-payments/internal/domain/ports/adapter"
	"subscription-payments/internal/infra/metrics"
)

var _ adapter.NotificationBus = (*Bus)(nil)

// Bus is an in-process fan-out keyed by transaction id. It is constructed
// once at startup and injected into handlers; there is no package-level
// instance. Publish never blocks: a subscriber that cannot keep up loses
// the event and must fall back to polling.
type Bus struct {
	mu     sync.RWMutex
	rooms  map[string]map[int]chan adapter.PaymentEvent
	nextID int
	closed bool
}

func NewBus() *Bus {
	return &Bus{rooms: make(map[string]map[int]chan adapter.PaymentEvent)}
}

const subscriberBuffer = 4

func (b *Bus) Subscribe(transactionID string) (<-chan adapter.PaymentEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan adapter.PaymentEvent, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	room, ok := b.rooms[transactionID]
	if !ok {
		room = make(map[int]chan adapter.PaymentEvent)
		b.rooms[transactionID] = room
	}
	id := b.nextID
	b.nextID++
	room[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if room, ok := b.rooms[transactionID]; ok {
			if sub, ok := room[id]; ok {
				delete(room, id)
				close(sub)
			}
			if len(room) == 0 {
				delete(b.rooms, transactionID)
			}
		}
	}
	return ch, cancel
}

func (b *Bus) Publish(transactionID string, evt adapter.PaymentEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	metrics.IncBroadcast()
	for _, ch := range b.rooms[transactionID] {
		select {
		case ch <- evt:
		default:
			metrics.IncBroadcastDrop()
		}
	}
}

// Close tears down every room. Subsequent publishes are dropped and
// subsequent subscribes return a closed channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, room := range b.rooms {
		for _, ch := range room {
			close(ch)
		}
	}
	b.rooms = make(map[string]map[int]chan adapter.PaymentEvent)
}
