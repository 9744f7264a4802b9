package service

import (
	"log/slog"
	"sync"
	"time"
)

// EventType labels a lifecycle event on the feed.
type EventType string

const (
	EventContractCreated   EventType = "contract.created"
	EventContractCancelled EventType = "contract.cancelled"
	EventContractEnded     EventType = "contract.ended"
	EventPaymentRecorded   EventType = "payment.recorded"
	EventAssetStatus       EventType = "asset.status"
)

// Event is a lifecycle notification published to feed subscribers.
type Event struct {
	Type    EventType   `json:"type"`
	At      time.Time   `json:"at"`
	Payload interface{} `json:"payload,omitempty"`
}

// EventBus fans lifecycle events out to subscribers. Publishing never
// blocks; a subscriber that falls behind loses events rather than stalling
// the booking path.
type EventBus struct {
	mu     sync.RWMutex
	subs   map[int64]chan Event
	nextID int64
	logger *slog.Logger
}

// NewEventBus creates an event bus.
func NewEventBus(logger *slog.Logger) *EventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBus{
		subs:   make(map[int64]chan Event),
		logger: logger,
	}
}

// Subscribe registers a new subscriber. The returned cancel function must
// be called to release the subscription.
func (b *EventBus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, 16)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers an event to all current subscribers.
func (b *EventBus) Publish(eventType EventType, payload interface{}) {
	evt := Event{Type: eventType, At: time.Now(), Payload: payload}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			b.logger.Warn("event dropped for slow subscriber",
				slog.Int64("subscriber", id),
				slog.String("type", string(eventType)),
			)
		}
	}
}
