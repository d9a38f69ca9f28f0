package payment

import (
	"sync"

	"github.com/rs/zerolog/log"

	"lavapay/internal/provider"
)

// Handler receives payment lifecycle events
type Handler func(provider.Event)

// Bus is the in-process publish/subscribe channel for payment events.
//
// Delivery is synchronous, in subscription order, and at-most-once: there is
// no durable log or replay, so a handler not subscribed at emission time
// misses the event permanently. A panicking handler is logged and skipped
// without affecting the other handlers or the caller that triggered the
// event.
type Bus struct {
	mu      sync.Mutex
	nextID  int
	order   []int
	byID    map[int]Handler
}

// NewBus creates an empty event bus
func NewBus() *Bus {
	return &Bus{byID: make(map[int]Handler)}
}

// Subscribe registers a handler and returns its unsubscribe function.
// Unsubscribing is idempotent.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.order = append(b.order, id)
	b.byID[id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.byID[id]; !ok {
			return
		}
		delete(b.byID, id)
		for i, v := range b.order {
			if v == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to every current subscriber
func (b *Bus) Publish(evt provider.Event) {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.byID[id])
	}
	b.mu.Unlock()

	for _, h := range handlers {
		b.deliver(h, evt)
	}
}

func (b *Bus) deliver(h Handler, evt provider.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("event", string(evt.Type)).
				Str("payment_id", evt.PaymentID).
				Msg("payment event handler panicked")
		}
	}()
	h(evt)
}
