// Package events is a minimal type-safe pub/sub used by the reducer to
// queue and dispatch triggered abilities during the SBA/trigger fixed
// point (§4.6). It is deliberately synchronous and lock-free: apply must
// stay a pure, single-threaded function with no suspension points (§5),
// so there is no goroutine dispatch and no cross-request broadcaster
// here — that concern lives in the websocket hub instead.
package events

import (
	"fmt"

	"sixthed-backend/internal/logger"

	"go.uber.org/zap"
)

// SubscriptionID identifies a registered handler.
type SubscriptionID string

// Handler is a type-safe event handler function.
type Handler[T any] func(event T)

type subscription struct {
	id          SubscriptionID
	eventType   string
	handlerFunc func(event any)
}

// Bus is a type-safe, single-threaded event bus. A fresh Bus is created
// per engine invocation so one game's triggers never leak into another's.
type Bus struct {
	subscriptions []*subscription
	nextID        uint64
	logger        *zap.Logger
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{logger: logger.Get(), nextID: 1}
}

// Subscribe registers a type-safe handler for events of type T.
func Subscribe[T any](b *Bus, handler Handler[T]) SubscriptionID {
	id := SubscriptionID(fmt.Sprintf("sub-%d", b.nextID))
	b.nextID++

	var zero T
	eventType := fmt.Sprintf("%T", zero)

	b.subscriptions = append(b.subscriptions, &subscription{
		id:        id,
		eventType: eventType,
		handlerFunc: func(event any) {
			if typed, ok := event.(T); ok {
				handler(typed)
			}
		},
	})
	return id
}

// Publish dispatches event synchronously to every matching subscriber,
// in subscription order. Handlers that enqueue further triggers do so by
// appending to the engine's own pending-trigger queue, not by recursing
// into Publish.
func Publish[T any](b *Bus, event T) {
	eventType := fmt.Sprintf("%T", event)
	for _, sub := range b.subscriptions {
		if sub.eventType == eventType {
			sub.handlerFunc(event)
		}
	}
}

// Unsubscribe removes a previously registered handler.
func (b *Bus) Unsubscribe(id SubscriptionID) {
	for i, sub := range b.subscriptions {
		if sub.id == id {
			b.subscriptions = append(b.subscriptions[:i], b.subscriptions[i+1:]...)
			return
		}
	}
}

// Clear removes every subscription.
func (b *Bus) Clear() {
	b.subscriptions = nil
	b.nextID = 1
}
