// Package eventbus provides the in-process implementation of domain.EventBus
// and sinks that forward its events to other systems.
package eventbus

import (
	"slices"
	"sync"

	"github.com/plot451/plot/pkg/domain"
	"github.com/plot451/plot/pkg/logger"
)

// InProcessEventBus is a synchronous in-process event bus. Handlers run on
// the publishing goroutine, typed handlers first, then global ones.
type InProcessEventBus struct {
	handlers    map[domain.EventType][]domain.EventHandler
	allHandlers []domain.EventHandler
	mu          sync.RWMutex
	closed      bool
}

// New creates a new in-process event bus.
func New() *InProcessEventBus {
	return &InProcessEventBus{
		handlers: make(map[domain.EventType][]domain.EventHandler),
	}
}

// Publish dispatches an event to all matching handlers. The handler list is
// snapshotted first, so handlers may subscribe without deadlocking.
func (b *InProcessEventBus) Publish(event domain.Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	targets := append(slices.Clone(b.handlers[event.EventType()]), b.allHandlers...)
	b.mu.RUnlock()

	logger.DebugCF("eventbus", "Publishing event", map[string]interface{}{
		"type":         string(event.EventType()),
		"aggregate_id": event.AggregateID(),
		"handlers":     len(targets),
	})
	for _, handler := range targets {
		dispatch(event, handler)
	}
}

// dispatch isolates the bus from a panicking handler.
func dispatch(event domain.Event, handler domain.EventHandler) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCF("eventbus", "Event handler panicked", map[string]interface{}{
				"type":  string(event.EventType()),
				"panic": r,
			})
		}
	}()
	handler(event)
}

// Subscribe registers a handler for a specific event type.
func (b *InProcessEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeAll registers a handler that receives every event.
func (b *InProcessEventBus) SubscribeAll(handler domain.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.allHandlers = append(b.allHandlers, handler)
}

// Close marks the bus as closed. No more events will be dispatched.
func (b *InProcessEventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
}

// PublishAll dispatches events in order.
func (b *InProcessEventBus) PublishAll(events []domain.Event) {
	for _, event := range events {
		b.Publish(event)
	}
}

// HandlerCount returns the total number of registered handlers.
func (b *InProcessEventBus) HandlerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := len(b.allHandlers)
	for _, handlers := range b.handlers {
		count += len(handlers)
	}
	return count
}

// Verify interface compliance at compile time.
var _ domain.EventBus = (*InProcessEventBus)(nil)
