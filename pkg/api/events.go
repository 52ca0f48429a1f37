package api

import (
	"github.com/plot451/plot/pkg/domain"
	"github.com/plot451/plot/pkg/infrastructure/eventbus"
)

// EventBridge forwards domain events from the event bus to WebSocket clients.
type EventBridge struct {
	hub *WSHub
}

// NewEventBridge creates a bridge that broadcasts on hub.
func NewEventBridge(hub *WSHub) *EventBridge {
	return &EventBridge{hub: hub}
}

// Handle is a domain.EventHandler. It never blocks on slow clients.
func (eb *EventBridge) Handle(event domain.Event) {
	eb.hub.Broadcast(string(event.EventType()), eventbus.EnvelopeOf(event))
}
