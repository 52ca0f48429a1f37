package domain

import "time"

// ---------------------------------------------------------------------------
// Domain events: published by application services after persistence
// ---------------------------------------------------------------------------

// EventType classifies domain events for routing and filtering.
type EventType string

// Bounded context prefixes keep event names globally unique.
const (
	// Directory events
	EventDirectoryCreated EventType = "directory.created"
	EventDirectoryRenamed EventType = "directory.renamed"
	EventDirectoryMoved   EventType = "directory.moved"
	EventDirectoryDeleted EventType = "directory.deleted"

	// Column events
	EventColumnCreated   EventType = "column.created"
	EventColumnRenamed   EventType = "column.renamed"
	EventColumnMoved     EventType = "column.moved"
	EventColumnReordered EventType = "column.reordered"
	EventColumnDeleted   EventType = "column.deleted"
	EventCellAppended    EventType = "column.cell.appended"
	EventCellEdited      EventType = "column.cell.edited"
	EventCellRemoved     EventType = "column.cell.removed"

	// Table events
	EventTableCreated        EventType = "table.created"
	EventTableRenamed        EventType = "table.renamed"
	EventTableColumnsChanged EventType = "table.columns.changed"
	EventTableDeleted        EventType = "table.deleted"
)

// Event is the interface all domain events implement.
type Event interface {
	// EventType returns the classified event type.
	EventType() EventType
	// OccurredAt returns when the event happened.
	OccurredAt() time.Time
	// AggregateID returns the identifier of the aggregate that produced the event.
	AggregateID() string
	// Payload returns the event-specific data.
	Payload() interface{}
}

// BaseEvent provides a reusable implementation of the Event interface.
type BaseEvent struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	AggID     string      `json:"aggregate_id"`
	EventData interface{} `json:"data,omitempty"`
}

func (e BaseEvent) EventType() EventType  { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) AggregateID() string   { return e.AggID }
func (e BaseEvent) Payload() interface{}  { return e.EventData }

// NewEvent creates a new domain event.
func NewEvent[T ~string](eventType EventType, aggregateID T, data interface{}) BaseEvent {
	return BaseEvent{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		AggID:     string(aggregateID),
		EventData: data,
	}
}

// ---------------------------------------------------------------------------
// Event bus: decoupled fan-out of domain events
// ---------------------------------------------------------------------------

// EventHandler processes a domain event. Handlers should be idempotent.
type EventHandler func(Event)

// EventBus dispatches domain events to registered handlers.
type EventBus interface {
	// Publish dispatches an event to all registered handlers.
	Publish(event Event)
	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler)
	// SubscribeAll registers a handler that receives every event.
	SubscribeAll(handler EventHandler)
	// Close shuts down the event bus.
	Close()
}
