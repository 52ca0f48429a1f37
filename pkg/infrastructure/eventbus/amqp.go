package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/plot451/plot/pkg/domain"
	"github.com/plot451/plot/pkg/logger"
)

const publishTimeout = 5 * time.Second

// Envelope is the JSON body of every forwarded event.
type Envelope struct {
	Type        domain.EventType `json:"type"`
	AggregateID string           `json:"aggregate_id"`
	OccurredAt  time.Time        `json:"occurred_at"`
	Data        interface{}      `json:"data,omitempty"`
}

// EnvelopeOf flattens an event for serialisation.
func EnvelopeOf(event domain.Event) Envelope {
	return Envelope{
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt(),
		Data:        event.Payload(),
	}
}

// channelPublisher is the subset of *amqp.Channel the sink needs.
type channelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSink forwards domain events to a RabbitMQ topic exchange. The routing
// key is the event type, e.g. "table.created".
type AMQPSink struct {
	conn     *amqp.Connection
	channel  channelPublisher
	exchange string
}

// DialAMQP connects and declares a durable topic exchange.
func DialAMQP(amqpURL, exchange string) (*AMQPSink, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp declare exchange %s: %w", exchange, err)
	}

	logger.InfoCF("amqp", "Event sink connected", map[string]interface{}{"exchange": exchange})
	return &AMQPSink{conn: conn, channel: ch, exchange: exchange}, nil
}

// Publish sends one event.
func (s *AMQPSink) Publish(ctx context.Context, event domain.Event) error {
	body, err := json.Marshal(EnvelopeOf(event))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return s.channel.PublishWithContext(ctx, s.exchange, string(event.EventType()), false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    event.OccurredAt(),
			DeliveryMode: amqp.Persistent,
		})
}

// Handler adapts the sink to the event bus. Failures are logged, never
// propagated to the publisher.
func (s *AMQPSink) Handler() domain.EventHandler {
	return func(event domain.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.Publish(ctx, event); err != nil {
			logger.WarnCF("amqp", "Event publish failed", map[string]interface{}{
				"type":  string(event.EventType()),
				"error": err,
			})
		}
	}
}

// Close tears down the connection.
func (s *AMQPSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
