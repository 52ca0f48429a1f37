package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plot451/plot/pkg/domain"
)

func TestPublishOrdersTypedBeforeGlobal(t *testing.T) {
	bus := New()
	var got []string
	bus.SubscribeAll(func(domain.Event) { got = append(got, "all") })
	bus.Subscribe(domain.EventTableCreated, func(domain.Event) { got = append(got, "typed") })
	bus.Subscribe(domain.EventTableDeleted, func(domain.Event) { got = append(got, "other") })

	bus.Publish(domain.NewEvent(domain.EventTableCreated, "1", nil))
	assert.Equal(t, []string{"typed", "all"}, got)
	assert.Equal(t, 3, bus.HandlerCount())
}

func TestClosedBusDropsEvents(t *testing.T) {
	bus := New()
	calls := 0
	bus.SubscribeAll(func(domain.Event) { calls++ })
	bus.Close()
	bus.PublishAll([]domain.Event{domain.NewEvent(domain.EventColumnCreated, "1", nil)})
	assert.Zero(t, calls)
}

func TestPanickingHandlerDoesNotStopOthers(t *testing.T) {
	bus := New()
	reached := false
	bus.SubscribeAll(func(domain.Event) { panic("boom") })
	bus.SubscribeAll(func(domain.Event) { reached = true })

	assert.NotPanics(t, func() { bus.Publish(domain.NewEvent(domain.EventColumnCreated, "1", nil)) })
	assert.True(t, reached)
}

func TestHandlerMaySubscribe(t *testing.T) {
	bus := New()
	bus.SubscribeAll(func(domain.Event) {
		bus.Subscribe(domain.EventCellEdited, func(domain.Event) {})
	})
	bus.Publish(domain.NewEvent(domain.EventCellAppended, "1", nil))
	assert.Equal(t, 2, bus.HandlerCount())
}

type recordingChannel struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
}

func (r *recordingChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	r.exchange, r.key, r.msg = exchange, key, msg
	return r.err
}

func TestAMQPSinkPublishesEnvelope(t *testing.T) {
	ch := &recordingChannel{}
	sink := &AMQPSink{channel: ch, exchange: "plot.events"}

	event := domain.NewEvent(domain.EventTableCreated, "42", map[string]string{"name": "sales"})
	require.NoError(t, sink.Publish(context.Background(), event))

	assert.Equal(t, "plot.events", ch.exchange)
	assert.Equal(t, "table.created", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)

	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(ch.msg.Body, &env))
	assert.Equal(t, "42", env["aggregate_id"])
	assert.Equal(t, "table.created", env["type"])
	assert.Equal(t, map[string]interface{}{"name": "sales"}, env["data"])
}

func TestAMQPSinkHandlerSwallowsErrors(t *testing.T) {
	sink := &AMQPSink{channel: &recordingChannel{err: errors.New("closed")}, exchange: "x"}
	bus := New()
	bus.SubscribeAll(sink.Handler())
	assert.NotPanics(t, func() { bus.Publish(domain.NewEvent(domain.EventTableDeleted, "1", nil)) })
	assert.NoError(t, sink.Close())
}
