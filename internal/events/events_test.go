package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error { return nil }

type fakeWriter struct {
	msgs []kafkaGo.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error { return nil }

type recordingPublisher struct {
	mock.Mock
}

func (r *recordingPublisher) Publish(ctx context.Context, topic, key string, payload any) error {
	return r.Called(ctx, topic, key, payload).Error(0)
}

func (r *recordingPublisher) Close() error { return nil }

func TestNewEnvelope(t *testing.T) {
	env := NewEnvelope(OrderCreated, map[string]string{"orderId": "abc"})

	assert.Len(t, env.ID, 36)
	assert.Equal(t, OrderCreated, env.Pattern)
	assert.WithinDuration(t, time.Now(), env.OccurredAt, time.Second)
}

func TestRabbitMQPublisher(t *testing.T) {
	ch := &fakeChannel{}
	p := &RabbitMQPublisher{channel: ch, exchange: "orders.exchange"}

	err := p.Publish(context.Background(), OrderPaid, "order-1", NewEnvelope(OrderPaid, map[string]any{"totalPrice": 250}))
	require.NoError(t, err)

	assert.Equal(t, "orders.exchange", ch.exchange)
	assert.Equal(t, OrderPaid, ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, "order-1", ch.msg.Headers["key"])

	var env Envelope
	require.NoError(t, json.Unmarshal(ch.msg.Body, &env))
	assert.Equal(t, OrderPaid, env.Pattern)
	assert.Equal(t, env.ID, ch.msg.MessageId)

	first := ch.msg.MessageId
	require.NoError(t, p.Publish(context.Background(), OrderDelivered, "order-1", NewEnvelope(OrderDelivered, nil)))
	assert.NotEqual(t, first, ch.msg.MessageId, "events of one order get distinct message ids")

	ch.err = errors.New("channel closed")
	assert.Error(t, p.Publish(context.Background(), OrderPaid, "order-1", nil))
}

func TestKafkaPublisher(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	require.NoError(t, p.Publish(context.Background(), OrderDelivered, "order-9", map[string]int{"qty": 2}))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, OrderDelivered, w.msgs[0].Topic)
	assert.Equal(t, []byte("order-9"), w.msgs[0].Key)
	assert.JSONEq(t, `{"qty":2}`, string(w.msgs[0].Value))

	w.err = errors.New("leader not available")
	assert.ErrorContains(t, p.Publish(context.Background(), OrderDelivered, "order-9", nil), "order.delivered")
}

func TestNewSelectsBroker(t *testing.T) {
	p, err := New(Config{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogPublisher{}, p)

	p, err = New(Config{Broker: BrokerKafka, KafkaBrokers: []string{"localhost:9092"}}, nil)
	require.NoError(t, err)
	assert.IsType(t, &KafkaPublisher{}, p)
	assert.NoError(t, p.Close())

	_, err = New(Config{Broker: BrokerKafka}, nil)
	assert.Error(t, err)

	_, err = New(Config{Broker: "sqs"}, nil)
	assert.ErrorContains(t, err, "sqs")
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, p.Publish(context.Background(), OrderCreated, "o-1", map[string]int{"n": 1}))
	assert.Contains(t, buf.String(), `"topic":"order.created"`)
	assert.Contains(t, buf.String(), `"key":"o-1"`)
}

func TestPublishAsync(t *testing.T) {
	done := make(chan struct{})
	pub := new(recordingPublisher)
	pub.On("Publish", mock.Anything, OrderCreated, "o-1", mock.AnythingOfType("events.Envelope")).
		Return(errors.New("broker down")).
		Run(func(mock.Arguments) { close(done) })

	PublishAsync(pub, slog.Default(), OrderCreated, "o-1", map[string]string{"id": "o-1"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish was not called")
	}
	pub.AssertExpectations(t)
}

type blockingPublisher struct {
	release   chan struct{}
	mu        sync.Mutex
	published int
	closed    bool
}

func (b *blockingPublisher) Publish(context.Context, string, string, any) error {
	<-b.release
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published++
	return nil
}

func (b *blockingPublisher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *blockingPublisher) snapshot() (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.published, b.closed
}

func TestAsyncCloseWaitsForInFlightPublishes(t *testing.T) {
	inner := &blockingPublisher{release: make(chan struct{})}
	a := NewAsync(inner, nil)

	PublishAsync(a, slog.Default(), OrderCreated, "o-1", nil)
	PublishAsync(a, slog.Default(), OrderPaid, "o-1", nil)

	closed := make(chan error)
	go func() { closed <- a.Close() }()

	select {
	case <-closed:
		t.Fatal("Close returned before publishes finished")
	case <-time.After(50 * time.Millisecond):
	}
	_, innerClosed := inner.snapshot()
	assert.False(t, innerClosed)

	close(inner.release)
	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
	published, innerClosed := inner.snapshot()
	assert.Equal(t, 2, published)
	assert.True(t, innerClosed)

	a.Go(OrderDelivered, "o-1", nil)
	published, _ = inner.snapshot()
	assert.Equal(t, 2, published)
}
