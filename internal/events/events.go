// Package events publishes order lifecycle events to a message broker.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	OrderCreated   = "order.created"
	OrderPaid      = "order.paid"
	OrderDelivered = "order.delivered"
)

const (
	BrokerRabbitMQ = "rabbitmq"
	BrokerKafka    = "kafka"
)

// Publisher defines an interface for publishing events to a message broker.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
	Close() error
}

// Envelope is the message body written to every broker.
type Envelope struct {
	ID         string    `json:"id"`
	Pattern    string    `json:"pattern"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

func NewEnvelope(pattern string, data any) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		Pattern:    pattern,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

type Config struct {
	Broker           string
	RabbitMQURL      string
	RabbitMQExchange string
	KafkaBrokers     []string
}

// New returns the publisher for cfg.Broker. An empty broker logs events instead.
func New(cfg Config, logger *slog.Logger) (Publisher, error) {
	switch cfg.Broker {
	case BrokerRabbitMQ:
		return NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
	case BrokerKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("kafka broker list is empty")
		}
		return NewKafkaPublisher(cfg.KafkaBrokers), nil
	case "":
		return NewLogPublisher(logger), nil
	default:
		return nil, errors.Errorf("unknown event broker %q", cfg.Broker)
	}
}

// LogPublisher writes events to the logger.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, topic, key string, payload any) error {
	p.logger.Info("event", "topic", topic, "key", key, "payload", payload)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

const asyncTimeout = 5 * time.Second

// PublishAsync publishes on its own goroutine with a bounded background
// context. Failures are only logged. An *Async publisher tracks the goroutine
// so Close can wait for it.
func PublishAsync(p Publisher, logger *slog.Logger, topic, key string, payload any) {
	if a, ok := p.(*Async); ok {
		a.Go(topic, key, payload)
		return
	}
	go publishLogged(p, logger, topic, key, payload)
}

func publishLogged(p Publisher, logger *slog.Logger, topic, key string, payload any) {
	ctx, cancel := context.WithTimeout(context.Background(), asyncTimeout)
	defer cancel()
	if err := p.Publish(ctx, topic, key, NewEnvelope(topic, payload)); err != nil {
		logger.Error("failed to publish event", "topic", topic, "key", key, "err", err)
	}
}

// Async wraps a Publisher and waits for background publishes on Close.
type Async struct {
	Publisher
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsync(p Publisher, logger *slog.Logger) *Async {
	if logger == nil {
		logger = slog.Default()
	}
	return &Async{Publisher: p, logger: logger}
}

// Go publishes payload in the background. Events sent after Close are dropped.
func (a *Async) Go(topic, key string, payload any) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.logger.Warn("publisher closed, event dropped", "topic", topic, "key", key)
		return
	}
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		publishLogged(a.Publisher, a.logger, topic, key, payload)
	}()
}

// Close waits for in-flight publishes, then closes the broker connection.
func (a *Async) Close() error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.wg.Wait()
	return a.Publisher.Close()
}
