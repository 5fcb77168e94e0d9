package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	DefaultTopic = "storefront.orders"
	batchSize    = 100
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

// Publisher drains the outbox into kafka on every tick.
type Publisher struct {
	outbox *Outbox
	writer MessageWriter
	tick   time.Duration
	log    *zap.Logger
}

func NewPublisher(outbox *Outbox, writer MessageWriter, tick time.Duration, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	if tick <= 0 {
		tick = time.Second
	}
	return &Publisher{outbox: outbox, writer: writer, tick: tick, log: log.Named("publisher")}
}

// Run blocks until ctx is done.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.Flush(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Flush publishes pending envelopes one by one and removes the ones that made it.
// It returns how many were published.
func (p *Publisher) Flush(ctx context.Context) int {
	pending := p.outbox.Pending(ctx, batchSize)
	if len(pending) == 0 {
		return 0
	}

	published := make([]uuid.UUID, 0, len(pending))
	for _, env := range pending {
		if err := p.publish(ctx, env); err != nil {
			p.log.Warn("failed to publish event",
				zap.String("event_id", env.EventID.String()),
				zap.String("event_type", env.EventType),
				zap.Error(err))
			continue
		}
		published = append(published, env.EventID)
	}

	if err := p.outbox.MarkPublished(ctx, published...); err != nil {
		p.log.Error("failed to mark events as published", zap.Int("count", len(published)), zap.Error(err))
	}
	return len(published)
}

func (p *Publisher) publish(ctx context.Context, env Envelope) error {
	msg, err := toMessage(env)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
