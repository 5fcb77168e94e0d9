package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const headerEventType = "event_type"

// MessageReader is the subset of *kafka.Reader the consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Handler func(ctx context.Context, env Envelope) error

func NewKafkaReader(topic, groupID string, brokers ...string) *kafka.Reader {
	if topic == "" {
		topic = DefaultTopic
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6,
	})
}

type Consumer struct {
	reader  MessageReader
	handler Handler
	log     *zap.Logger
}

func NewConsumer(reader MessageReader, handler Handler, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{reader: reader, handler: handler, log: log.Named("consumer")}
}

// Run reads until ctx is done. Undecodable messages and handler errors are
// logged and skipped.
func (c *Consumer) Run(ctx context.Context) {
	for ctx.Err() == nil {
		c.processMessage(ctx)
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		c.log.Warn("error reading message", zap.Error(err))
		return
	}

	env, err := fromMessage(m)
	if err != nil {
		c.log.Warn("error parsing message", zap.Int64("offset", m.Offset), zap.Error(err))
		return
	}
	if err := c.handler(ctx, env); err != nil {
		c.log.Error("event handler failed", zap.String("event_id", env.EventID.String()), zap.Error(err))
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Warn("error closing kafka reader", zap.Error(err))
	}
}

func toMessage(env Envelope) (kafka.Message, error) {
	value, err := json.Marshal(env)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal envelope: %w", err)
	}
	return kafka.Message{
		Key:   []byte(env.AggregateID),
		Value: value,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(env.EventType)},
		},
	}, nil
}

func fromMessage(m kafka.Message) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return Envelope{}, err
	}
	if env.EventType == "" {
		for _, h := range m.Headers {
			if h.Key == headerEventType {
				env.EventType = string(h.Value)
			}
		}
	}
	return env, nil
}
