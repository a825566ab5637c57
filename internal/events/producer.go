package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ShoaibAJ01/zameerrealstates/internal/models"
)

// Producer publishes chat message events for downstream consumers
// (notifications, analytics). Keyed by chat id so one chat stays on one
// partition.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &Producer{writer: w}
}

func (p *Producer) MessageSent(ctx context.Context, m *models.Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(m.ChatID),
		Value: b,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error { return p.writer.Close() }
