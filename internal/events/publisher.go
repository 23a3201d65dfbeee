package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"granito/internal/config"

	"github.com/segmentio/kafka-go"
)

// Publisher hands webhook events to the worker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(cfg *config.Config) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.KafkaBrokers...),
			Topic:        cfg.KafkaTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// Publish keys messages by topic and shop so updates to one shop's resources
// keep their order within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ShopDomain + "|" + event.Topic),
		Value: value,
		Headers: []kafka.Header{
			{Key: "topic", Value: []byte(event.Topic)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
