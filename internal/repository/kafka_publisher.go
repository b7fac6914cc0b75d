package repository

import (
	"context"
	"fmt"

	"SentiPull/internal/domain/models"
	xkafka "SentiPull/pkg/kafka"
)

// KafkaFeaturePublisher ships merged feature rows to a Kafka topic,
// keyed by symbol so each symbol's rows stay ordered within a
// partition.
type KafkaFeaturePublisher struct {
	producer *xkafka.Producer
	topic    string
}

// NewKafkaFeaturePublisher creates a publisher over an existing
// producer.
func NewKafkaFeaturePublisher(producer *xkafka.Producer, topic string) *KafkaFeaturePublisher {
	return &KafkaFeaturePublisher{producer: producer, topic: topic}
}

type featureEnvelope struct {
	Symbol string            `json:"symbol"`
	Row    models.FeatureRow `json:"row"`
}

// PublishRows publishes one message per feature row in a single batch.
func (p *KafkaFeaturePublisher) PublishRows(ctx context.Context, symbol string, rows []models.FeatureRow) error {
	if len(rows) == 0 {
		return nil
	}
	msgs := make([]xkafka.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, xkafka.Message{
			Key:   []byte(symbol),
			Value: featureEnvelope{Symbol: symbol, Row: row},
		})
	}
	if err := p.producer.PublishBatch(ctx, p.topic, msgs); err != nil {
		return fmt.Errorf("publish %d rows for %s: %w", len(rows), symbol, err)
	}
	return nil
}

// Close closes the underlying producer.
func (p *KafkaFeaturePublisher) Close() error {
	return p.producer.Close()
}
