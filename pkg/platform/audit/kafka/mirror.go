// Package kafka mirrors committed audit events to a Kafka topic for
// downstream audit consumers (viewers, SIEM pipelines).
//
// The durable write is the synchronous store append performed by the
// publisher; this mirror is at-least-once with respect to Kafka and never
// gates the triggering operation.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"dataportal/pkg/platform/audit"
)

// Mirror produces audit events to a Kafka topic.
type Mirror struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New connects a Kafka producer for the audit mirror.
func New(brokers []string, topic string, logger *slog.Logger) (*Mirror, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka audit mirror: %w", err)
	}
	return &Mirror{client: client, topic: topic, logger: logger}, nil
}

// Publish sends one event, keyed by entity ID so per-entity ordering is
// preserved across partitions.
func (m *Mirror) Publish(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: m.topic,
		Key:   []byte(event.EntityID),
		Value: payload,
	}
	if err := m.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes pending records and releases the producer.
func (m *Mirror) Close() {
	m.client.Close()
}
