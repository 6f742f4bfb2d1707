package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink mirrors audit events to a Kafka topic for downstream compliance
// consumers. The postgres store remains the source of truth; a broker outage
// only costs the mirror.
type KafkaSink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewKafkaSink(brokers []string, topic string, logger *slog.Logger) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaSink{client: client, topic: topic, logger: logger}, nil
}

func (s *KafkaSink) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(struct {
		ID        string         `json:"id"`
		Timestamp string         `json:"timestamp"`
		Subject   string         `json:"subject"`
		Action    string         `json:"action"`
		Outcome   string         `json:"outcome,omitempty"`
		Detail    map[string]any `json:"detail,omitempty"`
	}{
		ID:        event.ID,
		Timestamp: event.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Subject:   event.Subject,
		Action:    string(event.Action),
		Outcome:   event.Outcome,
		Detail:    event.Detail,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{Topic: s.topic, Key: []byte(event.Subject), Value: payload}
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			s.logger.Warn("audit kafka publish failed", "action", event.Action, "error", err)
		}
	})
	return nil
}

func (s *KafkaSink) Close() {
	s.client.Close()
}
