package audit

import (
	"encoding/json"
	"log/slog"

	"ucm/internal/platform/kafka/producer"
)

// KafkaSink mirrors audit events to a Kafka topic so downstream compliance
// consumers get them without polling the store.
type KafkaSink struct {
	producer *producer.Producer
	topic    string
	logger   *slog.Logger
}

func NewKafkaSink(p *producer.Producer, topic string, logger *slog.Logger) *KafkaSink {
	return &KafkaSink{producer: p, topic: topic, logger: logger}
}

// Publish serializes the event and hands it to the async producer. Keyed by
// site so per-site ordering is preserved within a partition.
func (s *KafkaSink) Publish(event Event) {
	value, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to marshal audit event", "error", err, "type", string(event.Type))
		return
	}
	err = s.producer.ProduceAsync(&producer.Message{
		Topic: s.topic,
		Key:   []byte(event.Site),
		Value: value,
		Headers: map[string]string{
			"event_type": string(event.Type),
		},
	})
	if err != nil {
		s.logger.Error("failed to enqueue audit event", "error", err, "type", string(event.Type))
	}
}
