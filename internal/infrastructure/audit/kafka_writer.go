package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaWriter streams audit events to a topic, keyed by entity so events of
// one session stay ordered within a partition.
type KafkaWriter struct {
	writer messageWriter
	source string
}

func NewKafkaWriter(brokers []string, topic string) *KafkaWriter {
	return newKafkaWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
	})
}

func newKafkaWriter(w messageWriter) *KafkaWriter {
	return &KafkaWriter{writer: w, source: "resume-import"}
}

type kafkaEvent struct {
	ID             string         `json:"id"`
	Action         string         `json:"action"`
	EntityType     string         `json:"entity_type"`
	EntityID       string         `json:"entity_id,omitempty"`
	OrganizationID string         `json:"organization_id,omitempty"`
	UserID         string         `json:"user_id,omitempty"`
	Details        map[string]any `json:"details,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}

func (k *KafkaWriter) Write(ctx context.Context, event domain.AuditEvent) error {
	body, err := json.Marshal(kafkaEvent{
		ID:             event.ID,
		Action:         event.Action,
		EntityType:     event.EntityType,
		EntityID:       event.EntityID,
		OrganizationID: event.OrganizationID,
		UserID:         event.UserID,
		Details:        event.Details,
		Timestamp:      event.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	key := event.EntityID
	if key == "" {
		key = event.ID
	}

	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Action)},
			{Key: "source", Value: []byte(k.source)},
		},
	})
}

func (k *KafkaWriter) Close() error {
	return k.writer.Close()
}
