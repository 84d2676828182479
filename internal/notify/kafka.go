// Package notify publishes showtime reminders to Kafka. A downstream
// consumer (the group's notification bot) delivers them to chat; this
// service only produces the messages.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/segmentio/kafka-go"

	"github.com/gravadigital/movienight-api/internal/config"
	"github.com/gravadigital/movienight-api/internal/domain/cycle"
	"github.com/gravadigital/movienight-api/internal/logger"
)

// ReminderMessage is the wire format written to the reminder topic.
type ReminderMessage struct {
	CycleID string    `json:"cycle_id"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	FireAt  time.Time `json:"fire_at"`
}

// Sink schedules reminder messages for later delivery.
type Sink interface {
	Schedule(ctx context.Context, cycleID string, reminders []cycle.Reminder) error
	Close() error
}

// KafkaSink writes reminders to a Kafka topic keyed by cycle id.
type KafkaSink struct {
	writer *kafka.Writer
	log    *charmlog.Logger
}

// NewKafkaSink builds a producer for the configured reminder topic.
func NewKafkaSink(cfg config.KafkaConfig) *KafkaSink {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.ReminderTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaSink{
		writer: writer,
		log:    logger.Notify(),
	}
}

// Schedule publishes one message per reminder. Messages are keyed by the
// cycle id so all reminders of a night land on the same partition in order.
func (s *KafkaSink) Schedule(ctx context.Context, cycleID string, reminders []cycle.Reminder) error {
	if len(reminders) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(reminders))
	for _, r := range reminders {
		payload, err := json.Marshal(ReminderMessage{
			CycleID: cycleID,
			Title:   r.Title,
			Message: r.Message,
			FireAt:  r.At,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal reminder: %w", err)
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(cycleID),
			Value: payload,
		})
	}

	if err := s.writer.WriteMessages(ctx, messages...); err != nil {
		s.log.Error("Failed to publish reminders", "cycle_id", cycleID, "count", len(messages), "error", err)
		return fmt.Errorf("failed to publish reminders: %w", err)
	}

	s.log.Info("Scheduled showtime reminders", "cycle_id", cycleID, "count", len(messages))
	return nil
}

// Close flushes and closes the underlying writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// NopSink discards reminders. Used when no broker is configured and in tests.
type NopSink struct{}

func (NopSink) Schedule(context.Context, string, []cycle.Reminder) error { return nil }
func (NopSink) Close() error                                            { return nil }
