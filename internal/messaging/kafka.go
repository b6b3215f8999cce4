package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/temcen/smartdiet/internal/config"
	"github.com/temcen/smartdiet/pkg/models"
)

// MessageWriter is the part of *kafka.Writer the event bus uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventBus publishes domain events. Messages carry their own topic so a
// single writer serves every topic including the dead-letter one.
type EventBus struct {
	writer     MessageWriter
	topics     topicSet
	maxRetries int
	retryDelay time.Duration
	logger     *logrus.Logger
}

type topicSet struct {
	planGenerated  string
	recipeFeedback string
	deadLetter     string
}

func NewEventBus(cfg *config.KafkaConfig, logger *logrus.Logger) *EventBus {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}
	return NewEventBusWithWriter(writer, cfg, logger)
}

func NewEventBusWithWriter(writer MessageWriter, cfg *config.KafkaConfig, logger *logrus.Logger) *EventBus {
	return &EventBus{
		writer: writer,
		topics: topicSet{
			planGenerated:  cfg.Topics.PlanGenerated,
			recipeFeedback: cfg.Topics.RecipeFeedback,
			deadLetter:     cfg.Topics.DeadLetter,
		},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     logger,
	}
}

// PublishPlanGenerated records every recipe of a generated plan, keyed by
// plan id.
func (eb *EventBus) PublishPlanGenerated(ctx context.Context, plan *models.DayPlan) error {
	event := NewPlanGeneratedEvent(plan)
	return eb.publish(ctx, eb.topics.planGenerated, EventPlanGenerated, event.EventID, plan.PlanID.String(), event.Timestamp, event)
}

// PublishFeedback records one satisfaction rating, keyed by plan id.
func (eb *EventBus) PublishFeedback(ctx context.Context, fb *models.RecipeFeedback) error {
	event := NewRecipeFeedbackEvent(fb)
	return eb.publish(ctx, eb.topics.recipeFeedback, EventRecipeFeedback, event.EventID, fb.PlanID.String(), event.Timestamp, event)
}

func (eb *EventBus) publish(ctx context.Context, topic, eventType string, eventID uuid.UUID, key string, ts time.Time, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(eventID.String())},
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "timestamp", Value: []byte(ts.Format(time.RFC3339))},
		},
	}

	err = eb.writeWithRetry(ctx, msg)
	if err == nil {
		eb.logger.WithFields(logrus.Fields{
			"event_id":   eventID,
			"event_type": eventType,
			"topic":      topic,
		}).Debug("Event published")
		return nil
	}

	eb.logger.WithError(err).WithFields(logrus.Fields{
		"event_id":   eventID,
		"event_type": eventType,
	}).Error("Failed to publish event")

	if dlqErr := eb.sendToDLQ(ctx, msg, err); dlqErr != nil {
		eb.logger.WithError(dlqErr).Error("Failed to send event to DLQ")
	}
	return fmt.Errorf("failed to publish %s event: %w", eventType, err)
}

func (eb *EventBus) writeWithRetry(ctx context.Context, msg kafka.Message) error {
	var lastErr error
	for attempt := 0; attempt <= eb.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff
			delay := eb.retryDelay * time.Duration(1<<uint(attempt-1))
			eb.logger.WithFields(logrus.Fields{
				"topic":   msg.Topic,
				"attempt": attempt,
				"delay":   delay,
			}).Info("Retrying event publish")

			select {
			case <-ctx.Done():
				return errors.Join(lastErr, ctx.Err())
			case <-time.After(delay):
			}
		}

		if lastErr = eb.writer.WriteMessages(ctx, msg); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (eb *EventBus) sendToDLQ(ctx context.Context, msg kafka.Message, cause error) error {
	if eb.topics.deadLetter == "" {
		return nil
	}

	dlq := kafka.Message{
		Topic: eb.topics.deadLetter,
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(append([]kafka.Header{}, msg.Headers...),
			kafka.Header{Key: "original_topic", Value: []byte(msg.Topic)},
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
		),
	}

	// The caller's context may already be done; the DLQ write gets its own.
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := eb.writer.WriteMessages(dctx, dlq); err != nil {
		return fmt.Errorf("failed to write message to DLQ: %w", err)
	}

	eb.logger.WithFields(logrus.Fields{
		"original_topic": msg.Topic,
		"error":          cause.Error(),
	}).Warn("Event sent to DLQ")
	return nil
}

func (eb *EventBus) Close() error {
	if err := eb.writer.Close(); err != nil {
		return fmt.Errorf("failed to close event writer: %w", err)
	}
	return nil
}
