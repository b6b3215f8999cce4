package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/smartdiet/internal/config"
	"github.com/temcen/smartdiet/pkg/models"
)

// fakeWriter fails the first failures writes to non-DLQ topics.
type fakeWriter struct {
	mu       sync.Mutex
	failures int
	failDLQ  bool
	written  []kafka.Message
	attempts int
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, m := range msgs {
		if m.Topic == "dlq" {
			if w.failDLQ {
				return errors.New("dlq down")
			}
			w.written = append(w.written, m)
			continue
		}
		w.attempts++
		if w.attempts <= w.failures {
			return errors.New("broker unavailable")
		}
		w.written = append(w.written, m)
	}
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func testKafkaConfig() *config.KafkaConfig {
	cfg := &config.KafkaConfig{MaxRetries: 2, RetryDelay: time.Millisecond}
	cfg.Topics.PlanGenerated = "plans"
	cfg.Topics.RecipeFeedback = "feedback"
	cfg.Topics.DeadLetter = "dlq"
	return cfg
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func samplePlan() *models.DayPlan {
	return &models.DayPlan{
		PlanID:  uuid.New(),
		Profile: models.UserProfile{Age: 30, HeightCM: 180, WeightKG: 75, ActivityLevel: models.ActivityMedium, Satiety: 3},
		Diet:    models.DietProfile{BMI: 23.1, Weights: models.EqualDietWeights(), Dominant: models.DietVegan},
		Entries: []models.PlanEntry{
			{MealSlot: models.MealBreakfast, Scored: models.ScoredRecipe{
				Recipe:   models.Recipe{ID: "r1", Name: "Oats", DietType: "vegan", Nutrition: models.Nutrition{Calories: 320}},
				Score:    4.2,
				Position: 1,
			}},
			{MealSlot: models.MealDinner, Scored: models.ScoredRecipe{
				Recipe:   models.Recipe{ID: "r2", Name: "Salmon", DietType: "high_protein"},
				Score:    3.9,
				Position: 1,
			}},
		},
	}
}

func TestPublishPlanGenerated(t *testing.T) {
	writer := &fakeWriter{}
	bus := NewEventBusWithWriter(writer, testKafkaConfig(), quietLogger())
	plan := samplePlan()

	require.NoError(t, bus.PublishPlanGenerated(context.Background(), plan))
	require.Len(t, writer.written, 1)

	msg := writer.written[0]
	assert.Equal(t, "plans", msg.Topic)
	assert.Equal(t, plan.PlanID.String(), string(msg.Key))
	assert.Equal(t, EventPlanGenerated, header(msg, "event_type"))
	assert.NotEmpty(t, header(msg, "event_id"))

	var event PlanGeneratedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, plan.PlanID, event.PlanID)
	require.Len(t, event.Rows, 2)
	assert.Equal(t, models.MealBreakfast, event.Rows[0].MealSlot)
	assert.Equal(t, "r1", event.Rows[0].RecipeID)
	assert.Equal(t, 320.0, event.Rows[0].Nutrition.Calories)
	assert.Equal(t, "r2", event.Rows[1].RecipeID)
}

func TestPublishFeedback(t *testing.T) {
	writer := &fakeWriter{}
	bus := NewEventBusWithWriter(writer, testKafkaConfig(), quietLogger())

	fb := &models.RecipeFeedback{PlanID: uuid.New(), RecipeID: "r9", Satisfaction: 4}
	require.NoError(t, bus.PublishFeedback(context.Background(), fb))
	require.Len(t, writer.written, 1)

	var event RecipeFeedbackEvent
	require.NoError(t, json.Unmarshal(writer.written[0].Value, &event))
	assert.Equal(t, "feedback", writer.written[0].Topic)
	assert.Equal(t, 4, event.Satisfaction)
	assert.False(t, event.Timestamp.IsZero())
}

func TestPublishRetries(t *testing.T) {
	writer := &fakeWriter{failures: 2}
	bus := NewEventBusWithWriter(writer, testKafkaConfig(), quietLogger())

	require.NoError(t, bus.PublishPlanGenerated(context.Background(), samplePlan()))
	assert.Equal(t, 3, writer.attempts)
	require.Len(t, writer.written, 1)
	assert.Equal(t, "plans", writer.written[0].Topic)
}

func TestPublishDeadLetter(t *testing.T) {
	t.Run("exhausted retries go to DLQ", func(t *testing.T) {
		writer := &fakeWriter{failures: 10}
		bus := NewEventBusWithWriter(writer, testKafkaConfig(), quietLogger())

		err := bus.PublishPlanGenerated(context.Background(), samplePlan())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max retries exceeded")
		assert.Equal(t, 3, writer.attempts)

		require.Len(t, writer.written, 1)
		dlq := writer.written[0]
		assert.Equal(t, "dlq", dlq.Topic)
		assert.Equal(t, "plans", header(dlq, "original_topic"))
		assert.Equal(t, EventPlanGenerated, header(dlq, "event_type"))
		assert.Contains(t, header(dlq, "error"), "broker unavailable")
	})

	t.Run("DLQ failure still returns publish error", func(t *testing.T) {
		writer := &fakeWriter{failures: 10, failDLQ: true}
		bus := NewEventBusWithWriter(writer, testKafkaConfig(), quietLogger())

		err := bus.PublishFeedback(context.Background(), &models.RecipeFeedback{PlanID: uuid.New(), RecipeID: "x", Satisfaction: 1})
		assert.Error(t, err)
		assert.Empty(t, writer.written)
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		writer := &fakeWriter{failures: 10}
		cfg := testKafkaConfig()
		cfg.RetryDelay = time.Hour
		bus := NewEventBusWithWriter(writer, cfg, quietLogger())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := bus.PublishPlanGenerated(ctx, samplePlan())
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, writer.attempts)
	})
}

func TestEventBusClose(t *testing.T) {
	writer := &fakeWriter{}
	bus := NewEventBusWithWriter(writer, testKafkaConfig(), quietLogger())
	require.NoError(t, bus.Close())
	assert.True(t, writer.closed)
}
