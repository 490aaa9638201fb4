package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/temcen/reelrank/internal/config"
)

const (
	EventWatched = "watched"
	EventRated   = "rated"
)

// ViewerEvent is what the offline similarity pipeline consumes to rebuild
// its tables.
type ViewerEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	EventType  string    `json:"event_type"`
	ViewerID   uuid.UUID `json:"viewer_id"`
	Anonymous  bool      `json:"anonymous"`
	ItemID     int       `json:"item_id"`
	Stars      int       `json:"stars,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventBus publishes viewer events to Kafka. Without brokers it is a no-op.
type EventBus struct {
	writer      messageWriter
	watchTopic  string
	ratingTopic string
	timeout     time.Duration
	logger      *logrus.Logger
}

func NewEventBus(cfg *config.Config, logger *logrus.Logger) *EventBus {
	bus := &EventBus{
		watchTopic:  cfg.Kafka.Topics.WatchEvents,
		ratingTopic: cfg.Kafka.Topics.RatingEvents,
		timeout:     10 * time.Second,
		logger:      logger,
	}

	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("No Kafka brokers configured, viewer events will not be published")
		return bus
	}

	bus.writer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Balancer:     &kafka.Hash{}, // Key by viewer so one viewer's events stay ordered
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	return bus
}

func (b *EventBus) Enabled() bool {
	return b.writer != nil
}

func (b *EventBus) PublishWatched(ctx context.Context, viewerID uuid.UUID, anonymous bool, itemID int, at time.Time) error {
	return b.publish(ctx, b.watchTopic, ViewerEvent{
		EventID:    uuid.New(),
		EventType:  EventWatched,
		ViewerID:   viewerID,
		Anonymous:  anonymous,
		ItemID:     itemID,
		OccurredAt: at,
	})
}

func (b *EventBus) PublishRated(ctx context.Context, viewerID uuid.UUID, itemID, stars int, at time.Time) error {
	return b.publish(ctx, b.ratingTopic, ViewerEvent{
		EventID:    uuid.New(),
		EventType:  EventRated,
		ViewerID:   viewerID,
		ItemID:     itemID,
		Stars:      stars,
		OccurredAt: at,
	})
}

func (b *EventBus) publish(ctx context.Context, topic string, event ViewerEvent) error {
	if b.writer == nil {
		return nil
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	kafkaMessage := kafka.Message{
		Topic: topic,
		Key:   []byte(event.ViewerID.String()),
		Value: eventBytes,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "user_id", Value: []byte(event.ViewerID.String())},
			{Key: "timestamp", Value: []byte(event.OccurredAt.Format(time.RFC3339))},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if err := b.writer.WriteMessages(ctx, kafkaMessage); err != nil {
		b.logger.WithError(err).WithFields(logrus.Fields{
			"event_type": event.EventType,
			"viewer_id":  event.ViewerID,
		}).Error("Failed to publish event to Kafka")
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	b.logger.WithFields(logrus.Fields{
		"event_id":   event.EventID,
		"event_type": event.EventType,
		"item_id":    event.ItemID,
		"topic":      topic,
	}).Debug("Event published to Kafka")

	return nil
}

func (b *EventBus) Close() error {
	if b.writer == nil {
		return nil
	}
	if err := b.writer.Close(); err != nil {
		return fmt.Errorf("failed to close producer: %w", err)
	}
	return nil
}
