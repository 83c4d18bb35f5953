package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	// StoryEventsExchange - fanout exchange событий историй.
	StoryEventsExchange     = "story_events"
	storyEventsExchangeType = "fanout"

	// EventStoryGenerated публикуется после сохранения новой истории.
	EventStoryGenerated = "story.generated"
)

// StoryGeneratedEvent - полезная нагрузка события story.generated.
type StoryGeneratedEvent struct {
	Event         string    `json:"event"`
	StoryID       string    `json:"story_id"`
	ChildID       string    `json:"child_id"`
	ProfileType   string    `json:"profile_type"`
	Theme         string    `json:"theme"`
	ChapterNumber int       `json:"chapter_number"`
	ParentStoryID string    `json:"parent_story_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// StoryPublisher публикует события историй.
type StoryPublisher interface {
	PublishStoryGenerated(ctx context.Context, event StoryGeneratedEvent) error
	Close() error
}

var (
	_ StoryPublisher = (*RabbitMQStoryPublisher)(nil)
	_ StoryPublisher = NoopPublisher{}
)

// RabbitMQStoryPublisher пишет события в durable fanout exchange.
type RabbitMQStoryPublisher struct {
	mu     sync.Mutex
	ch     *amqp091.Channel
	logger *zap.Logger
}

// NewRabbitMQStoryPublisher открывает канал и объявляет exchange.
func NewRabbitMQStoryPublisher(conn *amqp091.Connection, logger *zap.Logger) (*RabbitMQStoryPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("Failed to open a channel for story events", zap.Error(err))
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		StoryEventsExchange,
		storyEventsExchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		logger.Error("Failed to declare story events exchange", zap.String("exchange", StoryEventsExchange), zap.Error(err))
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", StoryEventsExchange, err)
	}
	logger.Info("Story events exchange declared", zap.String("exchange", StoryEventsExchange))

	return &RabbitMQStoryPublisher{
		ch:     ch,
		logger: logger.Named("StoryPublisher"),
	}, nil
}

func (p *RabbitMQStoryPublisher) PublishStoryGenerated(ctx context.Context, event StoryGeneratedEvent) error {
	event.Event = EventStoryGenerated
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal story event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx,
		StoryEventsExchange,
		"", // routing key не используется для fanout
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    uuid.NewString(),
			Type:         EventStoryGenerated,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish story event", zap.String("story_id", event.StoryID), zap.Error(err))
		return fmt.Errorf("failed to publish story event: %w", err)
	}

	p.logger.Debug("Story event published", zap.String("story_id", event.StoryID))
	return nil
}

func (p *RabbitMQStoryPublisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}

// NoopPublisher используется, когда RabbitMQ не настроен.
type NoopPublisher struct{}

func (NoopPublisher) PublishStoryGenerated(context.Context, StoryGeneratedEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
