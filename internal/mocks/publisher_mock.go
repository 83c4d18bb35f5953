package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"storyweave/internal/messaging"
)

// StoryPublisher - мок messaging.StoryPublisher.
type StoryPublisher struct {
	mock.Mock
}

func (m *StoryPublisher) PublishStoryGenerated(ctx context.Context, event messaging.StoryGeneratedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *StoryPublisher) Close() error {
	return nil
}

var _ messaging.StoryPublisher = (*StoryPublisher)(nil)
