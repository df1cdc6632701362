package mocks

import (
	"context"

	"memoir-server/internal/messaging"

	"github.com/stretchr/testify/mock"
)

// Mock TaskPublisher
type TaskPublisher struct {
	mock.Mock
}

func (m *TaskPublisher) PublishFullGenerationTask(ctx context.Context, payload messaging.FullGenerationTaskPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// Mock ClientUpdatePublisher
type ClientUpdatePublisher struct {
	mock.Mock
}

func (m *ClientUpdatePublisher) PublishClientUpdate(ctx context.Context, payload messaging.ClientUpdatePayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}
