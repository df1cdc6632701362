package mocks

import (
	"context"

	"memoir-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock StoryRepository
type StoryRepository struct {
	mock.Mock
}

func (m *StoryRepository) SavePreviewStory(ctx context.Context, firebaseUID, content string) (uuid.UUID, error) {
	args := m.Called(ctx, firebaseUID, content)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *StoryRepository) SavePreviewStoryWithoutLogin(ctx context.Context, content string) (uuid.UUID, uuid.UUID, error) {
	args := m.Called(ctx, content)
	return args.Get(0).(uuid.UUID), args.Get(1).(uuid.UUID), args.Error(2)
}

func (m *StoryRepository) GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, id)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}

func (m *StoryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Story, error) {
	args := m.Called(ctx, userID)
	stories, _ := args.Get(0).([]models.Story)
	return stories, args.Error(1)
}

func (m *StoryRepository) ReplaceContent(ctx context.Context, id uuid.UUID, content string, isPreview bool) error {
	args := m.Called(ctx, id, content, isPreview)
	return args.Error(0)
}

// Mock UserRepository
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) GetUserData(ctx context.Context, firebaseUID string) (*models.User, error) {
	args := m.Called(ctx, firebaseUID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepository) GetOrCreateByFirebaseUID(ctx context.Context, firebaseUID, displayName string) (*models.User, error) {
	args := m.Called(ctx, firebaseUID, displayName)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepository) CreateAnonymous(ctx context.Context) (*models.User, error) {
	args := m.Called(ctx)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

// Mock PreviewCache
type PreviewCache struct {
	mock.Mock
}

func (m *PreviewCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *PreviewCache) Set(ctx context.Context, key, content string) error {
	args := m.Called(ctx, key, content)
	return args.Error(0)
}
