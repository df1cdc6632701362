package service

import (
	"context"
	"fmt"

	"memoir-server/internal/auth"
	"memoir-server/internal/messaging"
	"memoir-server/internal/models"
	"memoir-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaveResult - итог сохранения истории.
type SaveResult struct {
	StoryID uuid.UUID
	// ShareURL читается из сохраненной записи, а не вычисляется здесь.
	ShareURL *string
	// ReclaimToken выдается только на анонимном пути сохранения.
	ReclaimToken string
}

// StoryService инкапсулирует двухветочное сохранение и работу с историями.
type StoryService struct {
	stories   repository.StoryRepository
	users     repository.UserRepository
	publisher messaging.TaskPublisher
	reclaim   *auth.ReclaimTokenIssuer
	logger    *zap.Logger
}

// NewStoryService создает StoryService. publisher может быть nil, тогда
// запрос полной генерации возвращает ошибку.
func NewStoryService(
	stories repository.StoryRepository,
	users repository.UserRepository,
	publisher messaging.TaskPublisher,
	reclaim *auth.ReclaimTokenIssuer,
	logger *zap.Logger,
) *StoryService {
	return &StoryService{
		stories:   stories,
		users:     users,
		publisher: publisher,
		reclaim:   reclaim,
		logger:    logger.Named("StoryService"),
	}
}

// SaveStory сохраняет сгенерированный контент. Ветки взаимоисключающие:
// аутентифицированный принципал (uid непустой и не анонимный) сохраняется
// под своим uid, все остальные - через анонимный путь с выделением
// синтетического владельца и выдачей reclaim-токена.
func (s *StoryService) SaveStory(ctx context.Context, content string, info *models.AuthInfo) (*SaveResult, error) {
	var (
		storyID      uuid.UUID
		reclaimToken string
	)

	if info.Authenticated() {
		// Профиль запрашивается только для диагностики: его отсутствие не
		// мешает сохранению.
		if profile, err := s.users.GetUserData(ctx, info.UID); err != nil {
			s.logger.Warn("Profile lookup failed before save", zap.String("uid", info.UID), zap.Error(err))
		} else {
			s.logger.Debug("Saving story for user",
				zap.String("uid", info.UID),
				zap.String("userID", profile.ID.String()))
		}

		id, err := s.stories.SavePreviewStory(ctx, info.UID, content)
		if err != nil {
			return nil, fmt.Errorf("authenticated save failed: %w", err)
		}
		storyID = id
	} else {
		id, ownerID, err := s.stories.SavePreviewStoryWithoutLogin(ctx, content)
		if err != nil {
			return nil, fmt.Errorf("anonymous save failed: %w", err)
		}
		storyID = id

		if s.reclaim != nil {
			token, err := s.reclaim.Issue(ownerID)
			if err != nil {
				// Без токена история остается доступной по share URL.
				s.logger.Warn("Failed to issue reclaim token", zap.Error(err))
			} else {
				reclaimToken = token
			}
		}
	}

	if storyID == uuid.Nil {
		return nil, ErrSaveFailed
	}

	story, err := s.stories.GetStory(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to read back saved story: %w", err)
	}

	return &SaveResult{
		StoryID:      story.ID,
		ShareURL:     story.ShareURL,
		ReclaimToken: reclaimToken,
	}, nil
}

// GetStory возвращает историю по ID.
func (s *StoryService) GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	return s.stories.GetStory(ctx, id)
}

// ListStories возвращает истории аутентифицированного пользователя.
func (s *StoryService) ListStories(ctx context.Context, firebaseUID string) ([]models.Story, error) {
	user, err := s.users.GetUserData(ctx, firebaseUID)
	if err != nil {
		return nil, err
	}
	return s.stories.ListByUser(ctx, user.ID)
}

// RequestFullGeneration ставит задачу полной генерации в очередь.
// Доступно только владельцу оплаченной истории.
func (s *StoryService) RequestFullGeneration(ctx context.Context, firebaseUID string, storyID uuid.UUID, answers models.AnswerSet) (string, error) {
	if s.publisher == nil {
		return "", fmt.Errorf("full generation is not available: task queue is not configured")
	}

	user, err := s.users.GetUserData(ctx, firebaseUID)
	if err != nil {
		return "", err
	}
	story, err := s.stories.GetStory(ctx, storyID)
	if err != nil {
		return "", err
	}
	if story.UserID != user.ID {
		return "", models.ErrStoryAccessDenied
	}
	if !story.IsPaid {
		return "", models.ErrStoryNotPaid
	}

	taskID := uuid.NewString()
	payload := messaging.FullGenerationTaskPayload{
		TaskID:      taskID,
		StoryID:     story.ID,
		UserID:      user.ID,
		FirebaseUID: firebaseUID,
		Answers:     answers,
	}
	if err := s.publisher.PublishFullGenerationTask(ctx, payload); err != nil {
		return "", fmt.Errorf("failed to enqueue full generation: %w", err)
	}

	s.logger.Info("Full generation task enqueued",
		zap.String("taskID", taskID),
		zap.String("storyID", story.ID.String()))
	return taskID, nil
}
