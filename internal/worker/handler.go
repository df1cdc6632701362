package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"memoir-server/internal/messaging"
	"memoir-server/internal/models"
	"memoir-server/internal/repository"

	"go.uber.org/zap"
)

// Generator - часть GenerationService, нужная воркеру.
type Generator interface {
	Generate(ctx context.Context, mode models.GenerationMode, answers models.AnswerSet) (string, error)
}

// TaskHandler обрабатывает задачи полной генерации: строит полный промпт,
// вызывает нейросеть, заменяет содержимое истории и уведомляет клиента.
type TaskHandler struct {
	generator Generator
	stories   repository.StoryRepository
	updates   messaging.ClientUpdatePublisher
	logger    *zap.Logger
}

// NewTaskHandler создает обработчик задач воркера.
func NewTaskHandler(generator Generator, stories repository.StoryRepository, updates messaging.ClientUpdatePublisher, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		generator: generator,
		stories:   stories,
		updates:   updates,
		logger:    logger.Named("TaskHandler"),
	}
}

// Handle реализует messaging.DeliveryHandler.
func (h *TaskHandler) Handle(ctx context.Context, body []byte) error {
	var payload messaging.FullGenerationTaskPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		tasksProcessedTotal.WithLabelValues("malformed").Inc()
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	logger := h.logger.With(
		zap.String("taskID", payload.TaskID),
		zap.String("storyID", payload.StoryID.String()))
	logger.Info("Processing full generation task", zap.Int("answers", len(payload.Answers)))

	start := time.Now()
	content, err := h.generator.Generate(ctx, models.ModeFull, payload.Answers)
	taskDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		tasksProcessedTotal.WithLabelValues("generation_failed").Inc()
		logger.Error("Full generation failed", zap.Error(err))
		h.notify(ctx, payload, messaging.UpdateStatusFailed, err.Error())
		return fmt.Errorf("full generation failed: %w", err)
	}

	if err := h.stories.ReplaceContent(ctx, payload.StoryID, content, false); err != nil {
		tasksProcessedTotal.WithLabelValues("save_failed").Inc()
		logger.Error("Failed to store generated content", zap.Error(err))
		h.notify(ctx, payload, messaging.UpdateStatusFailed, "failed to store generated content")
		return fmt.Errorf("failed to store generated content: %w", err)
	}

	tasksProcessedTotal.WithLabelValues("completed").Inc()
	logger.Info("Full generation task completed", zap.Duration("took", time.Since(start)))
	h.notify(ctx, payload, messaging.UpdateStatusCompleted, "")
	return nil
}

// notify публикует клиентское обновление; отказ уведомления не влияет на
// судьбу задачи.
func (h *TaskHandler) notify(ctx context.Context, payload messaging.FullGenerationTaskPayload, status, errText string) {
	if h.updates == nil {
		return
	}
	update := messaging.ClientUpdatePayload{
		TaskID:  payload.TaskID,
		UserID:  payload.FirebaseUID,
		StoryID: payload.StoryID.String(),
		Status:  status,
		Error:   errText,
	}
	if err := h.updates.PublishClientUpdate(ctx, update); err != nil {
		h.logger.Warn("Failed to publish client update", zap.Error(err))
	}
}
