package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"memoir-server/internal/models"
	"memoir-server/internal/prompt"
	"memoir-server/internal/repository"
	"memoir-server/pkg/ai"

	"go.uber.org/zap"
)

// Потолки длины ответа - единственный параметр вызова, различающийся
// между превью и полной генерацией помимо текста промпта.
const (
	previewMaxTokens = 1500
	fullMaxTokens    = 4000
)

// FallbackContent - фиксированный текст, который API исторически отдает
// вместо ошибки генерации. Подстановку выполняет обработчик, сервис
// возвращает типизированную ошибку.
const FallbackContent = "자서전 생성 중 오류가 발생했습니다"

// AIClient - контракт клиента генерации, реализуемый pkg/ai.
type AIClient interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, ai.Usage, error)
}

// GenerationService строит промпт, спрашивает нейросеть и кеширует превью.
type GenerationService struct {
	aiClient AIClient
	cache    repository.PreviewCache
	logger   *zap.Logger
}

// NewGenerationService создает GenerationService. cache может быть nil -
// тогда превью не кешируются.
func NewGenerationService(aiClient AIClient, cache repository.PreviewCache, logger *zap.Logger) *GenerationService {
	return &GenerationService{
		aiClient: aiClient,
		cache:    cache,
		logger:   logger.Named("GenerationService"),
	}
}

// Generate выполняет генерацию в указанном режиме. Отказ нейросети
// возвращается как ошибка с различимым видом (ai.ErrRequestFailed /
// ai.ErrEmptyResponse) - решать, чем отвечать клиенту, будет вызывающий.
func (s *GenerationService) Generate(ctx context.Context, mode models.GenerationMode, answers models.AnswerSet) (string, error) {
	if !mode.Valid() {
		return "", fmt.Errorf("unknown generation mode %q", mode)
	}

	cacheKey := ""
	if mode == models.ModePreview && s.cache != nil {
		cacheKey = answerSetKey(mode, answers)
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
			s.logger.Debug("Preview served from cache", zap.String("key", cacheKey))
			return cached, nil
		} else if !errors.Is(err, repository.ErrCacheMiss) {
			// Отказ Redis деградирует до обычной генерации.
			s.logger.Warn("Preview cache unavailable", zap.Error(err))
		}
	}

	req := prompt.Build(answers, mode)
	maxTokens := previewMaxTokens
	if mode == models.ModeFull {
		maxTokens = fullMaxTokens
	}

	content, usage, err := s.aiClient.GenerateText(ctx, req.SystemPrompt, req.UserPrompt, maxTokens)
	if err != nil {
		s.logger.Error("Generation failed",
			zap.String("mode", string(mode)),
			zap.Error(err))
		return "", err
	}

	s.logger.Info("Generation completed",
		zap.String("mode", string(mode)),
		zap.Int("answers", len(answers)),
		zap.Int("completionTokens", usage.CompletionTokens))

	if cacheKey != "" {
		if err := s.cache.Set(ctx, cacheKey, content); err != nil {
			s.logger.Warn("Failed to cache preview", zap.Error(err))
		}
	}
	return content, nil
}

// answerSetKey канонизирует набор ответов в детерминированный ключ кеша.
// json.Marshal сортирует ключи map, поэтому сериализация воспроизводима.
func answerSetKey(mode models.GenerationMode, answers models.AnswerSet) string {
	raw, err := json.Marshal(answers)
	if err != nil {
		raw = []byte{}
	}
	sum := sha256.Sum256(append([]byte(mode+":"), raw...))
	return hex.EncodeToString(sum[:])
}
