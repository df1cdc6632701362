package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

var log = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

// Ошибки генерации различимы по виду: сетевая/API ошибка либо пустой ответ.
// Политика подстановки fallback-текста остается за вызывающей стороной.
var (
	// ErrRequestFailed - вызов API завершился ошибкой после всех попыток.
	ErrRequestFailed = errors.New("ai: request failed")
	// ErrEmptyResponse - API ответил, но не вернул ни одного непустого варианта.
	ErrEmptyResponse = errors.New("ai: empty response")
)

const (
	// defaultTemperature - фиксированная температура сэмплирования.
	defaultTemperature = 0.7
	tokenizerEncoding  = "cl100k_base"
)

// Config содержит конфигурацию клиента нейросети.
type Config struct {
	APIKey     string
	BaseURL    string
	ModelName  string
	Timeout    int // секунды
	MaxRetries int
}

// Client предоставляет доступ к API генерации текста.
type Client struct {
	client     *openai.Client
	modelName  string
	timeout    time.Duration
	maxRetries int
	encoder    *tiktoken.Tiktoken
}

// Usage - статистика токенов одного запроса.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// New создает новый экземпляр клиента нейросети.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("ai: API key is not set")
	}
	if cfg.ModelName == "" {
		cfg.ModelName = "deepseek/deepseek-chat-v3-0324:free"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL

	// Токенайзер нужен только для метрик; его отсутствие не фатально.
	encoder, err := tiktoken.GetEncoding(tokenizerEncoding)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to init tiktoken encoder, prompt token metrics disabled")
		encoder = nil
	}

	return &Client{
		client:     openai.NewClientWithConfig(config),
		modelName:  cfg.ModelName,
		timeout:    time.Duration(cfg.Timeout) * time.Second,
		maxRetries: cfg.MaxRetries,
		encoder:    encoder,
	}, nil
}

// GenerateText отправляет пару system/user сообщений и возвращает текст
// первого варианта ответа. maxTokens - потолок длины ответа (1500 для
// превью, 4000 для полной автобиографии). Все отказы сводятся к
// ErrRequestFailed либо ErrEmptyResponse, паники наружу не выходят.
func (c *Client) GenerateText(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, Usage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.observePromptTokens(systemPrompt, userPrompt)

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt,
			},
		},
		Temperature: defaultTemperature,
		MaxTokens:   maxTokens,
		TopP:        0.95,
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		start := time.Now()
		resp, err := c.client.CreateChatCompletion(ctx, req)
		aiRequestDuration.WithLabelValues(c.modelName).Observe(time.Since(start).Seconds())

		if err != nil {
			aiRequestsTotal.WithLabelValues(c.modelName, "error").Inc()
			log.Error().Err(err).Int("attempt", attempt).Msg("CreateChatCompletion failed")
			lastErr = fmt.Errorf("%w: %v", ErrRequestFailed, err)
			if attempt < c.maxRetries {
				time.Sleep(time.Duration(attempt) * time.Second)
			}
			continue
		}

		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			aiRequestsTotal.WithLabelValues(c.modelName, "empty").Inc()
			log.Warn().Int("attempt", attempt).Msg("Empty response from AI API")
			lastErr = ErrEmptyResponse
			if attempt < c.maxRetries {
				time.Sleep(time.Duration(attempt) * time.Second)
			}
			continue
		}

		aiRequestsTotal.WithLabelValues(c.modelName, "success").Inc()
		aiCompletionTokens.WithLabelValues(c.modelName).Observe(float64(resp.Usage.CompletionTokens))

		usage := Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
		return resp.Choices[0].Message.Content, usage, nil
	}

	return "", Usage{}, lastErr
}

func (c *Client) observePromptTokens(systemPrompt, userPrompt string) {
	if c.encoder == nil {
		return
	}
	count := len(c.encoder.Encode(systemPrompt, nil, nil)) + len(c.encoder.Encode(userPrompt, nil, nil))
	aiPromptTokens.WithLabelValues(c.modelName).Observe(float64(count))
}
