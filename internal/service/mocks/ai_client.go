package mocks

import (
	"context"

	"memoir-server/pkg/ai"

	"github.com/stretchr/testify/mock"
)

// Mock AIClient
type AIClient struct {
	mock.Mock
}

func (m *AIClient) GenerateText(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, ai.Usage, error) {
	args := m.Called(ctx, systemPrompt, userPrompt, maxTokens)
	usage, _ := args.Get(1).(ai.Usage)
	return args.String(0), usage, args.Error(2)
}
