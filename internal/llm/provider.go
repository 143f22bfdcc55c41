package llm

import (
	"errors"
	"fmt"

	"github.com/Harshitk-cp/maestro/internal/domain"
)

// ErrCompletion marks any transport or model-side completion failure. Callers
// match it with errors.Is; the pipeline treats every wrapped variant the same.
var ErrCompletion = errors.New("completion failed")

// Provider constants
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// NewClient creates a completion client based on the provider name.
// Returns an error if the provider is unknown or the API key is empty (except for mock).
func NewClient(provider, apiKey string) (domain.CompletionClient, error) {
	switch provider {
	case ProviderGemini:
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return NewGeminiClient(apiKey), nil

	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		return NewOpenAIClient(apiKey), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown completion provider: %s (valid options: gemini, openai, mock)", provider)
	}
}
