package ai

import (
	"context"
	"fmt"
	"strings"
)

// SecondaryConfig selects the third-party provider used after the Bedrock tiers.
type SecondaryConfig struct {
	Provider  string
	Model     string
	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig
	Gemini    GeminiConfig
}

// NewSecondary builds the configured third-party provider. It returns a nil
// Invoker and no error when the provider is "none" or empty.
func NewSecondary(ctx context.Context, cfg SecondaryConfig) (Invoker, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))

	switch provider {
	case "", "none":
		return nil, nil
	case "openai":
		openaiCfg := cfg.OpenAI
		if cfg.Model != "" {
			openaiCfg.Model = cfg.Model
		}
		return NewOpenAIProvider(openaiCfg)
	case "anthropic":
		anthropicCfg := cfg.Anthropic
		if cfg.Model != "" {
			anthropicCfg.Model = cfg.Model
		}
		return NewAnthropicProvider(anthropicCfg)
	case "gemini":
		geminiCfg := cfg.Gemini
		if cfg.Model != "" {
			geminiCfg.Model = cfg.Model
		}
		return NewGeminiProvider(ctx, geminiCfg)
	case "mock":
		mock := NewMockProvider(cfg.Model, MockResponse{Text: MockScoringResponse})
		mock.Repeat = true
		return mock, nil
	default:
		return nil, fmt.Errorf("unknown secondary provider: %q", cfg.Provider)
	}
}

// MockScoringResponse is the canned completion served by the "mock" provider
// so the service can run end to end without cloud credentials.
const MockScoringResponse = `OVERALL_SCORE: 6.5
TASK_ACHIEVEMENT: 6.5 - The response addresses the task with a relevant position.
COHERENCE_COHESION: 6.5 - Ideas are organised logically with some mechanical linking.
LEXICAL_RESOURCE: 6.5 - Vocabulary is adequate with occasional imprecise word choice.
GRAMMATICAL_RANGE: 6.5 - A mix of simple and complex sentences with some errors.
FLUENCY_COHERENCE: 6.5 - Speaks at length with some hesitation.
PRONUNCIATION: 6.5 - Generally clear pronunciation with mixed control of features.
DETAILED_FEEDBACK: Your answer shows a clear position and a sensible structure. To reach a higher band, develop each main idea with a specific example, vary your linking words and check subject-verb agreement in longer sentences.`
