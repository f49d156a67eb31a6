package ai

import (
	"context"
	"fmt"
)

// AIProvider is the interface that all LLM providers must implement.
type AIProvider interface {
	// GenerateStructured sends prompt with the extraction settings and
	// constrains the reply to shape. It returns the raw JSON text; callers
	// validate it.
	GenerateStructured(ctx context.Context, prompt string, shape ResponseShape) (string, error)

	// Complete sends prompt with the expansion settings and returns the
	// generated text.
	Complete(ctx context.Context, prompt string) (string, error)
}

// NewProvider creates the appropriate provider based on config.
func NewProvider(cfg ProviderConfig) (AIProvider, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicProvider(cfg), nil
	case "openai":
		return NewOpenAIProvider(cfg), nil
	case "ollama":
		p, err := NewOllamaProvider(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}
