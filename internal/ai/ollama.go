package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Compile-time interface check.
var _ AIProvider = (*OllamaProvider)(nil)

// OllamaProvider implements AIProvider against a local Ollama server through
// langchaingo. Structured calls run in Ollama's JSON mode with the schema in
// the system prompt.
type OllamaProvider struct {
	extractLLM llms.Model
	expandLLM  llms.Model
	extract    CallSettings
	expand     CallSettings
}

// NewOllamaProvider creates one langchaingo client per call kind, since the
// two kinds may use different models. An empty cfg.BaseURL uses the
// langchaingo default (OLLAMA_HOST or localhost:11434).
func NewOllamaProvider(cfg ProviderConfig) (*OllamaProvider, error) {
	extractLLM, err := newOllamaLLM(cfg.Extract.Model, cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating ollama extract client: %w", err)
	}
	expandLLM, err := newOllamaLLM(cfg.Expand.Model, cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating ollama expand client: %w", err)
	}
	return &OllamaProvider{
		extractLLM: extractLLM,
		expandLLM:  expandLLM,
		extract:    cfg.Extract,
		expand:     cfg.Expand,
	}, nil
}

func newOllamaLLM(model, baseURL string) (*ollama.LLM, error) {
	opts := []ollama.Option{ollama.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, ollama.WithServerURL(baseURL))
	}
	return ollama.New(opts...)
}

// GenerateStructured asks the model for a JSON document matching shape.
func (p *OllamaProvider) GenerateStructured(ctx context.Context, prompt string, shape ResponseShape) (string, error) {
	systemPrompt, err := StructuredSystemPrompt(shape)
	if err != nil {
		return "", fmt.Errorf("ollama structured: %w", err)
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	slog.Debug("calling Ollama", "model", p.extract.Model, "json_mode", true)

	resp, err := p.extractLLM.GenerateContent(ctx, content,
		llms.WithMaxTokens(p.extract.MaxOutputTokens),
		llms.WithTemperature(p.extract.Creativity),
		llms.WithJSONMode(),
	)
	if err != nil {
		return "", fmt.Errorf("ollama structured: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("ollama structured: empty response")
	}

	return extractJSON(resp.Choices[0].Content), nil
}

// Complete generates free text for prompt with the expansion settings.
func (p *OllamaProvider) Complete(ctx context.Context, prompt string) (string, error) {
	slog.Debug("calling Ollama", "model", p.expand.Model)

	text, err := llms.GenerateFromSinglePrompt(ctx, p.expandLLM, prompt,
		llms.WithMaxTokens(p.expand.MaxOutputTokens),
		llms.WithTemperature(p.expand.Creativity),
	)
	if err != nil {
		return "", fmt.Errorf("ollama complete: %w", err)
	}
	return text, nil
}
