package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Compile-time interface check.
var _ AIProvider = (*OpenAIProvider)(nil)

// OpenAIProvider implements AIProvider using the official openai-go SDK
// (chat completions). Structured calls use a strict json_schema response
// format so the reply is constrained server-side.
type OpenAIProvider struct {
	client  openai.Client
	extract CallSettings
	expand  CallSettings
}

// NewOpenAIProvider creates an OpenAIProvider. The SDK's automatic retries
// are disabled: a failed call fails its search result.
func NewOpenAIProvider(cfg ProviderConfig) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &OpenAIProvider{
		client:  openai.NewClient(opts...),
		extract: cfg.Extract,
		expand:  cfg.Expand,
	}
}

// GenerateStructured asks the model for a JSON document matching shape.
func (p *OpenAIProvider) GenerateStructured(ctx context.Context, prompt string, shape ResponseShape) (string, error) {
	params := p.params(p.extract, prompt)
	params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        shape.Name,
				Description: openai.String(shape.Description),
				Schema:      shape.Schema,
				Strict:      openai.Bool(true),
			},
		},
	}

	text, err := p.call(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai structured: %w", err)
	}
	return text, nil
}

// Complete generates free text for prompt with the expansion settings.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	text, err := p.call(ctx, p.params(p.expand, prompt))
	if err != nil {
		return "", fmt.Errorf("openai complete: %w", err)
	}
	return text, nil
}

func (p *OpenAIProvider) params(settings CallSettings, prompt string) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: openai.ChatModel(settings.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(int64(settings.MaxOutputTokens)),
		Temperature: openai.Float(settings.Creativity),
	}
}

func (p *OpenAIProvider) call(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	slog.Debug("calling OpenAI API", "model", params.Model)

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response: no choices returned")
	}

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return "", fmt.Errorf("model refused: %s", choice.Message.Refusal)
	}
	return choice.Message.Content, nil
}
