package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Compile-time interface check.
var _ AIProvider = (*AnthropicProvider)(nil)

const anthropicAPIURL = "https://api.anthropic.com/v1/messages"

// AnthropicProvider implements AIProvider using the Anthropic Messages API.
// The Messages API has no schema-constrained mode, so structured calls put
// the schema in the system prompt and the reply is validated by the caller.
type AnthropicProvider struct {
	apiKey  string
	url     string
	extract CallSettings
	expand  CallSettings
	client  *http.Client
}

// NewAnthropicProvider creates an AnthropicProvider. A zero cfg.Timeout
// falls back to 60 seconds.
func NewAnthropicProvider(cfg ProviderConfig) *AnthropicProvider {
	url := anthropicAPIURL
	if cfg.BaseURL != "" {
		url = strings.TrimRight(cfg.BaseURL, "/") + "/v1/messages"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &AnthropicProvider{
		apiKey:  cfg.APIKey,
		url:     url,
		extract: cfg.Extract,
		expand:  cfg.Expand,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// anthropicRequest is the request body for the Anthropic Messages API.
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

// anthropicMessage is a single message in the Anthropic request.
type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse is the response body from the Anthropic Messages API.
type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateStructured asks the model for a JSON document matching shape.
func (p *AnthropicProvider) GenerateStructured(ctx context.Context, prompt string, shape ResponseShape) (string, error) {
	systemPrompt, err := StructuredSystemPrompt(shape)
	if err != nil {
		return "", fmt.Errorf("anthropic structured: %w", err)
	}

	text, err := p.callAPI(ctx, p.extract, systemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("anthropic structured: %w", err)
	}

	return extractJSON(text), nil
}

// Complete generates free text for prompt with the expansion settings.
func (p *AnthropicProvider) Complete(ctx context.Context, prompt string) (string, error) {
	text, err := p.callAPI(ctx, p.expand, "", prompt)
	if err != nil {
		return "", fmt.Errorf("anthropic complete: %w", err)
	}

	return text, nil
}

// callAPI makes an HTTP request to the Anthropic Messages API and returns
// the text content from the first content block.
func (p *AnthropicProvider) callAPI(ctx context.Context, settings CallSettings, systemPrompt, userPrompt string) (string, error) {
	reqBody := anthropicRequest{
		Model:     settings.Model,
		MaxTokens: settings.MaxOutputTokens,
		// Anthropic caps temperature at 1.
		Temperature: min(settings.Creativity, 1),
		System:      systemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: userPrompt},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("content-type", "application/json")

	slog.Debug("calling Anthropic API", "model", settings.Model, "max_tokens", settings.MaxOutputTokens)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("parsing response (status %d): %w", resp.StatusCode, err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, apiResp.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("empty response: no content blocks returned")
	}

	return apiResp.Content[0].Text, nil
}
