package ai

import "time"

// ProviderConfig holds the configuration needed to create an AI provider.
type ProviderConfig struct {
	Provider string // "openai" | "anthropic" | "ollama"
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	Extract  CallSettings
	Expand   CallSettings
}

// CallSettings are the generation parameters of one kind of model call.
type CallSettings struct {
	Model           string
	MaxOutputTokens int
	Creativity      float64
}

// ResponseShape declares the JSON document a structured call must return.
// Schema is a JSON Schema object.
type ResponseShape struct {
	Name        string
	Description string
	Schema      map[string]any
}
