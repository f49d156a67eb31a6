package ai

import (
	"testing"
)

func TestNewProvider(t *testing.T) {
	settings := CallSettings{Model: "some-model", MaxOutputTokens: 150, Creativity: 0.7}

	tests := []struct {
		name     string
		cfg      ProviderConfig
		wantErr  bool
		wantType string
	}{
		{
			name: "anthropic provider",
			cfg: ProviderConfig{
				Provider: "anthropic",
				APIKey:   "test-key",
				Extract:  settings,
				Expand:   settings,
			},
			wantType: "*ai.AnthropicProvider",
		},
		{
			name: "openai provider",
			cfg: ProviderConfig{
				Provider: "openai",
				APIKey:   "test-key",
				Extract:  settings,
				Expand:   settings,
			},
			wantType: "*ai.OpenAIProvider",
		},
		{
			name: "ollama provider",
			cfg: ProviderConfig{
				Provider: "ollama",
				BaseURL:  "http://localhost:11434",
				Extract:  settings,
				Expand:   settings,
			},
			wantType: "*ai.OllamaProvider",
		},
		{
			name: "unsupported provider",
			cfg: ProviderConfig{
				Provider: "invalid",
				APIKey:   "test-key",
			},
			wantErr: true,
		},
		{
			name: "empty provider",
			cfg: ProviderConfig{
				Provider: "",
				APIKey:   "test-key",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(tt.cfg)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if provider != nil {
					t.Fatal("expected nil provider when error occurs")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if provider == nil {
				t.Fatal("expected non-nil provider")
			}

			// Verify the concrete type via type assertion.
			switch tt.wantType {
			case "*ai.AnthropicProvider":
				if _, ok := provider.(*AnthropicProvider); !ok {
					t.Errorf("expected *AnthropicProvider, got %T", provider)
				}
			case "*ai.OpenAIProvider":
				if _, ok := provider.(*OpenAIProvider); !ok {
					t.Errorf("expected *OpenAIProvider, got %T", provider)
				}
			case "*ai.OllamaProvider":
				if _, ok := provider.(*OllamaProvider); !ok {
					t.Errorf("expected *OllamaProvider, got %T", provider)
				}
			}
		})
	}
}
