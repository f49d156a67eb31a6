package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidIdeas is returned when a structured reply does not match
	// IdeasShape.
	ErrInvalidIdeas = errors.New("invalid ideas response")

	// ErrEmptyCompletion is returned when an expansion produced no text.
	ErrEmptyCompletion = errors.New("empty completion")
)

// Ideas is the structured reply of the extraction call.
type Ideas struct {
	Ideas []string `json:"ideas"`
}

// IdeasShape is the schema the extraction call is constrained to.
var IdeasShape = ResponseShape{
	Name:        "ideas",
	Description: "Short content ideas derived from an article.",
	Schema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ideas": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required":             []string{"ideas"},
		"additionalProperties": false,
	},
}

// ParseIdeas validates raw against IdeasShape. The reply must be a JSON
// object whose "ideas" member is an array of strings. Blank entries are
// dropped; an empty array is valid.
func ParseIdeas(raw string) (Ideas, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(extractJSON(raw)), &obj); err != nil {
		return Ideas{}, fmt.Errorf("%w: not a JSON object: %v", ErrInvalidIdeas, err)
	}

	field, ok := obj["ideas"]
	if !ok {
		return Ideas{}, fmt.Errorf("%w: missing \"ideas\" field", ErrInvalidIdeas)
	}
	if bytes.Equal(bytes.TrimSpace(field), []byte("null")) {
		return Ideas{}, fmt.Errorf("%w: \"ideas\" is null", ErrInvalidIdeas)
	}

	var list []string
	if err := json.Unmarshal(field, &list); err != nil {
		return Ideas{}, fmt.Errorf("%w: \"ideas\" is not a list of strings: %v", ErrInvalidIdeas, err)
	}

	ideas := Ideas{Ideas: make([]string, 0, len(list))}
	for _, idea := range list {
		if idea = strings.TrimSpace(idea); idea != "" {
			ideas.Ideas = append(ideas.Ideas, idea)
		}
	}
	return ideas, nil
}

// ExtractIdeas renders the extraction prompt for article, makes one
// structured call and validates the reply.
func ExtractIdeas(ctx context.Context, provider AIProvider, tmpl *PromptTemplate, article string) (Ideas, error) {
	prompt, err := tmpl.Render(article)
	if err != nil {
		return Ideas{}, err
	}

	raw, err := provider.GenerateStructured(ctx, prompt, IdeasShape)
	if err != nil {
		return Ideas{}, err
	}

	return ParseIdeas(raw)
}

// ExpandIdea turns one idea into a paragraph. The idea itself is the
// prompt; length and creativity come from the provider's expansion
// settings.
func ExpandIdea(ctx context.Context, provider AIProvider, idea string) (string, error) {
	text, err := provider.Complete(ctx, idea)
	if err != nil {
		return "", err
	}

	paragraph := strings.TrimSpace(text)
	if paragraph == "" {
		return "", ErrEmptyCompletion
	}
	return paragraph, nil
}
