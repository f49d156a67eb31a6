package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// ErrInvalidTemplate is returned by NewPromptTemplate when the template
// cannot be used to build an extraction prompt.
var ErrInvalidTemplate = errors.New("invalid prompt template")

const structuredSystemPromptTmpl = `Respond with ONLY a single JSON object that conforms to the JSON Schema below. Do not wrap it in code fences and do not add any text before or after it.

Schema (%s):
%s`

// StructuredSystemPrompt builds the system prompt used by providers that
// have no server-side schema enforcement.
func StructuredSystemPrompt(shape ResponseShape) (string, error) {
	schema, err := json.MarshalIndent(shape.Schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling schema %q: %w", shape.Name, err)
	}
	return fmt.Sprintf(structuredSystemPromptTmpl, shape.Name, schema), nil
}

// promptData is the value a PromptTemplate is executed against.
type promptData struct {
	Post string
}

// postSentinel stands in for the article while a template is checked.
const postSentinel = "\x00post\x00"

// PromptTemplate renders the idea extraction instruction. It has exactly
// one slot, {{.Post}}, which receives the article text.
type PromptTemplate struct {
	tmpl *template.Template
}

// NewPromptTemplate parses text and checks that it references the article
// slot exactly once and nothing else.
func NewPromptTemplate(text string) (*PromptTemplate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidTemplate)
	}

	tmpl, err := template.New("extract").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, promptData{Post: postSentinel}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	if n := strings.Count(b.String(), postSentinel); n != 1 {
		return nil, fmt.Errorf("%w: {{.Post}} must appear exactly once, found %d", ErrInvalidTemplate, n)
	}

	return &PromptTemplate{tmpl: tmpl}, nil
}

// Render substitutes post into the template.
func (p *PromptTemplate) Render(post string) (string, error) {
	var b strings.Builder
	if err := p.tmpl.Execute(&b, promptData{Post: post}); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return b.String(), nil
}

// extractJSON strips markdown code fences from a string that may contain
// JSON wrapped in ```json ... ``` or ``` ... ``` blocks. This handles the
// common case where LLMs return JSON inside code fences.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)

	// Try ```json ... ``` first.
	if after, found := strings.CutPrefix(s, "```json"); found {
		if idx := strings.LastIndex(after, "```"); idx >= 0 {
			after = after[:idx]
		}
		return strings.TrimSpace(after)
	}

	// Try plain ``` ... ```.
	if after, found := strings.CutPrefix(s, "```"); found {
		if idx := strings.LastIndex(after, "```"); idx >= 0 {
			after = after[:idx]
		}
		return strings.TrimSpace(after)
	}

	return s
}
