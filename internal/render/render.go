// Package render serializes the ordered idea/paragraph list of a run.
package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hoanghai1803/ideaforge/internal/models"
	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for a format Write does not support.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the supported output formats.
var Formats = []string{"json", "yaml", "markdown", "html"}

// Write encodes pairs to w in format. The list is written once, in order;
// an empty list is still a valid document.
func Write(w io.Writer, format string, pairs []models.IdeaParagraph) error {
	if pairs == nil {
		pairs = []models.IdeaParagraph{}
	}

	switch format {
	case "json", "":
		return writeJSON(w, pairs)
	case "yaml":
		return writeYAML(w, pairs)
	case "markdown":
		_, err := io.WriteString(w, Markdown(pairs))
		return err
	case "html":
		return writeHTML(w, pairs)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func writeJSON(w io.Writer, pairs []models.IdeaParagraph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(pairs); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, pairs []models.IdeaParagraph) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(pairs); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

// Markdown renders one section per idea.
func Markdown(pairs []models.IdeaParagraph) string {
	var b strings.Builder
	b.WriteString("# Content ideas\n")
	if len(pairs) == 0 {
		b.WriteString("\n_No ideas were generated._\n")
	}
	for _, p := range pairs {
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", singleLine(p.Idea), p.Paragraph)
	}
	return b.String()
}

// singleLine keeps an idea inside its heading.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

const htmlPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Content ideas</title>
</head>
<body>
%s</body>
</html>
`

func writeHTML(w io.Writer, pairs []models.IdeaParagraph) error {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(pairs)), &body); err != nil {
		return fmt.Errorf("rendering html: %w", err)
	}
	_, err := fmt.Fprintf(w, htmlPage, body.String())
	return err
}
