package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hoanghai1803/ideaforge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var samplePairs = []models.IdeaParagraph{
	{Idea: "idea1", Paragraph: "para1"},
	{Idea: "idea2", Paragraph: "para2"},
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "json", samplePairs))

	want := `[
    {
        "idea": "idea1",
        "paragraph": "para1"
    },
    {
        "idea": "idea2",
        "paragraph": "para2"
    }
]
`
	assert.Equal(t, want, buf.String())
}

func TestWriteJSON_Empty(t *testing.T) {
	for _, pairs := range [][]models.IdeaParagraph{nil, {}} {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, "json", pairs))
		assert.Equal(t, "[]\n", buf.String())
	}
}

func TestWriteJSON_NoHTMLEscaping(t *testing.T) {
	var buf bytes.Buffer
	pairs := []models.IdeaParagraph{{Idea: "A/B tests <fast> & cheap", Paragraph: "x"}}
	require.NoError(t, Write(&buf, "json", pairs))

	assert.Contains(t, buf.String(), "A/B tests <fast> & cheap")

	var got []models.IdeaParagraph
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, pairs, got)
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "yaml", samplePairs))

	assert.True(t, strings.HasPrefix(buf.String(), "- idea: idea1\n"), buf.String())

	var got []models.IdeaParagraph
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, samplePairs, got)
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "markdown", []models.IdeaParagraph{
		{Idea: "Multi\nline idea", Paragraph: "Body text."},
	}))

	assert.Equal(t, "# Content ideas\n\n## Multi line idea\n\nBody text.\n", buf.String())
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "html", samplePairs))

	out := buf.String()
	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "<h2>idea1</h2>")
	assert.Contains(t, out, "<p>para2</p>")
	assert.Less(t, strings.Index(out, "idea1"), strings.Index(out, "idea2"))
}

func TestWrite_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, "xml", samplePairs)
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Empty(t, buf.String())
}
