// Package render converts stored answer text from Markdown into the HTML
// the web shell displays. Answers only: questions are shown as plain text.
package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
)

var md = goldmark.New()

// HTML renders markdown text to HTML. Stateless and deterministic for
// identical input.
func HTML(markdown string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}
