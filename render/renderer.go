// Package render converts article source into sanitized HTML for the
// read view.
package render

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// HTMLRenderer renders markdown to HTML. Output is NOT sanitized here;
// callers pass it through a bluemonday policy before serving.
type HTMLRenderer struct {
	md goldmark.Markdown
}

// NewHTMLRenderer creates a renderer with GFM tables, strikethrough and
// autolinks enabled.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Render converts markdown source to unsanitized HTML.
func (r *HTMLRenderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
