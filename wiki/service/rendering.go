package service

import (
	"github.com/emberwiki/emberwiki/render"
	"github.com/emberwiki/emberwiki/wiki"
	"github.com/microcosm-cc/bluemonday"
)

// RenderingService turns stored article content into HTML safe to serve.
type RenderingService interface {
	// Render converts content in the given format to sanitized HTML.
	Render(content string, format wiki.ContentFormat) (string, error)
}

type renderingService struct {
	renderer  *render.HTMLRenderer
	sanitizer *bluemonday.Policy
}

// NewRenderingService creates a RenderingService with the given sanitizer
// policy.
func NewRenderingService(sanitizer *bluemonday.Policy) RenderingService {
	return &renderingService{
		renderer:  render.NewHTMLRenderer(),
		sanitizer: sanitizer,
	}
}

// Render converts markdown through goldmark and sanitizes; html content
// is sanitized as-is.
func (s *renderingService) Render(content string, format wiki.ContentFormat) (string, error) {
	if format == wiki.FormatHTML {
		return s.sanitizer.Sanitize(content), nil
	}
	unsafe, err := s.renderer.Render(content)
	if err != nil {
		return "", err
	}
	return s.sanitizer.Sanitize(unsafe), nil
}
