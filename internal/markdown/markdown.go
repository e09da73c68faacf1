// Package markdown renders note bodies to HTML for the browser preview.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts Markdown to HTML. Raw HTML in notes is dropped unless
// the renderer was built with WithUnsafeHTML. A Renderer is safe for
// concurrent use.
type Renderer struct {
	engine goldmark.Markdown
}

// Option configures a Renderer.
type Option func(*options)

type options struct {
	unsafe    bool
	hardWraps bool
}

// WithUnsafeHTML passes raw HTML in notes through to the output.
func WithUnsafeHTML() Option {
	return func(o *options) { o.unsafe = true }
}

// WithHardWraps renders single newlines as <br>, the way Obsidian does.
func WithHardWraps() Option {
	return func(o *options) { o.hardWraps = true }
}

// New creates a Renderer with GitHub-flavored Markdown enabled.
func New(opts ...Option) *Renderer {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	rendererOptions := []renderer.Option{html.WithXHTML()}
	if o.unsafe {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}
	if o.hardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}

	engine := goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOptions...),
	)

	return &Renderer{engine: engine}
}

// Render converts source to HTML.
func (r *Renderer) Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("markdown render: %w", err)
	}
	return buf.String(), nil
}
