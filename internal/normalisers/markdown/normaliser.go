package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/core/ports/driven"
	"github.com/custodia-labs/glance/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown payloads, typically from editors and push
// integrations that already produce markdown.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedFormats returns the payload formats this normaliser handles.
func (n *Normaliser) SupportedFormats() []string {
	return []string{domain.FormatMarkdown, "md"}
}

// Normalise simplifies markdown formatting and canonicalises whitespace.
func (n *Normaliser) Normalise(_ context.Context, content string) (string, error) {
	return plaintext.Clean(Strip(content)), nil
}

// Pre-compiled regular expressions for markdown simplification.
var (
	frontMatter  = regexp.MustCompile(`(?s)\A---\r?\n.*?\r?\n---\r?\n`)
	codeFence    = regexp.MustCompile("(?m)^\\s*```[^\\n]*$")
	images       = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blockquote   = regexp.MustCompile(`(?m)^>\s?`)
	horizontal   = regexp.MustCompile(`(?m)^\s*[-*_]{3,}\s*$`)
	listMarkers  = regexp.MustCompile(`(?m)^(\s*)[-*+]\s+`)
	emphasis     = regexp.MustCompile(`(\*\*|__)(\S(?:.*?\S)?)(\*\*|__)`)
	tableDivider = regexp.MustCompile(`(?m)^\s*\|?(\s*:?-{3,}:?\s*\|)+\s*:?-*:?\s*$`)
)

// Strip removes markdown syntax that carries no text, keeping the words.
// Code block contents are kept; only the fences go.
func Strip(content string) string {
	content = frontMatter.ReplaceAllString(content, "")
	content = codeFence.ReplaceAllString(content, "")
	content = images.ReplaceAllString(content, "")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = blockquote.ReplaceAllString(content, "")
	content = horizontal.ReplaceAllString(content, "")
	content = tableDivider.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "$1")
	content = emphasis.ReplaceAllString(content, "$2")
	return strings.TrimSpace(content)
}
