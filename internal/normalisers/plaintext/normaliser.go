package plaintext

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text payloads from accessibility and OCR
// extraction.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedFormats returns the payload formats this normaliser handles.
func (n *Normaliser) SupportedFormats() []string {
	return []string{domain.FormatText, ""}
}

// Normalise returns the canonical form of the text.
func (n *Normaliser) Normalise(_ context.Context, content string) (string, error) {
	return Clean(content), nil
}

var (
	trailingSpace = regexp.MustCompile(`[ \t\f\v]+\n`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// Clean canonicalises whitespace: line endings are unified, NUL bytes and
// trailing spaces removed, runs of blank lines collapsed to one and the
// outer whitespace trimmed. Two extractions of the same content must
// clean to identical text so their digests match.
func Clean(content string) string {
	if content == "" {
		return ""
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\x00", "")
	content = strings.ReplaceAll(content, " ", " ")
	content = trailingSpace.ReplaceAllString(content+"\n", "\n")
	content = multiNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
