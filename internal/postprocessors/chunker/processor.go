// Package chunker provides a fixed-size token chunker.
package chunker

import (
	"context"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/glance/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of tokens per chunk.
const DefaultChunkSize = 1024

// DefaultChunkOverlap is the default number of overlapping tokens.
const DefaultChunkOverlap = 0

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// Processor splits text into chunks of a fixed number of tokens.
//
// A token is a maximal run of letters, digits and combining marks, or a
// single punctuation or symbol rune. Whitespace separates tokens and is
// never a token itself. Each chunk is the span of the original text from
// its first token to its last, so joining chunks does not rewrite the
// content.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in tokens.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in tokens.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Overlap must leave room for progress.
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "token"
}

// ChunkSize returns the chunk size in tokens.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the overlap in tokens.
func (p *Processor) Overlap() int { return p.overlap }

// Split returns the chunk texts in document order.
func (p *Processor) Split(ctx context.Context, text string) ([]string, error) {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	step := p.chunkSize - p.overlap
	chunks := make([]string, 0, len(tokens)/step+1)
	for start := 0; start < len(tokens); start += step {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+p.chunkSize, len(tokens))
		chunks = append(chunks, text[tokens[start].Start:tokens[end-1].End])
		if end == len(tokens) {
			break
		}
	}
	return chunks, nil
}

// Span is the byte range of one token.
type Span struct {
	Start int
	End   int
}

// Count returns the number of tokens in text.
func Count(text string) int {
	return len(Tokenize(text))
}

// Tokenize returns the token spans of text in order.
func Tokenize(text string) []Span {
	var (
		spans []Span
		start = -1
	)
	for i, r := range text {
		switch {
		case isWordRune(r):
			if start < 0 {
				start = i
			}
		case unicode.IsSpace(r):
			if start >= 0 {
				spans = append(spans, Span{start, i})
				start = -1
			}
		default:
			if start >= 0 {
				spans = append(spans, Span{start, i})
				start = -1
			}
			_, width := utf8.DecodeRuneInString(text[i:])
			spans = append(spans, Span{i, i + width})
		}
	}
	if start >= 0 {
		spans = append(spans, Span{start, len(text)})
	}
	return spans
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || unicode.IsNumber(r)
}
