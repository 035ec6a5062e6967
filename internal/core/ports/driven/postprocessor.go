package driven

import (
	"context"
)

// Chunker splits normalised text into chunk texts.
type Chunker interface {
	// Name returns the chunker name for logging and configuration.
	Name() string

	// Split returns the chunk texts in document order. Empty input
	// produces no chunks.
	Split(ctx context.Context, text string) ([]string, error)
}
