package driven

import (
	"context"
)

// Normaliser transforms extracted payload text into canonical plain text
// before digesting and chunking.
type Normaliser interface {
	// SupportedFormats returns the payload formats this normaliser handles.
	SupportedFormats() []string

	// Normalise returns the canonical text for the given content.
	Normalise(ctx context.Context, content string) (string, error)
}

// NormaliserRegistry selects a normaliser by payload format.
type NormaliserRegistry interface {
	// Normalise normalises content with the normaliser registered for
	// format, falling back to plain text for unknown formats.
	Normalise(ctx context.Context, format, content string) (string, error)
}
