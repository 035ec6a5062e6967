package normalisers

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/glance/internal/core/ports/driven"
	"github.com/custodia-labs/glance/internal/normalisers/html"
	"github.com/custodia-labs/glance/internal/normalisers/markdown"
	"github.com/custodia-labs/glance/internal/normalisers/plaintext"
)

// Registry selects a normaliser by payload format. Unknown formats fall
// back to the plain text normaliser.
type Registry struct {
	mu       sync.RWMutex
	byFormat map[string]driven.Normaliser
	fallback driven.Normaliser
}

// NewRegistry creates a registry with the given fallback.
func NewRegistry(fallback driven.Normaliser) *Registry {
	return &Registry{
		byFormat: make(map[string]driven.Normaliser),
		fallback: fallback,
	}
}

// Default returns a registry with the built-in normalisers.
func Default() *Registry {
	text := plaintext.New()
	r := NewRegistry(text)
	r.Register(text)
	r.Register(html.New())
	r.Register(markdown.New())
	return r
}

// Register adds a normaliser for each of its formats, replacing any
// existing registration.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, format := range n.SupportedFormats() {
		r.byFormat[strings.ToLower(format)] = n
	}
}

// Get returns the normaliser for a format.
func (r *Registry) Get(format string) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n, ok := r.byFormat[strings.ToLower(strings.TrimSpace(format))]; ok {
		return n
	}
	return r.fallback
}

// Normalise normalises content with the normaliser for format.
func (r *Registry) Normalise(ctx context.Context, format, content string) (string, error) {
	n := r.Get(format)
	if n == nil {
		return content, nil
	}
	return n.Normalise(ctx, content)
}
