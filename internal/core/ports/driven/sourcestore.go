package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/glance/internal/core/domain"
)

// ContentStore persists content sources and their chunks.
// It is the source of truth for deduplication.
type ContentStore interface {
	// GetSourceByPath retrieves a content source by canonical identifier.
	// Returns domain.ErrNotFound if no row exists.
	GetSourceByPath(ctx context.Context, path string) (*domain.ContentSource, error)

	// CreateSource inserts a new content source and its chunks atomically.
	// Chunk ordinals are assigned by the store. Returns
	// domain.ErrAlreadyExists if the canonical identifier is taken.
	CreateSource(ctx context.Context, source *domain.ContentSource, chunks []domain.Chunk) error

	// ReplaceChunks atomically soft-deletes every chunk of the source,
	// inserts the new chunks with fresh ordinals, and updates the
	// source's digest, chunk count and updated-at in place.
	ReplaceChunks(ctx context.Context, source *domain.ContentSource, chunks []domain.Chunk) error

	// ListChunks returns chunks for a source ordered by ordinal.
	ListChunks(ctx context.Context, sourceID string, includeDeleted bool) ([]domain.Chunk, error)

	// ListDigests returns canonical identifier -> content digest for every
	// source. Used to rebuild the in-memory dedup cache.
	ListDigests(ctx context.Context) (map[string]DigestEntry, error)

	// Stats returns row counts.
	Stats(ctx context.Context) (*domain.StoreStats, error)

	// Close releases resources.
	Close() error
}

// DigestEntry is a persisted digest with its last update time.
type DigestEntry struct {
	Hash      string
	UpdatedAt time.Time
}
