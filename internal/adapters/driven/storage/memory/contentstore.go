package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/core/ports/driven"
)

// Ensure ContentStore implements the interface.
var _ driven.ContentStore = (*ContentStore)(nil)

// ContentStore is an in-memory implementation of driven.ContentStore.
type ContentStore struct {
	mu      sync.RWMutex
	sources map[string]*domain.ContentSource // by canonical identifier
	chunks  map[string][]domain.Chunk        // by source id
	ordinal int64
}

// NewContentStore creates a new in-memory content store.
func NewContentStore() *ContentStore {
	return &ContentStore{
		sources: make(map[string]*domain.ContentSource),
		chunks:  make(map[string][]domain.Chunk),
	}
}

// GetSourceByPath retrieves a content source by canonical identifier.
func (s *ContentStore) GetSourceByPath(_ context.Context, path string) (*domain.ContentSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *src
	return &cp, nil
}

// CreateSource stores a new content source and its chunks.
func (s *ContentStore) CreateSource(_ context.Context, source *domain.ContentSource, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sources[source.Path]; ok {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, source.Path)
	}
	cp := *source
	s.sources[source.Path] = &cp
	s.appendChunks(source.ID, chunks)
	return nil
}

// ReplaceChunks soft-deletes the live chunks of a source, appends the new
// ones and updates the source in place.
func (s *ContentStore) ReplaceChunks(_ context.Context, source *domain.ContentSource, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.sources[source.Path]
	if !ok || existing.ID != source.ID {
		return fmt.Errorf("%w: source %s", domain.ErrNotFound, source.ID)
	}
	existing.ContentHash = source.ContentHash
	existing.ChunkCount = source.ChunkCount
	existing.Status = source.Status
	existing.UpdatedAt = source.UpdatedAt

	stored := s.chunks[source.ID]
	for i := range stored {
		stored[i].Deleted = true
	}
	s.appendChunks(source.ID, chunks)
	return nil
}

// appendChunks assigns ordinals and stores copies. Caller holds the lock.
func (s *ContentStore) appendChunks(sourceID string, chunks []domain.Chunk) {
	for i := range chunks {
		s.ordinal++
		chunks[i].Ordinal = s.ordinal
		s.chunks[sourceID] = append(s.chunks[sourceID], chunks[i])
	}
}

// ListChunks returns chunks for a source ordered by ordinal.
func (s *ContentStore) ListChunks(_ context.Context, sourceID string, includeDeleted bool) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Chunk
	for _, c := range s.chunks[sourceID] {
		if c.Deleted && !includeDeleted {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out, nil
}

// ListDigests returns the content digest of every source.
func (s *ContentStore) ListDigests(_ context.Context) (map[string]driven.DigestEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]driven.DigestEntry, len(s.sources))
	for path, src := range s.sources {
		out[path] = driven.DigestEntry{Hash: src.ContentHash, UpdatedAt: src.UpdatedAt}
	}
	return out, nil
}

// Stats returns row counts.
func (s *ContentStore) Stats(_ context.Context) (*domain.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := &domain.StoreStats{Sources: len(s.sources)}
	for _, chunks := range s.chunks {
		for _, c := range chunks {
			if c.Deleted {
				stats.DeletedChunks++
			} else {
				stats.ActiveChunks++
			}
		}
	}
	return stats, nil
}

// Close is a no-op.
func (s *ContentStore) Close() error {
	return nil
}
