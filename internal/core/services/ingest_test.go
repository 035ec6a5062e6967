package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/core/ports/driven"
	"github.com/custodia-labs/glance/internal/postprocessors/chunker"
)

// mockContentStore implements driven.ContentStore for testing.
type mockContentStore struct {
	mu          sync.Mutex
	sources     map[string]*domain.ContentSource
	chunks      []domain.Chunk
	nextOrdinal int64
	lookups     int
	creates     int
	failWrites  error
	// delay widens race windows in concurrency tests.
	delay time.Duration
}

func newMockContentStore() *mockContentStore {
	return &mockContentStore{sources: make(map[string]*domain.ContentSource)}
}

func (m *mockContentStore) GetSourceByPath(_ context.Context, path string) (*domain.ContentSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	src, ok := m.sources[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *src
	return &cp, nil
}

func (m *mockContentStore) CreateSource(_ context.Context, source *domain.ContentSource, chunks []domain.Chunk) error {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites != nil {
		return m.failWrites
	}
	if _, ok := m.sources[source.Path]; ok {
		return domain.ErrAlreadyExists
	}
	m.creates++
	cp := *source
	m.sources[source.Path] = &cp
	m.appendChunks(chunks)
	return nil
}

func (m *mockContentStore) ReplaceChunks(_ context.Context, source *domain.ContentSource, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites != nil {
		return m.failWrites
	}
	for i := range m.chunks {
		if m.chunks[i].SourceID == source.ID {
			m.chunks[i].Deleted = true
		}
	}
	cp := *source
	m.sources[source.Path] = &cp
	m.appendChunks(chunks)
	return nil
}

func (m *mockContentStore) appendChunks(chunks []domain.Chunk) {
	for _, c := range chunks {
		m.nextOrdinal++
		c.Ordinal = m.nextOrdinal
		m.chunks = append(m.chunks, c)
	}
}

func (m *mockContentStore) ListChunks(_ context.Context, sourceID string, includeDeleted bool) ([]domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Chunk
	for _, c := range m.chunks {
		if c.SourceID == sourceID && (includeDeleted || !c.Deleted) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out, nil
}

func (m *mockContentStore) ListDigests(_ context.Context) (map[string]driven.DigestEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]driven.DigestEntry, len(m.sources))
	for path, src := range m.sources {
		out[path] = driven.DigestEntry{Hash: src.ContentHash, UpdatedAt: src.UpdatedAt}
	}
	return out, nil
}

func (m *mockContentStore) Stats(_ context.Context) (*domain.StoreStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &domain.StoreStats{Sources: len(m.sources)}
	for _, c := range m.chunks {
		if c.Deleted {
			stats.DeletedChunks++
		} else {
			stats.ActiveChunks++
		}
	}
	return stats, nil
}

func (m *mockContentStore) Close() error { return nil }

func newTestEngine(store driven.ContentStore) *IngestionEngine {
	return NewIngestionEngine(store, nil, chunker.New(), nil)
}

func slackPayload(content string) *domain.ContentPayload {
	return &domain.ContentPayload{
		Source:     "slack",
		URL:        "https://x/C1",
		Channel:    "general",
		Content:    content,
		CapturedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestIngest_CreateSkipUpdate(t *testing.T) {
	ctx := context.Background()
	store := newMockContentStore()
	engine := newTestEngine(store)

	result, err := engine.Ingest(ctx, slackPayload("hello"))
	require.NoError(t, err)
	assert.Equal(t, domain.IngestCreated, result.Action)
	assert.Equal(t, 1, result.ChunkCount)
	sourceID := result.SourceID

	result, err = engine.Ingest(ctx, slackPayload("hello"))
	require.NoError(t, err)
	assert.Equal(t, domain.IngestSkipped, result.Action)
	assert.Zero(t, result.ChunkCount)

	result, err = engine.Ingest(ctx, slackPayload("hello world"))
	require.NoError(t, err)
	assert.Equal(t, domain.IngestUpdated, result.Action)
	assert.Equal(t, 1, result.ChunkCount)
	assert.Equal(t, sourceID, result.SourceID)

	all, err := store.ListChunks(ctx, sourceID, true)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].Deleted)
	assert.Equal(t, "hello", all[0].Text)
	assert.False(t, all[1].Deleted)
	assert.Equal(t, "hello world", all[1].Text)
	assert.Greater(t, all[1].Ordinal, all[0].Ordinal)

	live, err := store.ListChunks(ctx, sourceID, false)
	require.NoError(t, err)
	assert.Len(t, live, 1)

	src, err := store.GetSourceByPath(ctx, "https://x/C1")
	require.NoError(t, err)
	assert.Equal(t, Digest("hello world"), src.ContentHash)
	assert.Equal(t, 1, src.ChunkCount)
	assert.Equal(t, DocID("https://x/C1"), src.DocID)
}

func TestIngest_ChunkMetadata(t *testing.T) {
	ctx := context.Background()
	store := newMockContentStore()
	engine := NewIngestionEngine(store, nil, chunker.New(chunker.WithChunkSize(2)), nil)

	p := slackPayload("one two three four five")
	p.Title = "Standup"
	p.Author = "sam"
	result, err := engine.Ingest(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 3, result.ChunkCount)

	chunks, err := store.ListChunks(ctx, result.SourceID, false)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, i, c.Meta.Index)
		assert.Equal(t, 3, c.Meta.Total)
		assert.Equal(t, result.SourceID, c.Meta.SourceID)
		assert.Equal(t, domain.SourceKind("slack"), c.Meta.SourceKind)
		assert.Equal(t, "general", c.Meta.Channel)
		assert.Equal(t, "sam", c.Meta.Author)
		assert.Equal(t, "Standup", c.Meta.Title)
		assert.Equal(t, p.CapturedAt, c.Meta.CapturedAt)
	}
}

func TestIngest_CacheAvoidsStoreLookup(t *testing.T) {
	ctx := context.Background()
	store := newMockContentStore()
	engine := newTestEngine(store)

	_, err := engine.Ingest(ctx, slackPayload("hello"))
	require.NoError(t, err)
	before := store.lookups

	result, err := engine.Ingest(ctx, slackPayload("hello"))
	require.NoError(t, err)
	assert.Equal(t, domain.IngestSkipped, result.Action)
	assert.Equal(t, before, store.lookups)
}

func TestIngest_RestartSkipsFromStore(t *testing.T) {
	ctx := context.Background()
	store := newMockContentStore()
	_, err := newTestEngine(store).Ingest(ctx, slackPayload("hello"))
	require.NoError(t, err)

	// A fresh engine has an empty cache; the store is the source of truth.
	restarted := newTestEngine(store)
	result, err := restarted.Ingest(ctx, slackPayload("hello"))
	require.NoError(t, err)
	assert.Equal(t, domain.IngestSkipped, result.Action)
	assert.Equal(t, 1, restarted.Cache().Len())
}

func TestIngest_WarmSkipsLookupForUnknown(t *testing.T) {
	ctx := context.Background()
	store := newMockContentStore()
	_, err := newTestEngine(store).Ingest(ctx, slackPayload("hello"))
	require.NoError(t, err)

	engine := newTestEngine(store)
	require.NoError(t, engine.Warm(ctx))
	assert.Equal(t, 1, engine.Cache().Len())

	before := store.lookups
	result, err := engine.Ingest(ctx, slackPayload("hello"))
	require.NoError(t, err)
	assert.Equal(t, domain.IngestSkipped, result.Action)
	assert.Equal(t, before, store.lookups, "warm cache answers without the store")
}

func TestIngest_StaleCacheFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	store := newMockContentStore()
	engine := newTestEngine(store)

	// The cache claims a digest the store does not have.
	engine.Cache().Put("https://x/C1", "bogus", time.Now())
	result, err := engine.Ingest(ctx, slackPayload("hello"))
	require.NoError(t, err)
	assert.Equal(t, domain.IngestCreated, result.Action)
}

func TestIngest_RowCreatedElsewhere(t *testing.T) {
	ctx := context.Background()
	store := newMockContentStore()
	engine := newTestEngine(store)
	require.NoError(t, engine.Warm(ctx))

	// Written by another process after warm-up: the bloom filter says
	// unknown, the insert conflicts and ingestion continues as an update.
	other := newTestEngine(store)
	_, err := other.Ingest(ctx, slackPayload("hello"))
	require.NoError(t, err)

	result, err := engine.Ingest(ctx, slackPayload("hello world"))
	require.NoError(t, err)
	assert.Equal(t, domain.IngestUpdated, result.Action)

	result, err = engine.Ingest(ctx, slackPayload("hello world"))
	require.NoError(t, err)
	assert.Equal(t, domain.IngestSkipped, result.Action)
}

func TestIngest_ConcurrentSameIdentifier(t *testing.T) {
	ctx := context.Background()
	store := newMockContentStore()
	store.delay = 5 * time.Millisecond
	engine := newTestEngine(store)

	var wg sync.WaitGroup
	results := make([]domain.IngestResult, 16)
	errs := make([]error, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = engine.Ingest(ctx, slackPayload("hello"))
		}()
	}
	wg.Wait()

	created := 0
	for i := range results {
		require.NoError(t, errs[i])
		if results[i].Action == domain.IngestCreated {
			created++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, store.creates)
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sources)
	assert.Equal(t, 1, stats.ActiveChunks)
}

func TestIngest_ConcurrentDifferentIdentifiers(t *testing.T) {
	ctx := context.Background()
	store := newMockContentStore()
	engine := newTestEngine(store)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := slackPayload("hello")
			p.URL = fmt.Sprintf("https://x/C%d", i)
			_, err := engine.Ingest(ctx, p)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, stats.Sources)
}

func TestIngest_Invalid(t *testing.T) {
	engine := newTestEngine(newMockContentStore())

	_, err := engine.Ingest(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	p := slackPayload("hello")
	p.URL = " "
	_, err = engine.Ingest(context.Background(), p)
	assert.ErrorIs(t, err, domain.ErrMissingIdentifier)
}

func TestIngest_EmptyContent(t *testing.T) {
	store := newMockContentStore()
	engine := newTestEngine(store)

	_, err := engine.Ingest(context.Background(), slackPayload("   "))
	assert.ErrorIs(t, err, domain.ErrExtractionEmpty)
	assert.Zero(t, store.creates)
}

func TestIngest_StoreFailureSurfaced(t *testing.T) {
	store := newMockContentStore()
	store.failWrites = errors.New("disk full")
	engine := newTestEngine(store)

	_, err := engine.Ingest(context.Background(), slackPayload("hello"))
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.ErrorContains(t, err, "disk full")
	assert.Zero(t, engine.Cache().Len(), "failed writes are not cached")

	store.failWrites = nil
	result, err := engine.Ingest(context.Background(), slackPayload("hello"))
	require.NoError(t, err)
	assert.Equal(t, domain.IngestCreated, result.Action)
}

func TestIngest_RedactsBeforeStoring(t *testing.T) {
	ctx := context.Background()
	store := newMockContentStore()
	engine := newTestEngine(store)

	result, err := engine.Ingest(ctx, slackPayload("card 4111-1111-1111-1111 mail a@b.io"))
	require.NoError(t, err)

	chunks, err := store.ListChunks(ctx, result.SourceID, false)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Text, RedactedCard)
	assert.Contains(t, chunks[0].Text, RedactedEmail)
	assert.NotContains(t, chunks[0].Text, "4111")
}

func TestIngest_DeliverDelegates(t *testing.T) {
	engine := newTestEngine(newMockContentStore())
	result, err := engine.Deliver(context.Background(), slackPayload("hello"))
	require.NoError(t, err)
	assert.Equal(t, domain.IngestCreated, result.Action)
}

func TestDigestAndDocID(t *testing.T) {
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", Digest("hello"))
	assert.Equal(t, DocID("https://x/C1"), DocID("https://x/C1"))
	assert.NotEqual(t, DocID("https://x/C1"), DocID("https://x/C2"))
}

func TestDedupCache_MaybeStored(t *testing.T) {
	c := NewDedupCache()
	assert.True(t, c.MaybeStored("anything"), "unloaded cache cannot rule out the store")

	c.Load(map[string]driven.DigestEntry{"a": {Hash: "h"}})
	assert.True(t, c.MaybeStored("a"))
	assert.False(t, c.MaybeStored("never-seen-identifier"))

	c.Put("b", "h2", time.Now())
	assert.True(t, c.MaybeStored("b"))
	e, ok := c.Get("b")
	require.True(t, ok)
	assert.Equal(t, "h2", e.Hash)
}
