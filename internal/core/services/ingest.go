package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/core/ports/driven"
	"github.com/custodia-labs/glance/internal/core/ports/driving"
	"github.com/custodia-labs/glance/internal/logger"
)

// Ensure IngestionEngine implements the interfaces.
var (
	_ driving.Ingestor   = (*IngestionEngine)(nil)
	_ driven.PayloadSink = (*IngestionEngine)(nil)
)

// IngestionEngine deduplicates, chunks and persists payloads. Work for one
// canonical identifier is serialised; different identifiers proceed
// concurrently.
type IngestionEngine struct {
	store       driven.ContentStore
	normalisers driven.NormaliserRegistry
	chunker     driven.Chunker
	privacy     driving.PrivacyFilter
	cache       *DedupCache
	locks       keyLocks
	now         func() time.Time
}

// NewIngestionEngine creates an engine. privacy may be nil, in which case
// the package-level redaction rules apply.
func NewIngestionEngine(
	store driven.ContentStore,
	normalisers driven.NormaliserRegistry,
	chunker driven.Chunker,
	privacy driving.PrivacyFilter,
) *IngestionEngine {
	return &IngestionEngine{
		store:       store,
		normalisers: normalisers,
		chunker:     chunker,
		privacy:     privacy,
		cache:       NewDedupCache(),
		now:         time.Now,
	}
}

// Cache returns the engine's dedup cache.
func (e *IngestionEngine) Cache() *DedupCache {
	return e.cache
}

// Warm rebuilds the dedup cache from the persistent store.
func (e *IngestionEngine) Warm(ctx context.Context) error {
	digests, err := e.store.ListDigests(ctx)
	if err != nil {
		return fmt.Errorf("%w: list digests: %w", domain.ErrStore, err)
	}
	e.cache.Load(digests)
	logger.Debug("dedup cache warmed", "sources", len(digests))
	return nil
}

// Deliver implements driven.PayloadSink for in-process delivery.
func (e *IngestionEngine) Deliver(ctx context.Context, payload *domain.ContentPayload) (domain.IngestResult, error) {
	return e.Ingest(ctx, payload)
}

// Ingest stores a payload exactly once per content version.
func (e *IngestionEngine) Ingest(ctx context.Context, payload *domain.ContentPayload) (domain.IngestResult, error) {
	if err := payload.Validate(); err != nil {
		return domain.IngestResult{}, err
	}

	p := *payload
	p.Content = e.redact(p.Content)
	p.Title = e.redact(p.Title)

	text, err := e.normalise(ctx, p.Format, p.Content)
	if err != nil {
		return domain.IngestResult{}, fmt.Errorf("normalise: %w", err)
	}
	if text == "" {
		return domain.IngestResult{}, domain.ErrExtractionEmpty
	}
	digest := Digest(text)

	unlock := e.locks.lock(p.URL)
	defer unlock()

	var existing *domain.ContentSource
	if cached, ok := e.cache.Get(p.URL); ok && cached.Hash == digest {
		return domain.IngestResult{Action: domain.IngestSkipped}, nil
	}
	if e.cache.MaybeStored(p.URL) {
		existing, err = e.lookup(ctx, p.URL)
		if err != nil {
			return domain.IngestResult{}, err
		}
	}

	if existing == nil {
		result, err := e.create(ctx, &p, text, digest)
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return result, err
		}
		// Another process wrote the row; continue as an update.
		if existing, err = e.lookup(ctx, p.URL); err != nil {
			return domain.IngestResult{}, err
		}
		if existing == nil {
			return domain.IngestResult{}, fmt.Errorf("%w: source %q vanished", domain.ErrStore, p.URL)
		}
	}

	if existing.ContentHash == digest {
		e.cache.Put(p.URL, digest, existing.UpdatedAt)
		return domain.IngestResult{Action: domain.IngestSkipped, SourceID: existing.ID}, nil
	}
	return e.update(ctx, existing, &p, text, digest)
}

func (e *IngestionEngine) lookup(ctx context.Context, path string) (*domain.ContentSource, error) {
	src, err := e.store.GetSourceByPath(ctx, path)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get source: %w", domain.ErrStore, err)
	}
	return src, nil
}

func (e *IngestionEngine) create(
	ctx context.Context, p *domain.ContentPayload, text, digest string,
) (domain.IngestResult, error) {
	now := e.now()
	src := &domain.ContentSource{
		ID:          uuid.New().String(),
		Kind:        p.Source,
		Path:        p.URL,
		ContentHash: digest,
		DocID:       DocID(p.URL),
		Status:      domain.IngestionIndexed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	chunks, err := e.chunks(ctx, src.ID, p, text, now)
	if err != nil {
		return domain.IngestResult{}, err
	}
	src.ChunkCount = len(chunks)

	if err := e.store.CreateSource(ctx, src, chunks); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return domain.IngestResult{}, err
		}
		return domain.IngestResult{}, fmt.Errorf("%w: create source: %w", domain.ErrStore, err)
	}
	e.cache.Put(p.URL, digest, now)
	logger.Debug("source created", "path", p.URL, "chunks", len(chunks))
	return domain.IngestResult{Action: domain.IngestCreated, SourceID: src.ID, ChunkCount: len(chunks)}, nil
}

func (e *IngestionEngine) update(
	ctx context.Context, existing *domain.ContentSource, p *domain.ContentPayload, text, digest string,
) (domain.IngestResult, error) {
	now := e.now()
	chunks, err := e.chunks(ctx, existing.ID, p, text, now)
	if err != nil {
		return domain.IngestResult{}, err
	}

	src := *existing
	src.ContentHash = digest
	src.ChunkCount = len(chunks)
	src.Status = domain.IngestionIndexed
	src.UpdatedAt = now
	if err := e.store.ReplaceChunks(ctx, &src, chunks); err != nil {
		return domain.IngestResult{}, fmt.Errorf("%w: replace chunks: %w", domain.ErrStore, err)
	}
	e.cache.Put(p.URL, digest, now)
	logger.Debug("source updated", "path", p.URL, "chunks", len(chunks))
	return domain.IngestResult{Action: domain.IngestUpdated, SourceID: src.ID, ChunkCount: len(chunks)}, nil
}

func (e *IngestionEngine) chunks(
	ctx context.Context, sourceID string, p *domain.ContentPayload, text string, now time.Time,
) ([]domain.Chunk, error) {
	texts, err := e.chunker.Split(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}
	chunks := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = domain.Chunk{
			ID:       uuid.New().String(),
			SourceID: sourceID,
			Text:     t,
			Meta: domain.ChunkMeta{
				SourceID:   sourceID,
				SourceKind: p.Source,
				Index:      i,
				Total:      len(texts),
				CapturedAt: p.CapturedAt,
				IngestedAt: now,
				App:        p.App,
				Channel:    p.Channel,
				Author:     p.Author,
				ThreadID:   p.ThreadID,
				URL:        p.URL,
				Title:      p.Title,
			},
			CreatedAt: now,
		}
	}
	return chunks, nil
}

func (e *IngestionEngine) redact(text string) string {
	if e.privacy != nil {
		return e.privacy.Redact(text)
	}
	return Redact(text)
}

func (e *IngestionEngine) normalise(ctx context.Context, format, text string) (string, error) {
	if e.normalisers == nil {
		return text, nil
	}
	return e.normalisers.Normalise(ctx, format, text)
}

// Digest returns the hex SHA-256 of normalised text.
func Digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// DocID derives the external document id from a canonical identifier. It
// is stable across content versions and process restarts.
func DocID(path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(path)).String()
}
