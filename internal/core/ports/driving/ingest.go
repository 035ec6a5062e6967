package driving

import (
	"context"

	"github.com/custodia-labs/glance/internal/core/domain"
)

// Ingestor deduplicates, chunks and persists content payloads.
type Ingestor interface {
	// Ingest stores a payload exactly once per content version. It returns
	// Created for a new canonical identifier, Updated when the digest
	// changed, and Skipped when the content is already stored.
	Ingest(ctx context.Context, payload *domain.ContentPayload) (domain.IngestResult, error)
}
