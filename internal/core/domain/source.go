package domain

import "time"

// IngestionStatus records how far a content source got through ingestion.
type IngestionStatus string

// Ingestion statuses.
const (
	IngestionIndexed IngestionStatus = "indexed"
	IngestionPending IngestionStatus = "pending"
	IngestionFailed  IngestionStatus = "failed"
)

// ContentSource is the persistent record for one canonical identifier.
// Rows are mutated in place when content changes and are never deleted.
type ContentSource struct {
	// ID is the unique identifier for the source.
	ID string

	// Kind is the source kind of the payload that created the row.
	Kind SourceKind

	// Path is the canonical identifier. It is unique across sources.
	Path string

	// ContentHash is the digest of the current normalised content.
	ContentHash string

	// DocID is the external document id used by the vector index.
	DocID string

	// ChunkCount is the number of live chunks for the current version.
	ChunkCount int

	// Status is the ingestion status.
	Status IngestionStatus

	// CreatedAt is when the source was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the content last changed.
	UpdatedAt time.Time
}
