package domain

import "time"

// Chunk is a persistent unit of text paired with a vector index slot.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// SourceID links to the owning ContentSource.
	SourceID string

	// Ordinal is the global, never reused position of the chunk. It is the
	// slot used by the external vector index.
	Ordinal int64

	// Text is the chunk content.
	Text string

	// Meta is the metadata envelope stored alongside the chunk.
	Meta ChunkMeta

	// Deleted marks chunks of a superseded content version.
	Deleted bool

	// CreatedAt is when the chunk was written.
	CreatedAt time.Time
}

// ChunkMeta is the JSON metadata envelope of a chunk.
type ChunkMeta struct {
	SourceID   string     `json:"source_id"`
	SourceKind SourceKind `json:"source_kind"`
	Index      int        `json:"chunk_index"`
	Total      int        `json:"chunk_total"`
	CapturedAt time.Time  `json:"captured_at"`
	IngestedAt time.Time  `json:"ingested_at"`
	App        string     `json:"app,omitempty"`
	Channel    string     `json:"channel,omitempty"`
	Author     string     `json:"author,omitempty"`
	ThreadID   string     `json:"thread_id,omitempty"`
	URL        string     `json:"url,omitempty"`
	Title      string     `json:"title,omitempty"`
}

// IngestAction is the outcome of an ingest call.
type IngestAction string

// Ingest outcomes.
const (
	IngestCreated IngestAction = "created"
	IngestUpdated IngestAction = "updated"
	IngestSkipped IngestAction = "skipped"
)

// IngestResult reports what ingestion did with a payload.
type IngestResult struct {
	// Action is Created, Updated or Skipped.
	Action IngestAction

	// SourceID is the ContentSource the payload resolved to.
	SourceID string

	// ChunkCount is the number of new chunks written; zero when skipped.
	ChunkCount int
}

// StoreStats summarises the persistent store.
type StoreStats struct {
	Sources       int `json:"sources"`
	ActiveChunks  int `json:"active_chunks"`
	DeletedChunks int `json:"deleted_chunks"`
}
