package driven

import (
	"context"
	"image"

	"github.com/custodia-labs/glance/internal/core/domain"
)

// ExtractRequest carries what an extractor needs to produce a payload.
type ExtractRequest struct {
	// Window is a snapshot of the window being extracted.
	Window domain.Window

	// Image is the captured window image. It is nil for strategies that
	// do not need capture.
	Image image.Image
}

// Extractor produces a ContentPayload for a window. Implementations exist
// for the accessibility-like and optical strategies.
type Extractor interface {
	// Kind returns the strategy this extractor implements.
	Kind() domain.ExtractorKind

	// Extract produces a payload. An empty result should return
	// domain.ErrExtractionEmpty.
	Extract(ctx context.Context, req ExtractRequest) (*domain.ContentPayload, error)
}

// PayloadSink delivers payloads to the ingestion engine, either in process
// or over the bulk transfer channel.
type PayloadSink interface {
	Deliver(ctx context.Context, payload *domain.ContentPayload) (domain.IngestResult, error)
}
