package driving

import (
	"context"

	"github.com/custodia-labs/glance/internal/core/domain"
)

// Scheduler runs the capture control loop.
type Scheduler interface {
	// Start begins the timer loop and event handling.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops the loop and waits for in-flight work.
	Stop() error

	// Push ingests a payload supplied by an external push integration,
	// bypassing capture and hashing.
	Push(ctx context.Context, payload *domain.ContentPayload) (domain.IngestResult, error)
}

// Controller is the administrative surface over a running scheduler.
type Controller interface {
	// Status returns a snapshot of scheduler state.
	Status(ctx context.Context) (*domain.SchedulerStatus, error)

	// Pause stops scheduling new captures. In-flight work completes.
	Pause(ctx context.Context) error

	// Resume re-enables capture.
	Resume(ctx context.Context) error

	// Block adds an application identity to the privacy blocklist for
	// the remainder of the session.
	Block(ctx context.Context, appID string) error
}
