package mcp

import (
	"context"

	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/core/ports/driving"
)

// StatsReader reports persistent store totals.
type StatsReader interface {
	Stats(ctx context.Context) (*domain.StoreStats, error)
}

// Pusher accepts externally supplied payloads.
type Pusher interface {
	Deliver(ctx context.Context, payload *domain.ContentPayload) (domain.IngestResult, error)
}

// Ports aggregates the interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Controller pauses, resumes and inspects capture.
	Controller driving.Controller

	// Store reports store totals. Optional.
	Store StatsReader

	// Pusher delivers pushed content. Optional.
	Pusher Pusher
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Controller == nil {
		return ErrMissingController
	}
	return nil
}
