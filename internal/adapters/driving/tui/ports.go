// Package tui provides the live capture monitor for glance.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/glance/internal/core/ports/driving"
)

// Ports aggregates the interfaces required by the TUI.
type Ports struct {
	// Controller reads status and pauses, resumes or blocks capture.
	Controller driving.Controller
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Controller == nil {
		return ErrMissingController
	}
	return nil
}
