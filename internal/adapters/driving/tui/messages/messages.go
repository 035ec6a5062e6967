// Package messages defines Bubbletea message types for the monitor.
package messages

import (
	"github.com/custodia-labs/glance/internal/core/domain"
)

// StatusLoaded carries a status snapshot back to the model.
type StatusLoaded struct {
	Status *domain.SchedulerStatus
	Err    error

	// Polled marks loads issued by the poll timer. Only these schedule
	// the next poll, so manual refreshes do not start a second timer.
	Polled bool
}

// PollDue is sent when it is time to refresh the status.
type PollDue struct{}

// Action names a control command issued from the monitor.
type Action string

// Monitor actions.
const (
	ActionPause   Action = "pause"
	ActionResume  Action = "resume"
	ActionBlock   Action = "block"
	ActionRefresh Action = "refresh"
)

// ActionCompleted reports the outcome of a control command.
type ActionCompleted struct {
	Action Action
	Target string
	Err    error
}
