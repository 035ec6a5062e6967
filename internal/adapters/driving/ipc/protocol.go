package ipc

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/custodia-labs/glance/internal/core/domain"
)

// Ack statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Admin actions.
const (
	ActionPause  = "pause"
	ActionResume = "resume"
	ActionStatus = "status"
	ActionBlock  = "block"
)

// Socket file names under the run directory.
const (
	BulkSocketName  = "bulk.sock"
	AdminSocketName = "admin.sock"
)

// Ack acknowledges one payload on the bulk channel.
type Ack struct {
	Status     string              `json:"status"`
	Action     domain.IngestAction `json:"action,omitempty"`
	ChunkCount int                 `json:"chunk_count,omitempty"`
	Message    string              `json:"message,omitempty"`
}

// OK reports whether the payload was accepted.
func (a Ack) OK() bool { return a.Status == StatusOK }

// Result converts a successful ack back into an ingest result.
func (a Ack) Result() domain.IngestResult {
	return domain.IngestResult{Action: a.Action, ChunkCount: a.ChunkCount}
}

// AckFor builds the ack for an ingest outcome.
func AckFor(result domain.IngestResult, err error) Ack {
	if err != nil {
		return Ack{Status: StatusError, Message: err.Error()}
	}
	return Ack{Status: StatusOK, Action: result.Action, ChunkCount: result.ChunkCount}
}

// AdminRequest is a single administrative command.
type AdminRequest struct {
	Action   string `json:"action"`
	BundleID string `json:"bundle_id,omitempty"`
}

// AdminResponse answers an AdminRequest.
type AdminResponse struct {
	Status  string                  `json:"status"`
	Message string                  `json:"message,omitempty"`
	Paused  bool                    `json:"paused"`
	State   *domain.SchedulerStatus `json:"scheduler,omitempty"`
}

// ErrRemote is returned by clients when the daemon answered with an error.
var ErrRemote = errors.New("daemon error")

// DefaultRunDir returns ~/.glance/run.
func DefaultRunDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".glance", "run")
}

// SocketPaths resolves the bulk and admin socket paths, filling empty
// settings from DefaultRunDir.
func SocketPaths(settings domain.TransportSettings) (bulk, admin string) {
	bulk, admin = settings.BulkSocket, settings.AdminSocket
	if bulk == "" {
		bulk = filepath.Join(DefaultRunDir(), BulkSocketName)
	}
	if admin == "" {
		admin = filepath.Join(DefaultRunDir(), AdminSocketName)
	}
	return bulk, admin
}
