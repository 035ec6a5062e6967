package driven

import (
	"context"

	"github.com/custodia-labs/glance/internal/core/domain"
)

// ConfigStore provides access to application configuration.
// Implementations handle persistence (e.g., TOML files) and defaulting.
type ConfigStore interface {
	// Load reads configuration from storage, merged over defaults.
	// A missing file yields the defaults and no error.
	Load() (domain.Config, error)

	// Save persists the configuration to storage.
	Save(cfg domain.Config) error

	// Path returns the configuration file path.
	Path() string
}

// ConfigWatcher notifies about configuration changes on disk.
type ConfigWatcher interface {
	// Watch calls onChange with the reloaded configuration each time the
	// underlying file changes. It blocks until ctx is cancelled.
	Watch(ctx context.Context, onChange func(domain.Config)) error
}
