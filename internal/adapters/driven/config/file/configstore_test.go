package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/glance/internal/core/domain"
)

func TestNewConfigStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
	assert.Equal(t, dir, store.Dir())
	assert.False(t, store.Exists())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestConfigStore_LoadMissingFileReturnsDefaults(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig(), cfg)
}

func TestConfigStore_LoadMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	content := `
[capture]
min_interval_seconds = 10
sensitivity_bits = 12

[privacy]
blocked_apps = ["com.example.vault"]

[logging]
verbose = true
`
	require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0600))

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 10.0, cfg.Capture.MinIntervalSeconds)
	assert.Equal(t, 12, cfg.Capture.Sensitivity)
	assert.Equal(t, 60.0, cfg.Capture.MaxIntervalSeconds, "unset keys keep defaults")
	assert.Equal(t, []string{"com.example.vault"}, cfg.Privacy.BlockedApps)
	assert.Equal(t, domain.DefaultSensitiveTitleKeywords(), cfg.Privacy.SensitiveTitleKeywords)
	assert.True(t, cfg.Logging.Verbose)
}

func TestConfigStore_LoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[capture\nmin_interval_seconds = 1"},
		{"unknown key", "[capture]\nmin_interval = 1"},
		{"wrong type", "[capture]\nworkers = \"four\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewConfigStore(t.TempDir())
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(store.Path(), []byte(tt.content), 0600))

			cfg, err := store.Load()
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Equal(t, domain.DefaultConfig(), cfg)
		})
	}
}

func TestConfigStore_SaveRoundTrip(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	cfg := domain.DefaultConfig()
	cfg.Extractors.AccessibilityApps = append(cfg.Extractors.AccessibilityApps, "com.example.editor")
	cfg.Helpers.CaptureCommand = []string{"glance-helper", "capture"}
	cfg.Storage.DataDir = "/tmp/glance-data"
	require.NoError(t, store.Save(cfg))
	assert.True(t, store.Exists())

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg.Capture, loaded.Capture)
	assert.Equal(t, cfg.Privacy, loaded.Privacy)
	assert.Equal(t, cfg.Extractors, loaded.Extractors)
	assert.Equal(t, cfg.Ingest, loaded.Ingest)
	assert.Equal(t, []string{"glance-helper", "capture"}, loaded.Helpers.CaptureCommand)
	assert.Equal(t, "/tmp/glance-data", loaded.Storage.DataDir)

	// No temp files are left behind.
	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDefaultDir(t *testing.T) {
	dir, err := DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, ".glance", filepath.Base(dir))
}
