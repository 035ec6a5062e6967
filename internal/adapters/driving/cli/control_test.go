package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/glance/internal/core/domain"
)

func TestStatusCmd_JSON(t *testing.T) {
	env := newEnv(t)
	env.serve(t)

	out, err := execute(t, nil, "--config-dir", env.dir, "status", "--output", "json")
	require.NoError(t, err)

	var status domain.SchedulerStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.True(t, status.Running)
	assert.Equal(t, 1, status.QueueDepth)
	require.Len(t, status.Windows, 1)
	assert.Equal(t, "com.apple.Notes", status.Windows[0].AppID)
}

func TestStatusCmd_AutoIsJSONWhenNotATerminal(t *testing.T) {
	env := newEnv(t)
	env.serve(t)

	out, err := execute(t, nil, "--config-dir", env.dir, "status")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)), out)
}

func TestStatusCmd_Text(t *testing.T) {
	env := newEnv(t)
	env.controller.paused = true
	env.serve(t)

	out, err := execute(t, nil, "--config-dir", env.dir, "status", "-o", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "State: paused")
	assert.Contains(t, out, "Retry queue: 1")
	assert.Contains(t, out, "Windows (1)")
	assert.Contains(t, out, "com.apple.Notes")
	assert.Contains(t, out, "Groceries")
	assert.Contains(t, out, "accessibility")
}

func TestStatusCmd_UnknownFormat(t *testing.T) {
	env := newEnv(t)
	env.serve(t)

	_, err := execute(t, nil, "--config-dir", env.dir, "status", "-o", "yaml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestStatusCmd_DaemonNotRunning(t *testing.T) {
	env := newEnv(t)

	_, err := execute(t, nil, "--config-dir", env.dir, "status")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransportUnavailable)
	assert.Contains(t, err.Error(), "daemon not reachable")
}

func TestPauseResumeCmds(t *testing.T) {
	env := newEnv(t)
	env.serve(t)

	out, err := execute(t, nil, "--config-dir", env.dir, "pause")
	require.NoError(t, err)
	assert.Contains(t, out, "Capture paused.")
	paused, _ := env.controller.state()
	assert.True(t, paused)

	out, err = execute(t, nil, "--config-dir", env.dir, "resume")
	require.NoError(t, err)
	assert.Contains(t, out, "Capture resumed.")
	paused, _ = env.controller.state()
	assert.False(t, paused)
}

func TestBlockCmd(t *testing.T) {
	env := newEnv(t)
	env.serve(t)

	out, err := execute(t, nil, "--config-dir", env.dir, "block", "com.example.Vault")
	require.NoError(t, err)
	assert.Contains(t, out, "Blocked com.example.Vault.")
	_, blocked := env.controller.state()
	assert.Equal(t, []string{"com.example.Vault"}, blocked)
}

func TestBlockCmd_RequiresBundleID(t *testing.T) {
	env := newEnv(t)
	env.serve(t)

	_, err := execute(t, nil, "--config-dir", env.dir, "block")
	assert.Error(t, err)
	_, blocked := env.controller.state()
	assert.Empty(t, blocked)
}

func TestPauseCmd_DaemonNotRunning(t *testing.T) {
	env := newEnv(t)

	_, err := execute(t, nil, "--config-dir", env.dir, "pause")
	assert.ErrorIs(t, err, domain.ErrTransportUnavailable)
}
