package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/glance/internal/adapters/driving/ipc"
	"github.com/custodia-labs/glance/internal/core/domain"
)

func TestDaemonCmd_ServesUntilCancelled(t *testing.T) {
	env := newEnv(t)
	resetFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"--config-dir", env.dir, "daemon", "--memory"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- rootCmd.ExecuteContext(ctx) }()

	admin := ipc.NewAdminClient(env.cfg.Transport.AdminSocket)
	require.Eventually(t, func() bool {
		status, err := admin.Status(context.Background())
		return err == nil && status.Running
	}, 5*time.Second, 20*time.Millisecond)

	bulk := ipc.NewBulkClient(env.cfg.Transport.BulkSocket)
	result, err := bulk.Deliver(context.Background(), &domain.ContentPayload{
		Source:  "cli",
		URL:     "cli://daemon-test",
		Content: "hello from the test",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.IngestCreated, result.Action)
	_ = bulk.Close()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop")
	}
	assert.Contains(t, buf.String(), "glance daemon started")
	assert.Contains(t, buf.String(), "glance daemon stopped")
}
