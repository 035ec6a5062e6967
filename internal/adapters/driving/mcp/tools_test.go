package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/glance/internal/core/domain"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func sampleStatus() domain.SchedulerStatus {
	return domain.SchedulerStatus{
		Running:      true,
		PowerMode:    domain.PowerBattery,
		BaseInterval: 15 * time.Second,
		QueueDepth:   1,
		Windows: []domain.WindowStatus{
			{ID: "1", AppID: "com.apple.Notes", Title: "Groceries", Kind: domain.KindAccessibility, State: domain.StateIdle, ExtractionCount: 4},
			{ID: "2", AppID: "com.example.Legacy", Title: "Report", Kind: domain.KindOptical, State: domain.StateProblematic, Problematic: true},
		},
		Counters: domain.SchedulerCounters{Triggers: 10, Extractions: 4},
	}
}

func TestServer_handleStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("summarises status", func(t *testing.T) {
		server := newTestServer(t, &Ports{Controller: &mockController{status: sampleStatus()}})

		_, output, err := server.handleStatus(ctx, nil, StatusInput{})
		require.NoError(t, err)
		assert.True(t, output.Running)
		assert.False(t, output.Paused)
		assert.Equal(t, "battery", output.PowerMode)
		assert.Equal(t, "15s", output.BaseInterval)
		assert.Equal(t, 2, output.WindowCount)
		assert.Empty(t, output.Windows)
		assert.Equal(t, int64(10), output.Counters.Triggers)
	})

	t.Run("includes windows on request", func(t *testing.T) {
		server := newTestServer(t, &Ports{Controller: &mockController{status: sampleStatus()}})

		_, output, err := server.handleStatus(ctx, nil, StatusInput{IncludeWindows: true})
		require.NoError(t, err)
		require.Len(t, output.Windows, 2)
		assert.Equal(t, "com.apple.Notes", output.Windows[0].App)
		assert.Equal(t, 4, output.Windows[0].Extractions)
		assert.True(t, output.Windows[1].Problematic)
		assert.Equal(t, "optical", output.Windows[1].Kind)
	})

	t.Run("returns controller errors", func(t *testing.T) {
		server := newTestServer(t, &Ports{Controller: &mockController{err: domain.ErrTransportUnavailable}})

		_, _, err := server.handleStatus(ctx, nil, StatusInput{})
		assert.ErrorIs(t, err, domain.ErrTransportUnavailable)
	})
}

func TestServer_handlePauseResume(t *testing.T) {
	ctx := context.Background()
	ctrl := &mockController{}
	server := newTestServer(t, &Ports{Controller: ctrl})

	_, output, err := server.handlePause(ctx, nil, struct{}{})
	require.NoError(t, err)
	assert.True(t, output.Paused)
	assert.True(t, ctrl.status.Paused)

	_, output, err = server.handleResume(ctx, nil, struct{}{})
	require.NoError(t, err)
	assert.False(t, output.Paused)
	assert.False(t, ctrl.status.Paused)
}

func TestServer_handlePause_Error(t *testing.T) {
	server := newTestServer(t, &Ports{Controller: &mockController{err: errors.New("socket closed")}})

	_, _, err := server.handlePause(context.Background(), nil, struct{}{})
	assert.ErrorContains(t, err, "socket closed")
}

func TestServer_handleBlock(t *testing.T) {
	ctx := context.Background()

	t.Run("blocks the application", func(t *testing.T) {
		ctrl := &mockController{}
		server := newTestServer(t, &Ports{Controller: ctrl})

		_, output, err := server.handleBlock(ctx, nil, BlockInput{BundleID: "com.bank.app"})
		require.NoError(t, err)
		assert.Equal(t, []string{"com.bank.app"}, ctrl.blocked)
		assert.Contains(t, output.Message, "com.bank.app")
	})

	t.Run("requires a bundle id", func(t *testing.T) {
		ctrl := &mockController{}
		server := newTestServer(t, &Ports{Controller: ctrl})

		_, _, err := server.handleBlock(ctx, nil, BlockInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, ctrl.blocked)
	})
}

func TestServer_handlePush(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers the payload", func(t *testing.T) {
		pusher := &mockPusher{result: domain.IngestResult{Action: domain.IngestCreated, ChunkCount: 1}}
		server := newTestServer(t, &Ports{Controller: &mockController{}, Pusher: pusher})

		_, output, err := server.handlePush(ctx, nil, PushInput{URL: "https://x/C1", Content: "hello"})
		require.NoError(t, err)
		assert.Equal(t, "created", output.Action)
		assert.Equal(t, 1, output.ChunkCount)
		require.Len(t, pusher.payloads, 1)
		assert.Equal(t, domain.SourceKind("mcp"), pusher.payloads[0].Source)
		assert.False(t, pusher.payloads[0].CapturedAt.IsZero())
	})

	t.Run("rejects a payload without url", func(t *testing.T) {
		pusher := &mockPusher{}
		server := newTestServer(t, &Ports{Controller: &mockController{}, Pusher: pusher})

		_, _, err := server.handlePush(ctx, nil, PushInput{Content: "hello"})
		assert.ErrorIs(t, err, domain.ErrMissingIdentifier)
		assert.Empty(t, pusher.payloads)
	})
}
