package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/glance/internal/core/domain"
)

func resourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestServer_handleStatusResource(t *testing.T) {
	server := newTestServer(t, &Ports{Controller: &mockController{status: sampleStatus()}})

	result, err := server.handleStatusResource(context.Background(), resourceRequest(statusURI))
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, statusURI, result.Contents[0].URI)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)

	var status domain.SchedulerStatus
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &status))
	assert.True(t, status.Running)
	assert.Len(t, status.Windows, 2)
	assert.Equal(t, domain.PowerBattery, status.PowerMode)
}

func TestServer_handleStatusResource_Error(t *testing.T) {
	server := newTestServer(t, &Ports{Controller: &mockController{err: errors.New("down")}})

	_, err := server.handleStatusResource(context.Background(), resourceRequest(statusURI))
	assert.ErrorContains(t, err, "down")
}

func TestServer_handleStoreResource(t *testing.T) {
	ctx := context.Background()

	t.Run("without store", func(t *testing.T) {
		server := newTestServer(t, &Ports{Controller: &mockController{}})

		result, err := server.handleStoreResource(ctx, resourceRequest(storeURI))
		require.NoError(t, err)
		assert.Equal(t, "{}", result.Contents[0].Text)
	})

	t.Run("with store", func(t *testing.T) {
		store := &mockStore{stats: &domain.StoreStats{Sources: 3, ActiveChunks: 7, DeletedChunks: 2}}
		server := newTestServer(t, &Ports{Controller: &mockController{}, Store: store})

		result, err := server.handleStoreResource(ctx, resourceRequest(storeURI))
		require.NoError(t, err)

		var stats domain.StoreStats
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &stats))
		assert.Equal(t, domain.StoreStats{Sources: 3, ActiveChunks: 7, DeletedChunks: 2}, stats)
	})

	t.Run("store error", func(t *testing.T) {
		server := newTestServer(t, &Ports{Controller: &mockController{}, Store: &mockStore{err: domain.ErrStore}})

		_, err := server.handleStoreResource(ctx, resourceRequest(storeURI))
		assert.ErrorIs(t, err, domain.ErrStore)
	})
}
