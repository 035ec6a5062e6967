package mcp

import (
	"context"

	"github.com/custodia-labs/glance/internal/core/domain"
)

// mockController is a mock implementation of driving.Controller.
type mockController struct {
	status  domain.SchedulerStatus
	blocked []string
	err     error
}

func (m *mockController) Status(_ context.Context) (*domain.SchedulerStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	status := m.status
	return &status, nil
}

func (m *mockController) Pause(_ context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.status.Paused = true
	return nil
}

func (m *mockController) Resume(_ context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.status.Paused = false
	return nil
}

func (m *mockController) Block(_ context.Context, appID string) error {
	if m.err != nil {
		return m.err
	}
	m.blocked = append(m.blocked, appID)
	return nil
}

// mockStore is a mock implementation of StatsReader.
type mockStore struct {
	stats *domain.StoreStats
	err   error
}

func (m *mockStore) Stats(_ context.Context) (*domain.StoreStats, error) {
	return m.stats, m.err
}

// mockPusher is a mock implementation of Pusher.
type mockPusher struct {
	payloads []*domain.ContentPayload
	result   domain.IngestResult
	err      error
}

func (m *mockPusher) Deliver(_ context.Context, p *domain.ContentPayload) (domain.IngestResult, error) {
	m.payloads = append(m.payloads, p)
	return m.result, m.err
}
