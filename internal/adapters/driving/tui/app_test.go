package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/glance/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/glance/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/glance/internal/core/domain"
)

// MockController is a mock implementation of driving.Controller.
type MockController struct {
	mu        sync.Mutex
	status    domain.SchedulerStatus
	statusErr error
	actionErr error
	blocked   []string
	calls     int
}

func (m *MockController) Status(_ context.Context) (*domain.SchedulerStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	s := m.status
	return &s, nil
}

func (m *MockController) Pause(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.actionErr != nil {
		return m.actionErr
	}
	m.status.Paused = true
	return nil
}

func (m *MockController) Resume(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.actionErr != nil {
		return m.actionErr
	}
	m.status.Paused = false
	return nil
}

func (m *MockController) Block(_ context.Context, appID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.actionErr != nil {
		return m.actionErr
	}
	m.blocked = append(m.blocked, appID)
	return nil
}

func newTestApp(t *testing.T, ctrl *MockController) *App {
	t.Helper()
	ctrl.status.Running = true
	ctrl.status.PowerMode = domain.PowerNormal
	ctrl.status.BaseInterval = 5 * time.Second
	ctrl.status.Windows = []domain.WindowStatus{
		{ID: "1", AppID: "com.apple.Notes", Title: "Groceries", Kind: domain.KindAccessibility, State: domain.StateIdle},
		{ID: "2", AppID: "com.apple.Safari", Title: "News", Kind: domain.KindOptical, State: domain.StatePending},
	}
	app, err := NewApp(&Ports{Controller: ctrl})
	require.NoError(t, err)
	return app
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// loadStatus runs the app's status load and feeds the result back.
func loadStatus(t *testing.T, app *App, polled bool) tea.Cmd {
	t.Helper()
	msg := app.load(polled)()
	_, cmd := app.Update(msg)
	return cmd
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(&Ports{Controller: &MockController{}})

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Nil(t, app.Status())
	assert.Equal(t, DefaultPollInterval, app.interval)
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{})
	assert.ErrorIs(t, err, ErrMissingController)
	assert.Nil(t, app)

	app, err = NewApp(nil)
	assert.ErrorIs(t, err, ErrMissingController)
	assert.Nil(t, app)
}

func TestApp_WithContextAndInterval(t *testing.T) {
	app := newTestApp(t, &MockController{})

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")
	assert.Same(t, app, app.WithContext(ctx))
	assert.Equal(t, ctx, app.ctx)

	app.WithInterval(500 * time.Millisecond)
	assert.Equal(t, 500*time.Millisecond, app.interval)
	app.WithInterval(0)
	assert.Equal(t, 500*time.Millisecond, app.interval)
}

func TestApp_Init(t *testing.T) {
	app := newTestApp(t, &MockController{})
	assert.NotNil(t, app.Init())
}

func TestApp_StatusLoaded(t *testing.T) {
	ctrl := &MockController{}
	app := newTestApp(t, ctrl)

	cmd := loadStatus(t, app, true)
	assert.NotNil(t, cmd, "polled loads schedule the next poll")

	require.NotNil(t, app.Status())
	assert.Len(t, app.Status().Windows, 2)
	assert.Equal(t, status.StateLive, app.bar.State())
	assert.NoError(t, app.Err())

	view := app.View()
	assert.Contains(t, view, "capture monitor")
	assert.Contains(t, view, "Groceries")
}

func TestApp_ManualLoadDoesNotSchedulePoll(t *testing.T) {
	app := newTestApp(t, &MockController{})
	assert.Nil(t, loadStatus(t, app, false))
}

func TestApp_StatusError(t *testing.T) {
	ctrl := &MockController{statusErr: domain.ErrTransportUnavailable}
	app := newTestApp(t, ctrl)

	cmd := loadStatus(t, app, true)
	assert.NotNil(t, cmd, "polling continues after an error")
	assert.ErrorIs(t, app.Err(), domain.ErrTransportUnavailable)
	assert.Equal(t, status.StateError, app.bar.State())
}

func TestApp_PollDueLoads(t *testing.T) {
	ctrl := &MockController{}
	app := newTestApp(t, ctrl)

	_, cmd := app.Update(messages.PollDue{})
	require.NotNil(t, cmd)
	msg := cmd()
	loaded, ok := msg.(messages.StatusLoaded)
	require.True(t, ok)
	assert.True(t, loaded.Polled)
	assert.Equal(t, 1, ctrl.calls)
}

func TestApp_PauseResumeKeys(t *testing.T) {
	ctrl := &MockController{}
	app := newTestApp(t, ctrl)

	_, cmd := app.Update(keyMsg("p"))
	require.NotNil(t, cmd)
	msg := cmd()
	done, ok := msg.(messages.ActionCompleted)
	require.True(t, ok)
	assert.Equal(t, messages.ActionPause, done.Action)
	assert.True(t, ctrl.status.Paused)

	_, cmd = app.Update(msg)
	require.NotNil(t, cmd, "a completed action refreshes the status")
	_, _ = app.Update(cmd())
	assert.Equal(t, status.StatePaused, app.bar.State())
	assert.Equal(t, "paused", app.bar.Message())

	_, cmd = app.Update(keyMsg("r"))
	msg = cmd()
	assert.False(t, ctrl.status.Paused)
	_, cmd = app.Update(msg)
	_, _ = app.Update(cmd())
	assert.Equal(t, status.StateLive, app.bar.State())
}

func TestApp_BlockSelectedApp(t *testing.T) {
	ctrl := &MockController{}
	app := newTestApp(t, ctrl)
	loadStatus(t, app, false)

	_, cmd := app.Update(keyMsg("b"))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, []string{"com.apple.Notes"}, ctrl.blocked)

	_, _ = app.Update(msg)
	assert.Equal(t, "blocked com.apple.Notes", app.bar.Message())
}

func TestApp_BlockWithoutWindows(t *testing.T) {
	app := newTestApp(t, &MockController{})

	_, cmd := app.Update(keyMsg("b"))
	assert.Nil(t, cmd)
}

func TestApp_ActionError(t *testing.T) {
	ctrl := &MockController{actionErr: errors.New("daemon not running")}
	app := newTestApp(t, ctrl)

	_, cmd := app.Update(keyMsg("p"))
	_, next := app.Update(cmd())
	assert.Nil(t, next)
	assert.EqualError(t, app.Err(), "daemon not running")
	assert.Equal(t, status.StateError, app.bar.State())
}

func TestApp_Quit(t *testing.T) {
	app := newTestApp(t, &MockController{})

	_, cmd := app.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_WindowSize(t *testing.T) {
	app := newTestApp(t, &MockController{})

	_, cmd := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Nil(t, cmd)
	assert.Equal(t, 120, app.width)
	assert.Equal(t, 120, app.bar.Width())
}

func TestApp_NavigationForwardedToTable(t *testing.T) {
	app := newTestApp(t, &MockController{})
	loadStatus(t, app, false)

	_, _ = app.Update(tea.KeyMsg{Type: tea.KeyDown})
	w, ok := app.table.Selected()
	require.True(t, ok)
	assert.Equal(t, "com.apple.Safari", w.AppID)
}
