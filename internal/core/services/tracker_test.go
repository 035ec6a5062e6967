package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/glance/internal/core/domain"
)

// mockWindowSource implements driven.WindowSource for testing.
type mockWindowSource struct {
	mu       sync.Mutex
	windows  []domain.WindowInfo
	displays []domain.Display
	err      error
	calls    int
}

func (m *mockWindowSource) set(windows ...domain.WindowInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windows = windows
}

func (m *mockWindowSource) ListWindows(_ context.Context) ([]domain.WindowInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.WindowInfo(nil), m.windows...), nil
}

func (m *mockWindowSource) ListDisplays(_ context.Context) ([]domain.Display, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Display(nil), m.displays...), nil
}

// mockActivations implements driven.ActivationSource for testing.
type mockActivations struct {
	ch chan string
}

func (m *mockActivations) Activations(_ context.Context) (<-chan string, error) {
	return m.ch, nil
}

var twoDisplays = []domain.Display{
	{ID: "left", Bounds: domain.Rect{X: 0, Y: 0, Width: 1000, Height: 800}, Primary: true},
	{ID: "right", Bounds: domain.Rect{X: 1000, Y: 0, Width: 1000, Height: 800}},
}

func win(id domain.WindowID, app, title string, x, layer int) domain.WindowInfo {
	return domain.WindowInfo{
		ID:     id,
		AppID:  app,
		Title:  title,
		Bounds: domain.Rect{X: x, Y: 0, Width: 400, Height: 300},
		Layer:  layer,
	}
}

func kinds(events []domain.WindowEvent) []domain.EventKind {
	out := make([]domain.EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func TestBuildSnapshot_AssignsDisplaysAndTopmost(t *testing.T) {
	a := win("a", "app.one", "A", 10, 2)
	b := win("b", "app.two", "B", 100, 1)
	c := win("c", "app.three", "C", 1100, 5)
	// Straddles both displays; mostly on the right.
	d := win("d", "app.four", "D", 900, 9)
	m := win("m", "app.five", "M", 10, 0)
	m.Minimised = true
	b.Focused = true

	snap := BuildSnapshot([]domain.WindowInfo{a, b, c, d, m}, twoDisplays)

	require.Len(t, snap.Windows, 4)
	assert.Equal(t, domain.DisplayID("left"), snap.Windows["a"].Display)
	assert.Equal(t, domain.DisplayID("right"), snap.Windows["d"].Display)
	assert.Equal(t, domain.WindowID("b"), snap.Focused)

	assert.Equal(t, []domain.WindowID{"a", "b"}, snap.Displays[0].Windows)
	assert.Equal(t, domain.WindowID("b"), snap.Displays[0].Topmost)
	assert.Equal(t, []domain.WindowID{"c", "d"}, snap.Displays[1].Windows)
	assert.Equal(t, domain.WindowID("c"), snap.Displays[1].Topmost)
}

func TestBuildSnapshot_OffscreenWindowHasNoDisplay(t *testing.T) {
	snap := BuildSnapshot([]domain.WindowInfo{win("x", "app", "X", 5000, 0)}, twoDisplays)
	assert.Equal(t, domain.DisplayID(""), snap.Windows["x"].Display)
}

func TestContainingDisplay_TiePrefersPrimary(t *testing.T) {
	displays := []domain.Display{
		{ID: "second", Bounds: domain.Rect{X: 100, Width: 100, Height: 100}},
		{ID: "main", Bounds: domain.Rect{X: 0, Width: 100, Height: 100}, Primary: true},
	}
	bounds := domain.Rect{X: 50, Width: 100, Height: 100}
	assert.Equal(t, domain.DisplayID("main"), containingDisplay(bounds, displays))
}

func TestDiff_CreatedDestroyedTitleMoved(t *testing.T) {
	now := time.Now()
	prev := BuildSnapshot([]domain.WindowInfo{
		win("a", "app", "A", 10, 0),
		win("b", "app", "B", 10, 1),
		win("gone", "app", "G", 10, 2),
	}, twoDisplays)
	next := BuildSnapshot([]domain.WindowInfo{
		win("a", "app", "A2", 10, 0),
		win("b", "app", "B", 1200, 1),
		win("new", "app", "N", 10, 3),
	}, twoDisplays)

	events := Diff(prev, next, now)
	assert.Equal(t, []domain.EventKind{
		domain.EventDestroyed,
		domain.EventCreated,
		domain.EventMovedDisplay,
		domain.EventTitleChanged,
		domain.EventFocusChanged,
	}, kinds(events))

	assert.Equal(t, domain.WindowID("gone"), events[0].Window.ID)
	assert.Equal(t, domain.WindowID("new"), events[1].Window.ID)
	assert.Equal(t, domain.DisplayID("left"), events[2].PreviousDisplayID)
	assert.Equal(t, domain.DisplayID("right"), events[2].DisplayID)
	assert.Equal(t, "A2", events[3].Window.Title)
	// b became topmost on the right display.
	assert.Equal(t, domain.WindowID("b"), events[4].Window.ID)
	assert.Equal(t, now, events[0].At)
}

func TestDiff_NoChanges(t *testing.T) {
	snap := BuildSnapshot([]domain.WindowInfo{win("a", "app", "A", 10, 0)}, twoDisplays)
	assert.Empty(t, Diff(snap, snap, time.Now()))
}

func TestDiff_GlobalFocusChange(t *testing.T) {
	a := win("a", "app", "A", 10, 0)
	b := win("b", "app", "B", 1100, 0)
	a.Focused = true
	prev := BuildSnapshot([]domain.WindowInfo{a, b}, twoDisplays)

	a.Focused, b.Focused = false, true
	next := BuildSnapshot([]domain.WindowInfo{a, b}, twoDisplays)

	events := Diff(prev, next, time.Now())
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventFocusChanged, events[0].Kind)
	assert.Equal(t, domain.WindowID("b"), events[0].Window.ID)
}

func TestDiff_PerDisplayTopmostChange(t *testing.T) {
	// Two windows of the same app on the right display swap order while
	// the focused app stays the same.
	left := win("l", "app", "L", 10, 0)
	left.Focused = true
	r1 := win("r1", "app", "R1", 1100, 1)
	r2 := win("r2", "app", "R2", 1200, 2)
	prev := BuildSnapshot([]domain.WindowInfo{left, r1, r2}, twoDisplays)

	r1.Layer, r2.Layer = 2, 1
	next := BuildSnapshot([]domain.WindowInfo{left, r1, r2}, twoDisplays)

	events := Diff(prev, next, time.Now())
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventFocusChanged, events[0].Kind)
	assert.Equal(t, domain.WindowID("r2"), events[0].Window.ID)
}

func TestDiff_FocusAndTopmostSameWindowOnce(t *testing.T) {
	a := win("a", "app", "A", 10, 0)
	b := win("b", "app", "B", 20, 1)
	prev := BuildSnapshot([]domain.WindowInfo{a, b}, twoDisplays)

	a.Layer, b.Layer = 1, 0
	b.Focused = true
	next := BuildSnapshot([]domain.WindowInfo{a, b}, twoDisplays)

	events := Diff(prev, next, time.Now())
	require.Len(t, events, 1)
	assert.Equal(t, domain.WindowID("b"), events[0].Window.ID)
}

func TestWindowTracker_PollUpdatesRegistry(t *testing.T) {
	source := &mockWindowSource{displays: twoDisplays}
	registry := newTestWindowRegistry()
	tracker := NewWindowTracker(source, nil, registry, time.Second)

	source.set(win("a", "com.apple.Notes", "A", 10, 0), win("b", "com.example.x", "B", 1100, 0))
	events, err := tracker.Poll(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, 2, registry.Len())

	w, ok := registry.Get("b")
	require.True(t, ok)
	assert.Equal(t, domain.DisplayID("right"), w.DisplayID)
	assert.Equal(t, domain.KindOptical, w.Kind)

	source.set(win("a", "com.apple.Notes", "A renamed", 10, 0))
	events, err = tracker.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.EventKind{domain.EventDestroyed, domain.EventTitleChanged}, kinds(events))
	assert.False(t, registry.Has("b"))

	w, _ = registry.Get("a")
	assert.Equal(t, "A renamed", w.Title)
	assert.Len(t, tracker.Displays(), 2)
}

func TestWindowTracker_PollError(t *testing.T) {
	source := &mockWindowSource{err: errors.New("helper crashed")}
	tracker := NewWindowTracker(source, nil, newTestWindowRegistry(), time.Second)

	_, err := tracker.Poll(context.Background())
	assert.ErrorContains(t, err, "helper crashed")
}

func TestWindowTracker_EventsStreamAndRestart(t *testing.T) {
	source := &mockWindowSource{displays: twoDisplays}
	source.set(win("a", "app", "A", 10, 0))
	registry := newTestWindowRegistry()
	tracker := NewWindowTracker(source, nil, registry, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	events := tracker.Events(ctx)

	select {
	case ev := <-events:
		assert.Equal(t, domain.EventCreated, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("no created event")
	}
	cancel()
	for range events {
	}

	// Restarting does not re-announce known windows.
	source.set(win("a", "app", "A", 10, 0), win("b", "app", "B", 10, 1))
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	events = tracker.Events(ctx2)

	select {
	case ev := <-events:
		assert.Equal(t, domain.EventCreated, ev.Kind)
		assert.Equal(t, domain.WindowID("b"), ev.Window.ID)
	case <-time.After(time.Second):
		t.Fatal("no event after restart")
	}
}

func TestWindowTracker_ActivationTriggersPass(t *testing.T) {
	source := &mockWindowSource{displays: twoDisplays}
	activations := &mockActivations{ch: make(chan string, 1)}
	tracker := NewWindowTracker(source, activations, newTestWindowRegistry(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := tracker.Events(ctx)

	// Wait for the initial pass before changing the source.
	require.Eventually(t, func() bool {
		source.mu.Lock()
		defer source.mu.Unlock()
		return source.calls >= 1
	}, time.Second, 5*time.Millisecond)

	source.set(win("a", "app", "A", 10, 0))
	activations.ch <- "app"

	select {
	case ev := <-events:
		assert.Equal(t, domain.EventCreated, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("activation did not trigger a pass")
	}
}
