package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/core/ports/driven"
	"github.com/custodia-labs/glance/internal/logger"
)

// DefaultPollInterval is the window enumeration cadence.
const DefaultPollInterval = 2 * time.Second

// Snapshot is the result of one enumeration pass: visible windows with
// their containing display, and the display topology with per-display
// membership and topmost window.
type Snapshot struct {
	Windows  map[domain.WindowID]Observation
	Displays []domain.Display
	Focused  domain.WindowID
}

// Observation is a window as seen in a snapshot.
type Observation struct {
	Info    domain.WindowInfo
	Display domain.DisplayID
}

// BuildSnapshot assigns windows to displays by largest overlap, computes
// display membership and each display's topmost window. Minimised
// windows are not visible and are left out.
func BuildSnapshot(windows []domain.WindowInfo, displays []domain.Display) Snapshot {
	snap := Snapshot{
		Windows:  make(map[domain.WindowID]Observation, len(windows)),
		Displays: make([]domain.Display, len(displays)),
	}
	copy(snap.Displays, displays)
	index := make(map[domain.DisplayID]int, len(displays))
	topLayer := make(map[domain.DisplayID]int, len(displays))
	for i := range snap.Displays {
		snap.Displays[i].Windows = nil
		snap.Displays[i].Topmost = ""
		index[snap.Displays[i].ID] = i
	}

	for _, info := range windows {
		if info.Minimised || info.ID == "" {
			continue
		}
		display := containingDisplay(info.Bounds, snap.Displays)
		snap.Windows[info.ID] = Observation{Info: info, Display: display}
		if info.Focused {
			snap.Focused = info.ID
		}
		i, ok := index[display]
		if !ok {
			continue
		}
		d := &snap.Displays[i]
		d.Windows = append(d.Windows, info.ID)
		if layer, seen := topLayer[display]; !seen || info.Layer < layer ||
			(info.Layer == layer && info.ID < d.Topmost) {
			topLayer[display] = info.Layer
			d.Topmost = info.ID
		}
	}
	for i := range snap.Displays {
		slices.Sort(snap.Displays[i].Windows)
	}
	return snap
}

// containingDisplay returns the display sharing the largest area with
// bounds. Ties prefer the primary display, then input order.
func containingDisplay(bounds domain.Rect, displays []domain.Display) domain.DisplayID {
	var (
		best     domain.DisplayID
		bestArea int
		primary  bool
	)
	for _, d := range displays {
		area := bounds.Intersect(d.Bounds)
		if area == 0 {
			continue
		}
		if area > bestArea || (area == bestArea && d.Primary && !primary) {
			best, bestArea, primary = d.ID, area, d.Primary
		}
	}
	return best
}

// Diff compares two snapshots and returns the resulting window events in
// a deterministic order: destroyed, created, moved, title changes, then
// focus changes. Focus changes cover both the globally focused window and
// a new topmost window on any display, which catches focus moving between
// displays without an application switch. A window gets at most one
// focus event per pass.
func Diff(prev, next Snapshot, at time.Time) []domain.WindowEvent {
	var destroyed, created, moved, titled, focused []domain.WindowEvent

	for id, old := range prev.Windows {
		if _, ok := next.Windows[id]; !ok {
			destroyed = append(destroyed, domain.WindowEvent{
				Kind: domain.EventDestroyed, Window: old.Info, DisplayID: old.Display, At: at,
			})
		}
	}

	for id, cur := range next.Windows {
		old, ok := prev.Windows[id]
		if !ok {
			created = append(created, domain.WindowEvent{
				Kind: domain.EventCreated, Window: cur.Info, DisplayID: cur.Display, At: at,
			})
			continue
		}
		if old.Display != cur.Display {
			moved = append(moved, domain.WindowEvent{
				Kind: domain.EventMovedDisplay, Window: cur.Info,
				DisplayID: cur.Display, PreviousDisplayID: old.Display, At: at,
			})
		}
		if old.Info.Title != cur.Info.Title {
			titled = append(titled, domain.WindowEvent{
				Kind: domain.EventTitleChanged, Window: cur.Info, DisplayID: cur.Display, At: at,
			})
		}
	}

	seen := make(map[domain.WindowID]bool)
	focus := func(id domain.WindowID) {
		cur, ok := next.Windows[id]
		if !ok || seen[id] {
			return
		}
		// New windows already raised Created.
		if _, existed := prev.Windows[id]; !existed {
			return
		}
		seen[id] = true
		focused = append(focused, domain.WindowEvent{
			Kind: domain.EventFocusChanged, Window: cur.Info, DisplayID: cur.Display, At: at,
		})
	}
	if next.Focused != "" && next.Focused != prev.Focused {
		focus(next.Focused)
	}
	prevTop := make(map[domain.DisplayID]domain.WindowID, len(prev.Displays))
	for _, d := range prev.Displays {
		prevTop[d.ID] = d.Topmost
	}
	for _, d := range next.Displays {
		if d.Topmost != "" && d.Topmost != prevTop[d.ID] {
			focus(d.Topmost)
		}
	}

	byID := func(a, b domain.WindowEvent) int {
		switch {
		case a.Window.ID < b.Window.ID:
			return -1
		case a.Window.ID > b.Window.ID:
			return 1
		default:
			return 0
		}
	}
	slices.SortFunc(destroyed, byID)
	slices.SortFunc(created, byID)
	slices.SortFunc(moved, byID)
	slices.SortFunc(titled, byID)
	slices.SortFunc(focused, byID)

	events := make([]domain.WindowEvent, 0, len(destroyed)+len(created)+len(moved)+len(titled)+len(focused))
	events = append(events, destroyed...)
	events = append(events, created...)
	events = append(events, moved...)
	events = append(events, titled...)
	events = append(events, focused...)
	return events
}

// WindowTracker keeps the live window and display inventory. It polls the
// window source on an interval, reacts immediately to application
// activations, applies each diff to the window registry and emits events.
// It never triggers extraction itself.
type WindowTracker struct {
	source      driven.WindowSource
	activations driven.ActivationSource
	registry    *WindowRegistry
	interval    time.Duration

	mu   sync.Mutex
	prev Snapshot
	now  func() time.Time
}

// NewWindowTracker creates a tracker. activations may be nil.
func NewWindowTracker(
	source driven.WindowSource,
	activations driven.ActivationSource,
	registry *WindowRegistry,
	interval time.Duration,
) *WindowTracker {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &WindowTracker{
		source:      source,
		activations: activations,
		registry:    registry,
		interval:    interval,
		prev:        Snapshot{Windows: map[domain.WindowID]Observation{}},
		now:         time.Now,
	}
}

// Poll runs one enumeration pass, updates the registry and returns the
// events since the previous pass.
func (t *WindowTracker) Poll(ctx context.Context) ([]domain.WindowEvent, error) {
	windows, err := t.source.ListWindows(ctx)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	displays, err := t.source.ListDisplays(ctx)
	if err != nil {
		return nil, fmt.Errorf("list displays: %w", err)
	}
	next := BuildSnapshot(windows, displays)

	t.mu.Lock()
	defer t.mu.Unlock()
	events := Diff(t.prev, next, t.now())
	t.prev = next

	for _, obs := range next.Windows {
		t.registry.Upsert(obs.Info, obs.Display)
	}
	for _, ev := range events {
		if ev.Kind == domain.EventDestroyed {
			t.registry.Remove(ev.Window.ID)
		}
	}
	return events, nil
}

// Displays returns the display topology from the last pass.
func (t *WindowTracker) Displays() []domain.Display {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Display, len(t.prev.Displays))
	copy(out, t.prev.Displays)
	return out
}

// Events starts tracking and returns the event stream. The stream ends
// when ctx is cancelled. Tracking state survives a restart, so calling
// Events again resumes from the last pass instead of re-announcing every
// window.
func (t *WindowTracker) Events(ctx context.Context) <-chan domain.WindowEvent {
	out := make(chan domain.WindowEvent, 64)

	var activations <-chan string
	if t.activations != nil {
		ch, err := t.activations.Activations(ctx)
		if err != nil {
			logger.Warn("activation notifications unavailable", "error", err)
		} else {
			activations = ch
		}
	}

	go func() {
		defer close(out)

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		t.pass(ctx, out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.pass(ctx, out)
			case app, ok := <-activations:
				if !ok {
					activations = nil
					continue
				}
				logger.Debug("application activated", "app", app)
				t.pass(ctx, out)
			}
		}
	}()
	return out
}

func (t *WindowTracker) pass(ctx context.Context, out chan<- domain.WindowEvent) {
	events, err := t.Poll(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("window enumeration failed", "error", err)
		}
		return
	}
	for _, ev := range events {
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}
