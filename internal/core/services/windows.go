package services

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/core/ports/driving"
)

// WindowRegistry is the arena of tracked windows, keyed by window id.
// The map is guarded by a read/write lock and every record carries its own
// mutex, so there is a single writer per window while work on unrelated
// windows proceeds in parallel. Callers never hold a *domain.Window: they
// receive snapshots and re-resolve by id before applying results.
type WindowRegistry struct {
	mu      sync.RWMutex
	windows map[domain.WindowID]*windowRecord
	router  driving.ExtractorRouter
	seq     atomic.Uint64
	now     func() time.Time
}

type windowRecord struct {
	mu       sync.Mutex
	w        domain.Window
	inFlight bool
	removed  bool
}

// NewWindowRegistry creates an empty registry. router assigns the
// extractor kind of each window.
func NewWindowRegistry(router driving.ExtractorRouter) *WindowRegistry {
	return &WindowRegistry{
		windows: make(map[domain.WindowID]*windowRecord),
		router:  router,
		now:     time.Now,
	}
}

func (r *WindowRegistry) record(id domain.WindowID) (*windowRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.windows[id]
	return rec, ok
}

// Upsert records an observation. New windows start Idle with a routed
// extractor kind. A change of application identity re-routes the window
// and clears its problematic mark. created reports whether the window was
// new.
func (r *WindowRegistry) Upsert(info domain.WindowInfo, display domain.DisplayID) (domain.Window, bool) {
	if rec, ok := r.record(info.ID); ok {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.update(info, display, r.router)
		return rec.w, false
	}

	r.mu.Lock()
	rec, ok := r.windows[info.ID]
	if !ok {
		rec = &windowRecord{w: domain.Window{
			ID:        info.ID,
			AppID:     info.AppID,
			State:     domain.StateIdle,
			FirstSeen: r.now(),
			Kind:      r.router.Route(info.AppID),
		}}
		r.windows[info.ID] = rec
	}
	r.mu.Unlock()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.update(info, display, r.router)
	return rec.w, !ok
}

func (rec *windowRecord) update(info domain.WindowInfo, display domain.DisplayID, router driving.ExtractorRouter) {
	if rec.w.AppID != info.AppID {
		rec.w.AppID = info.AppID
		rec.w.Kind = router.Route(info.AppID)
		rec.w.Problematic = false
		if rec.w.State == domain.StateProblematic {
			rec.w.State = domain.StateIdle
		}
	}
	rec.w.AppName = info.AppName
	rec.w.Title = info.Title
	rec.w.Bounds = info.Bounds
	if display != "" {
		rec.w.DisplayID = display
	}
}

// Remove drops a window. Its sequence context is invalidated, so any
// result still in flight is rejected on arrival.
func (r *WindowRegistry) Remove(id domain.WindowID) (domain.Window, bool) {
	r.mu.Lock()
	rec, ok := r.windows[id]
	delete(r.windows, id)
	r.mu.Unlock()
	if !ok {
		return domain.Window{}, false
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.removed = true
	rec.w.Seq = r.seq.Add(1)
	return rec.w, true
}

// Get returns a snapshot of a tracked window.
func (r *WindowRegistry) Get(id domain.WindowID) (domain.Window, bool) {
	rec, ok := r.record(id)
	if !ok {
		return domain.Window{}, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.w, true
}

// Has reports whether a window is tracked.
func (r *WindowRegistry) Has(id domain.WindowID) bool {
	_, ok := r.record(id)
	return ok
}

// Len returns the number of tracked windows.
func (r *WindowRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.windows)
}

// IDs returns the tracked window ids, sorted.
func (r *WindowRegistry) IDs() []domain.WindowID {
	r.mu.RLock()
	ids := make([]domain.WindowID, 0, len(r.windows))
	for id := range r.windows {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// List returns snapshots of all tracked windows, sorted by id.
func (r *WindowRegistry) List() []domain.Window {
	ids := r.IDs()
	out := make([]domain.Window, 0, len(ids))
	for _, id := range ids {
		if w, ok := r.Get(id); ok {
			out = append(out, w)
		}
	}
	return out
}

// BeginTrigger moves an idle window to Pending and issues a new sequence
// number. It returns false when the window is unknown or already has work
// in flight; such triggers are coalesced, not queued.
func (r *WindowRegistry) BeginTrigger(id domain.WindowID) (domain.Window, bool) {
	rec, ok := r.record(id)
	if !ok {
		return domain.Window{}, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.removed || rec.inFlight || !domain.CanTransition(rec.w.State, domain.StatePending) {
		return rec.w, false
	}
	rec.inFlight = true
	rec.w.State = domain.StatePending
	rec.w.Seq = r.seq.Add(1)
	return rec.w, true
}

// BeginPush marks a window as ingesting externally pushed content. It
// follows the same coalescing rule as BeginTrigger.
func (r *WindowRegistry) BeginPush(id domain.WindowID) (domain.Window, bool) {
	rec, ok := r.record(id)
	if !ok {
		return domain.Window{}, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.removed || rec.inFlight || !domain.CanTransition(rec.w.State, domain.StateIngesting) {
		return rec.w, false
	}
	rec.inFlight = true
	rec.w.State = domain.StateIngesting
	rec.w.Seq = r.seq.Add(1)
	return rec.w, true
}

// EndTrigger releases the in-flight slot taken for seq. Windows that are
// not Blocked or Problematic return to Idle.
func (r *WindowRegistry) EndTrigger(id domain.WindowID, seq uint64) {
	rec, ok := r.record(id)
	if !ok {
		return
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.w.Seq != seq {
		return
	}
	rec.inFlight = false
	switch rec.w.State {
	case domain.StateBlocked, domain.StateProblematic:
	default:
		rec.w.State = domain.StateIdle
	}
}

// Apply runs fn against the live record if seq is still the current
// sequence of a tracked window. It returns domain.ErrWindowGone for
// removed windows and domain.ErrStaleResult for superseded sequences.
func (r *WindowRegistry) Apply(id domain.WindowID, seq uint64, fn func(w *domain.Window)) error {
	rec, ok := r.record(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrWindowGone, id)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.removed {
		return fmt.Errorf("%w: %s", domain.ErrWindowGone, id)
	}
	if rec.w.Seq != seq {
		return fmt.Errorf("%w: window %s seq %d, current %d", domain.ErrStaleResult, id, seq, rec.w.Seq)
	}
	fn(&rec.w)
	return nil
}

// SetState validates and applies a state transition for the current
// sequence.
func (r *WindowRegistry) SetState(id domain.WindowID, seq uint64, to domain.WindowState) error {
	var terr error
	err := r.Apply(id, seq, func(w *domain.Window) {
		w.State, terr = domain.Transition(w.State, to)
	})
	if err != nil {
		return err
	}
	return terr
}

// MarkProblematic flags a window to be skipped for the rest of the session.
func (r *WindowRegistry) MarkProblematic(id domain.WindowID, seq uint64) error {
	return r.Apply(id, seq, func(w *domain.Window) {
		w.Problematic = true
		w.State = domain.StateProblematic
	})
}

// ClearProblematic re-registers a window, making it eligible again.
func (r *WindowRegistry) ClearProblematic(id domain.WindowID) bool {
	rec, ok := r.record(id)
	if !ok {
		return false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if !rec.w.Problematic {
		return false
	}
	rec.w.Problematic = false
	if rec.w.State == domain.StateProblematic {
		rec.w.State = domain.StateIdle
	}
	return true
}

// Reroute recomputes every window's extractor kind after a routing table
// change. Windows whose kind changed are re-registered: their problematic
// mark is cleared. It returns the number of windows that changed kind.
func (r *WindowRegistry) Reroute() int {
	changed := 0
	for _, id := range r.IDs() {
		rec, ok := r.record(id)
		if !ok {
			continue
		}
		rec.mu.Lock()
		kind := r.router.Route(rec.w.AppID)
		if kind != rec.w.Kind {
			rec.w.Kind = kind
			rec.w.Problematic = false
			if rec.w.State == domain.StateProblematic {
				rec.w.State = domain.StateIdle
			}
			changed++
		}
		rec.mu.Unlock()
	}
	return changed
}

// SetBlocked moves every window of an application to Blocked (or back to
// Idle when blocked is false), regardless of sequence. It returns the
// affected window ids.
func (r *WindowRegistry) SetBlocked(match func(w domain.Window) bool, blocked bool) []domain.WindowID {
	var affected []domain.WindowID
	for _, id := range r.IDs() {
		rec, ok := r.record(id)
		if !ok {
			continue
		}
		rec.mu.Lock()
		if match(rec.w) {
			switch {
			case blocked && rec.w.State != domain.StateBlocked:
				rec.w.State = domain.StateBlocked
				affected = append(affected, id)
			case !blocked && rec.w.State == domain.StateBlocked:
				rec.w.State = domain.StateIdle
				affected = append(affected, id)
			}
		}
		rec.mu.Unlock()
	}
	return affected
}

// FindByApp returns snapshots of the windows of an application.
func (r *WindowRegistry) FindByApp(appID string) []domain.Window {
	var out []domain.Window
	for _, w := range r.List() {
		if strings.EqualFold(w.AppID, appID) {
			out = append(out, w)
		}
	}
	return out
}

// Statuses returns the read-only status view of all windows.
func (r *WindowRegistry) Statuses() []domain.WindowStatus {
	windows := r.List()
	out := make([]domain.WindowStatus, 0, len(windows))
	for _, w := range windows {
		out = append(out, domain.WindowStatus{
			ID:              w.ID,
			AppID:           w.AppID,
			Title:           w.Title,
			DisplayID:       w.DisplayID,
			Kind:            w.Kind,
			State:           w.State,
			LastExtraction:  w.LastExtraction,
			ExtractionCount: w.ExtractionCount,
			Problematic:     w.Problematic,
		})
	}
	return out
}
