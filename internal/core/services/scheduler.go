package services

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/core/ports/driven"
	"github.com/custodia-labs/glance/internal/core/ports/driving"
	"github.com/custodia-labs/glance/internal/logger"
)

// Ensure Scheduler implements the interfaces.
var (
	_ driving.Scheduler  = (*Scheduler)(nil)
	_ driving.Controller = (*Scheduler)(nil)
)

// deviceInterval is how often device state is sampled.
const deviceInterval = 5 * time.Second

// SchedulerDeps are the collaborators of the scheduler. Tracker, Capturer
// and Device are optional.
type SchedulerDeps struct {
	Windows    *WindowRegistry
	Tracker    *WindowTracker
	Hashes     *HashTracker
	Extractors *ExtractorRegistry
	Privacy    *PrivacyFilter
	Policy     *TimingPolicy
	Sink       driven.PayloadSink
	Capturer   driven.ScreenCapturer
	Device     driven.DeviceMonitor
}

// Scheduler is the capture control loop. A timer and the window tracker's
// events both feed the per-window state machine; capture, hashing and
// extraction run on a bounded worker pool so the loop itself never waits
// on a window.
type Scheduler struct {
	SchedulerDeps

	counters counters
	paused   atomic.Bool

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	pool    *errgroup.Group
	requeue map[domain.WindowID]domain.TriggerReason

	now func() time.Time
}

type counters struct {
	triggers, coalesced, captures, unchanged, extractions atomic.Int64
	blocked, stale, failures, pushed                     atomic.Int64
}

func (c *counters) snapshot() domain.SchedulerCounters {
	return domain.SchedulerCounters{
		Triggers:    c.triggers.Load(),
		Coalesced:   c.coalesced.Load(),
		Captures:    c.captures.Load(),
		Unchanged:   c.unchanged.Load(),
		Extractions: c.extractions.Load(),
		Blocked:     c.blocked.Load(),
		Stale:       c.stale.Load(),
		Failures:    c.failures.Load(),
		Pushed:      c.pushed.Load(),
	}
}

// NewScheduler creates a scheduler. workers bounds concurrent capture
// and extraction; values below one use the policy setting.
func NewScheduler(deps SchedulerDeps, workers int) *Scheduler {
	if workers < 1 {
		workers = deps.Policy.Settings().Workers
	}
	pool := new(errgroup.Group)
	pool.SetLimit(max(workers, 1))
	return &Scheduler{
		SchedulerDeps: deps,
		pool:          pool,
		requeue:       make(map[domain.WindowID]domain.TriggerReason),
		now:           time.Now,
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if s.Device != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.watchDevice(ctx)
		}()
	}

	err := s.run(ctx, stopCh)

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.Policy.Stop()
	_ = s.pool.Wait()
	return err
}

// Stop gracefully shuts down the scheduler and waits for in-flight work.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running || s.stopCh == nil {
		s.mu.Unlock()
		return nil
	}
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	s.mu.Unlock()

	s.wg.Wait()
	_ = s.pool.Wait()
	return nil
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	var events <-chan domain.WindowEvent
	if s.Tracker != nil {
		events = s.Tracker.Events(ctx)
	}

	tick := s.Policy.Settings().Tick()
	if tick <= 0 {
		tick = time.Second
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	logger.Info("scheduler started", "tick", tick)
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.HandleEvent(ctx, ev)
		}
	}
}

func (s *Scheduler) watchDevice(ctx context.Context) {
	ticker := time.NewTicker(deviceInterval)
	defer ticker.Stop()
	for {
		s.RefreshDevice(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RefreshDevice samples device state and updates the power mode.
func (s *Scheduler) RefreshDevice(ctx context.Context) {
	if s.Device == nil {
		return
	}
	state, err := s.Device.State(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Debug("device state unavailable", "error", err)
		}
		return
	}
	before, _ := s.Policy.Mode()
	mode, base := s.Policy.UpdateDevice(state)
	if mode != before {
		logger.Info("power mode changed", "mode", mode, "base_interval", base)
	}
}

// Tick triggers every tracked window with a timer reason, and replays
// event triggers that were rejected as too soon on an earlier pass.
func (s *Scheduler) Tick(ctx context.Context) {
	s.mu.Lock()
	requeued := s.requeue
	s.requeue = make(map[domain.WindowID]domain.TriggerReason)
	s.mu.Unlock()

	for _, id := range s.Windows.IDs() {
		reason, ok := requeued[id]
		if !ok {
			reason = domain.ReasonTimer
		}
		s.Trigger(ctx, id, reason)
	}
}

// HandleEvent applies a window event: destroyed windows are forgotten,
// every other event raises a trigger, debounced for focus changes.
func (s *Scheduler) HandleEvent(ctx context.Context, ev domain.WindowEvent) {
	id := ev.Window.ID
	if ev.Kind == domain.EventDestroyed {
		s.forget(id)
		logger.Debug("window destroyed", "window", id, "app", ev.Window.AppID)
		return
	}
	if ev.Kind == domain.EventCreated {
		logger.Debug("window created", "window", id, "app", ev.Window.AppID, "title", ev.Window.Title)
	}

	reason, ok := domain.ReasonForEvent(ev.Kind)
	if !ok {
		return
	}
	if delay := s.Policy.Delay(reason); delay > 0 {
		s.Policy.Debounce(id, delay, func() { s.Trigger(ctx, id, reason) })
		return
	}
	s.Trigger(ctx, id, reason)
}

func (s *Scheduler) forget(id domain.WindowID) {
	s.Hashes.Forget(id)
	s.Policy.Forget(id)
	s.mu.Lock()
	delete(s.requeue, id)
	s.mu.Unlock()
}

// Trigger moves a window to Pending and, if policy allows, hands it to the
// worker pool. Triggers for windows with work in flight are coalesced.
func (s *Scheduler) Trigger(ctx context.Context, id domain.WindowID, reason domain.TriggerReason) {
	if ctx.Err() != nil || s.paused.Load() {
		return
	}
	w, ok := s.Windows.Get(id)
	if !ok || w.Kind == domain.KindExternalPush || w.Problematic {
		return
	}
	s.counters.triggers.Add(1)

	w, ok = s.Windows.BeginTrigger(id)
	if !ok {
		s.counters.coalesced.Add(1)
		return
	}

	if s.Privacy.ShouldBlock(w.AppID, w.Title) {
		if err := s.Windows.SetState(id, w.Seq, domain.StateBlocked); err == nil {
			s.counters.blocked.Add(1)
		}
		s.Windows.EndTrigger(id, w.Seq)
		return
	}

	decision := s.Policy.Gate(w, reason, s.now())
	if !decision.Allowed() {
		if reason != domain.ReasonTimer &&
			(decision == DecisionTooSoon || decision == DecisionRateLimited) {
			s.requeueTrigger(id, reason)
		}
		if decision != DecisionNotDue {
			logger.Debug("trigger rejected", "window", id, "reason", reason, "decision", decision)
		}
		s.Windows.EndTrigger(id, w.Seq)
		return
	}

	accepted := s.pool.TryGo(func() error {
		s.process(ctx, w, decision)
		return nil
	})
	if !accepted {
		s.requeueTrigger(id, reason)
		s.Windows.EndTrigger(id, w.Seq)
	}
}

// requeueTrigger keeps an event trigger for the next tick.
func (s *Scheduler) requeueTrigger(id domain.WindowID, reason domain.TriggerReason) {
	s.mu.Lock()
	s.requeue[id] = reason
	s.mu.Unlock()
}

// process runs capture, hashing, extraction and ingestion for one
// trigger. Every state change is applied against the trigger's sequence
// number, so results for destroyed or re-triggered windows are dropped.
func (s *Scheduler) process(ctx context.Context, w domain.Window, decision Decision) {
	defer s.Windows.EndTrigger(w.ID, w.Seq)

	if !s.advance(w, domain.StateCapturing) {
		return
	}
	img := s.capture(ctx, w)
	s.counters.captures.Add(1)

	if !s.advance(w, domain.StateHashing) {
		return
	}
	var (
		fp      domain.Fingerprint
		changed bool
	)
	if img != nil {
		fp = Fingerprint(img)
		var err error
		changed, err = s.Hashes.Observe(w.ID, fp, w.Seq)
		if err != nil {
			s.counters.stale.Add(1)
			return
		}
	}
	captured := s.now()
	if err := s.Windows.Apply(w.ID, w.Seq, func(win *domain.Window) {
		win.LastCapture = captured
		// The tracker keeps the earlier fingerprint for small changes.
		if changed {
			win.Fingerprint = fp
			win.HasFingerprint = true
		}
	}); err != nil {
		s.discard(w, err)
		return
	}
	if img != nil && !changed && decision != DecisionForced {
		s.counters.unchanged.Add(1)
		s.advance(w, domain.StateSkipped)
		return
	}

	if !s.advance(w, domain.StateExtracting) {
		return
	}
	payload, kind, err := s.Extractors.Extract(ctx, driven.ExtractRequest{Window: w, Image: img}, nil)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrExtractionEmpty):
		logger.Debug("extraction empty", "window", w.ID, "kind", kind)
		return
	case ctx.Err() != nil:
		return
	default:
		s.counters.failures.Add(1)
		if merr := s.Windows.MarkProblematic(w.ID, w.Seq); merr == nil {
			logger.Warn("extractors exhausted, skipping window for this session",
				"window", w.ID, "app", w.AppID, "error", err)
		}
		return
	}

	if !s.advance(w, domain.StateIngesting) {
		return
	}
	p := s.complete(payload, w)
	now := s.now()
	if err := s.Windows.Apply(w.ID, w.Seq, func(win *domain.Window) {
		win.LastExtraction = now
		win.ExtractionCount++
		win.ContentDigest = Digest(p.Content)
	}); err != nil {
		s.discard(w, err)
		return
	}
	s.counters.extractions.Add(1)

	result, err := s.Sink.Deliver(ctx, p)
	switch {
	case err == nil:
		logger.Debug("payload ingested", "window", w.ID, "kind", kind, "action", result.Action, "chunks", result.ChunkCount)
	case errors.Is(err, ErrQueued):
		logger.Debug("ingestion deferred", "window", w.ID, "error", err)
	case errors.Is(err, domain.ErrExtractionEmpty):
	default:
		logger.Error("ingestion failed", "window", w.ID, "url", p.URL, "error", err)
	}
}

// capture grabs the window image, retrying once. Failure is not fatal:
// extraction proceeds without an image and the fallback chain decides.
func (s *Scheduler) capture(ctx context.Context, w domain.Window) image.Image {
	if s.Capturer == nil || !w.Kind.NeedsCapture() {
		return nil
	}
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		var img image.Image
		img, err = s.Capturer.Capture(ctx, w)
		if err == nil {
			return img
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	logger.Debug("capture failed", "window", w.ID, "error", err)
	return nil
}

// advance applies a state transition for the trigger and reports whether
// processing should continue.
func (s *Scheduler) advance(w domain.Window, to domain.WindowState) bool {
	err := s.Windows.SetState(w.ID, w.Seq, to)
	if err == nil {
		return true
	}
	if errors.Is(err, domain.ErrInvalidTransition) {
		// Blocking mid-flight lands here.
		logger.Debug("state transition rejected", "window", w.ID, "error", err)
		return false
	}
	s.discard(w, err)
	return false
}

func (s *Scheduler) discard(w domain.Window, err error) {
	s.counters.stale.Add(1)
	logger.Debug("discarding result", "window", w.ID, "seq", w.Seq, "error", err)
}

// complete fills payload fields the extractor may have left empty.
func (s *Scheduler) complete(payload *domain.ContentPayload, w domain.Window) *domain.ContentPayload {
	p := *payload
	if p.URL == "" {
		p.URL = domain.AppScopedPath(w.AppID, w.Title)
	}
	if p.App == "" {
		p.App = w.AppID
	}
	if p.Title == "" {
		p.Title = w.Title
	}
	if p.CapturedAt.IsZero() {
		p.CapturedAt = s.now()
	}
	return &p
}

// Push ingests content an integration pushed unsolicited. Capture and
// hashing are bypassed. A push for a window with a problematic mark
// clears it, since the push path does not use the failing strategies.
func (s *Scheduler) Push(ctx context.Context, payload *domain.ContentPayload) (domain.IngestResult, error) {
	if err := payload.Validate(); err != nil {
		return domain.IngestResult{}, err
	}
	if s.paused.Load() {
		return domain.IngestResult{}, domain.ErrPaused
	}
	if s.Privacy.ShouldBlock(payload.App, payload.Title) {
		logger.Debug("blocked push dropped", "app", payload.App)
		return domain.IngestResult{Action: domain.IngestSkipped}, nil
	}
	s.counters.pushed.Add(1)

	p := *payload
	if p.CapturedAt.IsZero() {
		p.CapturedAt = s.now()
	}

	var (
		target domain.Window
		held   bool
	)
	if p.App != "" {
		for _, w := range s.Windows.FindByApp(p.App) {
			if w.Kind != domain.KindExternalPush {
				continue
			}
			s.Windows.ClearProblematic(w.ID)
			if target, held = s.Windows.BeginPush(w.ID); held {
				break
			}
		}
	}
	if held {
		defer s.Windows.EndTrigger(target.ID, target.Seq)
	}

	result, err := s.Sink.Deliver(ctx, &p)
	if err != nil {
		return result, err
	}
	if held {
		now := s.now()
		_ = s.Windows.Apply(target.ID, target.Seq, func(win *domain.Window) {
			win.LastExtraction = now
			win.ExtractionCount++
			win.ContentDigest = Digest(p.Content)
		})
	}
	s.counters.extractions.Add(1)
	return result, nil
}

// Status returns a snapshot of scheduler state.
func (s *Scheduler) Status(_ context.Context) (*domain.SchedulerStatus, error) {
	mode, base := s.Policy.Mode()
	status := &domain.SchedulerStatus{
		Running:      s.Running(),
		Paused:       s.paused.Load(),
		PowerMode:    mode,
		BaseInterval: base,
		Windows:      s.Windows.Statuses(),
		Counters:     s.counters.snapshot(),
	}
	if q, ok := s.Sink.(interface{ Depth() int }); ok {
		status.QueueDepth = q.Depth()
	}
	return status, nil
}

// Pause stops scheduling new captures. In-flight work completes.
func (s *Scheduler) Pause(_ context.Context) error {
	if !s.paused.Swap(true) {
		logger.Info("capture paused")
	}
	return nil
}

// Resume re-enables capture.
func (s *Scheduler) Resume(_ context.Context) error {
	if s.paused.Swap(false) {
		logger.Info("capture resumed")
	}
	return nil
}

// Paused reports whether capture is paused.
func (s *Scheduler) Paused() bool {
	return s.paused.Load()
}

// Block adds an application to the blocklist for this session and moves
// its windows to Blocked.
func (s *Scheduler) Block(_ context.Context, appID string) error {
	if appID == "" {
		return domain.ErrInvalidInput
	}
	s.Privacy.Block(appID)
	blocked := s.Windows.SetBlocked(func(w domain.Window) bool {
		return s.Privacy.BlocksApp(w.AppID)
	}, true)
	s.counters.blocked.Add(int64(len(blocked)))
	logger.Info("application blocked", "app", appID, "windows", len(blocked))
	return nil
}

// Reload applies a new configuration to the running scheduler: privacy
// lists, routing table, timing policy and hash sensitivity. Windows are
// re-routed and their block state re-evaluated.
func (s *Scheduler) Reload(cfg domain.Config) {
	s.Privacy.Reload(cfg.Privacy)
	s.Extractors.Reload(cfg.Extractors)
	s.Policy.Reload(cfg.Capture)
	s.Hashes.SetSensitivity(cfg.Capture.Sensitivity)

	rerouted := s.Windows.Reroute()
	blocked := s.Windows.SetBlocked(func(w domain.Window) bool {
		return s.Privacy.ShouldBlock(w.AppID, w.Title)
	}, true)
	unblocked := s.Windows.SetBlocked(func(w domain.Window) bool {
		return !s.Privacy.ShouldBlock(w.AppID, w.Title)
	}, false)
	logger.Info("configuration reloaded",
		"rerouted", rerouted, "blocked", len(blocked), "unblocked", len(unblocked))
}

// Wait blocks until queued worker tasks finish.
func (s *Scheduler) Wait() {
	_ = s.pool.Wait()
}
