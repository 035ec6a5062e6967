package services

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/glance/internal/core/domain"
)

// Decision is the outcome of gating a Pending window.
type Decision string

// Gate decisions.
const (
	// DecisionProceed allows capture.
	DecisionProceed Decision = "proceed"

	// DecisionForced allows capture because the maximum interval elapsed.
	// Forced captures bypass the unchanged-fingerprint skip.
	DecisionForced Decision = "forced"

	// DecisionTooSoon rejects capture within the minimum interval.
	DecisionTooSoon Decision = "too_soon"

	// DecisionNotDue rejects a timer trigger before the base interval.
	DecisionNotDue Decision = "not_due"

	// DecisionRateLimited rejects capture over the per-window burst limit.
	DecisionRateLimited Decision = "rate_limited"
)

// Allowed reports whether the decision lets capture proceed.
func (d Decision) Allowed() bool {
	return d == DecisionProceed || d == DecisionForced
}

// TimingPolicy gates the Pending to Capturing transition. It tracks the
// device power mode, a token bucket per window for the burst limit, and
// per-window debounce timers for focus triggers.
type TimingPolicy struct {
	mu       sync.Mutex
	settings domain.CaptureSettings
	mode     domain.PowerMode
	limiters map[domain.WindowID]*rate.Limiter
	timers   map[domain.WindowID]*time.Timer
}

// NewTimingPolicy creates a policy from capture settings.
func NewTimingPolicy(settings domain.CaptureSettings) *TimingPolicy {
	return &TimingPolicy{
		settings: settings,
		mode:     domain.PowerNormal,
		limiters: make(map[domain.WindowID]*rate.Limiter),
		timers:   make(map[domain.WindowID]*time.Timer),
	}
}

// Reload replaces the settings. Existing burst limiters are rebuilt lazily.
func (p *TimingPolicy) Reload(settings domain.CaptureSettings) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if settings.BurstPerMinute != p.settings.BurstPerMinute {
		p.limiters = make(map[domain.WindowID]*rate.Limiter)
	}
	p.settings = settings
}

// Settings returns the current settings.
func (p *TimingPolicy) Settings() domain.CaptureSettings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings
}

// UpdateDevice recomputes the power mode from a device reading and
// returns the mode and its base interval.
func (p *TimingPolicy) UpdateDevice(state domain.DeviceState) (domain.PowerMode, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mode = state.Mode(p.settings.IdleThreshold())
	return p.mode, p.settings.BaseInterval(p.mode)
}

// Mode returns the current power mode and base interval.
func (p *TimingPolicy) Mode() (domain.PowerMode, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode, p.settings.BaseInterval(p.mode)
}

// Gate decides whether a window may move from Pending to Capturing.
// The minimum and maximum intervals are measured from the last
// extraction: the minimum applies to every trigger and the maximum forces
// capture regardless of other gating. Timer triggers also wait for the
// base interval since the last capture or extraction, so unchanged
// windows follow the power-mode cadence. The burst limit applies to
// everything not forced.
func (p *TimingPolicy) Gate(w domain.Window, reason domain.TriggerReason, now time.Time) Decision {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !w.LastExtraction.IsZero() {
		since := now.Sub(w.LastExtraction)
		if since < p.settings.MinInterval() {
			return DecisionTooSoon
		}
		if maxInterval := p.settings.MaxInterval(); maxInterval > 0 && since >= maxInterval {
			return DecisionForced
		}
	}

	if reason == domain.ReasonTimer {
		last := w.LastCapture
		if w.LastExtraction.After(last) {
			last = w.LastExtraction
		}
		if !last.IsZero() && now.Sub(last) < p.settings.BaseInterval(p.mode) {
			return DecisionNotDue
		}
	}

	if !p.limiter(w.ID).AllowN(now, 1) {
		return DecisionRateLimited
	}
	return DecisionProceed
}

func (p *TimingPolicy) limiter(id domain.WindowID) *rate.Limiter {
	limiter, ok := p.limiters[id]
	if !ok {
		burst := p.settings.BurstPerMinute
		if burst <= 0 {
			limiter = rate.NewLimiter(rate.Inf, 0)
		} else {
			limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(burst)), burst)
		}
		p.limiters[id] = limiter
	}
	return limiter
}

// Delay returns how long a trigger should wait before it is applied.
// Focus changes are debounced; title, tab and other triggers are
// immediate.
func (p *TimingPolicy) Delay(reason domain.TriggerReason) time.Duration {
	if reason != domain.ReasonFocus {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings.FocusDebounce()
}

// Debounce runs fn after delay, replacing any pending call for the same
// window so a burst of triggers collapses into one.
func (p *TimingPolicy) Debounce(id domain.WindowID, delay time.Duration, fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.timers[id]; ok {
		t.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		p.mu.Lock()
		if p.timers[id] == timer {
			delete(p.timers, id)
		}
		p.mu.Unlock()
		fn()
	})
	p.timers[id] = timer
}

// Pending reports whether a debounced trigger is waiting for a window.
func (p *TimingPolicy) Pending(id domain.WindowID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.timers[id]
	return ok
}

// Forget drops a window's limiter and cancels its debounce timer.
func (p *TimingPolicy) Forget(id domain.WindowID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.timers[id]; ok {
		t.Stop()
		delete(p.timers, id)
	}
	delete(p.limiters, id)
}

// Stop cancels every pending debounce timer.
func (p *TimingPolicy) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, t := range p.timers {
		t.Stop()
		delete(p.timers, id)
	}
}
