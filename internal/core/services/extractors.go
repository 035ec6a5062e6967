package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/core/ports/driven"
	"github.com/custodia-labs/glance/internal/core/ports/driving"
	"github.com/custodia-labs/glance/internal/logger"
)

// Ensure ExtractorRegistry implements the interface.
var _ driving.ExtractorRouter = (*ExtractorRegistry)(nil)

// ExtractAttempt describes one extractor invocation within a fallback chain.
type ExtractAttempt struct {
	Kind    domain.ExtractorKind
	Attempt int
	Err     error
}

// ExtractorRegistry routes applications to extraction strategies and runs
// the retry and fallback chain. The routing table is data; Reload swaps it
// without touching the registered extractors.
type ExtractorRegistry struct {
	mu         sync.RWMutex
	table      domain.RoutingTable
	push       appMatcher
	structured appMatcher
	extractors map[domain.ExtractorKind]driven.Extractor
	attempts   int
}

// NewExtractorRegistry creates a registry for a routing table. attempts is
// the number of tries each kind gets before falling back; non-positive
// values use the default of 2.
func NewExtractorRegistry(table domain.RoutingTable, attempts int) *ExtractorRegistry {
	if attempts <= 0 {
		attempts = domain.DefaultCaptureSettings().ExtractorAttempts
	}
	r := &ExtractorRegistry{
		extractors: make(map[domain.ExtractorKind]driven.Extractor),
		attempts:   attempts,
	}
	r.Reload(table)
	return r
}

// Register adds an extractor for its kind, replacing any previous one.
func (r *ExtractorRegistry) Register(ex driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[ex.Kind()] = ex
}

// Extractor returns the registered extractor for a kind.
func (r *ExtractorRegistry) Extractor(kind domain.ExtractorKind) (driven.Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ex, ok := r.extractors[kind]
	return ex, ok
}

// Reload swaps the routing table.
func (r *ExtractorRegistry) Reload(table domain.RoutingTable) {
	push := newAppMatcher(table.PushApps)
	structured := newAppMatcher(table.AccessibilityApps)

	r.mu.Lock()
	r.table = table
	r.push = push
	r.structured = structured
	r.mu.Unlock()
}

// Table returns the current routing table.
func (r *ExtractorRegistry) Table() domain.RoutingTable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.table
}

// Attempts returns the number of tries each kind gets.
func (r *ExtractorRegistry) Attempts() int {
	return r.attempts
}

// Route returns the preferred extractor kind for an application. First
// match wins: push integration, known structured target, then optical.
func (r *ExtractorRegistry) Route(appID string) domain.ExtractorKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch {
	case r.push.match(appID):
		return domain.KindExternalPush
	case r.structured.match(appID):
		return domain.KindAccessibility
	default:
		return domain.KindOptical
	}
}

// Fallback returns the strategy to try after kind is exhausted.
func Fallback(kind domain.ExtractorKind) (domain.ExtractorKind, bool) {
	if kind == domain.KindAccessibility {
		return domain.KindOptical, true
	}
	return "", false
}

// Chain returns the ordered strategies tried for a window of the given kind.
func Chain(kind domain.ExtractorKind) []domain.ExtractorKind {
	chain := []domain.ExtractorKind{kind}
	for next, ok := Fallback(kind); ok; next, ok = Fallback(next) {
		chain = append(chain, next)
	}
	return chain
}

// Extract runs the fallback chain starting at the request window's kind.
// Each kind is tried up to Attempts times. An empty extraction ends the
// chain with domain.ErrExtractionEmpty; exhaustion returns an error
// wrapping domain.ErrExtractorsExhausted and every attempt's error.
// observe, when non-nil, is called after each attempt.
func (r *ExtractorRegistry) Extract(
	ctx context.Context,
	req driven.ExtractRequest,
	observe func(ExtractAttempt),
) (*domain.ContentPayload, domain.ExtractorKind, error) {
	kind := req.Window.Kind
	if !kind.Valid() {
		kind = r.Route(req.Window.AppID)
	}
	if kind == domain.KindExternalPush {
		return nil, kind, fmt.Errorf("%w: %s content is pushed", domain.ErrExtractorUnavailable, kind)
	}

	var errs []error
	for _, k := range Chain(kind) {
		ex, ok := r.Extractor(k)
		if !ok {
			errs = append(errs, fmt.Errorf("%s: %w", k, domain.ErrExtractorUnavailable))
			continue
		}
		for attempt := 1; attempt <= r.attempts; attempt++ {
			if err := ctx.Err(); err != nil {
				return nil, k, err
			}
			payload, err := ex.Extract(ctx, req)
			if err == nil && payload.Empty() {
				err = domain.ErrExtractionEmpty
			}
			if observe != nil {
				observe(ExtractAttempt{Kind: k, Attempt: attempt, Err: err})
			}
			if err == nil {
				return payload, k, nil
			}
			if errors.Is(err, domain.ErrExtractionEmpty) {
				return nil, k, err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, k, ctxErr
			}
			logger.Debug("extractor attempt failed",
				"window", req.Window.ID, "kind", k, "attempt", attempt, "error", err)
			errs = append(errs, fmt.Errorf("%s attempt %d: %w", k, attempt, err))
		}
	}
	return nil, kind, fmt.Errorf("%w: %w", domain.ErrExtractorsExhausted, errors.Join(errs...))
}

// appMatcher matches application identities case-insensitively against
// exact names and '*' wildcard patterns.
type appMatcher struct {
	exact     map[string]struct{}
	wildcards []string
}

func newAppMatcher(apps []string) appMatcher {
	m := appMatcher{exact: make(map[string]struct{}, len(apps))}
	for _, app := range apps {
		m.add(app)
	}
	return m
}

func (m *appMatcher) add(app string) {
	app = strings.ToLower(strings.TrimSpace(app))
	switch {
	case app == "":
	case strings.Contains(app, "*"):
		if !slices.Contains(m.wildcards, app) {
			m.wildcards = append(m.wildcards, app)
		}
	default:
		m.exact[app] = struct{}{}
	}
}

func (m appMatcher) list() []string {
	apps := make([]string, 0, len(m.exact)+len(m.wildcards))
	for app := range m.exact {
		apps = append(apps, app)
	}
	apps = append(apps, m.wildcards...)
	slices.Sort(apps)
	return apps
}

func (m appMatcher) match(appID string) bool {
	if appID == "" {
		return false
	}
	appID = strings.ToLower(appID)
	if _, ok := m.exact[appID]; ok {
		return true
	}
	for _, pattern := range m.wildcards {
		if matchWildcard(pattern, appID) {
			return true
		}
	}
	return false
}
