package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/core/ports/driven"
	"github.com/custodia-labs/glance/internal/logger"
)

// Retry queue defaults.
const (
	DefaultRetryBase = time.Second
	DefaultRetryMax  = 60 * time.Second

	// retryPace bounds how fast queued payloads are re-delivered once the
	// sink recovers.
	retryPace = 20
)

// ErrQueued indicates delivery failed and the payload was queued for retry.
var ErrQueued = errors.New("queued for retry")

// Ensure IngestQueue implements the interface.
var _ driven.PayloadSink = (*IngestQueue)(nil)

// Backoff returns the delay before retry attempt n (1-based): base doubled
// per attempt, capped at limit.
func Backoff(n int, base, limit time.Duration) time.Duration {
	if n < 1 {
		n = 1
	}
	d := base
	for i := 1; i < n; i++ {
		d *= 2
		if d >= limit {
			return limit
		}
	}
	return min(d, limit)
}

type queuedPayload struct {
	payload  *domain.ContentPayload
	attempts int
	next     time.Time
	lastErr  error
}

// IngestQueue wraps a payload sink with a local retry queue. Deliveries
// that fail with a recoverable error are kept and retried in the
// background with exponential backoff, so callers never wait on a broken
// sink. A newer payload for a queued canonical identifier replaces the
// older one.
type IngestQueue struct {
	sink  driven.PayloadSink
	base  time.Duration
	limit time.Duration
	pace  *rate.Limiter

	mu      sync.Mutex
	items   []*queuedPayload
	byURL   map[string]*queuedPayload
	wake    chan struct{}
	onRetry func(*domain.ContentPayload, domain.IngestResult)
	now     func() time.Time
}

// NewIngestQueue creates a queue in front of sink. limit <= 0 uses
// DefaultRetryMax.
func NewIngestQueue(sink driven.PayloadSink, limit time.Duration) *IngestQueue {
	if limit <= 0 {
		limit = DefaultRetryMax
	}
	return &IngestQueue{
		sink:  sink,
		base:  DefaultRetryBase,
		limit: limit,
		pace:  rate.NewLimiter(rate.Limit(retryPace), 1),
		byURL: make(map[string]*queuedPayload),
		wake:  make(chan struct{}, 1),
		now:   time.Now,
	}
}

// OnRetry registers a callback for payloads delivered from the queue.
func (q *IngestQueue) OnRetry(fn func(*domain.ContentPayload, domain.IngestResult)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onRetry = fn
}

// Deliver attempts delivery once. On a recoverable failure the payload is
// queued and the error wraps ErrQueued. While an older payload for the same
// canonical identifier is still queued, the new one replaces it in the
// queue instead of being delivered inline, so the older version can never
// land after it.
func (q *IngestQueue) Deliver(ctx context.Context, payload *domain.ContentPayload) (domain.IngestResult, error) {
	if q.supersede(payload) {
		return domain.IngestResult{}, fmt.Errorf("%w: replaced pending payload for %s", ErrQueued, payload.URL)
	}
	result, err := q.sink.Deliver(ctx, payload)
	if err == nil || !Retryable(err) {
		return result, err
	}
	q.enqueue(payload, 1, err)
	return result, fmt.Errorf("%w: %w", ErrQueued, err)
}

// Submit queues a payload for background delivery without attempting it
// inline. It never blocks.
func (q *IngestQueue) Submit(payload *domain.ContentPayload) {
	q.enqueue(payload, 0, nil)
}

// supersede swaps payload into a queued item for the same identifier and
// makes it due now. It reports false when nothing is queued for it.
func (q *IngestQueue) supersede(payload *domain.ContentPayload) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	item, ok := q.byURL[payload.URL]
	if !ok {
		return false
	}
	item.payload = payload
	item.next = q.now()
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

func (q *IngestQueue) enqueue(payload *domain.ContentPayload, attempts int, cause error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	next := q.now()
	if attempts > 0 {
		next = next.Add(Backoff(attempts, q.base, q.limit))
	}
	if item, ok := q.byURL[payload.URL]; ok {
		// Supersede the queued version but keep its backoff.
		item.payload = payload
		if attempts > item.attempts {
			item.attempts = attempts
			item.next = next
		}
		item.lastErr = cause
	} else {
		item = &queuedPayload{payload: payload, attempts: attempts, next: next, lastErr: cause}
		q.items = append(q.items, item)
		q.byURL[payload.URL] = item
	}
	if cause != nil {
		logger.Debug("payload queued for retry", "url", payload.URL, "attempts", attempts, "error", cause)
	}

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Depth returns the number of queued payloads.
func (q *IngestQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Run retries queued payloads until ctx is cancelled.
func (q *IngestQueue) Run(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		q.retryDue(ctx, false)

		wait := time.Hour
		if next, ok := q.nextDue(); ok {
			wait = max(next.Sub(q.now()), 0)
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		case <-timer.C:
		}
	}
}

// Drain attempts every queued payload immediately, regardless of backoff,
// and returns the joined errors of those still failing.
func (q *IngestQueue) Drain(ctx context.Context) error {
	return q.retryDue(ctx, true)
}

func (q *IngestQueue) nextDue() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var (
		next  time.Time
		found bool
	)
	for _, item := range q.items {
		if !found || item.next.Before(next) {
			next, found = item.next, true
		}
	}
	return next, found
}

func (q *IngestQueue) retryDue(ctx context.Context, all bool) error {
	q.mu.Lock()
	now := q.now()
	var due []*queuedPayload
	for _, item := range q.items {
		if all || !item.next.After(now) {
			due = append(due, item)
		}
	}
	onRetry := q.onRetry
	q.mu.Unlock()

	var errs []error
	for _, item := range due {
		if err := q.pace.Wait(ctx); err != nil {
			errs = append(errs, err)
			break
		}

		q.mu.Lock()
		payload := item.payload
		q.mu.Unlock()

		result, err := q.sink.Deliver(ctx, payload)
		q.mu.Lock()
		switch {
		case err == nil || !Retryable(err):
			// Only drop the item if no newer payload replaced it meanwhile.
			if item.payload == payload {
				q.remove(item)
			}
		default:
			item.attempts++
			item.lastErr = err
			item.next = q.now().Add(Backoff(item.attempts, q.base, q.limit))
			errs = append(errs, fmt.Errorf("%s: %w", payload.URL, err))
		}
		q.mu.Unlock()

		switch {
		case err == nil:
			if onRetry != nil {
				onRetry(payload, result)
			}
		case !Retryable(err):
			logger.Warn("queued payload rejected", "url", payload.URL, "error", err)
		}
	}
	return errors.Join(errs...)
}

// remove must be called with q.mu held.
func (q *IngestQueue) remove(item *queuedPayload) {
	for i, it := range q.items {
		if it == item {
			q.items = append(q.items[:i], q.items[i+1:]...)
			break
		}
	}
	if q.byURL[item.payload.URL] == item {
		delete(q.byURL, item.payload.URL)
	}
}

// Retryable reports whether a delivery error is worth retrying. Invalid
// and empty payloads will never succeed.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrMissingIdentifier),
		errors.Is(err, domain.ErrExtractionEmpty),
		errors.Is(err, domain.ErrMessageTooLarge),
		errors.Is(err, context.Canceled):
		return false
	default:
		return true
	}
}
