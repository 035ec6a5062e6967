package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingIdentifier indicates a payload without a canonical identifier.
	ErrMissingIdentifier = errors.New("payload has no canonical identifier")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrInvalidTransition indicates an illegal scheduler state change.
	ErrInvalidTransition = errors.New("invalid state transition")

	// Capture and extraction errors.

	// ErrCaptureFailed indicates the window image could not be captured.
	// It is transient: retried, then handed to the fallback extractor.
	ErrCaptureFailed = errors.New("capture failed")

	// ErrExtractionEmpty indicates a strategy returned no usable text.
	// It is treated as a skip, not a failure.
	ErrExtractionEmpty = errors.New("extraction returned no text")

	// ErrExtractorUnavailable indicates no extractor is registered for a kind.
	ErrExtractorUnavailable = errors.New("extractor unavailable")

	// ErrExtractorsExhausted indicates every strategy in the fallback chain
	// failed. The window is marked problematic for the session.
	ErrExtractorsExhausted = errors.New("extractors exhausted")

	// ErrBlocked indicates the privacy blocklist matched. It is never
	// surfaced to users as an error.
	ErrBlocked = errors.New("blocked by privacy filter")

	// Scheduler errors.

	// ErrWindowGone indicates the window was destroyed while work was in flight.
	ErrWindowGone = errors.New("window no longer tracked")

	// ErrStaleResult indicates a result from a superseded trigger.
	ErrStaleResult = errors.New("stale result")

	// ErrPaused indicates capture is paused.
	ErrPaused = errors.New("capture paused")

	// Transport and storage errors.

	// ErrTransportUnavailable indicates the ingestion channel is down.
	ErrTransportUnavailable = errors.New("transport unavailable")

	// ErrMessageTooLarge indicates a framed message exceeds the channel limit.
	ErrMessageTooLarge = errors.New("message too large")

	// ErrStore indicates a persistent store failure.
	ErrStore = errors.New("store error")
)
