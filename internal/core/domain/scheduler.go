package domain

import "time"

// WindowStatus is a read-only view of one tracked window.
type WindowStatus struct {
	// ID is the OS window identifier.
	ID WindowID `json:"id"`

	// AppID is the application identity.
	AppID string `json:"app_id"`

	// Title is the current window title.
	Title string `json:"title"`

	// DisplayID is the containing display.
	DisplayID DisplayID `json:"display_id,omitempty"`

	// Kind is the assigned extractor strategy.
	Kind ExtractorKind `json:"kind"`

	// State is the scheduler state.
	State WindowState `json:"state"`

	// LastExtraction is when content was last extracted.
	LastExtraction time.Time `json:"last_extraction,omitempty"`

	// ExtractionCount is the number of successful extractions.
	ExtractionCount int `json:"extraction_count"`

	// Problematic marks windows skipped for the session.
	Problematic bool `json:"problematic,omitempty"`
}

// SchedulerStatus summarises the capture scheduler.
type SchedulerStatus struct {
	// Running indicates the scheduler loop is active.
	Running bool `json:"running"`

	// Paused indicates capture is paused by the user.
	Paused bool `json:"paused"`

	// PowerMode is the mode used for the most recent tick.
	PowerMode PowerMode `json:"power_mode"`

	// BaseInterval is the base capture interval for the current mode.
	BaseInterval time.Duration `json:"base_interval"`

	// Windows lists tracked windows.
	Windows []WindowStatus `json:"windows"`

	// QueueDepth is the number of payloads waiting for ingestion retry.
	QueueDepth int `json:"queue_depth"`

	// Counters are lifetime totals since the scheduler started.
	Counters SchedulerCounters `json:"counters"`
}

// SchedulerCounters are lifetime scheduler totals.
type SchedulerCounters struct {
	Triggers    int64 `json:"triggers"`
	Coalesced   int64 `json:"coalesced"`
	Captures    int64 `json:"captures"`
	Unchanged   int64 `json:"unchanged"`
	Extractions int64 `json:"extractions"`
	Blocked     int64 `json:"blocked"`
	Stale       int64 `json:"stale"`
	Failures    int64 `json:"failures"`
	Pushed      int64 `json:"pushed"`
}
