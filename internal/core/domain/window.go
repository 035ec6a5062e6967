package domain

import "time"

// WindowID is the opaque window identifier reported by the OS.
// It is only stable within a single OS session.
type WindowID string

// DisplayID identifies a physical or virtual display.
type DisplayID string

// Rect is an axis-aligned rectangle in global screen coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Intersect returns the area shared by r and o.
func (r Rect) Intersect(o Rect) int {
	x0 := max(r.X, o.X)
	y0 := max(r.Y, o.Y)
	x1 := min(r.X+r.Width, o.X+o.Width)
	y1 := min(r.Y+r.Height, o.Y+o.Height)
	if x1 <= x0 || y1 <= y0 {
		return 0
	}
	return (x1 - x0) * (y1 - y0)
}

// WindowInfo is a single observation of a window, as produced by an
// enumeration pass. It carries no scheduler state.
type WindowInfo struct {
	// ID is the OS window identifier.
	ID WindowID `json:"id"`

	// AppID is the application identity (bundle id, executable name).
	AppID string `json:"app_id"`

	// AppName is the human-readable application name.
	AppName string `json:"app_name,omitempty"`

	// Title is the window title.
	Title string `json:"title"`

	// Bounds is the window geometry.
	Bounds Rect `json:"bounds"`

	// Layer is the z-order position; lower is closer to the front.
	Layer int `json:"layer"`

	// Focused marks the window holding keyboard focus.
	Focused bool `json:"focused,omitempty"`

	// Minimised marks windows that are not visible on any display.
	Minimised bool `json:"minimised,omitempty"`
}

// Window is the tracked record for a live window.
type Window struct {
	// ID is the OS window identifier.
	ID WindowID

	// DisplayID is the display that contains most of the window.
	DisplayID DisplayID

	// AppID is the application identity used for routing and blocking.
	AppID string

	// AppName is the human-readable application name.
	AppName string

	// Title is the current window title.
	Title string

	// Bounds is the current window geometry.
	Bounds Rect

	// Kind is the extractor strategy currently assigned to the window.
	// Exactly one kind is assigned at any time.
	Kind ExtractorKind

	// Fingerprint is the last accepted perceptual fingerprint.
	Fingerprint Fingerprint

	// HasFingerprint is false until the first capture is hashed.
	HasFingerprint bool

	// ContentDigest is the digest of the last ingested payload.
	ContentDigest string

	// LastExtraction is when content was last extracted for the window.
	LastExtraction time.Time

	// LastCapture is when the window was last captured, whether or not
	// the capture led to an extraction.
	LastCapture time.Time

	// ExtractionCount is the number of successful extractions.
	ExtractionCount int

	// State is the current scheduler state.
	State WindowState

	// Problematic is set after extractor exhaustion; the window is then
	// skipped until it is re-registered.
	Problematic bool

	// Seq is the highest trigger sequence number issued for the window.
	Seq uint64

	// FirstSeen is when the window was first observed.
	FirstSeen time.Time
}

// Display is a tracked display and the windows it currently contains.
type Display struct {
	// ID identifies the display.
	ID DisplayID `json:"id"`

	// Bounds is the display frame in global coordinates.
	Bounds Rect `json:"bounds"`

	// Primary marks the main display.
	Primary bool `json:"primary,omitempty"`

	// Windows holds the ids of windows geometrically contained in the display.
	Windows []WindowID `json:"-"`

	// Topmost is the frontmost window on this display.
	Topmost WindowID `json:"-"`
}

// EventKind names a window lifecycle event.
type EventKind string

// Window events emitted by the tracker.
const (
	EventCreated      EventKind = "created"
	EventDestroyed    EventKind = "destroyed"
	EventFocusChanged EventKind = "focus_changed"
	EventTitleChanged EventKind = "title_changed"
	EventMovedDisplay EventKind = "moved_display"
)

// WindowEvent describes a change observed by the window tracker.
type WindowEvent struct {
	// Kind is the event type.
	Kind EventKind

	// Window is the observation that produced the event. For Destroyed
	// events it is the last known observation.
	Window WindowInfo

	// DisplayID is the display the window belongs to after the event.
	DisplayID DisplayID

	// PreviousDisplayID is set for MovedDisplay events.
	PreviousDisplayID DisplayID

	// At is when the event was observed.
	At time.Time
}

// TriggerReason explains why a window moved to Pending.
type TriggerReason string

// Trigger reasons.
const (
	ReasonTimer   TriggerReason = "timer"
	ReasonFocus   TriggerReason = "focus"
	ReasonTitle   TriggerReason = "title"
	ReasonCreated TriggerReason = "created"
	ReasonDisplay TriggerReason = "display"
	ReasonManual  TriggerReason = "manual"
)

// ReasonForEvent maps a window event to the trigger reason it raises.
// Destroyed events raise no trigger.
func ReasonForEvent(kind EventKind) (TriggerReason, bool) {
	switch kind {
	case EventCreated:
		return ReasonCreated, true
	case EventFocusChanged:
		return ReasonFocus, true
	case EventTitleChanged:
		return ReasonTitle, true
	case EventMovedDisplay:
		return ReasonDisplay, true
	default:
		return "", false
	}
}
