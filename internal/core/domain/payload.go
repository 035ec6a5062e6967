package domain

import (
	"strings"
	"time"
)

// SourceKind identifies where a payload came from (e.g., "slack",
// "browser", "accessibility", "ocr").
type SourceKind string

// Built-in source kinds for payloads produced by local extractors.
const (
	SourceAccessibility SourceKind = "accessibility"
	SourceOCR           SourceKind = "ocr"
	SourceBrowser       SourceKind = "browser"
)

// Payload text formats understood by the normalisers.
const (
	FormatText     = "text"
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

// ContentPayload is extracted content in flight between an extractor and
// the ingestion engine. It is never persisted in this form.
type ContentPayload struct {
	// Source is the source kind.
	Source SourceKind `json:"source"`

	// URL is the canonical identifier: a URL, document id, or
	// application-scoped path.
	URL string `json:"url"`

	// Title is the optional document title.
	Title string `json:"title,omitempty"`

	// Author is the optional author.
	Author string `json:"author,omitempty"`

	// Channel is the optional channel or folder name.
	Channel string `json:"channel,omitempty"`

	// ThreadID is the optional conversation thread identifier.
	ThreadID string `json:"thread_id,omitempty"`

	// App is the application identity that produced the content.
	App string `json:"app,omitempty"`

	// Format is the text format; empty means plain text.
	Format string `json:"format,omitempty"`

	// Content is the raw extracted text.
	Content string `json:"content"`

	// CapturedAt is when the content was captured.
	CapturedAt time.Time `json:"captured_at"`
}

// Validate checks the payload carries the fields needed for ingestion.
func (p *ContentPayload) Validate() error {
	if p == nil {
		return ErrInvalidInput
	}
	if strings.TrimSpace(p.URL) == "" {
		return ErrMissingIdentifier
	}
	if p.Source == "" {
		return ErrInvalidInput
	}
	return nil
}

// Empty reports whether the payload has no usable text.
func (p *ContentPayload) Empty() bool {
	return p == nil || strings.TrimSpace(p.Content) == ""
}

// AppScopedPath builds a canonical identifier for content that has no
// natural URL, scoped to the application and window title.
func AppScopedPath(appID, title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "untitled"
	}
	return "app://" + appID + "/" + title
}
