package driving

import "github.com/custodia-labs/glance/internal/core/domain"

// PrivacyFilter decides which windows may be captured and scrubs
// sensitive substrings from extracted text.
type PrivacyFilter interface {
	// ShouldBlock reports whether a window must never be captured.
	ShouldBlock(appID, title string) bool

	// Redact replaces sensitive substrings with class placeholders.
	Redact(text string) string
}

// ExtractorRouter maps an application identity to an extraction strategy.
type ExtractorRouter interface {
	// Route returns the preferred extractor kind for an application.
	Route(appID string) domain.ExtractorKind
}
