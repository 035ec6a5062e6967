package services

import (
	"regexp"
	"strings"
	"sync"

	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/core/ports/driving"
)

// Ensure PrivacyFilter implements the interface.
var _ driving.PrivacyFilter = (*PrivacyFilter)(nil)

// Redaction placeholders. Each class has its own token so downstream
// consumers can tell redactions apart.
const (
	RedactedCard  = "[REDACTED_CARD]"
	RedactedGovID = "[REDACTED_GOV_ID]"
	RedactedKey   = "[REDACTED_KEY]"
	RedactedEmail = "[REDACTED_EMAIL]"
	RedactedPhone = "[REDACTED_PHONE]"
)

var (
	// 13-19 digits, optionally grouped by single spaces or dashes.
	cardPattern = regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`)
	digitGroup  = regexp.MustCompile(`\d+`)

	// US social security numbers and UK national insurance numbers.
	govIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		regexp.MustCompile(`\b[A-CEGHJ-PR-TW-Z][A-CEGHJ-NPR-TW-Z] ?\d{2} ?\d{2} ?\d{2} ?[A-D]\b`),
	}

	// key=value and key: value idioms. The key name is kept.
	keyValuePattern = regexp.MustCompile(
		`(?i)\b((?:api[_-]?key|apikey|access[_-]?key|secret(?:[_-]?key)?|client[_-]?secret|` +
			`(?:access|auth|refresh|bearer|session)?[_-]?token|password|passwd|pwd|private[_-]?key)` +
			`["']?\s*[:=]\s*)["']?[^\s"',;&]+["']?`)

	// Well-known token shapes that appear without a key name.
	tokenPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9\-._~+/]{16,}=*`),
		regexp.MustCompile(`\b(?:sk|pk|rk)_(?:live|test)_[A-Za-z0-9]{16,}\b`),
		regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`),
		regexp.MustCompile(`\bxox[abpr]-[A-Za-z0-9-]{10,}\b`),
		regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
	}

	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	phonePatterns = []*regexp.Regexp{
		// North American style: (555) 123-4567, 555.123.4567, +1 555 123 4567.
		regexp.MustCompile(`(?:\+\d{1,3}[\s.-]?)?(?:\(\d{3}\)\s?|\d{3}[\s.-])\d{3}[\s.-]\d{4}\b`),
		// International: +44 20 7946 0958.
		regexp.MustCompile(`\+\d{1,3}(?:[\s.-]?\d{2,4}){2,4}\b`),
	}
)

// PrivacyFilter matches windows against the application and title
// blocklists and redacts sensitive substrings from extracted text.
// Blocklists are guarded for concurrent use and can be reloaded.
type PrivacyFilter struct {
	mu       sync.RWMutex
	apps     appMatcher
	keywords []string
}

// NewPrivacyFilter creates a filter from privacy settings.
func NewPrivacyFilter(settings domain.PrivacySettings) *PrivacyFilter {
	f := &PrivacyFilter{}
	f.Reload(settings)
	return f
}

// Reload replaces both blocklists.
func (f *PrivacyFilter) Reload(settings domain.PrivacySettings) {
	apps := newAppMatcher(settings.BlockedApps)
	keywords := make([]string, 0, len(settings.SensitiveTitleKeywords))
	for _, kw := range settings.SensitiveTitleKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}

	f.mu.Lock()
	f.apps = apps
	f.keywords = keywords
	f.mu.Unlock()
}

// Block adds an application identity or wildcard pattern at runtime.
func (f *PrivacyFilter) Block(appID string) {
	f.mu.Lock()
	f.apps.add(appID)
	f.mu.Unlock()
}

// BlockedApps returns the normalised application blocklist, sorted.
func (f *PrivacyFilter) BlockedApps() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.apps.list()
}

// BlocksApp reports whether an application identity is on the blocklist.
func (f *PrivacyFilter) BlocksApp(appID string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.apps.match(appID)
}

// ShouldBlock reports whether a window must never be captured.
func (f *PrivacyFilter) ShouldBlock(appID, title string) bool {
	if appID != "" && f.BlocksApp(appID) {
		return true
	}
	if title == "" {
		return false
	}
	title = strings.ToLower(title)
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, kw := range f.keywords {
		if strings.Contains(title, kw) {
			return true
		}
	}
	return false
}

// Redact replaces sensitive substrings with class placeholders. Classes
// are applied in order: card numbers, government ids, keys and tokens,
// email addresses, phone numbers.
func (f *PrivacyFilter) Redact(text string) string {
	return Redact(text)
}

// Redact is the stateless redaction pass used by PrivacyFilter.
func Redact(text string) string {
	if text == "" {
		return text
	}

	text = cardPattern.ReplaceAllStringFunc(text, func(m string) string {
		if luhnValid(m) {
			return RedactedCard
		}
		return redactCardGroups(m)
	})

	for _, re := range govIDPatterns {
		text = re.ReplaceAllString(text, RedactedGovID)
	}

	text = keyValuePattern.ReplaceAllString(text, "${1}"+RedactedKey)
	for _, re := range tokenPatterns {
		text = re.ReplaceAllString(text, RedactedKey)
	}

	text = emailPattern.ReplaceAllString(text, RedactedEmail)

	for _, re := range phonePatterns {
		text = replaceIsolated(re, text, RedactedPhone)
	}
	return text
}

// redactCardGroups handles a card-like match that fails the checksum as a
// whole. The match may have absorbed a neighbouring number, such as an
// expiry date or an amount, so runs of whole digit groups are tried
// longest first and every run that is a valid card number is replaced.
func redactCardGroups(m string) string {
	groups := digitGroup.FindAllStringIndex(m, -1)
	var b strings.Builder
	last := 0
	for i := 0; i < len(groups); {
		end := -1
		for j := len(groups) - 1; j >= i; j-- {
			span := m[groups[i][0]:groups[j][1]]
			if n := countDigits(span); n >= 13 && n <= 19 && luhnValid(span) {
				end = j
				break
			}
		}
		if end < 0 {
			i++
			continue
		}
		b.WriteString(m[last:groups[i][0]])
		b.WriteString(RedactedCard)
		last = groups[end][1]
		i = end + 1
	}
	if last == 0 {
		return m
	}
	b.WriteString(m[last:])
	return b.String()
}

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if isDigit(s[i]) {
			n++
		}
	}
	return n
}

// replaceIsolated replaces matches that are not embedded in a longer
// digit sequence, so fragments of card-like numbers survive.
func replaceIsolated(re *regexp.Regexp, text, placeholder string) string {
	matches := re.FindAllStringIndex(text, -1)
	if matches == nil {
		return text
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if embeddedInNumber(text, start, end) {
			continue
		}
		b.WriteString(text[last:start])
		b.WriteString(placeholder)
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

func embeddedInNumber(text string, start, end int) bool {
	if start > 0 {
		prev := text[start-1]
		if isDigit(prev) {
			return true
		}
		if (prev == '-' || prev == '.') && start > 1 && isDigit(text[start-2]) {
			return true
		}
	}
	if end < len(text) {
		next := text[end]
		if isDigit(next) {
			return true
		}
		if (next == '-' || next == '.') && end+1 < len(text) && isDigit(text[end+1]) {
			return true
		}
	}
	return false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// luhnValid reports whether the digits in s pass the Luhn checksum.
// Separators are ignored.
func luhnValid(s string) bool {
	var sum, n int
	double := false
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		if !isDigit(c) {
			continue
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
		n++
	}
	return n >= 13 && sum%10 == 0
}

// matchWildcard matches s against a pattern in which '*' matches any
// run of characters, including none.
func matchWildcard(pattern, s string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == s
	}
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]
	lastPart := parts[len(parts)-1]
	for _, part := range parts[1 : len(parts)-1] {
		idx := strings.Index(s, part)
		if idx < 0 {
			return false
		}
		s = s[idx+len(part):]
	}
	return strings.HasSuffix(s, lastPart)
}
