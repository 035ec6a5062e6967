package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRect_Intersect(t *testing.T) {
	screen := Rect{X: 0, Y: 0, Width: 1920, Height: 1080}

	assert.Equal(t, 100*100, screen.Intersect(Rect{X: 10, Y: 10, Width: 100, Height: 100}))
	assert.Equal(t, 50*100, screen.Intersect(Rect{X: 1870, Y: 0, Width: 100, Height: 100}))
	assert.Equal(t, 0, screen.Intersect(Rect{X: 1920, Y: 0, Width: 100, Height: 100}))
	assert.True(t, Rect{Width: 0, Height: 10}.Empty())
	assert.False(t, screen.Empty())
}

func TestReasonForEvent(t *testing.T) {
	r, ok := ReasonForEvent(EventFocusChanged)
	assert.True(t, ok)
	assert.Equal(t, ReasonFocus, r)

	r, ok = ReasonForEvent(EventTitleChanged)
	assert.True(t, ok)
	assert.Equal(t, ReasonTitle, r)

	_, ok = ReasonForEvent(EventDestroyed)
	assert.False(t, ok)
}

func TestFingerprint_Distance(t *testing.T) {
	all := Fingerprint(0xFFFFFFFFFFFFFFFF)

	assert.Equal(t, 0, all.Distance(all))
	assert.Equal(t, 64, all.Distance(0))
	assert.Equal(t, 10, all.Distance(all^0x3FF))
	assert.Equal(t, "ffffffffffffffff", all.String())
}

func TestExtractorKind(t *testing.T) {
	assert.True(t, KindOptical.Valid())
	assert.False(t, ExtractorKind("dom").Valid())
	assert.False(t, KindExternalPush.NeedsCapture())
	assert.True(t, KindAccessibility.NeedsCapture())
}

func TestContentPayload_Validate(t *testing.T) {
	p := &ContentPayload{Source: "slack", URL: "https://x/C1", Content: "hello"}
	require.NoError(t, p.Validate())
	assert.False(t, p.Empty())

	assert.ErrorIs(t, (&ContentPayload{Source: "slack"}).Validate(), ErrMissingIdentifier)
	assert.ErrorIs(t, (&ContentPayload{URL: "x"}).Validate(), ErrInvalidInput)

	var nilPayload *ContentPayload
	assert.ErrorIs(t, nilPayload.Validate(), ErrInvalidInput)
	assert.True(t, nilPayload.Empty())
	assert.True(t, (&ContentPayload{Content: " \n\t"}).Empty())
}

func TestAppScopedPath(t *testing.T) {
	assert.Equal(t, "app://com.apple.Notes/Groceries", AppScopedPath("com.apple.Notes", " Groceries "))
	assert.Equal(t, "app://com.apple.Notes/untitled", AppScopedPath("com.apple.Notes", ""))
}
