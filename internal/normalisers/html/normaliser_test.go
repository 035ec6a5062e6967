package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportedFormats(t *testing.T) {
	formats := New().SupportedFormats()
	assert.Contains(t, formats, "html")
	assert.Len(t, formats, 2)
}

func TestNormalise(t *testing.T) {
	n := New()
	ctx := context.Background()

	t.Run("converts to markdown", func(t *testing.T) {
		out, err := n.Normalise(ctx, `<h1>Title</h1><p>Visit <a href="https://example.com">Example</a>.</p>`)
		require.NoError(t, err)
		assert.Contains(t, out, "# Title")
		assert.Contains(t, out, "[Example](https://example.com)")
	})

	t.Run("drops scripts and styles", func(t *testing.T) {
		out, err := n.Normalise(ctx, `<html><head><title>T</title><style>p{}</style></head>`+
			`<body><script>alert(1)</script><p>Hello World</p></body></html>`)
		require.NoError(t, err)
		assert.Contains(t, out, "Hello World")
		assert.NotContains(t, out, "alert")
		assert.NotContains(t, out, "p{}")
	})

	t.Run("empty", func(t *testing.T) {
		out, err := n.Normalise(ctx, "  \n")
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("deterministic", func(t *testing.T) {
		in := `<ul><li>First</li><li>Second</li></ul>`
		a, err := n.Normalise(ctx, in)
		require.NoError(t, err)
		b, err := n.Normalise(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.Contains(t, a, "First")
	})
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"paragraphs", "<p>one</p><p>two</p>", "one\ntwo"},
		{"entities", "<p>a &amp; b</p>", "a & b"},
		{"breaks", "a<br>b<br/>c", "a\nb\nc"},
		{"comments", "a<!-- hidden -->b", "ab"},
		{"spaces", "<span>a    b</span>", "a b"},
		{"script", "<script>x()</script>text", "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripHTML(tt.in))
		})
	}
}
