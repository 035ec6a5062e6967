package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"markdown", "md"}, New().SupportedFormats())
}

func TestStrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"heading", "# Title", "Title"},
		{"link", "see [the docs](https://example.com) now", "see the docs now"},
		{"image", "before ![alt](img.png) after", "before  after"},
		{"bold", "a **bold** move", "a bold move"},
		{"underscore bold", "a __bold__ move", "a bold move"},
		{"snake case kept", "call my_func_name", "call my_func_name"},
		{"list", "- one\n- two", "one\ntwo"},
		{"nested list", "- one\n  - two", "one\n  two"},
		{"quote", "> quoted", "quoted"},
		{"rule", "above\n---\nbelow", "above\n\nbelow"},
		{"front matter", "---\ntitle: x\n---\nbody", "body"},
		{"code kept", "```go\nfmt.Println(1)\n```", "fmt.Println(1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Strip(tt.in))
		})
	}
}

func TestNormalise(t *testing.T) {
	out, err := New().Normalise(context.Background(), "# Notes\n\n\n\n* item   \n")
	require.NoError(t, err)
	assert.Equal(t, "Notes\n\nitem", out)
}
