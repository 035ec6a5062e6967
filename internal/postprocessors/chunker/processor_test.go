package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		assert.Equal(t, DefaultChunkSize, p.ChunkSize())
		assert.Equal(t, DefaultChunkOverlap, p.Overlap())
		assert.Equal(t, "token", p.Name())
	})

	t.Run("custom chunk size", func(t *testing.T) {
		assert.Equal(t, 500, New(WithChunkSize(500)).ChunkSize())
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1))
		assert.Equal(t, DefaultChunkSize, p.ChunkSize())
		assert.Equal(t, DefaultChunkOverlap, p.Overlap())
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		p := New(WithChunkSize(100), WithOverlap(150))
		assert.Equal(t, 25, p.Overlap())
	})
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"whitespace", " \n\t ", nil},
		{"words", "hello world", []string{"hello", "world"}},
		{"punctuation", "hello, world!", []string{"hello", ",", "world", "!"}},
		{"digits join letters", "abc123 4.5", []string{"abc123", "4", ".", "5"}},
		{"symbols", "a+b=$", []string{"a", "+", "b", "=", "$"}},
		{"unicode", "naïve café", []string{"naïve", "café"}},
		{"combining mark", "café", []string{"café"}},
		{"url", "https://x/C1", []string{"https", ":", "/", "/", "x", "/", "C1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, s := range Tokenize(tt.in) {
				got = append(got, tt.in[s.Start:s.End])
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenize_InvalidUTF8(t *testing.T) {
	in := "a\xffb"
	spans := Tokenize(in)
	require.Len(t, spans, 3)
	for _, s := range spans {
		assert.LessOrEqual(t, s.End, len(in))
	}
}

func TestSplit(t *testing.T) {
	ctx := context.Background()

	t.Run("empty text has no chunks", func(t *testing.T) {
		chunks, err := New().Split(ctx, "   ")
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("short text is one chunk", func(t *testing.T) {
		chunks, err := New().Split(ctx, "hello world")
		require.NoError(t, err)
		assert.Equal(t, []string{"hello world"}, chunks)
	})

	t.Run("fixed token count", func(t *testing.T) {
		chunks, err := New(WithChunkSize(3)).Split(ctx, "one two, three four five six")
		require.NoError(t, err)
		assert.Equal(t, []string{"one two,", "three four five", "six"}, chunks)
	})

	t.Run("original spans kept", func(t *testing.T) {
		chunks, err := New(WithChunkSize(2)).Split(ctx, "a  b\n\nc")
		require.NoError(t, err)
		assert.Equal(t, []string{"a  b", "c"}, chunks)
	})

	t.Run("overlap", func(t *testing.T) {
		chunks, err := New(WithChunkSize(3), WithOverlap(1)).Split(ctx, "a b c d e")
		require.NoError(t, err)
		assert.Equal(t, []string{"a b c", "c d e"}, chunks)
	})

	t.Run("exact multiple", func(t *testing.T) {
		chunks, err := New(WithChunkSize(2)).Split(ctx, "a b c d")
		require.NoError(t, err)
		assert.Equal(t, []string{"a b", "c d"}, chunks)
	})

	t.Run("default size", func(t *testing.T) {
		text := strings.Repeat("word ", 2500)
		chunks, err := New().Split(ctx, text)
		require.NoError(t, err)
		require.Len(t, chunks, 3)
		assert.Equal(t, 1024, Count(chunks[0]))
		assert.Equal(t, 1024, Count(chunks[1]))
		assert.Equal(t, 452, Count(chunks[2]))
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := New().Split(cctx, "a b")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
