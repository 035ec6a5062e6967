package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		key     string
		binding key.Binding
		match   bool
	}{
		{"q quits", "q", km.Quit, true},
		{"ctrl+c quits", "ctrl+c", km.Quit, true},
		{"p pauses", "p", km.Pause, true},
		{"r resumes", "r", km.Resume, true},
		{"b blocks", "b", km.Block, true},
		{"u refreshes", "u", km.Refresh, true},
		{"k moves up", "k", km.Up, true},
		{"j moves down", "j", km.Down, true},
		{"x does not pause", "x", km.Pause, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.match, Matches(tt.key, tt.binding))
		})
	}
}

func TestKeyMap_Help(t *testing.T) {
	km := DefaultKeyMap()

	short := km.ShortHelp()
	assert.Len(t, short, 4)
	assert.Equal(t, "pause", short[0].Help().Desc)
	assert.Equal(t, "quit", short[3].Help().Desc)

	full := km.FullHelp()
	assert.Len(t, full, 3)
	assert.Len(t, full[1], 4)
}
