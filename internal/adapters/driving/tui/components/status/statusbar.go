// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/glance/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/glance/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/glance/internal/core/domain"
)

// State represents the monitor's connection state for display.
type State string

const (
	StateConnecting State = "connecting"
	StateLive       State = "live"
	StatePaused     State = "paused"
	StateError      State = "error"
)

// Bar displays daemon status and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	summary string
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateConnecting,
		width:  80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	switch s.state {
	case StateConnecting:
		return s.styles.Muted.Render("Connecting...")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		}
		return s.styles.Error.Render("Error")
	case StatePaused:
		return s.styles.Warning.Render("Paused") + " " + s.styles.Muted.Render(s.summary)
	case StateLive:
		left := s.styles.Success.Render("Live") + " " + s.styles.Muted.Render(s.summary)
		if s.message != "" {
			left += " " + s.styles.Normal.Render(s.message)
		}
		return left
	}
	return s.styles.Muted.Render(s.summary)
}

func (s *Bar) renderRight() string {
	bindings := s.keymap.ShortHelp()
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetStatus updates the bar from a scheduler snapshot.
func (s *Bar) SetStatus(status *domain.SchedulerStatus) {
	if status == nil {
		return
	}
	if status.Paused {
		s.state = StatePaused
	} else {
		s.state = StateLive
	}
	s.summary = Summary(status)
}

// Summary renders the one-line status summary.
func Summary(status *domain.SchedulerStatus) string {
	return fmt.Sprintf("%d windows · %s (%s) · queue %d · %d extracted",
		len(status.Windows),
		status.PowerMode,
		status.BaseInterval.Round(time.Second),
		status.QueueDepth,
		status.Counters.Extractions,
	)
}

// SetError shows an error.
func (s *Bar) SetError(err error) {
	s.state = StateError
	s.message = err.Error()
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a transient message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Bindings exposes the hinted bindings.
func (s *Bar) Bindings() []key.Binding {
	return s.keymap.ShortHelp()
}
