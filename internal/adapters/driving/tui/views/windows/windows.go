// Package windows provides the tracked-window table of the monitor.
package windows

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/glance/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/glance/internal/core/domain"
)

// Column widths; the title column takes the remaining space.
const (
	appWidth         = 28
	kindWidth        = 14
	stateWidth       = 12
	extractionsWidth = 6
	minTitleWidth    = 12
)

// View renders tracked windows as a table.
type View struct {
	styles  *styles.Styles
	table   table.Model
	windows []domain.WindowStatus
	width   int
	height  int
}

// NewView creates the windows table.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	ts := table.DefaultStyles()
	ts.Header = s.Header
	ts.Selected = s.Selected

	v := &View{
		styles: s,
		table: table.New(
			table.WithFocused(true),
			table.WithStyles(ts),
		),
	}
	v.SetDimensions(80, 24)
	return v
}

func columns(width int) []table.Column {
	title := width - appWidth - kindWidth - stateWidth - extractionsWidth - 10
	if title < minTitleWidth {
		title = minTitleWidth
	}
	return []table.Column{
		{Title: "App", Width: appWidth},
		{Title: "Title", Width: title},
		{Title: "Kind", Width: kindWidth},
		{Title: "State", Width: stateWidth},
		{Title: "Ext", Width: extractionsWidth},
	}
}

// SetDimensions resizes the table to the terminal.
func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
	v.table.SetColumns(columns(width))
	v.table.SetWidth(width)
	// Title, blank line and status bar.
	v.table.SetHeight(max(height-4, 3))
}

// SetWindows replaces the table contents. Windows are ordered by
// application, then title, so rows do not jump between polls.
func (v *View) SetWindows(windows []domain.WindowStatus) {
	sorted := append([]domain.WindowStatus(nil), windows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].AppID != sorted[j].AppID {
			return sorted[i].AppID < sorted[j].AppID
		}
		return sorted[i].Title < sorted[j].Title
	})
	v.windows = sorted

	rows := make([]table.Row, len(sorted))
	for i, w := range sorted {
		state := string(w.State)
		if w.Problematic && w.State != domain.StateProblematic {
			state += "!"
		}
		rows[i] = table.Row{
			w.AppID,
			w.Title,
			string(w.Kind),
			state,
			fmt.Sprintf("%d", w.ExtractionCount),
		}
	}
	v.table.SetRows(rows)
	if cursor := v.table.Cursor(); cursor >= len(rows) && len(rows) > 0 {
		v.table.SetCursor(len(rows) - 1)
	}
}

// Windows returns the displayed windows in table order.
func (v *View) Windows() []domain.WindowStatus {
	return v.windows
}

// Selected returns the highlighted window.
func (v *View) Selected() (domain.WindowStatus, bool) {
	cursor := v.table.Cursor()
	if cursor < 0 || cursor >= len(v.windows) {
		return domain.WindowStatus{}, false
	}
	return v.windows[cursor], true
}

// Update forwards navigation keys to the table.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	var cmd tea.Cmd
	v.table, cmd = v.table.Update(msg)
	return v, cmd
}

// View renders the table, or a placeholder when nothing is tracked.
func (v *View) View() string {
	if len(v.windows) == 0 {
		return v.styles.Muted.Render("No windows tracked yet.")
	}
	return v.table.View()
}
