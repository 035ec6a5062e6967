package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/glance/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/glance/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/glance/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/glance/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/glance/internal/adapters/driving/tui/views/windows"
	"github.com/custodia-labs/glance/internal/core/domain"
)

// DefaultPollInterval is how often the monitor refreshes the status.
const DefaultPollInterval = 2 * time.Second

// App is the monitor application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to the daemon via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap
	bar    *status.Bar
	table  *windows.View

	// interval is the poll period.
	interval time.Duration

	// status is the last snapshot received.
	status *domain.SchedulerStatus

	// err holds the last error that occurred.
	err error

	width  int
	height int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a monitor with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	return &App{
		ports:    ports,
		ctx:      context.Background(),
		styles:   s,
		keymap:   km,
		bar:      status.NewBar(s, km),
		table:    windows.NewView(s),
		interval: DefaultPollInterval,
		width:    80,
		height:   24,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// WithInterval sets the poll interval.
func (a *App) WithInterval(d time.Duration) *App {
	if d > 0 {
		a.interval = d
	}
	return a
}

// Init implements tea.Model. It loads the first snapshot, which starts
// the poll cycle.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("glance - capture monitor"),
		a.load(true),
	)
}

// load fetches a status snapshot.
func (a *App) load(polled bool) tea.Cmd {
	return func() tea.Msg {
		s, err := a.ports.Controller.Status(a.ctx)
		return messages.StatusLoaded{Status: s, Err: err, Polled: polled}
	}
}

// tick schedules the next poll.
func (a *App) tick() tea.Cmd {
	return tea.Tick(a.interval, func(time.Time) tea.Msg {
		return messages.PollDue{}
	})
}

// act runs a control command against the daemon.
func (a *App) act(action messages.Action, target string) tea.Cmd {
	return func() tea.Msg {
		var err error
		switch action {
		case messages.ActionPause:
			err = a.ports.Controller.Pause(a.ctx)
		case messages.ActionResume:
			err = a.ports.Controller.Resume(a.ctx)
		case messages.ActionBlock:
			err = a.ports.Controller.Block(a.ctx, target)
		case messages.ActionRefresh:
		}
		return messages.ActionCompleted{Action: action, Target: target, Err: err}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.StatusLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			a.bar.SetError(msg.Err)
		} else if msg.Status != nil {
			a.err = nil
			a.status = msg.Status
			// Action messages survive the refresh they trigger.
			if msg.Polled || a.bar.State() == status.StateError {
				a.bar.SetMessage("")
			}
			a.bar.SetStatus(msg.Status)
			a.table.SetWindows(msg.Status.Windows)
		}
		if msg.Polled {
			return a, a.tick()
		}
		return a, nil

	case messages.PollDue:
		return a, a.load(true)

	case messages.ActionCompleted:
		if msg.Err != nil {
			a.err = msg.Err
			a.bar.SetError(msg.Err)
			return a, nil
		}
		switch msg.Action {
		case messages.ActionBlock:
			a.bar.SetMessage("blocked " + msg.Target)
		case messages.ActionPause, messages.ActionResume:
			a.bar.SetMessage(string(msg.Action) + "d")
		case messages.ActionRefresh:
		}
		return a, a.load(false)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, a.keymap.Quit):
		return a, tea.Quit
	case keymap.Matches(key, a.keymap.Pause):
		return a, a.act(messages.ActionPause, "")
	case keymap.Matches(key, a.keymap.Resume):
		return a, a.act(messages.ActionResume, "")
	case keymap.Matches(key, a.keymap.Refresh):
		return a, a.act(messages.ActionRefresh, "")
	case keymap.Matches(key, a.keymap.Block):
		w, ok := a.table.Selected()
		if !ok {
			return a, nil
		}
		return a, a.act(messages.ActionBlock, w.AppID)
	}
	var cmd tea.Cmd
	a.table, cmd = a.table.Update(msg)
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("glance"))
	b.WriteString(a.styles.Muted.Render(" capture monitor"))
	b.WriteString("\n\n")
	b.WriteString(a.table.View())
	b.WriteString("\n")
	b.WriteString(a.bar.View())
	return b.String()
}

// SetDimensions resizes the monitor.
func (a *App) SetDimensions(width, height int) {
	a.width, a.height = width, height
	a.bar.SetWidth(width)
	a.table.SetDimensions(width, height)
}

// Status returns the last snapshot, or nil before the first load.
func (a *App) Status() *domain.SchedulerStatus {
	return a.status
}

// Err returns the last error.
func (a *App) Err() error {
	return a.err
}

// Run starts the monitor and blocks until the user quits or ctx is done.
func Run(ctx context.Context, ports *Ports, interval time.Duration) error {
	app, err := NewApp(ports)
	if err != nil {
		return err
	}
	app.WithContext(ctx).WithInterval(interval)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("monitor error: %w", err)
	}
	return nil
}
