package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/agbru/taskcoord/internal/errors"
	"github.com/agbru/taskcoord/internal/logging"
	"github.com/agbru/taskcoord/internal/orchestration"
	"github.com/agbru/taskcoord/internal/statebus"
	"github.com/agbru/taskcoord/internal/sysmon"
)

// Layout constants for the TUI dashboard.
const (
	headerHeight            = 1
	footerHeight            = 1
	minBodyHeight           = 6
	OutputPanelWidthPercent = 65
)

// TickInterval is the resource sampling period.
const TickInterval = 500 * time.Millisecond

// Controller is the part of the coordinator driven by key bindings.
type Controller interface {
	StartLongRunningTask() error
	CancelLongRunningTask()
	ClearText()
	FetchData() error
}

var _ Controller = (*orchestration.Coordinator)(nil)

// LayoutManager holds terminal dimensions and provides layout calculations.
type LayoutManager struct {
	width  int
	height int
}

// bodyHeight returns the available height for the main body panels.
func (l LayoutManager) bodyHeight() int {
	return max(minBodyHeight, l.height-headerHeight-footerHeight)
}

// outputWidth returns the width allocated to the output panel.
func (l LayoutManager) outputWidth() int {
	return l.width * OutputPanelWidthPercent / 100
}

// rightWidth returns the width allocated to the resources panel.
func (l LayoutManager) rightWidth() int {
	return l.width - l.outputWidth()
}

// Model is the root bubbletea model for the TUI dashboard.
type Model struct {
	header    HeaderModel
	output    OutputModel
	resources ResourcesModel
	footer    FooterModel

	keymap KeyMap
	LayoutManager

	ctx    context.Context
	ctrl   Controller
	bus    *statebus.Bus
	logger logging.Logger
	ref    *programRef
	sample func() sysmon.Stats
}

// NewModel creates a new TUI model.
func NewModel(ctx context.Context, ctrl Controller, bus *statebus.Bus, version string) Model {
	km := DefaultKeyMap()
	return Model{
		header:    NewHeaderModel(version),
		output:    NewOutputModel(),
		resources: NewResourcesModel(),
		footer:    NewFooterModel(km.ShortHelp()),
		keymap:    km,
		ctx:       ctx,
		ctrl:      ctrl,
		bus:       bus,
		logger:    logging.NopLogger{},
		ref:       &programRef{},
		sample:    sysmon.Sample,
	}
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), sampleSysStatsCmd(m.sample), watchContextCmd(m.ctx))
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layoutPanels()
		return m, nil

	case StateMsg:
		m.header.Observe(msg.State)
		m.output.Apply(msg.State)
		return m, nil

	case CommandErrorMsg:
		m.logger.Debug("command failed", logging.Err(msg.Err))
		m.footer.SetError(msg.Err)
		return m, nil

	case TickMsg:
		m.resources.UpdateBus(BusStats{
			Subscribers: m.bus.Subscribers(),
			Emitted:     m.bus.Emitted(),
			Dropped:     m.bus.Dropped(),
		})
		return m, tea.Batch(sampleSysStatsCmd(m.sample), tickCmd())

	case SysStatsMsg:
		m.resources.UpdateStats(sysmon.Stats(msg))
		return m, nil

	case BusClosedMsg, ContextCancelledMsg:
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Run):
		m.footer.SetError(nil)
		return m, commandCmd(m.ctrl.StartLongRunningTask)

	case key.Matches(msg, m.keymap.Cancel):
		return m, commandCmd(func() error { m.ctrl.CancelLongRunningTask(); return nil })

	case key.Matches(msg, m.keymap.Clear):
		m.footer.SetError(nil)
		return m, commandCmd(func() error { m.ctrl.ClearText(); return nil })

	case key.Matches(msg, m.keymap.Fetch):
		m.footer.SetError(nil)
		return m, commandCmd(m.ctrl.FetchData)

	case key.Matches(msg, m.keymap.Up), key.Matches(msg, m.keymap.Down),
		key.Matches(msg, m.keymap.PageUp), key.Matches(msg, m.keymap.PageDown):
		m.output.Update(msg)
		return m, nil
	}

	return m, nil
}

// View renders the entire dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.output.View(), m.resources.View())
	return lipgloss.JoinVertical(lipgloss.Left, m.header.View(), body, m.footer.View())
}

func (m *Model) layoutPanels() {
	m.header.SetWidth(m.width)
	m.output.SetSize(m.outputWidth(), m.bodyHeight())
	m.resources.SetSize(m.rightWidth(), m.bodyHeight())
}

// Config holds the TUI run settings.
type Config struct {
	Version string
	Logger  logging.Logger
}

// Run is the public entry point for the TUI mode. It renders the bus until
// the user quits, the bus closes or ctx is done, and returns the exit code.
func Run(ctx context.Context, ctrl Controller, bus *statebus.Bus, cfg Config) int {
	// Rebuild styles from the current ui theme (set by app.Run via InitTheme).
	initTUIStyles()

	model := NewModel(ctx, ctrl, bus, cfg.Version)
	if cfg.Logger != nil {
		model.logger = cfg.Logger
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	// Inject the program reference before subscribing so the bridge can Send.
	model.ref.SetProgram(p)
	stop := orchestration.Observe(ctx, bus, &stateBridge{ref: model.ref}, nil)

	_, err := p.Run()
	model.ref.SetProgram(nil)
	stop()

	switch {
	case err == nil:
		return apperrors.ExitSuccess
	case errors.Is(err, tea.ErrProgramKilled), ctx.Err() != nil:
		return apperrors.ExitErrorCanceled
	default:
		model.logger.Error("tui failed", err)
		return apperrors.ExitErrorGeneric
	}
}

// commandCmd runs a coordinator command off the update loop, since Start
// waits for a superseded task to settle.
func commandCmd(fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return CommandErrorMsg{Err: err}
		}
		return nil
	}
}

// tickCmd returns a command that sends a TickMsg after TickInterval.
func tickCmd() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// sampleSysStatsCmd reads resource usage and returns a SysStatsMsg.
func sampleSysStatsCmd(sample func() sysmon.Stats) tea.Cmd {
	return func() tea.Msg {
		return SysStatsMsg(sample())
	}
}

// watchContextCmd returns ContextCancelledMsg once ctx is done.
func watchContextCmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return ContextCancelledMsg{}
	}
}
