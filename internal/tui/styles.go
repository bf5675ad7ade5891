package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/taskcoord/internal/state"
	"github.com/agbru/taskcoord/internal/ui"
)

// Style variables for the TUI dashboard.
// Initialized from the ui theme system via initTUIStyles().
var (
	panelStyle         lipgloss.Style
	panelTitleStyle    lipgloss.Style
	headerStyle        lipgloss.Style
	titleStyle         lipgloss.Style
	versionStyle       lipgloss.Style
	elapsedStyle       lipgloss.Style
	outputTextStyle    lipgloss.Style
	metricLabelStyle   lipgloss.Style
	metricValueStyle   lipgloss.Style
	footerKeyStyle     lipgloss.Style
	footerDescStyle    lipgloss.Style
	statusIdleStyle    lipgloss.Style
	statusRunningStyle lipgloss.Style
	statusDoneStyle    lipgloss.Style
	statusCancelStyle  lipgloss.Style
	statusErrorStyle   lipgloss.Style
	cpuSparklineStyle  lipgloss.Style
	memSparklineStyle  lipgloss.Style
)

func init() {
	initTUIStyles()
}

// initTUIStyles rebuilds all TUI styles from the current ui theme.
// Called at package init and again from Run() after InitTheme has been invoked.
func initTUIStyles() {
	t := ui.GetCurrentTUITheme()

	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Foreground(t.Text)

	panelTitleStyle = lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Accent).
		Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Accent)

	versionStyle = lipgloss.NewStyle().
		Foreground(t.Dim)

	elapsedStyle = lipgloss.NewStyle().
		Foreground(t.Accent)

	outputTextStyle = lipgloss.NewStyle().
		Foreground(t.Text)

	metricLabelStyle = lipgloss.NewStyle().
		Foreground(t.Dim)

	metricValueStyle = lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	footerKeyStyle = lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	footerDescStyle = lipgloss.NewStyle().
		Foreground(t.Dim)

	statusIdleStyle = lipgloss.NewStyle().
		Foreground(t.Dim).
		Bold(true)

	statusRunningStyle = lipgloss.NewStyle().
		Foreground(t.StateColor(state.KindRunning)).
		Bold(true)

	statusDoneStyle = lipgloss.NewStyle().
		Foreground(t.StateColor(state.KindFinished)).
		Bold(true)

	statusCancelStyle = lipgloss.NewStyle().
		Foreground(t.StateColor(state.KindCancelled)).
		Bold(true)

	statusErrorStyle = lipgloss.NewStyle().
		Foreground(t.StateColor(state.KindOperationFailed)).
		Bold(true)

	cpuSparklineStyle = lipgloss.NewStyle().
		Foreground(t.Accent)

	memSparklineStyle = lipgloss.NewStyle().
		Foreground(t.Warning)
}

// lineStyle picks the style of a transcript line from the state that wrote it.
func lineStyle(k state.Kind) lipgloss.Style {
	switch k {
	case state.KindRunning:
		return statusRunningStyle
	case state.KindFinished:
		return statusDoneStyle
	case state.KindCancelled:
		return statusCancelStyle
	case state.KindOperationFailed:
		return statusErrorStyle
	default:
		return outputTextStyle
	}
}
