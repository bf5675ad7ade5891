package tui

import (
	"fmt"
	"strings"

	"github.com/agbru/taskcoord/internal/format"
	"github.com/agbru/taskcoord/internal/sysmon"
)

// historyLimit bounds the samples kept for each sparkline.
const historyLimit = 120

// BusStats is a snapshot of the state bus counters.
type BusStats struct {
	Subscribers int
	Emitted     uint64
	Dropped     uint64
}

// ResourcesModel displays host and process usage next to the bus counters.
type ResourcesModel struct {
	cpu    *history
	mem    *history
	stats  sysmon.Stats
	bus    BusStats
	width  int
	height int
}

// NewResourcesModel creates an empty resources panel.
func NewResourcesModel() ResourcesModel {
	return ResourcesModel{cpu: newHistory(historyLimit), mem: newHistory(historyLimit)}
}

// SetSize updates dimensions.
func (r *ResourcesModel) SetSize(w, h int) {
	r.width = w
	r.height = h
}

// UpdateStats records a resource sample.
func (r *ResourcesModel) UpdateStats(s sysmon.Stats) {
	r.stats = s
	r.cpu.Push(s.CPUPercent)
	r.mem.Push(s.MemPercent)
}

// UpdateBus records the bus counters.
func (r *ResourcesModel) UpdateBus(b BusStats) {
	r.bus = b
}

// View renders the panel.
func (r ResourcesModel) View() string {
	sparkWidth := max(0, r.width-16)
	row := func(label, value string) string {
		return metricLabelStyle.Render(fmt.Sprintf("%-11s", label)) + metricValueStyle.Render(value)
	}
	lines := []string{
		panelTitleStyle.Render("Resources"),
		row("CPU", fmt.Sprintf("%5.1f%%", r.cpu.Last())),
		cpuSparklineStyle.Render(r.cpu.Sparkline(sparkWidth)),
		row("Memory", fmt.Sprintf("%5.1f%%", r.mem.Last())),
		memSparklineStyle.Render(r.mem.Sparkline(sparkWidth)),
		row("Goroutines", fmt.Sprintf("%d", r.stats.Goroutines)),
		row("Heap", format.FormatBytes(r.stats.HeapAlloc)),
		row("Events", fmt.Sprintf("%d emitted, %d dropped", r.bus.Emitted, r.bus.Dropped)),
		row("Subscribers", fmt.Sprintf("%d", r.bus.Subscribers)),
	}
	if inner := r.height - 2; inner > 0 && len(lines) > inner {
		lines = lines[:inner]
	}
	return panelStyle.Width(max(0, r.width-2)).Render(strings.Join(lines, "\n"))
}
