package tui

import (
	"time"

	"github.com/agbru/taskcoord/internal/state"
	"github.com/agbru/taskcoord/internal/sysmon"
)

// StateMsg carries a bus state into the program.
type StateMsg struct {
	State state.State
}

// BusClosedMsg reports that the subscription ended.
type BusClosedMsg struct{}

// CommandErrorMsg reports a failed coordinator command.
type CommandErrorMsg struct {
	Err error
}

// TickMsg triggers periodic sampling.
type TickMsg time.Time

// SysStatsMsg carries a resource sample.
type SysStatsMsg sysmon.Stats

// ContextCancelledMsg reports that the parent context is done.
type ContextCancelledMsg struct{}
