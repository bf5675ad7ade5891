// Package sysmon samples host and process resource usage for the dashboard
// footer and the Prometheus host gauges.
package sysmon

import (
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Stats holds a single snapshot of resource usage.
type Stats struct {
	CPUPercent float64 // system-wide, 0.0 .. 100.0
	MemPercent float64 // system-wide, 0.0 .. 100.0
	Goroutines int     // goroutines of this process
	HeapAlloc  uint64  // bytes allocated on this process's heap
}

// Sample collects a single snapshot.
// CPU uses interval=0 (delta since last call). Host values are zero on error.
func Sample() Stats {
	s := Process()
	cpuPcts, err := cpu.Percent(0, false)
	if err == nil && len(cpuPcts) > 0 {
		s.CPUPercent = cpuPcts[0]
	}
	vmem, err := mem.VirtualMemory()
	if err == nil && vmem != nil {
		s.MemPercent = vmem.UsedPercent
	}
	return s
}

// Process returns the process-local fields only.
func Process() Stats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return Stats{
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  m.HeapAlloc,
	}
}
