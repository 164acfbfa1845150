// Package system reads host resource usage for the status endpoint.
package system

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// CPUPercent returns the host's total CPU utilization as a percentage.
func CPUPercent() (float64, error) {
	usage, err := cpu.Percent(0, false)
	if err != nil {
		return 0, fmt.Errorf("could not read cpu usage: %w", err)
	}
	if len(usage) == 0 {
		return 0, fmt.Errorf("no cpu usage reported")
	}
	return usage[0], nil
}

// MemoryPercent returns the host's used memory as a percentage of the total.
func MemoryPercent() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("could not read memory usage: %w", err)
	}
	return vm.UsedPercent, nil
}
