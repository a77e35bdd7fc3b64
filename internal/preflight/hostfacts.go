package preflight

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostFacts carries best-effort host capacity readings. The dashboard is a
// data-heavy process; a refusing-to-start installation is often just a full
// disk or exhausted memory.
type HostFacts struct {
	MemTotal     uint64
	MemAvailable uint64
	DiskTotal    uint64
	DiskFree     uint64
	Errors       []string
}

func CollectHostFacts(projectDir string) HostFacts {
	var facts HostFacts

	if vm, err := mem.VirtualMemory(); err != nil {
		facts.Errors = append(facts.Errors, fmt.Sprintf("memory: %v", err))
	} else {
		facts.MemTotal = vm.Total
		facts.MemAvailable = vm.Available
	}

	if usage, err := disk.Usage(projectDir); err != nil {
		facts.Errors = append(facts.Errors, fmt.Sprintf("disk: %v", err))
	} else {
		facts.DiskTotal = usage.Total
		facts.DiskFree = usage.Free
	}
	return facts
}

// HumanBytes renders a byte count for doctor output.
func HumanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
