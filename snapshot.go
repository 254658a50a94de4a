// FILE: snapshot.go
package crashlog

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// processSnapshot renders a one-line process and host summary for fault
// headers. Each probe is best effort, failed probes are left out.
func processSnapshot() string {
	pid := os.Getpid()
	parts := []string{
		fmt.Sprintf("pid=%d", pid),
		fmt.Sprintf("goroutines=%d", runtime.NumGoroutine()),
	}

	if p, err := process.NewProcess(int32(pid)); err == nil {
		if mi, err := p.MemoryInfo(); err == nil && mi != nil {
			parts = append(parts, fmt.Sprintf("rss_mb=%.2f", float64(mi.RSS)/(sizeMultiplier*sizeMultiplier)))
		}
		if n, err := p.NumThreads(); err == nil {
			parts = append(parts, fmt.Sprintf("threads=%d", n))
		}
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	parts = append(parts, fmt.Sprintf("heap_alloc_mb=%.2f", float64(memStats.HeapAlloc)/(sizeMultiplier*sizeMultiplier)))

	if vm, err := mem.VirtualMemory(); err == nil {
		parts = append(parts, fmt.Sprintf("sys_mem_used=%.1f%%", vm.UsedPercent))
	}
	if avg, err := load.Avg(); err == nil {
		parts = append(parts, fmt.Sprintf("load1=%.2f", avg.Load1))
	}

	return "process: " + strings.Join(parts, " ")
}
