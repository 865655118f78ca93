package health

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostInfo summarizes the machine camera-core is running on.
type HostInfo struct {
	OS              string  `json:"os"`
	Platform        string  `json:"platform"`
	PlatformVersion string  `json:"platformVersion"`
	CPUPercent      float64 `json:"cpuPercent"`
	MemoryUsedBytes uint64  `json:"memoryUsedBytes"`
	MemoryTotal     uint64  `json:"memoryTotalBytes"`
	MemoryPercent   float64 `json:"memoryPercent"`
}

// SystemHealth is the payload for the get_system_health IPC method.
type SystemHealth struct {
	UptimeSeconds float64  `json:"uptimeSeconds"`
	Goroutines    int      `json:"goroutines"`
	Host          HostInfo `json:"host"`
}

// Reporter collects SystemHealth snapshots. Constructed once at process
// startup; startTime anchors the uptime calculation.
type Reporter struct {
	startTime time.Time
}

// NewReporter creates a health reporter anchored to the current time.
func NewReporter() *Reporter {
	return &Reporter{startTime: time.Now()}
}

// Report gathers a fresh SystemHealth snapshot. CPU sampling blocks for up
// to 200ms to get a meaningful instantaneous percentage; callers on a hot
// path should not call this more than a few times a second.
func (r *Reporter) Report(ctx context.Context) (*SystemHealth, error) {
	hostInfo, err := r.hostInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("gather host info: %w", err)
	}

	return &SystemHealth{
		UptimeSeconds: time.Since(r.startTime).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		Host:          *hostInfo,
	}, nil
}

func (r *Reporter) hostInfo(ctx context.Context) (*HostInfo, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("host info: %w", err)
	}

	cpuPercents, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false)
	if err != nil {
		return nil, fmt.Errorf("cpu percent: %w", err)
	}
	var cpuPercent float64
	if len(cpuPercents) > 0 {
		cpuPercent = cpuPercents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("virtual memory: %w", err)
	}

	return &HostInfo{
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		CPUPercent:      cpuPercent,
		MemoryUsedBytes: vm.Used,
		MemoryTotal:     vm.Total,
		MemoryPercent:   vm.UsedPercent,
	}, nil
}
