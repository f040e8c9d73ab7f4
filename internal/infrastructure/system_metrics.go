package infrastructure

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"go.opentelemetry.io/otel/metric"
)

// SystemStats holds current process and host statistics
type SystemStats struct {
	GoRoutines      int64         `json:"goroutines"`
	HeapAlloc       uint64        `json:"heap_alloc_bytes"`
	ProcessRSS      uint64        `json:"process_rss_bytes"`
	HostMemoryTotal uint64        `json:"host_memory_total_bytes"`
	HostMemoryUsed  float64       `json:"host_memory_used_percent"`
	HostCPUUsage    float64       `json:"host_cpu_percent"`
	CPUCount        int           `json:"cpu_count"`
	ProcessUptime   time.Duration `json:"-"`
	UptimeSeconds   float64       `json:"uptime_seconds"`
	Timestamp       time.Time     `json:"timestamp"`
}

// SystemMetricsCollector samples runtime and host statistics and exposes
// them as observable gauges.
type SystemMetricsCollector struct {
	startTime time.Time
	proc      *process.Process

	mu   sync.RWMutex
	last *SystemStats
}

// NewSystemMetricsCollector creates a collector and registers its gauges on meter.
// A nil meter skips registration.
func NewSystemMetricsCollector(meter metric.Meter) (*SystemMetricsCollector, error) {
	c := &SystemMetricsCollector{startTime: time.Now()}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		c.proc = p
	}

	if meter == nil {
		return c, nil
	}

	goroutines, err := meter.Int64ObservableGauge("system_goroutines",
		metric.WithDescription("Number of active goroutines"))
	if err != nil {
		return nil, fmt.Errorf("failed to create goroutine gauge: %w", err)
	}
	heap, err := meter.Int64ObservableGauge("system_heap_alloc_bytes",
		metric.WithDescription("Bytes of allocated heap objects"), metric.WithUnit("By"))
	if err != nil {
		return nil, fmt.Errorf("failed to create heap gauge: %w", err)
	}
	hostMem, err := meter.Float64ObservableGauge("system_host_memory_used_percent",
		metric.WithDescription("Host memory used percentage"), metric.WithUnit("%"))
	if err != nil {
		return nil, fmt.Errorf("failed to create host memory gauge: %w", err)
	}

	_, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		o.ObserveInt64(goroutines, int64(runtime.NumGoroutine()))
		o.ObserveInt64(heap, int64(ms.HeapAlloc))
		if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
			o.ObserveFloat64(hostMem, vm.UsedPercent)
		}
		return nil
	}, goroutines, heap, hostMem)
	if err != nil {
		return nil, fmt.Errorf("failed to register system metrics callback: %w", err)
	}

	return c, nil
}

// Collect samples the current statistics. Host readings that fail leave their fields zero.
func (c *SystemMetricsCollector) Collect(ctx context.Context) *SystemStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	uptime := time.Since(c.startTime)
	stats := &SystemStats{
		GoRoutines:    int64(runtime.NumGoroutine()),
		HeapAlloc:     ms.HeapAlloc,
		CPUCount:      runtime.NumCPU(),
		ProcessUptime: uptime,
		UptimeSeconds: uptime.Seconds(),
		Timestamp:     time.Now().UTC(),
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.HostMemoryTotal = vm.Total
		stats.HostMemoryUsed = vm.UsedPercent
	}
	// Interval 0 compares against the previous call instead of blocking.
	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		stats.HostCPUUsage = pct[0]
	}
	if c.proc != nil {
		if info, err := c.proc.MemoryInfoWithContext(ctx); err == nil {
			stats.ProcessRSS = info.RSS
		}
	}

	c.mu.Lock()
	c.last = stats
	c.mu.Unlock()

	return stats
}

// Last returns the most recent sample, or nil before the first Collect.
func (c *SystemMetricsCollector) Last() *SystemStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// StartTime returns when the collector was created
func (c *SystemMetricsCollector) StartTime() time.Time {
	return c.startTime
}
