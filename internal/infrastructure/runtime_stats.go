package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeStats is a point-in-time view of the process, served by the
// health endpoint
type RuntimeStats struct {
	Goroutines    int64     `json:"goroutines"`
	HeapAllocMB   float64   `json:"heap_alloc_mb"`
	SysMB         float64   `json:"sys_mb"`
	GCCount       uint32    `json:"gc_count"`
	CPUCount      int       `json:"cpu_count"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	Timestamp     time.Time `json:"timestamp"`
}

// RuntimeMonitor samples runtime statistics and mirrors them into gauges
type RuntimeMonitor struct {
	started    time.Time
	goroutines metric.Int64Gauge
	heapAlloc  metric.Int64Gauge
	uptime     metric.Float64Gauge
}

// NewRuntimeMonitor creates the runtime gauges on meter; a nil meter
// yields a monitor that only samples
func NewRuntimeMonitor(meter metric.Meter) (*RuntimeMonitor, error) {
	m := &RuntimeMonitor{started: time.Now()}
	if meter == nil {
		return m, nil
	}

	var err error
	if m.goroutines, err = meter.Int64Gauge("process_goroutines",
		metric.WithDescription("Number of active goroutines")); err != nil {
		return nil, err
	}
	if m.heapAlloc, err = meter.Int64Gauge("process_heap_alloc_bytes",
		metric.WithDescription("Heap bytes allocated by the Go runtime"), metric.WithUnit("By")); err != nil {
		return nil, err
	}
	if m.uptime, err = meter.Float64Gauge("process_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	return m, nil
}

// Sample reads the runtime statistics and records them
func (m *RuntimeMonitor) Sample(ctx context.Context) RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := RuntimeStats{
		Goroutines:    int64(runtime.NumGoroutine()),
		HeapAllocMB:   float64(mem.HeapAlloc) / (1 << 20),
		SysMB:         float64(mem.Sys) / (1 << 20),
		GCCount:       mem.NumGC,
		CPUCount:      runtime.NumCPU(),
		UptimeSeconds: time.Since(m.started).Seconds(),
		Timestamp:     time.Now().UTC(),
	}

	if m.goroutines != nil {
		m.goroutines.Record(ctx, stats.Goroutines)
		m.heapAlloc.Record(ctx, int64(mem.HeapAlloc))
		m.uptime.Record(ctx, stats.UptimeSeconds)
	}
	return stats
}
