package profiler

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-gltf/common"
)

// Stats is a snapshot of the totals recorded by a Profiler.
type Stats struct {
	Loads int
	Bytes int64
	Busy  time.Duration
}

// Profiler tracks asset load timings and memory statistics for performance monitoring.
// Outputs stats to the debug log at a configurable interval.
type Profiler struct {
	mu sync.Mutex

	total Stats

	// window counts loads since the last report.
	window         Stats
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
		memStats:       runtime.MemStats{},
	}
}

// Record adds one completed load. Safe for concurrent use.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: load rate, average load time, buffer throughput, heap usage,
// allocation rate, GC count/pause times.
//
// Parameters:
//   - d: how long the load took
//   - bytes: the number of buffer bytes loaded
//
// Returns:
//   - bool: true if stats were logged by this call, false otherwise
func (p *Profiler) Record(d time.Duration, bytes int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, s := range []*Stats{&p.total, &p.window} {
		s.Loads++
		s.Bytes += int64(bytes)
		s.Busy += d
	}

	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}
	seconds := max(elapsed.Seconds(), 1e-9)

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / seconds

	// PauseNs is a circular buffer of the last 256 GC pauses.
	gcCount := p.memStats.NumGC
	var maxPauseUs uint64
	startIdx := p.lastGCCount
	if gcCount-startIdx > 256 {
		startIdx = gcCount - 256
	}
	for i := startIdx; i < gcCount; i++ {
		maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
	}

	common.LogDebug("load stats",
		"loads_per_sec", float64(p.window.Loads)/seconds,
		"avg_load", p.window.Busy/time.Duration(p.window.Loads),
		"buffer_mb", float64(p.window.Bytes)/1024/1024,
		"heap_mb", allocMB,
		"alloc_rate_mb_s", allocRateMB,
		"gc", gcCount,
		"max_pause_us", maxPauseUs,
	)

	p.window = Stats{}
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Stats returns the totals recorded since the profiler was created.
func (p *Profiler) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}
