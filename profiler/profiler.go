// Package profiler - Resource sampling for evaluation and search runs.
package profiler

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
	"k8s.io/klog/v2"
)

// Usage is a point-in-time resource snapshot. It is embedded into
// evaluation reports and trial records, so all fields are JSON tagged.
type Usage struct {
	Timestamp       time.Time `json:"timestamp"`
	Goroutines      int       `json:"goroutines"`
	HeapAllocBytes  uint64    `json:"heap_alloc_bytes"`
	HeapSysBytes    uint64    `json:"heap_sys_bytes"`
	TotalAllocBytes uint64    `json:"total_alloc_bytes"`
	NumGC           uint32    `json:"num_gc"`
	CPUPercent      float64   `json:"cpu_percent"`
	RSSBytes        uint64    `json:"rss_bytes"`
}

// Sample captures the current process resource usage. Host probes that
// fail leave their fields zero; a snapshot never fails the run it
// annotates.
func Sample() Usage {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	usage := Usage{
		Timestamp:       time.Now(),
		Goroutines:      runtime.NumGoroutine(),
		HeapAllocBytes:  mem.HeapAlloc,
		HeapSysBytes:    mem.HeapSys,
		TotalAllocBytes: mem.TotalAlloc,
		NumGC:           mem.NumGC,
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		usage.CPUPercent = percents[0]
	}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfo(); err == nil {
			usage.RSSBytes = info.RSS
		}
	}

	return usage
}

func (u Usage) String() string {
	return "heap " + humanize.Bytes(u.HeapAllocBytes) +
		", rss " + humanize.Bytes(u.RSSBytes) +
		", goroutines " + humanize.Comma(int64(u.Goroutines))
}

// Stats summarizes the recorded timings of one named operation.
type Stats struct {
	Count int64         `json:"count"`
	Total time.Duration `json:"total"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	Mean  time.Duration `json:"mean"`
}

// timeTracker tracks operation timing statistics.
type timeTracker struct {
	durations []time.Duration
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
}

// Options configures the profiler.
type Options struct {
	// SampleInterval specifies how often to collect samples (default: 250ms).
	SampleInterval time.Duration
	// ReportInterval specifies how often to log a status line at
	// verbosity 2 (default: 10s).
	ReportInterval time.Duration
	// MaxSamples bounds the per-operation timing history (default: 1024).
	MaxSamples int
}

// Profiler samples process resources in the background and tracks named
// operation timings. It is safe for concurrent use.
type Profiler struct {
	sampleInterval time.Duration
	reportInterval time.Duration
	maxSamples     int

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	startTime time.Time
	running   bool

	peak       Usage
	operations map[string]*timeTracker
}

// New creates a profiler with the specified options.
func New(opts Options) *Profiler {
	if opts.SampleInterval == 0 {
		opts.SampleInterval = 250 * time.Millisecond
	}
	if opts.ReportInterval == 0 {
		opts.ReportInterval = 10 * time.Second
	}
	if opts.MaxSamples == 0 {
		opts.MaxSamples = 1024
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Profiler{
		sampleInterval: opts.SampleInterval,
		reportInterval: opts.ReportInterval,
		maxSamples:     opts.MaxSamples,
		ctx:            ctx,
		cancel:         cancel,
		startTime:      time.Now(),
		operations:     make(map[string]*timeTracker),
	}
}

// Start begins background sampling. Calling Start on a running profiler is
// a no-op.
func (p *Profiler) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.running = true
	p.startTime = time.Now()
	p.peak = Sample()

	p.wg.Add(1)
	go p.sampleLoop()
}

// Stop halts sampling and waits for the background goroutine.
func (p *Profiler) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}

func (p *Profiler) sampleLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.sampleInterval)
	defer ticker.Stop()
	report := time.NewTicker(p.reportInterval)
	defer report.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			usage := Sample()
			p.mu.Lock()
			if usage.HeapAllocBytes > p.peak.HeapAllocBytes {
				p.peak.HeapAllocBytes = usage.HeapAllocBytes
			}
			if usage.HeapSysBytes > p.peak.HeapSysBytes {
				p.peak.HeapSysBytes = usage.HeapSysBytes
			}
			if usage.RSSBytes > p.peak.RSSBytes {
				p.peak.RSSBytes = usage.RSSBytes
			}
			if usage.Goroutines > p.peak.Goroutines {
				p.peak.Goroutines = usage.Goroutines
			}
			if usage.CPUPercent > p.peak.CPUPercent {
				p.peak.CPUPercent = usage.CPUPercent
			}
			p.peak.TotalAllocBytes = usage.TotalAllocBytes
			p.peak.NumGC = usage.NumGC
			p.peak.Timestamp = usage.Timestamp
			p.mu.Unlock()
		case <-report.C:
			if klog.V(2).Enabled() {
				klog.Infof("profiler: uptime %v, %s",
					time.Since(p.startTime).Truncate(time.Millisecond), Sample())
			}
		}
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
//   - name: The name of the operation to track.
//
// Returns:
//   - A function to call when the operation completes.
func (p *Profiler) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		p.recordOperation(name, time.Since(start))
	}
}

func (p *Profiler) recordOperation(name string, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, exists := p.operations[name]
	if !exists {
		tracker = &timeTracker{
			minTime: duration,
			maxTime: duration,
		}
		p.operations[name] = tracker
	}

	tracker.durations = append(tracker.durations, duration)
	if len(tracker.durations) > p.maxSamples {
		tracker.totalTime -= tracker.durations[0]
		tracker.durations = tracker.durations[1:]
	}

	tracker.totalTime += duration
	tracker.count++

	if duration < tracker.minTime {
		tracker.minTime = duration
	}
	if duration > tracker.maxTime {
		tracker.maxTime = duration
	}
}

// OperationStats returns the timing summary of one named operation.
func (p *Profiler) OperationStats(name string) (Stats, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	tracker, exists := p.operations[name]
	if !exists || len(tracker.durations) == 0 {
		return Stats{}, false
	}

	return Stats{
		Count: tracker.count,
		Total: tracker.totalTime,
		Min:   tracker.minTime,
		Max:   tracker.maxTime,
		Mean:  tracker.totalTime / time.Duration(len(tracker.durations)),
	}, true
}

// Peak returns the highest resource usage observed since Start. Before the
// first sample it matches the snapshot taken at Start.
func (p *Profiler) Peak() Usage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.peak
}
