package indexing

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports chunk progress of one or more indexing jobs.
// Observe has the signature of a batch observer, so a tracker can be
// passed to WithBatchObserver directly.
type ProgressTracker struct {
	writer         io.Writer
	total          int
	current        int
	failed         int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgressTracker creates a new progress tracker.
// writer: where to write progress output (typically os.Stderr)
// reportInterval: report progress every N chunks
func NewProgressTracker(writer io.Writer, reportInterval int) *ProgressTracker {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		reportInterval: reportInterval,
	}
}

// Start begins tracking progress.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.current = 0
	p.failed = 0
	p.lastReported = 0
}

// AddTotal raises the expected number of chunks.
func (p *ProgressTracker) AddTotal(chunks int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total += chunks
}

// Observe records a finished batch.
func (p *ProgressTracker) Observe(result BatchResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.current += result.Size
	if !result.OK() {
		p.failed += result.Size
	}
	if p.total > 0 && p.current > p.total {
		p.current = p.total
	}

	if p.current-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.current
	}
}

// Finish prints the final progress line.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.report()
	fmt.Fprintln(p.writer)
}

// Failed returns the number of chunks in failed batches so far.
func (p *ProgressTracker) Failed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failed
}

// Elapsed returns the time elapsed since Start was called.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}

	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	elapsed := time.Since(p.startTime)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(p.current) / elapsed.Seconds()
	}

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rIndexed: %d/%d chunks (%.1f%%), %d failed - %.1f chunks/s",
		p.current, p.total, percentage, p.failed, rate)
}
