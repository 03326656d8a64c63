package indexing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docindex/chunking"
	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/vectorstore"
	"github.com/prometheus/client_golang/prometheus"
)

// Defaults applied to jobs that carry no chunking or batching parameters.
const (
	DefaultWindowSize = 4000
	DefaultOverlap    = 200
	DefaultBatchSize  = 50
)

// Indexer runs indexing jobs in the background.
// It is safe for concurrent use.
type Indexer struct {
	submitter     *Submitter
	chunking      core.ChunkingConfig
	batchSize     int
	poolSize      int
	pool          *ants.Pool
	logger        *slog.Logger
	batchObserver func(BatchResult)
	jobObserver   func(JobReport)
	registerer    prometheus.Registerer
	metrics       *metrics

	// ctx is the parent of every run; cancel abandons in-flight jobs.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// Option configures an Indexer.
type Option func(*Indexer) error

// WithChunking sets the default window size and overlap.
// Default is DefaultWindowSize and DefaultOverlap.
func WithChunking(cfg core.ChunkingConfig) Option {
	return func(ix *Indexer) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		ix.chunking = cfg
		return nil
	}
}

// WithBatchSize sets the default number of chunks per store call.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(ix *Indexer) error {
		if err := core.ValidateBatchSize(size); err != nil {
			return err
		}
		ix.batchSize = size
		return nil
	}
}

// WithPoolSize bounds the number of jobs running at once. When every worker
// is busy IndexAsync fails with ErrIndexerBusy instead of blocking.
// Default is 0: unbounded, every job gets a worker immediately.
func WithPoolSize(size int) Option {
	return func(ix *Indexer) error {
		if size < 0 {
			return fmt.Errorf("pool size must be >= 0, got %d", size)
		}
		ix.poolSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) error {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger
		return nil
	}
}

// WithBatchObserver registers a callback invoked after every batch submission.
// It runs on the job's worker goroutine.
func WithBatchObserver(fn func(BatchResult)) Option {
	return func(ix *Indexer) error {
		ix.batchObserver = fn
		return nil
	}
}

// WithJobObserver registers a callback invoked when a job finishes.
// It runs on the job's worker goroutine.
func WithJobObserver(fn func(JobReport)) Option {
	return func(ix *Indexer) error {
		ix.jobObserver = fn
		return nil
	}
}

// WithMetrics registers the indexer's Prometheus collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(ix *Indexer) error {
		ix.registerer = reg
		return nil
	}
}

// NewIndexer creates an indexer writing to store.
func NewIndexer(store vectorstore.Store, opts ...Option) (*Indexer, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	ix := &Indexer{
		chunking:  core.ChunkingConfig{WindowSize: DefaultWindowSize, Overlap: DefaultOverlap},
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(ix); err != nil {
			return nil, err
		}
	}
	ix.logger = ix.logger.With("component", "indexer")

	submitter, err := NewSubmitter(store, WithSubmitterLogger(ix.logger))
	if err != nil {
		return nil, err
	}
	ix.submitter = submitter

	if ix.registerer != nil {
		m, err := newMetrics(ix.registerer)
		if err != nil {
			return nil, err
		}
		ix.metrics = m
	}

	poolOpts := []ants.Option{
		ants.WithPanicHandler(func(p any) {
			ix.logger.Error("indexing job panicked", "panic", p)
		}),
		ants.WithLogger(&antsLoggerAdapter{logger: ix.logger}),
	}
	size := -1
	if ix.poolSize > 0 {
		size = ix.poolSize
		poolOpts = append(poolOpts, ants.WithNonblocking(true))
	}
	pool, err := ants.NewPool(size, poolOpts...)
	if err != nil {
		return nil, err
	}
	ix.pool = pool
	ix.ctx, ix.cancel = context.WithCancel(context.Background())

	return ix, nil
}

// IndexAsync validates job and schedules it for background indexing.
// It returns as soon as the job is accepted. Validation problems are
// returned synchronously: core.ErrConfiguration, core.ErrEmptyInput,
// ErrIndexerClosed or ErrIndexerBusy. Everything that happens after
// acceptance is reported through logs, metrics and observers.
func (ix *Indexer) IndexAsync(job core.Job) error {
	job = ix.withDefaults(job)
	if err := core.ValidateJob(job); err != nil {
		ix.logger.Warn("rejected indexing job", "job", job.ID, "err", err)
		return err
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.closed {
		return ErrIndexerClosed
	}

	ix.wg.Add(1)
	err := ix.pool.Submit(func() {
		defer ix.wg.Done()
		ix.Run(ix.ctx, job)
	})
	if err != nil {
		ix.wg.Done()
		ix.metrics.jobRejected()
		if errors.Is(err, ants.ErrPoolOverload) {
			ix.logger.Warn("indexer busy, job rejected", "job", job.ID)
			return ErrIndexerBusy
		}
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrIndexerClosed
		}
		return err
	}
	ix.logger.Debug("accepted indexing job", "job", job.ID, "length", len(job.Text))
	return nil
}

// Run indexes job synchronously and returns its report. Batches are
// submitted in order, each exactly once; a failed batch does not stop the
// run. Cancelling ctx abandons the remaining batches.
func (ix *Indexer) Run(ctx context.Context, job core.Job) JobReport {
	job = ix.withDefaults(job)
	started := time.Now()
	report := JobReport{JobID: job.ID}
	logger := ix.logger.With("job", job.ID)

	ix.metrics.jobStarted()
	defer func() {
		report.Elapsed = time.Since(started)
		ix.metrics.jobDone(report, report.Elapsed)
		if ix.jobObserver != nil {
			ix.jobObserver(report)
		}
	}()

	if err := core.ValidateJob(job); err != nil {
		report.Err = err
		logger.Error("cannot index job", "err", err)
		return report
	}

	batches, err := chunking.Plan(job.Text, job.Chunking, job.BatchSize)
	if err != nil {
		report.Err = err
		logger.Error("cannot plan job", "err", err)
		return report
	}

	logger.Info("indexing started",
		"length", len(job.Text),
		"window", job.Chunking.WindowSize,
		"overlap", job.Chunking.Overlap,
		"batch_size", job.BatchSize)

	for batch := range batches {
		if ctx.Err() != nil {
			report.Abandoned = true
			break
		}

		err := ix.submitter.Submit(ctx, job.ID, batch)
		result := BatchResult{
			JobID: job.ID,
			Batch: batch.Index,
			Start: batch.Start(),
			Size:  batch.Len(),
			Err:   err,
		}
		report.Batches++
		report.Chunks += batch.Len()
		if err != nil {
			report.Failed = append(report.Failed, result)
		}
		ix.metrics.batchDone(err == nil)
		if ix.batchObserver != nil {
			ix.batchObserver(result)
		}
	}

	elapsed := time.Since(started)
	if report.Abandoned {
		logger.Warn("indexing abandoned",
			"elapsed_ms", elapsed.Milliseconds(),
			"batches", report.Batches,
			"failures", len(report.Failed))
		return report
	}
	logger.Info("indexing complete",
		"elapsed_ms", elapsed.Milliseconds(),
		"chunks", report.Chunks,
		"batches", report.Batches,
		"failures", len(report.Failed))
	return report
}

// Estimate returns how many chunks and batches job would produce with the
// indexer's defaults applied, without touching the store.
func (ix *Indexer) Estimate(job core.Job) (chunks, batches int, err error) {
	job = ix.withDefaults(job)
	if err := core.ValidateJob(job); err != nil {
		return 0, 0, err
	}
	seq, err := chunking.Chunks(job.Text, job.Chunking)
	if err != nil {
		return 0, 0, err
	}
	for range seq {
		chunks++
	}
	batches = (chunks + job.BatchSize - 1) / job.BatchSize
	return chunks, batches, nil
}

// Wait blocks until every accepted job has finished.
func (ix *Indexer) Wait() {
	ix.wg.Wait()
}

// Close stops accepting jobs and waits for in-flight jobs to finish.
// If ctx expires first, the remaining jobs are cancelled at their next batch
// boundary and ctx's error is returned. The pool is released in both cases.
func (ix *Indexer) Close(ctx context.Context) error {
	ix.mu.Lock()
	if ix.closed {
		ix.mu.Unlock()
		return nil
	}
	ix.closed = true
	ix.mu.Unlock()

	done := make(chan struct{})
	go func() {
		ix.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
		ix.logger.Warn("close timed out, abandoning running jobs", "workers", ix.pool.Running())
		ix.cancel()
		<-done
	}
	ix.cancel()
	ix.pool.Release()
	return err
}

func (ix *Indexer) withDefaults(job core.Job) core.Job {
	if job.Chunking.IsZero() {
		job.Chunking = ix.chunking
	}
	if job.BatchSize == 0 {
		job.BatchSize = ix.batchSize
	}
	return job
}

// antsLoggerAdapter adapts slog.Logger to the ants.Logger interface.
type antsLoggerAdapter struct {
	logger *slog.Logger
}

func (al *antsLoggerAdapter) Printf(format string, args ...any) {
	al.logger.Warn(fmt.Sprintf(format, args...))
}
