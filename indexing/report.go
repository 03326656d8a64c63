package indexing

import (
	"errors"
	"time"
)

// BatchResult is the outcome of submitting one batch.
type BatchResult struct {
	JobID string
	Batch int   // Batch ordinal within the job
	Start int   // Sequence index of the first chunk
	Size  int   // Number of chunks
	Err   error // Nil when the store accepted the batch
}

// OK reports whether the batch was accepted.
func (r BatchResult) OK() bool {
	return r.Err == nil
}

// JobReport summarizes one indexing run.
type JobReport struct {
	JobID     string
	Chunks    int
	Batches   int // Batches attempted
	Failed    []BatchResult
	Elapsed   time.Duration
	Abandoned bool // Run stopped before the last batch
	Err       error
}

// Succeeded reports whether every batch was stored and the run finished.
func (r JobReport) Succeeded() bool {
	return r.Err == nil && !r.Abandoned && len(r.Failed) == 0
}

// FailedChunks returns the number of chunks in failed batches.
func (r JobReport) FailedChunks() int {
	n := 0
	for _, f := range r.Failed {
		n += f.Size
	}
	return n
}

// JoinedError joins the run error and all batch failures, or returns nil.
func (r JobReport) JoinedError() error {
	errs := make([]error, 0, len(r.Failed)+1)
	if r.Err != nil {
		errs = append(errs, r.Err)
	}
	for _, f := range r.Failed {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

// status is the metrics label for the run outcome.
func (r JobReport) status() string {
	switch {
	case r.Abandoned:
		return "abandoned"
	case r.Err != nil:
		return "error"
	case len(r.Failed) > 0:
		return "partial"
	default:
		return "ok"
	}
}
