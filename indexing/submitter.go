package indexing

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/vectorstore"
)

// Submitter hands one batch at a time to a vector store.
type Submitter struct {
	store  vectorstore.Store
	logger *slog.Logger
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter) error

// WithSubmitterLogger sets a custom logger.
// Default is slog.Default().
func WithSubmitterLogger(logger *slog.Logger) SubmitterOption {
	return func(s *Submitter) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSubmitter creates a submitter writing to store.
func NewSubmitter(store vectorstore.Store, opts ...SubmitterOption) (*Submitter, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	s := &Submitter{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Submit converts the batch to documents and adds them with a single store call.
// A store failure is logged and returned as a *core.IndexingError; the caller
// decides whether to continue.
func (s *Submitter) Submit(ctx context.Context, jobID string, batch core.Batch) error {
	if batch.Len() == 0 {
		return nil
	}

	docs := make([]vectorstore.Document, batch.Len())
	for i, chunk := range batch.Chunks {
		docs[i] = vectorstore.Document{
			ID:   core.ChunkID(jobID, chunk),
			Text: chunk.Text,
			Metadata: map[string]string{
				vectorstore.MetaJobID:       jobID,
				vectorstore.MetaChunkIndex:  strconv.Itoa(chunk.Index),
				vectorstore.MetaChunkOffset: strconv.Itoa(chunk.Offset),
				vectorstore.MetaBatchIndex:  strconv.Itoa(batch.Index),
			},
		}
	}

	if err := s.add(ctx, docs); err != nil {
		indexErr := &core.IndexingError{
			JobID: jobID,
			Batch: batch.Index,
			Start: batch.Start(),
			Size:  batch.Len(),
			Err:   err,
		}
		s.logger.Error("vector indexing failed",
			"job", jobID,
			"batch", batch.Index,
			"start", batch.Start(),
			"chunks", batch.Len(),
			"err", err)
		return indexErr
	}
	return nil
}

// add calls the store, turning a panic into an error so the batches after
// this one are still attempted.
func (s *Submitter) add(ctx context.Context, docs []vectorstore.Document) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("store panicked: %v", r)
		}
	}()
	return s.store.Add(ctx, docs)
}
