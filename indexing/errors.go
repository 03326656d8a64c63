package indexing

import "errors"

var (
	// ErrStoreRequired is returned when a vector store is not provided.
	ErrStoreRequired = errors.New("vector store required")

	// ErrIndexerClosed is returned when a job is submitted after Close.
	ErrIndexerClosed = errors.New("indexer is closed")

	// ErrIndexerBusy is returned when a bounded pool has no free worker.
	ErrIndexerBusy = errors.New("indexer is busy")
)
