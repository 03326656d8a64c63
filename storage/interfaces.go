package storage

import (
	"context"

	"github.com/poiesic/docindex/core"
)

// DocumentRepository stores uploaded documents and their extracted text.
// Implementations must be thread-safe and support concurrent access.
type DocumentRepository interface {
	// AddDocument stores a document, assigning it a new ID from a sequence.
	// Sets InsertedAt. Returns the document with ID and timestamp populated.
	AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// ForEachDocument calls fn for every stored document, in no particular
	// order. Iteration stops at the first error from fn or ctx.
	ForEachDocument(ctx context.Context, fn func(*core.Document) error) error

	// Close releases resources held by the repository.
	Close() error
}

// ChunkRepository stores embedded chunks, indexed by job.
type ChunkRepository interface {
	// PutChunks writes the chunks in a single transaction. Existing chunks
	// with the same ID are overwritten. Sets InsertedAt if not already set.
	PutChunks(ctx context.Context, chunks ...*core.ChunkRecord) error

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.ChunkRecord, error)

	// ChunksByJob returns all chunks stored for a job, ordered by chunk index.
	// Returns an empty slice for unknown jobs.
	ChunksByJob(ctx context.Context, jobID string) ([]*core.ChunkRecord, error)

	// DeleteJob removes every chunk stored for a job and its index entries.
	// Deleting an unknown job is not an error.
	DeleteJob(ctx context.Context, jobID string) error

	// Close releases resources held by the repository.
	Close() error
}
