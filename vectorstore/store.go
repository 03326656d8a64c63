package vectorstore

import (
	"context"
	"strconv"

	"github.com/poiesic/docindex/core"
)

// Metadata keys attached to every indexed document.
const (
	MetaJobID       = "job_id"
	MetaChunkIndex  = "chunk_index"
	MetaChunkOffset = "chunk_offset"
	MetaBatchIndex  = "batch_index"
)

// Document is a unit of text handed to a vector store.
type Document struct {
	ID       core.ID
	Text     string
	Metadata map[string]string
}

// Store accepts documents for vector indexing.
// Implementations must be safe for concurrent use: different jobs may add
// batches at the same time.
type Store interface {
	Add(ctx context.Context, docs []Document) error
}

// Func adapts an ordinary function to the Store interface.
type Func func(ctx context.Context, docs []Document) error

// Add calls f(ctx, docs).
func (f Func) Add(ctx context.Context, docs []Document) error {
	return f(ctx, docs)
}

// metaInt reads an integer metadata value, returning 0 when absent or malformed.
func metaInt(meta map[string]string, key string) int {
	v, err := strconv.Atoi(meta[key])
	if err != nil {
		return 0
	}
	return v
}
