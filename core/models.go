package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// String returns the ID in hexadecimal form.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 16)
}

// ChunkID derives the identifier of a chunk within a job.
// The same job, position and text always yield the same ID, so re-indexing
// identical content addresses the same entries in a store.
func ChunkID(jobID string, chunk Chunk) ID {
	return IDFromContent(jobID + "#" + strconv.Itoa(chunk.Index) + "#" + chunk.Text)
}

// Chunk is a contiguous window of the source text.
type Chunk struct {
	Text   string
	Index  int // Position of the chunk in the ordered output, starting at 0
	Offset int // Rune offset of the first character in the source text
}

// Batch is an ordered group of consecutive chunks submitted to a store in one call.
type Batch struct {
	Index  int // Ordinal of the batch within its job, starting at 0
	Chunks []Chunk
}

// Start returns the sequence index of the first chunk in the batch.
// An empty batch reports -1.
func (b Batch) Start() int {
	if len(b.Chunks) == 0 {
		return -1
	}
	return b.Chunks[0].Index
}

// Len returns the number of chunks in the batch.
func (b Batch) Len() int {
	return len(b.Chunks)
}

// Texts returns the chunk texts in order.
func (b Batch) Texts() []string {
	texts := make([]string, len(b.Chunks))
	for i, c := range b.Chunks {
		texts[i] = c.Text
	}
	return texts
}

// ChunkingConfig controls how text is split into windows.
type ChunkingConfig struct {
	WindowSize int // Characters per chunk
	Overlap    int // Characters shared by consecutive chunks
}

// Stride is the distance between the start positions of consecutive chunks.
func (c ChunkingConfig) Stride() int {
	return c.WindowSize - c.Overlap
}

// IsZero reports whether no chunking parameters were supplied.
func (c ChunkingConfig) IsZero() bool {
	return c.WindowSize == 0 && c.Overlap == 0
}

// Job is one ingestion run: the text of a document plus the parameters used to index it.
// ID is an opaque correlation id (typically the owning document's id).
type Job struct {
	ID        string
	Text      string
	Chunking  ChunkingConfig
	BatchSize int
}

// Document is an uploaded source document with its extracted text.
type Document struct {
	Id          ID
	Filename    string
	ContentType string
	Content     string
	InsertedAt  time.Time
}

// JobID returns the correlation id used when indexing the document.
func (d *Document) JobID() string {
	return strconv.FormatUint(uint64(d.Id), 10)
}

// ChunkRecord is an indexed chunk as persisted by the local vector stores.
type ChunkRecord struct {
	Id         ID
	JobID      string
	Index      int
	Offset     int
	Text       string
	Vector     []float32         // Unit-length embedding of Text
	Metadata   map[string]string // Metadata supplied with the chunk
	InsertedAt time.Time
}
