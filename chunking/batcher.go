package chunking

import (
	"iter"

	"github.com/poiesic/docindex/core"
)

// Batches groups consecutive chunks into batches of batchSize.
// Every batch except possibly the last holds exactly batchSize chunks; the last
// holds between 1 and batchSize. No batch is empty and order is preserved.
// Chunks are pulled from the source only as batches are requested.
func Batches(chunks iter.Seq[core.Chunk], batchSize int) (iter.Seq[core.Batch], error) {
	if err := core.ValidateBatchSize(batchSize); err != nil {
		return nil, err
	}
	return func(yield func(core.Batch) bool) {
		index := 0
		buf := make([]core.Chunk, 0, batchSize)
		for chunk := range chunks {
			buf = append(buf, chunk)
			if len(buf) < batchSize {
				continue
			}
			if !yield(core.Batch{Index: index, Chunks: buf}) {
				return
			}
			index++
			buf = make([]core.Chunk, 0, batchSize)
		}
		if len(buf) > 0 {
			yield(core.Batch{Index: index, Chunks: buf})
		}
	}, nil
}

// Plan is the chunk-then-batch pipeline for a single job.
// It validates all parameters up front and returns the lazy batch sequence.
func Plan(text string, cfg core.ChunkingConfig, batchSize int) (iter.Seq[core.Batch], error) {
	chunks, err := Chunks(text, cfg)
	if err != nil {
		return nil, err
	}
	return Batches(chunks, batchSize)
}
