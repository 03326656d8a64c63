package badger

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChunk(jobID string, index int, text string) *core.ChunkRecord {
	chunk := core.Chunk{Text: text, Index: index, Offset: index * 10}
	return &core.ChunkRecord{
		Id:       core.ChunkID(jobID, chunk),
		JobID:    jobID,
		Index:    chunk.Index,
		Offset:   chunk.Offset,
		Text:     chunk.Text,
		Vector:   []float32{1, 0},
		Metadata: map[string]string{"job_id": jobID},
	}
}

func TestChunkRepository_PutAndGet(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	chunk := newChunk("job-1", 0, "ABCD")
	require.NoError(t, chunkRepo.PutChunks(ctx, chunk))
	assert.False(t, chunk.InsertedAt.IsZero())

	got, err := chunkRepo.GetChunk(ctx, chunk.Id)
	require.NoError(t, err)
	assert.Equal(t, "ABCD", got.Text)
	assert.Equal(t, "job-1", got.JobID)
	assert.Equal(t, []float32{1, 0}, got.Vector)
	assert.Equal(t, "job-1", got.Metadata["job_id"])

	_, err = chunkRepo.GetChunk(ctx, core.ID(1))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestChunkRepository_ChunksByJob(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	// Written out of order and across two transactions
	var first, second []*core.ChunkRecord
	for i := 11; i >= 0; i-- {
		c := newChunk("a", i, fmt.Sprintf("chunk %d", i))
		if i%2 == 0 {
			first = append(first, c)
		} else {
			second = append(second, c)
		}
	}
	require.NoError(t, chunkRepo.PutChunks(ctx, first...))
	require.NoError(t, chunkRepo.PutChunks(ctx, second...))
	// A job whose id extends "a" must stay separate
	require.NoError(t, chunkRepo.PutChunks(ctx, newChunk("a:b", 0, "other")))

	chunks, err := chunkRepo.ChunksByJob(ctx, "a")
	require.NoError(t, err)
	require.Len(t, chunks, 12)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, fmt.Sprintf("chunk %d", i), c.Text)
	}

	other, err := chunkRepo.ChunksByJob(ctx, "a:b")
	require.NoError(t, err)
	require.Len(t, other, 1)

	none, err := chunkRepo.ChunksByJob(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestChunkRepository_PutOverwrites(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	chunk := newChunk("job", 0, "text")
	require.NoError(t, chunkRepo.PutChunks(ctx, chunk))

	chunk.Vector = []float32{0, 1}
	require.NoError(t, chunkRepo.PutChunks(ctx, chunk))

	chunks, err := chunkRepo.ChunksByJob(ctx, "job")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, []float32{0, 1}, chunks[0].Vector)
}

func TestChunkRepository_PutEmpty(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	}()

	assert.NoError(t, chunkRepo.PutChunks(context.Background()))
}

func TestChunkRepository_DeleteJob(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	first := newChunk("job-1", 0, "ABCD")
	second := newChunk("job-1", 1, "DEFG")
	other := newChunk("job-10", 0, "ABCD")
	require.NoError(t, chunkRepo.PutChunks(ctx, first, second, other))

	require.NoError(t, chunkRepo.DeleteJob(ctx, "job-1"))

	chunks, err := chunkRepo.ChunksByJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
	_, err = chunkRepo.GetChunk(ctx, first.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	chunks, err = chunkRepo.ChunksByJob(ctx, "job-10")
	require.NoError(t, err)
	assert.Len(t, chunks, 1)

	assert.NoError(t, chunkRepo.DeleteJob(ctx, "unknown"))
}
