package vectorstore

import (
	"context"
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/poiesic/docindex/ai/mock"
	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkDocs(jobID string, texts ...string) []Document {
	docs := make([]Document, len(texts))
	for i, text := range texts {
		chunk := core.Chunk{Text: text, Index: i, Offset: i * 3}
		docs[i] = Document{
			ID:   core.ChunkID(jobID, chunk),
			Text: text,
			Metadata: map[string]string{
				MetaJobID:       jobID,
				MetaChunkIndex:  strconv.Itoa(chunk.Index),
				MetaChunkOffset: strconv.Itoa(chunk.Offset),
				MetaBatchIndex:  "0",
			},
		}
	}
	return docs
}

func TestNewEmbeddingStore_Validation(t *testing.T) {
	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	_, err = NewEmbeddingStore(nil, chunkRepo)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewEmbeddingStore(mock.NewMockEmbedder(), nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)
}

func TestEmbeddingStore_Add(t *testing.T) {
	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	embedder := &mock.MockEmbedder{Dimension: 8}
	store, err := NewEmbeddingStore(embedder, chunkRepo)
	require.NoError(t, err)

	ctx := context.Background()
	docs := chunkDocs("7", "ABCD", "DEFG", "GHIJ")
	require.NoError(t, store.Add(ctx, docs))
	assert.Equal(t, 1, embedder.CallCount(), "one embedding call per batch")

	chunks, err := chunkRepo.ChunksByJob(ctx, "7")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.Equal(t, docs[i].ID, chunk.Id)
		assert.Equal(t, docs[i].Text, chunk.Text)
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, i*3, chunk.Offset)
		require.Len(t, chunk.Vector, 8)

		var sum float64
		for _, v := range chunk.Vector {
			sum += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
	}
}

func TestEmbeddingStore_ReindexOverwrites(t *testing.T) {
	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	store, err := NewEmbeddingStore(mock.NewMockEmbedder(), chunkRepo)
	require.NoError(t, err)

	ctx := context.Background()
	docs := chunkDocs("job", "same", "text")
	require.NoError(t, store.Add(ctx, docs))
	require.NoError(t, store.Add(ctx, docs))

	chunks, err := chunkRepo.ChunksByJob(ctx, "job")
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestEmbeddingStore_Errors(t *testing.T) {
	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	t.Run("embedder failure", func(t *testing.T) {
		boom := errors.New("model not loaded")
		embedder := &mock.MockEmbedder{
			EmbedTextsFunc: func(context.Context, []string) ([][]float32, error) { return nil, boom },
		}
		store, err := NewEmbeddingStore(embedder, chunkRepo)
		require.NoError(t, err)

		assert.ErrorIs(t, store.Add(ctx, chunkDocs("e1", "a")), boom)
		chunks, err := chunkRepo.ChunksByJob(ctx, "e1")
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("vector count mismatch", func(t *testing.T) {
		embedder := &mock.MockEmbedder{
			EmbedTextsFunc: func(context.Context, []string) ([][]float32, error) {
				return [][]float32{{1, 0}}, nil
			},
		}
		store, err := NewEmbeddingStore(embedder, chunkRepo)
		require.NoError(t, err)

		assert.ErrorIs(t, store.Add(ctx, chunkDocs("e2", "a", "b")), ErrEmbeddingMismatch)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		store, err := NewEmbeddingStore(embedder, chunkRepo)
		require.NoError(t, err)

		require.NoError(t, store.Add(ctx, nil))
		assert.Zero(t, embedder.CallCount())
	})
}
