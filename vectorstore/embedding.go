package vectorstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/docindex/ai"
	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/storage"
)

// EmbeddingStore embeds documents and persists them as chunk records.
type EmbeddingStore struct {
	embedder ai.Embedder
	repo     storage.ChunkRepository
	logger   *slog.Logger
}

var _ Store = (*EmbeddingStore)(nil)

// EmbeddingOption configures an EmbeddingStore.
type EmbeddingOption func(*EmbeddingStore) error

// WithEmbeddingLogger sets the logger.
func WithEmbeddingLogger(logger *slog.Logger) EmbeddingOption {
	return func(s *EmbeddingStore) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}

// NewEmbeddingStore creates a store that embeds with embedder and writes to repo.
func NewEmbeddingStore(embedder ai.Embedder, repo storage.ChunkRepository, opts ...EmbeddingOption) (*EmbeddingStore, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	s := &EmbeddingStore{
		embedder: embedder,
		repo:     repo,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "embedding-store")
	return s, nil
}

// Add embeds all document texts in one call and stores the results in one
// repository write. Vectors are normalized to unit length.
func (s *EmbeddingStore) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding %d texts: %w", len(texts), err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingMismatch, len(vectors), len(docs))
	}

	records := make([]*core.ChunkRecord, len(docs))
	for i, doc := range docs {
		records[i] = &core.ChunkRecord{
			Id:       doc.ID,
			JobID:    doc.Metadata[MetaJobID],
			Index:    metaInt(doc.Metadata, MetaChunkIndex),
			Offset:   metaInt(doc.Metadata, MetaChunkOffset),
			Text:     doc.Text,
			Vector:   NormalizeVector(vectors[i]),
			Metadata: doc.Metadata,
		}
	}

	if err := s.repo.PutChunks(ctx, records...); err != nil {
		return fmt.Errorf("storing %d chunks: %w", len(records), err)
	}
	s.logger.Debug("stored chunks", "count", len(records))
	return nil
}
