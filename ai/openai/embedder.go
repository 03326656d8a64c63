package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/docindex/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// DefaultRequestSize is the number of texts sent per embeddings request.
const DefaultRequestSize = 64

// Embedder embeds chunk texts through an OpenAI-compatible /embeddings endpoint.
type Embedder struct {
	lc          embeddings.Embedder
	model       string
	requestSize int
	logger      *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// Option configures an Embedder.
type Option func(*Embedder) error

// WithRequestSize caps how many texts go into one HTTP request. Larger
// batches handed to EmbedTexts are split transparently.
// Default is DefaultRequestSize.
func WithRequestSize(size int) Option {
	return func(e *Embedder) error {
		if size <= 0 {
			return fmt.Errorf("embedding request size must be > 0, got %d", size)
		}
		e.requestSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Embedder) error {
		if logger != nil {
			e.logger = logger
		}
		return nil
	}
}

// NewEmbedder validates config and creates an embedder for its host and model.
func NewEmbedder(config *ai.Config, opts ...Option) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &Embedder{
		model:       config.EmbeddingModel,
		requestSize: DefaultRequestSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "openai-embedder", "model", e.model)

	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(config.Token),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("openai client: %w", err)
	}

	lc, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(e.requestSize),
	)
	if err != nil {
		return nil, fmt.Errorf("langchain embedder: %w", err)
	}
	e.lc = lc
	return e, nil
}

// LangChain exposes the underlying langchaingo embedder, for use with
// langchaingo vector stores.
func (e *Embedder) LangChain() embeddings.Embedder {
	return e.lc
}

// EmbedText embeds a single text.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts embeds texts in order. The service must return one non-empty
// vector per text, all of the same dimension.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	e.logger.Debug("embedding texts", "count", len(texts))

	vectors, err := e.lc.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("embedding request failed", "count", len(texts), "err", err)
		return nil, fmt.Errorf("embedding %d texts with %s: %w", len(texts), e.model, err)
	}
	if err := checkVectors(vectors, len(texts)); err != nil {
		e.logger.Error("unusable embedding response", "count", len(texts), "err", err)
		return nil, err
	}
	return vectors, nil
}

func checkVectors(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("embedding service returned %d vectors for %d texts", len(vectors), want)
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("embedding service returned an empty vector at %d", i)
		}
		if len(v) != dim {
			return fmt.Errorf("embedding service returned mixed dimensions %d and %d", dim, len(v))
		}
	}
	return nil
}
