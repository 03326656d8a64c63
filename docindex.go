// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package docindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/docindex/ai"
	"github.com/poiesic/docindex/ai/openai"
	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/extract"
	"github.com/poiesic/docindex/indexing"
	"github.com/poiesic/docindex/storage"
	"github.com/poiesic/docindex/storage/badger"
	"github.com/poiesic/docindex/vectorstore"
)

// Service stores uploaded documents and indexes them in the background.
type Service struct {
	backend   *badger.Backend
	docRepo   storage.DocumentRepository
	chunkRepo storage.ChunkRepository
	indexer   *indexing.Indexer
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*options)

type options struct {
	aiConfig    *ai.Config
	embedder    ai.Embedder
	store       vectorstore.Store
	chunkRepo   storage.ChunkRepository
	inMemory    bool
	maxAttempts int
	retryDelay  time.Duration
	indexerOpts []indexing.Option
	logger      *slog.Logger
}

// WithAIConfig sets the embedding service configuration.
// Ignored when WithEmbedder or WithStore is used.
func WithAIConfig(cfg *ai.Config) Option {
	return func(o *options) {
		o.aiConfig = cfg
	}
}

// WithEmbedder sets the embedder used by the default embedding store.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(o *options) {
		o.embedder = embedder
	}
}

// WithStore replaces the default embedding store entirely.
func WithStore(store vectorstore.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithChunkRepository stores embedded chunks in repo instead of the local
// database. The service takes ownership and closes it.
func WithChunkRepository(repo storage.ChunkRepository) Option {
	return func(o *options) {
		o.chunkRepo = repo
	}
}

// WithInMemory keeps all data in memory. The path given to Open is ignored.
func WithInMemory() Option {
	return func(o *options) {
		o.inMemory = true
	}
}

// WithRetry retries failed store writes up to maxAttempts times, starting
// with delay between attempts and doubling it.
func WithRetry(maxAttempts int, delay time.Duration) Option {
	return func(o *options) {
		o.maxAttempts = maxAttempts
		o.retryDelay = delay
	}
}

// WithIndexerOptions passes options through to the indexer.
func WithIndexerOptions(opts ...indexing.Option) Option {
	return func(o *options) {
		o.indexerOpts = append(o.indexerOpts, opts...)
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Open opens (or creates) the document database at filePath and starts an
// indexer writing to the configured store.
func Open(filePath string, opts ...Option) (*Service, error) {
	o := &options{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	backend, err := badger.OpenBackend(filePath, o.inMemory)
	if err != nil {
		return nil, err
	}

	docRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	chunkRepo := o.chunkRepo
	if chunkRepo == nil {
		chunkRepo = badger.NewChunkRepository(backend)
	}

	cleanup := func() {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	}

	store, err := buildStore(o, chunkRepo)
	if err != nil {
		cleanup()
		return nil, err
	}

	indexerOpts := append([]indexing.Option{indexing.WithLogger(o.logger)}, o.indexerOpts...)
	indexer, err := indexing.NewIndexer(store, indexerOpts...)
	if err != nil {
		cleanup()
		return nil, err
	}

	return &Service{
		backend:   backend,
		docRepo:   docRepo,
		chunkRepo: chunkRepo,
		indexer:   indexer,
		logger:    o.logger.With("component", "docindex"),
	}, nil
}

func buildStore(o *options, chunkRepo storage.ChunkRepository) (vectorstore.Store, error) {
	store := o.store
	if store == nil {
		embedder := o.embedder
		if embedder == nil {
			var err error
			if embedder, err = openai.NewEmbedder(o.aiConfig); err != nil {
				return nil, err
			}
		}
		embeddingStore, err := vectorstore.NewEmbeddingStore(embedder, chunkRepo,
			vectorstore.WithEmbeddingLogger(o.logger))
		if err != nil {
			return nil, err
		}
		store = embeddingStore
	}
	if o.maxAttempts > 1 {
		return vectorstore.NewRetrying(store, o.maxAttempts, o.retryDelay)
	}
	return store, nil
}

// Ingest extracts the text of an uploaded file, stores the document and
// schedules it for indexing. It returns as soon as indexing is scheduled.
// When the document is stored but the indexer refuses it (busy or closed),
// both the document and the error are returned, so it can be reindexed later.
func (s *Service) Ingest(ctx context.Context, filename string, data []byte) (*core.Document, error) {
	result, err := extract.Extract(filename, data)
	if err != nil {
		return nil, err
	}
	return s.IngestExtracted(ctx, filename, result)
}

// IngestExtracted stores text that was already extracted from filename and
// schedules it for indexing.
func (s *Service) IngestExtracted(ctx context.Context, filename string, result extract.Result) (*core.Document, error) {
	return s.ingest(ctx, filename, result.ContentType, result.Text)
}

// IngestText stores text as a document and schedules it for indexing.
func (s *Service) IngestText(ctx context.Context, filename, text string) (*core.Document, error) {
	return s.ingest(ctx, filename, extract.ContentTypeText, text)
}

func (s *Service) ingest(ctx context.Context, filename, contentType, text string) (*core.Document, error) {
	if core.IsBlank(text) {
		return nil, core.ErrEmptyInput
	}

	doc, err := s.docRepo.AddDocument(ctx, &core.Document{
		Filename:    filename,
		ContentType: contentType,
		Content:     text,
	})
	if err != nil {
		return nil, fmt.Errorf("storing document %q: %w", filename, err)
	}

	if err := s.indexer.IndexAsync(core.Job{ID: doc.JobID(), Text: doc.Content}); err != nil {
		s.logger.Error("document stored but not scheduled for indexing", "id", doc.Id, "err", err)
		return doc, fmt.Errorf("document %s stored but not indexed: %w", doc.JobID(), err)
	}

	s.logger.Info("document accepted", "id", doc.Id, "filename", filename, "length", len(text))
	return doc, nil
}

// Document returns a stored document.
func (s *Service) Document(ctx context.Context, id core.ID) (*core.Document, error) {
	return s.docRepo.GetDocument(ctx, id)
}

// Chunks returns the indexed chunks of a document in order. Chunks written
// to an external store through WithStore are not visible here.
func (s *Service) Chunks(ctx context.Context, id core.ID) ([]*core.ChunkRecord, error) {
	doc := core.Document{Id: id}
	return s.chunkRepo.ChunksByJob(ctx, doc.JobID())
}

// Indexer returns the service's indexer.
func (s *Service) Indexer() *indexing.Indexer {
	return s.indexer
}

// Wait blocks until all scheduled documents have been indexed.
func (s *Service) Wait() {
	s.indexer.Wait()
}

// Shutdown stops accepting documents, waits for indexing to finish or ctx
// to expire, and closes the storage.
func (s *Service) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.indexer.Close(ctx); err != nil {
		s.logger.Error("indexer did not finish", "err", err)
		errs = append(errs, err)
	}
	if err := s.chunkRepo.Close(); err != nil {
		s.logger.Error("error closing chunk repository", "err", err)
		errs = append(errs, err)
	}
	if err := s.docRepo.Close(); err != nil {
		s.logger.Error("error closing document repository", "err", err)
		errs = append(errs, err)
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close waits for all indexing to finish and closes the storage.
func (s *Service) Close() error {
	return s.Shutdown(context.Background())
}
