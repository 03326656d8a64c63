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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/poiesic/docindex"
	"github.com/poiesic/docindex/ai"
	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/extract"
	"github.com/poiesic/docindex/indexing"
	"github.com/poiesic/docindex/server"
	redisstore "github.com/poiesic/docindex/storage/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docindex",
		Usage: "Chunk, embed and index documents for semantic retrieval",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"DOCINDEX_LOG_LEVEL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Index files and wait for indexing to finish",
				ArgsUsage: "FILE...",
				Action:    ingestCommand,
				Flags: append(serviceFlags(),
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
				),
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed every stored document, e.g. after changing the embedding model",
				Action: reindexCommand,
				Flags: append(serviceFlags(),
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
				),
			},
			{
				Name:   "serve",
				Usage:  "Serve the document upload API",
				Action: serveCommand,
				Flags: append(serviceFlags(),
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "Address to listen on",
						Value:   "127.0.0.1:8080",
						EnvVars: []string{"DOCINDEX_ADDR"},
					},
					&cli.Int64Flag{
						Name:  "max-upload-size",
						Usage: "Largest accepted upload in bytes",
						Value: server.DefaultMaxUploadSize,
					},
					&cli.DurationFlag{
						Name:  "shutdown-timeout",
						Usage: "How long to wait for in-flight indexing on shutdown",
						Value: 30 * time.Second,
					},
				),
			},
			{
				Name:      "chunks",
				Usage:     "List the indexed chunks of a document",
				ArgsUsage: "DOCUMENT_ID",
				Action:    chunksCommand,
				Flags: []cli.Flag{
					dbFlag(),
					redisFlag(),
				},
			},
		},
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		Required: true,
		EnvVars:  []string{"DOCINDEX_DB"},
	}
}

func redisFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "redis-url",
		Usage:   "Store embedded chunks in Redis instead of the local database",
		EnvVars: []string{"DOCINDEX_REDIS_URL"},
	}
}

// serviceFlags are shared by the commands that index documents.
func serviceFlags() []cli.Flag {
	return []cli.Flag{
		dbFlag(),
		redisFlag(),
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"DOCINDEX_EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:     "embedding-model",
			Usage:    "Embedding model name",
			Required: true,
			EnvVars:  []string{"DOCINDEX_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "embedding-token",
			Usage:   "API token for the embedding service",
			EnvVars: []string{"DOCINDEX_EMBEDDING_TOKEN"},
		},
		&cli.IntFlag{
			Name:    "window-size",
			Usage:   "Characters per chunk",
			Value:   indexing.DefaultWindowSize,
			EnvVars: []string{"DOCINDEX_WINDOW_SIZE"},
		},
		&cli.IntFlag{
			Name:    "overlap",
			Usage:   "Characters shared by consecutive chunks",
			Value:   indexing.DefaultOverlap,
			EnvVars: []string{"DOCINDEX_OVERLAP"},
		},
		&cli.IntFlag{
			Name:    "batch-size",
			Usage:   "Number of chunks sent to the store at once",
			Value:   indexing.DefaultBatchSize,
			EnvVars: []string{"DOCINDEX_BATCH_SIZE"},
		},
		&cli.IntFlag{
			Name:    "pool-size",
			Usage:   "Maximum documents indexed at once (0 for unbounded)",
			Value:   0,
			EnvVars: []string{"DOCINDEX_POOL_SIZE"},
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Maximum attempts per batch (1 disables retries)",
			Value: 3,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: 1 * time.Second,
		},
	}
}

// openService builds the service from the command's flags. Extra indexer
// options are applied after the ones derived from flags.
func openService(c *cli.Context, extra ...indexing.Option) (*docindex.Service, error) {
	dbPath := c.String("db")
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if c.Int("max-retries") <= 0 {
		return nil, fmt.Errorf("max-retries must be greater than 0")
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithToken(c.String("embedding-token")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	indexerOpts := append([]indexing.Option{
		indexing.WithChunking(core.ChunkingConfig{
			WindowSize: c.Int("window-size"),
			Overlap:    c.Int("overlap"),
		}),
		indexing.WithBatchSize(c.Int("batch-size")),
		indexing.WithPoolSize(c.Int("pool-size")),
	}, extra...)

	opts := []docindex.Option{
		docindex.WithAIConfig(aiConfig),
		docindex.WithRetry(c.Int("max-retries"), c.Duration("retry-delay")),
		docindex.WithIndexerOptions(indexerOpts...),
	}

	if url := c.String("redis-url"); url != "" {
		repo, err := redisstore.Open(c.Context, url, redisstore.DefaultPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		opts = append(opts, docindex.WithChunkRepository(repo))
	}

	svc, err := docindex.Open(dbPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return svc, nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	progress := indexing.NewProgressTracker(c.App.ErrWriter, c.Int("report-interval"))
	var (
		mu         sync.Mutex
		failedJobs []indexing.JobReport
	)
	onJob := func(report indexing.JobReport) {
		if !report.Succeeded() {
			mu.Lock()
			failedJobs = append(failedJobs, report)
			mu.Unlock()
		}
	}

	svc, err := openService(c,
		indexing.WithBatchObserver(progress.Observe),
		indexing.WithJobObserver(onJob),
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", c.String("db"))
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(c.App.ErrWriter)

	progress.Start()
	var docs []*core.Document
	for _, path := range c.Args().Slice() {
		doc, err := ingestFile(c.Context, svc, progress, path)
		if err != nil {
			slog.Error("skipping file", "path", path, "err", err)
			continue
		}
		docs = append(docs, doc)
	}

	// failedJobs is complete once Close has waited for every job.
	closeErr := svc.Close()
	progress.Finish()

	for _, doc := range docs {
		fmt.Fprintf(c.App.Writer, "%s\t%s\n", doc.JobID(), doc.Filename)
	}
	for _, report := range failedJobs {
		fmt.Fprintf(c.App.ErrWriter, "document %s: %d of %d chunks failed: %v\n",
			report.JobID, report.FailedChunks(), report.Chunks, report.JoinedError())
	}

	if closeErr != nil {
		return fmt.Errorf("indexing did not finish cleanly: %w", closeErr)
	}
	if len(docs) == 0 {
		return fmt.Errorf("no files were ingested")
	}
	if len(failedJobs) > 0 {
		return fmt.Errorf("%d of %d documents were not fully indexed", len(failedJobs), len(docs))
	}
	return nil
}

func ingestFile(ctx context.Context, svc *docindex.Service, progress *indexing.ProgressTracker, path string) (*core.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	filename := filepath.Base(path)
	result, err := extract.Extract(filename, data)
	if err != nil {
		return nil, err
	}

	chunks, _, err := svc.Indexer().Estimate(core.Job{Text: result.Text})
	if err != nil {
		return nil, err
	}
	progress.AddTotal(chunks)

	return svc.IngestExtracted(ctx, filename, result)
}

func reindexCommand(c *cli.Context) error {
	progress := indexing.NewProgressTracker(c.App.ErrWriter, c.Int("report-interval"))
	var failed atomic.Int64
	svc, err := openService(c,
		indexing.WithBatchObserver(progress.Observe),
		indexing.WithJobObserver(func(report indexing.JobReport) {
			if !report.Succeeded() {
				failed.Add(1)
			}
		}),
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", c.String("db"))
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(c.App.ErrWriter)

	progress.Start()
	count, err := svc.Reindex(c.Context, func(doc *core.Document) {
		if chunks, _, err := svc.Indexer().Estimate(core.Job{Text: doc.Content}); err == nil {
			progress.AddTotal(chunks)
		}
	})
	closeErr := svc.Close()
	progress.Finish()
	if err != nil {
		return fmt.Errorf("reindexing failed: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("indexing did not finish cleanly: %w", closeErr)
	}

	fmt.Fprintf(c.App.ErrWriter, "Reindexing complete. Processed %d documents in %v\n",
		count, progress.Elapsed().Round(time.Millisecond))
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d documents were not fully indexed", n, count)
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, err := openService(c, indexing.WithMetrics(registry))
	if err != nil {
		return err
	}

	srv, err := server.New(svc,
		server.WithMetrics(registry),
		server.WithMaxUploadSize(c.Int64("max-upload-size")),
	)
	if err != nil {
		svc.Close()
		return err
	}

	runErr := srv.Run(ctx, c.String("addr"))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Duration("shutdown-timeout"))
	defer cancel()
	if err := svc.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown incomplete", "err", err)
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}

func chunksCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one document id is required")
	}
	id, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid document id %q: %w", c.Args().First(), err)
	}

	var opts []docindex.Option
	if url := c.String("redis-url"); url != "" {
		repo, err := redisstore.Open(c.Context, url, redisstore.DefaultPrefix)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		opts = append(opts, docindex.WithChunkRepository(repo))
	}
	// The embedding store is never used here, any embedder will do.
	opts = append(opts, docindex.WithAIConfig(ai.DefaultConfig()))

	svc, err := docindex.Open(c.String("db"), opts...)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer svc.Close()

	doc, err := svc.Document(c.Context, core.ID(id))
	if err != nil {
		return fmt.Errorf("document %d: %w", id, err)
	}
	chunks, err := svc.Chunks(c.Context, doc.Id)
	if err != nil {
		return fmt.Errorf("listing chunks: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "%s (%s, %d chars, %d chunks)\n",
		doc.Filename, doc.ContentType, len(doc.Content), len(chunks))
	for _, chunk := range chunks {
		fmt.Fprintf(c.App.Writer, "%d\t%d\t%s\n", chunk.Index, chunk.Offset, preview(chunk.Text, 60))
	}
	return nil
}

func preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
