// Package server exposes document upload over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/docindex/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultMaxUploadSize limits the size of an uploaded file.
const DefaultMaxUploadSize = 32 << 20

// Service is the document ingestion capability the server exposes.
type Service interface {
	// Ingest stores the file and schedules it for indexing. A non-nil
	// document alongside an error means it was stored but not scheduled.
	Ingest(ctx context.Context, filename string, data []byte) (*core.Document, error)
	// Document returns a stored document.
	Document(ctx context.Context, id core.ID) (*core.Document, error)
}

// Server serves the upload API.
type Server struct {
	service       Service
	gatherer      prometheus.Gatherer
	maxUploadSize int64
	logger        *slog.Logger
	router        *gin.Engine
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMetrics serves the metrics of gatherer on GET /metrics.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(s *Server) error {
		s.gatherer = gatherer
		return nil
	}
}

// WithMaxUploadSize sets the largest accepted upload in bytes.
// Default is DefaultMaxUploadSize.
func WithMaxUploadSize(size int64) Option {
	return func(s *Server) error {
		if size <= 0 {
			return fmt.Errorf("max upload size must be > 0, got %d", size)
		}
		s.maxUploadSize = size
		return nil
	}
}

// New creates a server backed by service.
func New(service Service, opts ...Option) (*Server, error) {
	if service == nil {
		return nil, errors.New("server: service is required")
	}
	s := &Server{
		service:       service,
		maxUploadSize: DefaultMaxUploadSize,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "http")
	s.router = s.buildRouter()
	return s, nil
}

func (s *Server) buildRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(loggerMiddleware(s.logger))

	api := r.Group("/api")
	api.POST("/documents/upload", s.upload)
	api.GET("/documents/:id", s.getDocument)

	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "address", fmt.Sprintf("http://%s", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// loggerMiddleware logs each request through slog.
func loggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "err", c.Errors.String())
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("request failed", attrs...)
		case c.Writer.Status() >= http.StatusBadRequest:
			logger.Warn("request rejected", attrs...)
		default:
			logger.Debug("request served", attrs...)
		}
	}
}
