package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/extract"
	"github.com/poiesic/docindex/indexing"
	"github.com/poiesic/docindex/storage"
)

// StatusIndexing is reported for a freshly accepted upload.
const StatusIndexing = "indexing"

// UploadResponse is returned by POST /api/documents/upload.
type UploadResponse struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Status      string `json:"status"`
}

// DocumentResponse is returned by GET /api/documents/:id.
type DocumentResponse struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Length      int       `json:"length"`
	InsertedAt  time.Time `json:"inserted_at"`
}

type errorResponse struct {
	Error string `json:"error"`
	ID    string `json:"id,omitempty"` // Set when the document was stored anyway
}

func (s *Server) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadSize)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abort(c, http.StatusRequestEntityTooLarge, err)
			return
		}
		abort(c, http.StatusBadRequest, errors.New("multipart field \"file\" is required"))
		return
	}

	file, err := header.Open()
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	doc, err := s.service.Ingest(c.Request.Context(), header.Filename, data)
	if err != nil {
		if doc != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(statusFor(err), errorResponse{Error: err.Error(), ID: doc.JobID()})
			return
		}
		abort(c, statusFor(err), err)
		return
	}

	c.JSON(http.StatusAccepted, UploadResponse{
		ID:          doc.JobID(),
		Filename:    doc.Filename,
		ContentType: doc.ContentType,
		Status:      StatusIndexing,
	})
}

func (s *Server) getDocument(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		abort(c, http.StatusBadRequest, errors.New("invalid document id"))
		return
	}

	doc, err := s.service.Document(c.Request.Context(), core.ID(id))
	if err != nil {
		abort(c, statusFor(err), err)
		return
	}

	c.JSON(http.StatusOK, DocumentResponse{
		ID:          doc.JobID(),
		Filename:    doc.Filename,
		ContentType: doc.ContentType,
		Length:      len(doc.Content),
		InsertedAt:  doc.InsertedAt,
	})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrEmptyInput),
		errors.Is(err, extract.ErrCorruptDocument),
		errors.Is(err, core.ErrInvalidDocument):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, indexing.ErrIndexerBusy),
		errors.Is(err, indexing.ErrIndexerClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: message})
}
