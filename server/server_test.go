package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/extract"
	"github.com/poiesic/docindex/indexing"
	"github.com/poiesic/docindex/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService extracts text like the real service and keeps documents in memory.
type fakeService struct {
	docs      map[core.ID]*core.Document
	nextID    core.ID
	ingestErr error
	keepDoc   bool // store the document before failing with ingestErr
}

func newFakeService() *fakeService {
	return &fakeService{docs: make(map[core.ID]*core.Document)}
}

func (f *fakeService) Ingest(_ context.Context, filename string, data []byte) (*core.Document, error) {
	if f.ingestErr != nil && !f.keepDoc {
		return nil, f.ingestErr
	}
	res, err := extract.Extract(filename, data)
	if err != nil {
		return nil, err
	}
	if core.IsBlank(res.Text) {
		return nil, core.ErrEmptyInput
	}
	f.nextID++
	doc := &core.Document{
		Id:          f.nextID,
		Filename:    filename,
		ContentType: res.ContentType,
		Content:     res.Text,
		InsertedAt:  time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	f.docs[doc.Id] = doc
	return doc, f.ingestErr
}

func (f *fakeService) Document(_ context.Context, id core.ID) (*core.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return doc, nil
}

func setupServer(t *testing.T, svc Service, opts ...Option) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv, err := New(svc, opts...)
	require.NoError(t, err)
	return srv.Handler()
}

func uploadRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	w, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestNew_RequiresService(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(newFakeService(), WithMaxUploadSize(0))
	assert.Error(t, err)
}

func TestUpload_Accepted(t *testing.T) {
	handler := setupServer(t, newFakeService())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, uploadRequest(t, "file", "notes.txt", []byte("hello world")))

	require.Equal(t, http.StatusAccepted, w.Code)
	var resp UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "1", resp.ID)
	assert.Equal(t, "notes.txt", resp.Filename)
	assert.Equal(t, extract.ContentTypeText, resp.ContentType)
	assert.Equal(t, StatusIndexing, resp.Status)
}

func TestUpload_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		filename string
		data     []byte
		want     int
	}{
		{"missing file field", "attachment", "notes.txt", []byte("hello"), http.StatusBadRequest},
		{"blank content", "file", "blank.txt", []byte("   \n"), http.StatusBadRequest},
		{"unsupported format", "file", "blob.bin", []byte{0x00, 0x01, 0x02, 0xFF}, http.StatusUnsupportedMediaType},
		{"corrupt docx", "file", "broken.docx", []byte("not a zip"), http.StatusBadRequest},
	}

	handler := setupServer(t, newFakeService())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, uploadRequest(t, tt.field, tt.filename, tt.data))
			assert.Equal(t, tt.want, w.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestUpload_NotMultipart(t *testing.T) {
	handler := setupServer(t, newFakeService())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", bytes.NewBufferString("raw"))
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpload_ServiceErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("document 3 stored but not indexed: %w", indexing.ErrIndexerBusy), http.StatusServiceUnavailable},
		{indexing.ErrIndexerClosed, http.StatusServiceUnavailable},
		{errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			svc := newFakeService()
			svc.ingestErr = tt.err
			handler := setupServer(t, svc)

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, uploadRequest(t, "file", "a.txt", []byte("text")))
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "disk full")
			}
		})
	}
}

func TestUpload_StoredButNotScheduled(t *testing.T) {
	svc := newFakeService()
	svc.ingestErr = fmt.Errorf("document 1 stored but not indexed: %w", indexing.ErrIndexerBusy)
	svc.keepDoc = true
	handler := setupServer(t, svc)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, uploadRequest(t, "file", "notes.txt", []byte("hello world")))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "1", resp.ID)
	assert.Contains(t, resp.Error, "stored but not indexed")

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/documents/1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetDocument(t *testing.T) {
	svc := newFakeService()
	handler := setupServer(t, svc)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, uploadRequest(t, "file", "notes.txt", []byte("hello world")))
	require.Equal(t, http.StatusAccepted, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/documents/1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp DocumentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "1", resp.ID)
	assert.Equal(t, "notes.txt", resp.Filename)
	assert.Equal(t, 11, resp.Length)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/documents/42", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/documents/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "docindex_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	handler := setupServer(t, newFakeService(), WithMetrics(reg))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "docindex_test_total 1")

	// Without a gatherer the route does not exist
	handler = setupServer(t, newFakeService())
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv, err := New(newFakeService())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
