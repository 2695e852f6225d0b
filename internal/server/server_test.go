package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/slidetag"
	"github.com/tsawler/slidetag/internal/cache"
	"github.com/tsawler/slidetag/internal/pptxtest"
	"github.com/tsawler/slidetag/internal/service"
	"github.com/tsawler/slidetag/internal/storage"
	"github.com/tsawler/slidetag/tags"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupServer(t *testing.T, opts Options) (*Server, *storage.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(nil, service.Options{MaxDocumentBytes: opts.MaxUploadBytes}, cache.New(8, 0), nil, logger)
	store := storage.New(filepath.Join(t.TempDir(), "uploads"))
	return NewServer(svc, store, opts, logger), store
}

func chicagoDeck(t *testing.T) []byte {
	return pptxtest.Deck(t, pptxtest.Slide{Shapes: []pptxtest.Shape{
		{Name: "Text Placeholder 1", Runs: []string{"Chicago"}},
		{Name: "Text Placeholder 3", Runs: []string{"Billboard"}},
	}})
}

func multipartRequest(t *testing.T, url, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthCheck(t *testing.T) {
	srv, _ := setupServer(t, Options{})

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpload(t *testing.T) {
	srv, store := setupServer(t, Options{})

	w := serve(srv, multipartRequest(t, "/api/upload/file", "file", "Proposal.PPTX", []byte("anything")))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode(t, w)
	assert.Equal(t, "File uploaded successfully", resp["message"])
	name, _ := resp["fileName"].(string)
	assert.NoError(t, storage.ValidateName(name))
	assert.Equal(t, ".pptx", filepath.Ext(name))

	data, err := store.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "anything", string(data))
}

func TestUpload_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		filename string
		content  []byte
		message  string
	}{
		{"no file part", "", "", nil, "No file uploaded."},
		{"wrong field", "document", "deck.pptx", []byte("x"), "No file uploaded."},
		{"empty file", "file", "deck.pptx", []byte{}, "No file uploaded."},
		{"bad extension", "file", "notes.txt", []byte("x"), "Invalid file type. Only Excel, PDF, and PPT files are allowed."},
		{"no extension", "file", "README", []byte("x"), "Invalid file type. Only Excel, PDF, and PPT files are allowed."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, store := setupServer(t, Options{})

			w := serve(srv, multipartRequest(t, "/api/upload/file", tt.field, tt.filename, tt.content))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.message, decode(t, w)["error"])

			_, err := os.Stat(store.Dir())
			assert.True(t, os.IsNotExist(err), "nothing should be stored")
		})
	}
}

func TestUpload_SniffContent(t *testing.T) {
	srv, _ := setupServer(t, Options{SniffContent: true})

	w := serve(srv, multipartRequest(t, "/api/upload/file", "file", "report.pdf", []byte("not a pdf")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(srv, multipartRequest(t, "/api/upload/file", "file", "deck.pptx", chicagoDeck(t)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExtract(t *testing.T) {
	srv, _ := setupServer(t, Options{})
	deck := chicagoDeck(t)

	w := serve(srv, multipartRequest(t, "/api/extract", "file", "deck.pptx", deck))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res service.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, cache.Checksum(deck), res.Checksum)
	assert.False(t, res.Cached)
	assert.Equal(t, []slidetag.SlideRecord{{
		SlideNumber: 1,
		Shapes: []slidetag.ShapeRecord{
			{Tag: "City", Content: "Chicago"},
			{Tag: "Medium", Content: "Billboard"},
		},
	}}, res.Slides)

	w = serve(srv, multipartRequest(t, "/api/extract", "file", "again.pptx", deck))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["cached"])
}

func TestExtract_EmptyDeckIsArray(t *testing.T) {
	srv, _ := setupServer(t, Options{})

	w := serve(srv, multipartRequest(t, "/api/extract", "file", "empty.pptx", pptxtest.Deck(t)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decode(t, w)["slides"])
}

func TestExtract_Errors(t *testing.T) {
	deck := chicagoDeck(t)

	tests := []struct {
		name     string
		opts     Options
		filename string
		content  []byte
		code     int
	}{
		{"malformed", Options{}, "deck.pptx", deck[:len(deck)/2], http.StatusUnprocessableEntity},
		{"not pptx", Options{}, "deck.pdf", []byte("%PDF-1.7"), http.StatusBadRequest},
		{"too large", Options{MaxUploadBytes: 32}, "deck.pptx", deck, http.StatusRequestEntityTooLarge},
		{"empty", Options{}, "deck.pptx", []byte{}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := setupServer(t, tt.opts)
			w := serve(srv, multipartRequest(t, "/api/extract", "file", tt.filename, tt.content))
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.NotEmpty(t, decode(t, w)["error"])
		})
	}
}

func TestStoredUploads(t *testing.T) {
	srv, store := setupServer(t, Options{})
	deck := chicagoDeck(t)
	name, err := store.Save("deck.pptx", bytes.NewReader(deck))
	require.NoError(t, err)

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/uploads/"+name, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, deck, w.Body.Bytes())
	assert.Contains(t, w.Header().Get("Content-Disposition"), name)

	w = serve(srv, httptest.NewRequest(http.MethodPost, "/api/uploads/"+name+"/extract", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	slides := decode(t, w)["slides"].([]any)
	assert.Len(t, slides, 1)
}

func TestStoredUploads_NotFound(t *testing.T) {
	srv, store := setupServer(t, Options{})

	for _, path := range []string{
		"/api/uploads/" + uuid.NewString() + ".pptx",
		"/api/uploads/config.yaml",
		"/api/uploads/..%2F..%2Fetc%2Fpasswd",
	} {
		w := serve(srv, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}

	name, err := store.Save("book.xlsx", bytes.NewReader([]byte("cells")))
	require.NoError(t, err)
	w := serve(srv, httptest.NewRequest(http.MethodPost, "/api/uploads/"+name+"/extract", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTags(t *testing.T) {
	srv, _ := setupServer(t, Options{})

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/tags", nil))
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, float64(len(tags.DefaultMapping())), resp["count"])
	m := resp["tags"].(map[string]any)
	assert.Equal(t, "City", m["Text Placeholder 1"])
	assert.Equal(t, "QTY", m["Text Placeholder 11"])
}

func TestResolve(t *testing.T) {
	srv, _ := setupServer(t, Options{})

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/tags/resolve?label=Text+Placeholder+3", nil))
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "Medium", resp["tag"])
	assert.Equal(t, true, resp["mapped"])

	w = serve(srv, httptest.NewRequest(http.MethodGet, "/api/tags/resolve?label=Custom+Label", nil))
	resp = decode(t, w)
	assert.Equal(t, "Custom Label", resp["tag"])
	assert.Equal(t, false, resp["mapped"])

	w = serve(srv, httptest.NewRequest(http.MethodGet, "/api/tags/resolve", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{slidetag.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{service.ErrUnsupportedFormat, http.StatusBadRequest},
		{slidetag.ErrInvalidInput, http.StatusBadRequest},
		{slidetag.ErrMalformedDocument, http.StatusUnprocessableEntity},
		{storage.ErrUnsupportedType, http.StatusBadRequest},
		{storage.ErrNotFound, http.StatusNotFound},
		{storage.ErrInvalidName, http.StatusNotFound},
		{NewAppError(http.StatusTeapot, "teapot", nil), http.StatusTeapot},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, MapError(tt.err).Code, tt.err.Error())
	}
	assert.Nil(t, MapError(nil))
}

func TestHandleError_HidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	handleError(c, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
}
