package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"

	"invoice-ai/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	path    string
	source  string
	content []byte
}

type fakeProcessor struct {
	calls []call
}

func (f *fakeProcessor) Process(ctx context.Context, imagePathOrURL, source string) models.ExtractionResult {
	content, _ := os.ReadFile(imagePathOrURL)
	f.calls = append(f.calls, call{path: imagePathOrURL, source: source, content: content})
	return models.ExtractionResult{
		RawText:     "text",
		InvoiceData: models.InvoiceData{VendorName: "ACME", LineItems: []models.LineItem{}, Currency: "USD"},
		Validation:  models.ValidationResult{IsValid: true, Errors: []string{}, Warnings: []string{}},
		Metadata:    models.Metadata{ProcessedAt: "now", Source: source},
	}
}

type fakeLister struct {
	invoices []models.Invoice
	err      error
	limit    int
}

func (f *fakeLister) List(ctx context.Context, limit int) ([]models.Invoice, error) {
	f.limit = limit
	return f.invoices, f.err
}

func newRouter(t *testing.T, p Processor, l InvoiceLister) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	r := gin.New()
	New(p, l, dir, nil).Register(r)
	return r, dir
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := newRouter(t, &fakeProcessor{}, nil)
	w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestProcessInvoiceUpload(t *testing.T) {
	p := &fakeProcessor{}
	r, dir := newRouter(t, p, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("imageUrl", "http://ignored.example/x.png"))
	part, err := mw.CreateFormFile("image", "receipt.jpg")
	require.NoError(t, err)
	part.Write([]byte("jpeg-bytes")) //nolint:errcheck
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/process-invoice", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := serve(r, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, p.calls, 1)
	assert.Equal(t, "receipt.jpg", p.calls[0].source)
	assert.Equal(t, []byte("jpeg-bytes"), p.calls[0].content)
	assert.Equal(t, ".jpg", p.calls[0].path[len(p.calls[0].path)-4:])

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "text", out["raw_text"])
	assert.Equal(t, "receipt.jpg", out["metadata"].(map[string]any)["source"])
	assert.NotContains(t, out, "demo")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "upload temp file should be removed")
}

func TestProcessInvoiceURL(t *testing.T) {
	p := &fakeProcessor{}
	r, _ := newRouter(t, p, nil)

	form := url.Values{"imageUrl": {"https://example.com/inv.png"}}
	req := httptest.NewRequest(http.MethodPost, "/process-invoice", bytes.NewBufferString(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := serve(r, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, p.calls, 1)
	assert.Equal(t, "https://example.com/inv.png", p.calls[0].path)
	assert.Equal(t, "https://example.com/inv.png", p.calls[0].source)
}

func TestProcessInvoiceMissingInput(t *testing.T) {
	p := &fakeProcessor{}
	r, _ := newRouter(t, p, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/process-invoice", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := serve(r, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"No image or imageUrl provided"}`, w.Body.String())
	assert.Empty(t, p.calls)
}

func TestListInvoices(t *testing.T) {
	t.Run("storage not configured", func(t *testing.T) {
		r, _ := newRouter(t, &fakeProcessor{}, nil)
		w := serve(r, httptest.NewRequest(http.MethodGet, "/invoices", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"error":"storage not configured"}`, w.Body.String())
	})

	t.Run("lists with limit", func(t *testing.T) {
		l := &fakeLister{invoices: []models.Invoice{{InvoiceNumber: "INV-1", VendorName: "ACME"}}}
		r, _ := newRouter(t, &fakeProcessor{}, l)
		w := serve(r, httptest.NewRequest(http.MethodGet, "/invoices?limit=5", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 5, l.limit)
		var out []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		require.Len(t, out, 1)
		assert.Equal(t, "INV-1", out[0]["InvoiceNumber"])
	})

	t.Run("bad limit", func(t *testing.T) {
		r, _ := newRouter(t, &fakeProcessor{}, &fakeLister{})
		w := serve(r, httptest.NewRequest(http.MethodGet, "/invoices?limit=abc", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store error", func(t *testing.T) {
		r, _ := newRouter(t, &fakeProcessor{}, &fakeLister{err: errors.New("boom")})
		w := serve(r, httptest.NewRequest(http.MethodGet, "/invoices", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "boom")
	})
}
