package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"invoice-ai/pkg/models"
	"invoice-ai/pkg/services/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOCR struct {
	text  string
	err   error
	paths []string
}

func (f *fakeOCR) Recognize(ctx context.Context, imagePath string) (string, error) {
	f.paths = append(f.paths, imagePath)
	return f.text, f.err
}

type fakeDownloader struct {
	path string
	err  error
	urls []string
}

func (f *fakeDownloader) Download(ctx context.Context, url string) (string, error) {
	f.urls = append(f.urls, url)
	return f.path, f.err
}

type fakeSaver struct {
	saved []*models.Invoice
	err   error
}

func (f *fakeSaver) Save(ctx context.Context, invoice *models.Invoice) error {
	f.saved = append(f.saved, invoice)
	return f.err
}

const sampleText = "ACME Corp\nInvoice No: 77\nDate: 2025-06-01\nWidget 2 5.00 10.00\nSubtotal 10.00\nTax 1.00\nTotal 11.00"

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestProcessLocalFile(t *testing.T) {
	ocr := &fakeOCR{text: "  " + sampleText + "\n"}
	dl := &fakeDownloader{}
	saver := &fakeSaver{}
	p := New(ocr, dl, validation.New(validation.DefaultRules()), WithStore(saver), WithClock(func() time.Time { return now }))

	got := p.Process(context.Background(), "/tmp/scan.png", "scan.png")

	assert.Equal(t, []string{"/tmp/scan.png"}, ocr.paths)
	assert.Empty(t, dl.urls)
	assert.Equal(t, sampleText, got.RawText)
	assert.Equal(t, "ACME Corp", got.InvoiceData.VendorName)
	assert.Equal(t, 11.0, got.InvoiceData.TotalAmount)
	assert.True(t, got.Validation.IsValid)
	assert.Equal(t, "scan.png", got.Metadata.Source)
	assert.Equal(t, "2025-06-01T12:00:00Z", got.Metadata.ProcessedAt)
	assert.False(t, got.Demo)

	require.Len(t, saver.saved, 1)
	assert.Equal(t, "77", saver.saved[0].InvoiceNumber)
	assert.Equal(t, "scan.png", saver.saved[0].Source)
}

func TestProcessRemoteURL(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "remote.png")
	require.NoError(t, os.WriteFile(tmp, []byte("img"), 0o600))

	ocr := &fakeOCR{text: sampleText}
	dl := &fakeDownloader{path: tmp}
	p := New(ocr, dl, validation.New(validation.DefaultRules()))

	got := p.Process(context.Background(), "https://example.com/inv.png", "https://example.com/inv.png")

	assert.Equal(t, []string{"https://example.com/inv.png"}, dl.urls)
	assert.Equal(t, []string{tmp}, ocr.paths)
	assert.Equal(t, "https://example.com/inv.png", got.Metadata.Source)
	_, err := os.Stat(tmp)
	assert.True(t, os.IsNotExist(err), "downloaded file should be removed")
}

func TestProcessOCRFailure(t *testing.T) {
	tests := []struct {
		name   string
		source string
		ocr    *fakeOCR
		dl     *fakeDownloader
	}{
		{
			name:   "recognizer error",
			source: "/tmp/a.png",
			ocr:    &fakeOCR{err: errors.New("quota exceeded")},
			dl:     &fakeDownloader{},
		},
		{
			name:   "download error",
			source: "http://example.com/missing.png",
			ocr:    &fakeOCR{},
			dl:     &fakeDownloader{err: errors.New("404 Not Found")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saver := &fakeSaver{err: errors.New("db down")}
			p := New(tt.ocr, tt.dl, validation.New(validation.DefaultRules()), WithStore(saver))

			got := p.Process(context.Background(), tt.source, tt.source)

			assert.Contains(t, got.RawText, "Error extracting text: ")
			assert.Equal(t, "Unknown", got.InvoiceData.VendorName)
			assert.Equal(t, 0.0, *got.InvoiceData.ConfidenceScore)
			assert.False(t, got.Validation.IsValid)
			assert.Contains(t, got.Validation.Errors, "Missing required field: total_amount")
			assert.True(t, got.Validation.RequiresHumanReview)
			assert.Len(t, saver.saved, 1, "store errors are logged, not returned")
		})
	}
}
