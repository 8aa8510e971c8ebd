// Package pipeline runs one invoice image through OCR, parsing and
// validation and assembles the extraction result.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"invoice-ai/pkg/metrics"
	"invoice-ai/pkg/models"
	"invoice-ai/pkg/services/parser"
	"invoice-ai/pkg/services/validation"

	"go.uber.org/zap"
)

// TextRecognizer turns a local image into page text
type TextRecognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// ImageDownloader fetches a remote image into a local file
type ImageDownloader interface {
	Download(ctx context.Context, url string) (string, error)
}

// InvoiceSaver persists processed invoices
type InvoiceSaver interface {
	Save(ctx context.Context, invoice *models.Invoice) error
}

// Pipeline is the complete OCR -> parse -> validate flow
type Pipeline struct {
	ocr        TextRecognizer
	downloader ImageDownloader
	validator  *validation.Validator
	store      InvoiceSaver
	metrics    *metrics.Metrics
	log        *zap.Logger
	now        func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithStore persists a summary of every processed invoice.
func WithStore(s InvoiceSaver) Option {
	return func(p *Pipeline) { p.store = s }
}

// WithMetrics records pipeline outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithClock overrides the time source for metadata.processed_at.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New builds a pipeline.
func New(ocr TextRecognizer, downloader ImageDownloader, validator *validation.Validator, opts ...Option) *Pipeline {
	p := &Pipeline{
		ocr:        ocr,
		downloader: downloader,
		validator:  validator,
		log:        zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process extracts invoice data from a local path or an http(s) URL.
// source is reported in the result metadata. OCR failures do not fail the
// call; they surface as raw text and a minimal, low-confidence record.
func (p *Pipeline) Process(ctx context.Context, imagePathOrURL, source string) models.ExtractionResult {
	rawText := p.extractText(ctx, imagePathOrURL)
	data := parser.Parse(rawText)
	result := models.ExtractionResult{
		RawText:     rawText,
		InvoiceData: data,
		Validation:  p.validator.Validate(data),
		Metadata: models.Metadata{
			ProcessedAt: p.now().UTC().Format(time.RFC3339Nano),
			Source:      source,
		},
	}

	p.metrics.ObserveExtraction(result.Validation.IsValid, result.Validation.RequiresHumanReview)

	if p.store != nil {
		if err := p.store.Save(ctx, models.NewInvoiceRecord(result)); err != nil {
			p.log.Error("failed to store processed invoice", zap.String("source", source), zap.Error(err))
		}
	}
	return result
}

func (p *Pipeline) extractText(ctx context.Context, imagePathOrURL string) string {
	path := imagePathOrURL
	if strings.HasPrefix(imagePathOrURL, "http") {
		downloaded, err := p.downloader.Download(ctx, imagePathOrURL)
		if err != nil {
			return p.ocrError(imagePathOrURL, err)
		}
		defer os.Remove(downloaded)
		path = downloaded
	}

	text, err := p.ocr.Recognize(ctx, path)
	if err != nil {
		return p.ocrError(imagePathOrURL, err)
	}
	return strings.TrimSpace(text)
}

func (p *Pipeline) ocrError(source string, err error) string {
	p.log.Warn("text extraction failed", zap.String("source", source), zap.Error(err))
	return fmt.Sprintf("%s: %v", parser.OCRErrorPrefix, err)
}
