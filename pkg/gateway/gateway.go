// Package gateway serves the public invoice submission endpoint. It hands
// submissions to the extraction backend and answers with a canned demo
// payload whenever the backend cannot.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"invoice-ai/pkg/logger"
	"invoice-ai/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	errNoImage       = "No image or image URL provided"
	errUsePost       = "Use POST method to process invoices"
	maxFormMemory    = 32 << 20
	fieldImage       = "image"
	fieldImageURL    = "imageUrl"
	contentTypeJSON  = "application/json; charset=utf-8"
	mediaMultipart   = "multipart/form-data"
	mediaURLEncoded  = "application/x-www-form-urlencoded"
	demoQueryParam   = "demo"
	demoQueryEnabled = "true"
)

var errNotFormData = errors.New("could not parse content as form data")

// Forwarder delivers a raw submission to the extraction backend
type Forwarder interface {
	Forward(ctx context.Context, contentType string, body []byte) ([]byte, error)
	Endpoint() string
}

// Gateway holds the dependencies for the submission handlers
type Gateway struct {
	client  Forwarder
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option customizes a Gateway.
type Option func(*Gateway)

// WithClock overrides the time source used for canned payloads.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// New creates a Gateway that delegates through client.
func New(client Forwarder, log *zap.Logger, m *metrics.Metrics, opts ...Option) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	g := &Gateway{
		client:  client,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Register mounts the gateway routes.
func (g *Gateway) Register(r gin.IRoutes) {
	r.POST(processInvoicePath, g.Submit)
	r.GET(processInvoicePath, g.FetchDemo)
}

type submission struct {
	ImageURL string
	FileName string
	HasImage bool
}

// Submit handles POST /process-invoice.
func (g *Gateway) Submit(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	contentType := c.GetHeader("Content-Type")
	sub, err := parseSubmission(contentType, raw)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !sub.HasImage && sub.ImageURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errNoImage})
		return
	}

	ctx := c.Request.Context()
	payload, err := g.client.Forward(ctx, contentType, raw)
	if err == nil {
		g.metrics.ObserveDelegation(metrics.OutcomeSuccess)
		c.Data(http.StatusOK, contentTypeJSON, payload)
		return
	}

	outcome := metrics.OutcomeUnreachable
	var delegationErr *DelegationError
	if errors.As(err, &delegationErr) {
		outcome = delegationErr.Outcome
	}
	g.metrics.ObserveDelegation(outcome)
	g.log.Warn("invoice backend unavailable, serving demo payload",
		zap.String("request_id", logger.RequestIDFromContext(ctx)),
		zap.String("backend", g.client.Endpoint()),
		zap.String("outcome", outcome),
		zap.Error(err),
	)

	c.JSON(http.StatusOK, FallbackResult(g.now(), sub.ImageURL, sub.FileName))
}

// FetchDemo handles GET /process-invoice?demo=true.
func (g *Gateway) FetchDemo(c *gin.Context) {
	if c.Query(demoQueryParam) != demoQueryEnabled {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": errUsePost})
		return
	}
	c.JSON(http.StatusOK, FixedDemoResult(g.now()))
}

// parseSubmission reads the image and imageUrl fields from a buffered form
// body. Only the body is inspected; the caller forwards raw untouched.
func parseSubmission(contentType string, raw []byte) (submission, error) {
	var sub submission

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return sub, errNotFormData
	}

	req, err := http.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	if err != nil {
		return sub, err
	}
	req.Header.Set("Content-Type", contentType)

	switch mediaType {
	case mediaMultipart:
		if err := req.ParseMultipartForm(maxFormMemory); err != nil {
			return sub, err
		}
		defer req.MultipartForm.RemoveAll() //nolint:errcheck
	case mediaURLEncoded:
		if err := req.ParseForm(); err != nil {
			return sub, err
		}
	default:
		return sub, errNotFormData
	}

	sub.ImageURL = req.PostForm.Get(fieldImageURL)
	if req.MultipartForm != nil {
		if files := req.MultipartForm.File[fieldImage]; len(files) > 0 {
			sub.FileName = files[0].Filename
			sub.HasImage = files[0].Filename != "" || files[0].Size > 0
		}
	}
	if !sub.HasImage && req.PostForm.Get(fieldImage) != "" {
		sub.HasImage = true
	}
	return sub, nil
}
