// Package backend exposes the extraction pipeline over HTTP. It is the
// service the gateway delegates to.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"invoice-ai/pkg/logger"
	"invoice-ai/pkg/models"
	"invoice-ai/pkg/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const errNoImage = "No image or imageUrl provided"

// Processor runs the extraction pipeline
type Processor interface {
	Process(ctx context.Context, imagePathOrURL, source string) models.ExtractionResult
}

// InvoiceLister reads stored invoices
type InvoiceLister interface {
	List(ctx context.Context, limit int) ([]models.Invoice, error)
}

// Handler holds the dependencies for the backend routes
type Handler struct {
	pipeline  Processor
	invoices  InvoiceLister
	uploadDir string
	log       *zap.Logger
}

// New creates a Handler. invoices may be nil when no database is configured.
func New(p Processor, invoices InvoiceLister, uploadDir string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{pipeline: p, invoices: invoices, uploadDir: uploadDir, log: log}
}

// Register mounts the backend routes.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/health", h.Health)
	r.POST("/process-invoice", h.ProcessInvoice)
	r.GET("/invoices", h.ListInvoices)
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ProcessInvoice handles POST /process-invoice. An uploaded image takes
// precedence over imageUrl.
func (h *Handler) ProcessInvoice(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil && !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	imageURL := c.PostForm("imageUrl")

	if file == nil && imageURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errNoImage})
		return
	}

	ctx := c.Request.Context()
	if file == nil {
		c.JSON(http.StatusOK, h.pipeline.Process(ctx, imageURL, imageURL))
		return
	}

	path, err := h.saveUpload(file)
	if err != nil {
		logger.FromContext(ctx).Error("failed to store upload", zap.String("filename", file.Filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer os.Remove(path)

	c.JSON(http.StatusOK, h.pipeline.Process(ctx, path, file.Filename))
}

// ListInvoices handles GET /invoices.
func (h *Handler) ListInvoices(c *gin.Context) {
	if h.invoices == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": store.ErrNotConfigured.Error()})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	invoices, err := h.invoices.List(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("failed to list invoices", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list invoices"})
		return
	}
	c.JSON(http.StatusOK, invoices)
}

func (h *Handler) saveUpload(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.CreateTemp(h.uploadDir, "upload-*"+filepath.Ext(filepath.Base(file.Filename)))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return dst.Name(), nil
}
