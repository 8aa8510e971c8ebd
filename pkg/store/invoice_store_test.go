package store

import (
	"context"
	"path/filepath"
	"testing"

	"invoice-ai/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *InvoiceStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "invoices.db")), &gorm.Config{})
	require.NoError(t, err)
	s, err := New(db)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenWithoutURL(t *testing.T) {
	_, err := Open("")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSaveAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)

	first := &models.Invoice{InvoiceNumber: "INV-1", VendorName: "ACME", TotalAmount: 10, Currency: "USD"}
	second := &models.Invoice{InvoiceNumber: "INV-2", VendorName: "Globex", TotalAmount: 20, Currency: "EUR", IsValid: true}
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, second))
	assert.NotZero(t, first.ID)

	got, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "INV-2", got[0].InvoiceNumber)
	assert.True(t, got[0].IsValid)
	assert.Equal(t, "INV-1", got[1].InvoiceNumber)

	limited, err := s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestNewInvoiceRecord(t *testing.T) {
	record := models.NewInvoiceRecord(models.ExtractionResult{
		InvoiceData: models.InvoiceData{
			VendorName:      "ACME",
			InvoiceNumber:   models.String("INV-9"),
			Date:            models.String("2025-01-02"),
			TotalAmount:     12.5,
			Currency:        "USD",
			ConfidenceScore: models.Float(0.8),
		},
		Validation: models.ValidationResult{IsValid: false, RequiresHumanReview: true},
		Metadata:   models.Metadata{Source: "scan.png"},
	})

	assert.Equal(t, "INV-9", record.InvoiceNumber)
	assert.Equal(t, "2025-01-02", record.Date)
	assert.Equal(t, 0.8, record.ConfidenceScore)
	assert.Equal(t, "scan.png", record.Source)
	assert.True(t, record.RequiresReview)
	assert.False(t, record.IsValid)
}
