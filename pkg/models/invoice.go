package models

import (
	"gorm.io/gorm"
)

// Invoice is the persisted summary of one processed invoice
type Invoice struct {
	gorm.Model
	InvoiceNumber   string
	Date            string
	TotalAmount     float64
	Currency        string
	VendorName      string
	Source          string
	ConfidenceScore float64
	IsValid         bool
	RequiresReview  bool
}

// NewInvoiceRecord flattens an extraction result into a storable row
func NewInvoiceRecord(result ExtractionResult) *Invoice {
	data := result.InvoiceData
	record := &Invoice{
		TotalAmount:    data.TotalAmount,
		Currency:       data.Currency,
		VendorName:     data.VendorName,
		Source:         result.Metadata.Source,
		IsValid:        result.Validation.IsValid,
		RequiresReview: result.Validation.RequiresHumanReview,
	}
	if data.InvoiceNumber != nil {
		record.InvoiceNumber = *data.InvoiceNumber
	}
	if data.Date != nil {
		record.Date = *data.Date
	}
	if data.ConfidenceScore != nil {
		record.ConfidenceScore = *data.ConfidenceScore
	}
	return record
}

// TextLine represents a line of text with its position from OCR
type TextLine struct {
	Text   string
	X      int
	Y      int
	Width  int
	Height int
}
