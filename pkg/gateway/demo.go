package gateway

import (
	"time"

	"invoice-ai/pkg/models"
)

const (
	DemoInvoiceNumber = "INV-2025-002"
	DemoDate          = "2025-11-05"
	DemoSource        = "demo"
	UnknownSource     = "unknown"

	URLVendorName  = "XYZ Software Solutions"
	FileVendorName = "Demo Vendor"

	FallbackNote = "Invoice backend not configured. Set INVOICE_BACKEND_URL to a running extraction backend."
)

const (
	isoDate      = "2006-01-02"
	isoTimestamp = "2006-01-02T15:04:05.000Z07:00"
)

// DemoParams are the only fields that differ between canned payloads
type DemoParams struct {
	VendorName  string
	Date        string
	Source      string
	ProcessedAt time.Time
	Note        string
}

// DemoResult builds the canned extraction result served when no real
// backend answer is available.
func DemoResult(p DemoParams) models.ExtractionResult {
	return models.ExtractionResult{
		InvoiceData: models.InvoiceData{
			VendorName:    p.VendorName,
			InvoiceNumber: models.String(DemoInvoiceNumber),
			Date:          models.String(p.Date),
			LineItems: []models.LineItem{
				{
					Description: "Software License (Annual)",
					Quantity:    models.Float(2.0),
					UnitPrice:   models.Float(150.0),
					Amount:      300.0,
				},
				{
					Description: "Installation Support (Hours)",
					Quantity:    models.Float(1.0),
					UnitPrice:   models.Float(850.0),
					Amount:      850.0,
				},
			},
			Subtotal:        models.Float(1600.0),
			TaxAmount:       models.Float(1350.0),
			TotalAmount:     2950.0,
			Currency:        "USD",
			VendorAddress:   models.String("456 Cyber Street, Hyderabad, India"),
			ConfidenceScore: models.Float(0.9),
		},
		Validation: models.ValidationResult{
			IsValid:             true,
			Errors:              []string{},
			Warnings:            []string{},
			RequiresHumanReview: false,
		},
		Metadata: models.Metadata{
			ProcessedAt: p.ProcessedAt.UTC().Format(isoTimestamp),
			Source:      p.Source,
		},
		Demo: true,
		Note: p.Note,
	}
}

// FallbackResult is served by submit when delegation fails.
func FallbackResult(now time.Time, imageURL, fileName string) models.ExtractionResult {
	vendor := FileVendorName
	if imageURL != "" {
		vendor = URLVendorName
	}
	source := UnknownSource
	switch {
	case imageURL != "":
		source = imageURL
	case fileName != "":
		source = fileName
	}
	return DemoResult(DemoParams{
		VendorName:  vendor,
		Date:        now.UTC().Format(isoDate),
		Source:      source,
		ProcessedAt: now,
		Note:        FallbackNote,
	})
}

// FixedDemoResult is served by the GET demo endpoint.
func FixedDemoResult(now time.Time) models.ExtractionResult {
	return DemoResult(DemoParams{
		VendorName:  URLVendorName,
		Date:        DemoDate,
		Source:      DemoSource,
		ProcessedAt: now,
	})
}
