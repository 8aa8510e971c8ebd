package models

// LineItem is a single purchased item or service on an invoice
type LineItem struct {
	Description string   `json:"description"`
	Quantity    *float64 `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price"`
	Amount      float64  `json:"amount"`
}

// InvoiceData holds the structured fields extracted from an invoice or receipt
type InvoiceData struct {
	VendorName      string     `json:"vendor_name"`
	InvoiceNumber   *string    `json:"invoice_number"`
	Date            *string    `json:"date"`
	LineItems       []LineItem `json:"line_items"`
	Subtotal        *float64   `json:"subtotal"`
	TaxAmount       *float64   `json:"tax_amount"`
	TotalAmount     float64    `json:"total_amount"`
	Currency        string     `json:"currency"`
	VendorAddress   *string    `json:"vendor_address"`
	VendorPhone     *string    `json:"vendor_phone,omitempty"`
	PaymentMethod   *string    `json:"payment_method,omitempty"`
	ConfidenceScore *float64   `json:"confidence_score"`
}

// ValidationResult reports business-rule checks on extracted invoice data
type ValidationResult struct {
	IsValid             bool     `json:"is_valid"`
	Errors              []string `json:"errors"`
	Warnings            []string `json:"warnings"`
	RequiresHumanReview bool     `json:"requires_human_review"`
}

// Metadata describes when and from what an extraction was produced
type Metadata struct {
	ProcessedAt string `json:"processed_at"`
	Source      string `json:"source"`
}

// ExtractionResult is the response body returned for a processed invoice.
// RawText is only set by the extraction backend; Demo and Note only by the
// gateway's canned payloads.
type ExtractionResult struct {
	RawText     string           `json:"raw_text,omitempty"`
	InvoiceData InvoiceData      `json:"invoice_data"`
	Validation  ValidationResult `json:"validation"`
	Metadata    Metadata         `json:"metadata"`
	Demo        bool             `json:"demo,omitempty"`
	Note        string           `json:"note,omitempty"`
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// String returns a pointer to s
func String(s string) *string {
	return &s
}
