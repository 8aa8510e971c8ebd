// Package validation checks extracted invoice data against business rules.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"invoice-ai/pkg/models"
)

// Rules are the thresholds applied by the Validator
type Rules struct {
	MinConfidence    float64
	ReviewConfidence float64
	MaxAmount        float64
	MaxWarnings      int
	Tolerance        float64
	DateFormat       *regexp.Regexp
}

// DefaultRules returns the production thresholds.
func DefaultRules() Rules {
	return Rules{
		MinConfidence:    0.7,
		ReviewConfidence: 0.6,
		MaxAmount:        100000,
		MaxWarnings:      2,
		Tolerance:        0.01,
		DateFormat:       regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`),
	}
}

// Validator validates extracted invoice data
type Validator struct {
	rules Rules
}

// New creates a Validator with the given rules.
func New(rules Rules) *Validator {
	return &Validator{rules: rules}
}

// Validate applies every rule and decides whether a human should review the result.
func (v *Validator) Validate(data models.InvoiceData) models.ValidationResult {
	errs := []string{}
	warnings := []string{}

	if data.VendorName == "" {
		errs = append(errs, "Missing required field: vendor_name")
	}
	if data.TotalAmount == 0 {
		errs = append(errs, "Missing required field: total_amount")
	}

	if c := data.ConfidenceScore; c != nil && *c != 0 && *c < v.rules.MinConfidence {
		warnings = append(warnings, fmt.Sprintf("Low confidence score: %.2f", *c))
	}

	if data.TotalAmount > v.rules.MaxAmount {
		warnings = append(warnings, fmt.Sprintf("Unusually high amount: %s", formatAmount(data.TotalAmount)))
	}

	if data.Subtotal != nil && data.TaxAmount != nil {
		calculated := *data.Subtotal + *data.TaxAmount
		if math.Abs(calculated-data.TotalAmount) > v.rules.Tolerance {
			errs = append(errs, fmt.Sprintf("Total amount mismatch: %s != %s",
				formatAmount(data.TotalAmount), formatAmount(calculated)))
		}
	}

	if data.Date != nil && *data.Date != "" && !v.rules.DateFormat.MatchString(*data.Date) {
		errs = append(errs, fmt.Sprintf("Invalid date format: %s", *data.Date))
	}

	requiresReview := len(errs) > 0 ||
		len(warnings) > v.rules.MaxWarnings ||
		(data.ConfidenceScore != nil && *data.ConfidenceScore < v.rules.ReviewConfidence)

	return models.ValidationResult{
		IsValid:             len(errs) == 0,
		Errors:              errs,
		Warnings:            warnings,
		RequiresHumanReview: requiresReview,
	}
}

// formatAmount prints whole amounts with one decimal place (150000.0) and
// everything else in the shortest exact form.
func formatAmount(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e16 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
