// Package parser turns OCR text from an invoice or receipt into structured
// invoice fields using layout-independent text heuristics.
package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"invoice-ai/pkg/models"
)

// OCRErrorPrefix marks raw text that carries an OCR failure instead of page text.
const OCRErrorPrefix = "Error extracting text"

const (
	defaultCurrency = "USD"
	unknownVendor   = "Unknown"
	dateLayout      = "2006-01-02"
)

const money = `(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2}`

var (
	moneyRe   = regexp.MustCompile(`[$€£₹]?\s*(` + money + `)\b`)
	percentRe = regexp.MustCompile(`\d+(?:\.\d+)?\s*%`)
	letterRe  = regexp.MustCompile(`[A-Za-z]`)

	fullItemRe   = regexp.MustCompile(`^(.*?[A-Za-z].*?)\s+(\d+(?:\.\d+)?)\s*[xX]?\s+[$€£₹]?\s*(` + money + `)\s+[$€£₹]?\s*(` + money + `)$`)
	simpleItemRe = regexp.MustCompile(`^(.*?[A-Za-z].*?)\s+[$€£₹]?\s*(` + money + `)$`)

	headerRe      = regexp.MustCompile(`(?i)^(tax\s+)?(invoice|receipt|bill|statement|quotation)\s*$`)
	invoiceNoRe   = regexp.MustCompile(`(?i)\b(?:invoice|inv|receipt|bill)\b\.?\s*(?:no\.?|number|num|#)?\s*[:#]?\s*([A-Z0-9][A-Z0-9\-/]*)`)
	invoiceCodeRe = regexp.MustCompile(`(?i)\b(INV[-/]?[A-Z0-9][A-Z0-9\-/]*)`)
	digitRe       = regexp.MustCompile(`\d`)

	isoDateRe     = regexp.MustCompile(`\b(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})\b`)
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})\b`)
	monthFirstRe  = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
	dayFirstRe    = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?,?\s+(\d{4})\b`)
	dateLabelRe   = regexp.MustCompile(`(?i)\bdate\b`)
	dueRe         = regexp.MustCompile(`(?i)\bdue\b`)

	subtotalRe   = regexp.MustCompile(`(?i)\bsub\s*-?\s*total\b`)
	grandTotalRe = regexp.MustCompile(`(?i)\b(grand\s+total|total\s+due|amount\s+due|balance\s+due|total\s+amount|amount\s+payable)\b`)
	totalRe      = regexp.MustCompile(`(?i)\btotal\b`)
	taxRe        = regexp.MustCompile(`(?i)\b(tax|vat|gst|hst)\b`)
	summaryRe    = regexp.MustCompile(`(?i)\b(total|subtotal|sub-total|tax|vat|gst|hst|amount\s+due|balance|change|cash|paid|payment|discount|tip|rounding|invoice|date)\b`)

	addressRe = regexp.MustCompile(`(?i)\d+\s+\w+.*\b(street|st|road|rd|avenue|ave|lane|ln|boulevard|blvd|drive|dr|way|suite|highway|hwy)\b`)
	phoneRe   = regexp.MustCompile(`(?i)\b(?:phone|tel|telephone|ph|mobile)\b\.?\s*:?\s*(\+?[\d\s().-]{7,}\d)`)

	currencyCodeRe = regexp.MustCompile(`\b(USD|EUR|GBP|INR|JPY|CAD|AUD|CHF|SGD|AED)\b`)
)

var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"€", "EUR"},
	{"£", "GBP"},
	{"₹", "INR"},
	{"Rs.", "INR"},
	{"$", "USD"},
}

var paymentMethods = []struct {
	re   *regexp.Regexp
	name string
}{
	{regexp.MustCompile(`(?i)\bvisa\b`), "Visa"},
	{regexp.MustCompile(`(?i)\b(mastercard|master card)\b`), "Mastercard"},
	{regexp.MustCompile(`(?i)\b(amex|american express)\b`), "American Express"},
	{regexp.MustCompile(`(?i)\bpaypal\b`), "PayPal"},
	{regexp.MustCompile(`(?i)\b(bank|wire)\s+transfer\b`), "Bank Transfer"},
	{regexp.MustCompile(`(?i)\bdebit\s+card\b`), "Debit Card"},
	{regexp.MustCompile(`(?i)\bcredit\s+card\b`), "Credit Card"},
	{regexp.MustCompile(`(?i)\bupi\b`), "UPI"},
	{regexp.MustCompile(`(?i)\bcash\b`), "Cash"},
}

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// Minimal is returned when the text carries nothing to parse.
func Minimal() models.InvoiceData {
	return models.InvoiceData{
		VendorName:      unknownVendor,
		LineItems:       []models.LineItem{},
		TotalAmount:     0,
		Currency:        defaultCurrency,
		ConfidenceScore: models.Float(0),
	}
}

// Parse extracts invoice fields from OCR text.
func Parse(text string) models.InvoiceData {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.HasPrefix(trimmed, OCRErrorPrefix) {
		return Minimal()
	}

	lines := splitLines(trimmed)
	data := models.InvoiceData{
		LineItems: []models.LineItem{},
		Currency:  detectCurrency(trimmed),
	}

	vendorIdx := -1
	for i, line := range lines {
		if isVendorCandidate(line) {
			data.VendorName = line
			vendorIdx = i
			break
		}
	}
	if data.VendorName == "" {
		data.VendorName = unknownVendor
	}

	data.InvoiceNumber = findInvoiceNumber(lines)
	data.Date = findDate(lines)
	data.VendorAddress = findAddress(lines, vendorIdx)
	data.VendorPhone = findPhone(lines)
	data.PaymentMethod = findPaymentMethod(trimmed)

	var grandTotal, plainTotal *float64
	for i, line := range lines {
		if i == vendorIdx {
			continue
		}
		amountLine := percentRe.ReplaceAllString(line, "")
		switch {
		case subtotalRe.MatchString(line):
			if v, ok := lastAmount(amountLine); ok {
				data.Subtotal = models.Float(v)
			}
		case grandTotalRe.MatchString(line):
			if v, ok := lastAmount(amountLine); ok {
				grandTotal = models.Float(v)
			}
		case totalRe.MatchString(line) && !taxRe.MatchString(line):
			if v, ok := lastAmount(amountLine); ok {
				plainTotal = models.Float(v)
			}
		case taxRe.MatchString(line):
			if v, ok := lastAmount(amountLine); ok {
				if data.TaxAmount != nil {
					v += *data.TaxAmount
				}
				data.TaxAmount = models.Float(round2(v))
			}
		case !summaryRe.MatchString(line):
			if item, ok := parseLineItem(line); ok {
				data.LineItems = append(data.LineItems, item)
			}
		}
	}

	switch {
	case grandTotal != nil:
		data.TotalAmount = *grandTotal
	case plainTotal != nil:
		data.TotalAmount = *plainTotal
	}

	if data.Subtotal == nil && len(data.LineItems) > 0 {
		var sum float64
		for _, item := range data.LineItems {
			sum += item.Amount
		}
		data.Subtotal = models.Float(round2(sum))
	}

	data.ConfidenceScore = models.Float(confidence(data))
	return data
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func isVendorCandidate(line string) bool {
	if !letterRe.MatchString(line) || headerRe.MatchString(line) {
		return false
	}
	if moneyRe.MatchString(line) || dateLabelRe.MatchString(line) {
		return false
	}
	if m := invoiceNoRe.FindStringSubmatch(line); m != nil && digitRe.MatchString(m[1]) {
		return false
	}
	return true
}

func findInvoiceNumber(lines []string) *string {
	for _, line := range lines {
		for _, m := range invoiceNoRe.FindAllStringSubmatch(line, -1) {
			if digitRe.MatchString(m[1]) && !isDateLike(m[1]) {
				return models.String(strings.TrimRight(m[1], "-/"))
			}
		}
	}
	for _, line := range lines {
		if m := invoiceCodeRe.FindStringSubmatch(line); m != nil && digitRe.MatchString(m[1]) {
			return models.String(strings.TrimRight(m[1], "-/"))
		}
	}
	return nil
}

func isDateLike(s string) bool {
	return isoDateRe.MatchString(s) || numericDateRe.MatchString(s)
}

// findDate prefers a line labelled as the invoice date over due dates and
// other dates printed on the page.
func findDate(lines []string) *string {
	for _, line := range lines {
		if dateLabelRe.MatchString(line) && !dueRe.MatchString(line) {
			if d, ok := parseDate(line); ok {
				return models.String(d)
			}
		}
	}
	for _, line := range lines {
		if d, ok := parseDate(line); ok {
			return models.String(d)
		}
	}
	return nil
}

func parseDate(line string) (string, bool) {
	if m := isoDateRe.FindStringSubmatch(line); m != nil {
		if d, ok := buildDate(m[1], m[2], m[3]); ok {
			return d, true
		}
	}
	if m := numericDateRe.FindStringSubmatch(line); m != nil {
		first, _ := strconv.Atoi(m[1])
		// Month first unless the first field cannot be a month.
		if first > 12 {
			if d, ok := buildDate(m[3], m[2], m[1]); ok {
				return d, true
			}
		} else if d, ok := buildDate(m[3], m[1], m[2]); ok {
			return d, true
		}
	}
	if m := monthFirstRe.FindStringSubmatch(line); m != nil {
		if d, ok := buildNamedDate(m[3], m[1], m[2]); ok {
			return d, true
		}
	}
	if m := dayFirstRe.FindStringSubmatch(line); m != nil {
		if d, ok := buildNamedDate(m[3], m[2], m[1]); ok {
			return d, true
		}
	}
	return "", false
}

func buildNamedDate(year, month, day string) (string, bool) {
	mon, ok := months[strings.ToLower(month[:3])]
	if !ok {
		return "", false
	}
	return buildDate(year, strconv.Itoa(int(mon)), day)
}

func buildDate(year, month, day string) (string, bool) {
	y, err1 := strconv.Atoi(year)
	m, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil || m < 1 || m > 12 || d < 1 {
		return "", false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return "", false
	}
	return t.Format(dateLayout), true
}

func findAddress(lines []string, vendorIdx int) *string {
	limit := vendorIdx + 6
	if limit > len(lines) {
		limit = len(lines)
	}
	for i := vendorIdx + 1; i < limit; i++ {
		if addressRe.MatchString(lines[i]) && !moneyRe.MatchString(lines[i]) {
			return models.String(lines[i])
		}
	}
	return nil
}

func findPhone(lines []string) *string {
	for _, line := range lines {
		if m := phoneRe.FindStringSubmatch(line); m != nil {
			return models.String(strings.TrimSpace(m[1]))
		}
	}
	return nil
}

func findPaymentMethod(text string) *string {
	for _, pm := range paymentMethods {
		if pm.re.MatchString(text) {
			return models.String(pm.name)
		}
	}
	return nil
}

func detectCurrency(text string) string {
	if m := currencyCodeRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	for _, s := range currencySymbols {
		if strings.Contains(text, s.symbol) {
			return s.code
		}
	}
	return defaultCurrency
}

func parseLineItem(line string) (models.LineItem, bool) {
	if m := fullItemRe.FindStringSubmatch(line); m != nil {
		qty, err := strconv.ParseFloat(m[2], 64)
		if err == nil {
			return models.LineItem{
				Description: strings.TrimSpace(m[1]),
				Quantity:    models.Float(qty),
				UnitPrice:   models.Float(parseAmount(m[3])),
				Amount:      parseAmount(m[4]),
			}, true
		}
	}
	if m := simpleItemRe.FindStringSubmatch(line); m != nil {
		return models.LineItem{
			Description: strings.TrimSpace(m[1]),
			Amount:      parseAmount(m[2]),
		}, true
	}
	return models.LineItem{}, false
}

func lastAmount(line string) (float64, bool) {
	matches := moneyRe.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return 0, false
	}
	return parseAmount(matches[len(matches)-1][1]), true
}

func parseAmount(s string) float64 {
	v, _ := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return v
}

// confidence is the share of key fields that were found.
func confidence(data models.InvoiceData) float64 {
	found := 0
	if data.VendorName != "" && data.VendorName != unknownVendor {
		found++
	}
	if data.InvoiceNumber != nil {
		found++
	}
	if data.Date != nil {
		found++
	}
	if data.TotalAmount > 0 {
		found++
	}
	if len(data.LineItems) > 0 {
		found++
	}
	return round2(float64(found) / 5)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
