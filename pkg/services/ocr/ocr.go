package ocr

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"invoice-ai/pkg/models"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"
	"github.com/disintegration/imaging"
)

// Recognizer is the subset of the Azure Computer Vision client used for OCR.
// Implementations may close image; callers close it again regardless.
type Recognizer interface {
	RecognizePrintedTextInStream(ctx context.Context, detectOrientation bool, image io.ReadCloser, language computervision.OcrLanguages) (computervision.OcrResult, error)
}

// Service handles OCR operations
type Service struct {
	client Recognizer
}

// NewService creates a new OCR service backed by Azure Computer Vision
func NewService(endpoint, apiKey string) *Service {
	client := computervision.New(endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(apiKey)
	return &Service{client: &client}
}

// NewServiceWithRecognizer creates an OCR service around any recognizer
func NewServiceWithRecognizer(r Recognizer) *Service {
	return &Service{client: r}
}

// EnhanceImageForOCR writes a contrast-boosted grayscale copy of the image
// next to the original and returns its path. The caller removes it.
func (s *Service) EnhanceImageForOCR(imagePath string) (string, error) {
	src, err := imaging.Open(imagePath, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}

	// 1. Grayscale for contrast
	img := imaging.Grayscale(src)

	// 2. Push contrast so faint print survives
	img = imaging.AdjustContrast(img, 30)

	// 3. Sharpen glyph edges
	img = imaging.Sharpen(img, 1.5)

	// 4. Lift brightness slightly
	img = imaging.AdjustBrightness(img, 10)

	// 5. Gamma correction for mid-tone detail
	img = imaging.AdjustGamma(img, 1.2)

	// Azure rejects images larger than 4200px on a side
	if b := img.Bounds(); b.Dx() > 4200 || b.Dy() > 4200 {
		img = imaging.Fit(img, 4200, 4200, imaging.Lanczos)
	}

	out, err := os.CreateTemp(filepath.Dir(imagePath), "processed-*.jpg")
	if err != nil {
		return "", fmt.Errorf("failed to create processed image: %w", err)
	}
	out.Close()

	if err := imaging.Save(img, out.Name()); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("failed to save processed image: %w", err)
	}
	return out.Name(), nil
}

// ExtractText performs OCR on an image and returns the extracted text lines
func (s *Service) ExtractText(ctx context.Context, imagePath string) ([]models.TextLine, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read processed file: %w", err)
	}
	defer f.Close()

	result, err := s.client.RecognizePrintedTextInStream(ctx, true, f, computervision.OcrLanguages(computervision.En))
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}

	return extractTextFromOCRResult(result), nil
}

// Recognize enhances the image, runs OCR and returns the page as plain text
func (s *Service) Recognize(ctx context.Context, imagePath string) (string, error) {
	processed, err := s.EnhanceImageForOCR(imagePath)
	if err != nil {
		return "", err
	}
	defer os.Remove(processed)

	lines, err := s.ExtractText(ctx, processed)
	if err != nil {
		return "", err
	}
	return JoinLines(lines), nil
}

// extractTextFromOCRResult extracts text lines with position information from OCR result
func extractTextFromOCRResult(result computervision.OcrResult) []models.TextLine {
	var textLines []models.TextLine
	if result.Regions == nil {
		return textLines
	}
	for _, region := range *result.Regions {
		if region.Lines == nil {
			continue
		}
		for _, line := range *region.Lines {
			var lineText strings.Builder
			var boundingBox []int

			// "x,y,width,height"
			if line.BoundingBox != nil {
				for _, part := range strings.Split(*line.BoundingBox, ",") {
					val, _ := strconv.Atoi(strings.TrimSpace(part))
					boundingBox = append(boundingBox, val)
				}
			}

			if line.Words != nil {
				for _, word := range *line.Words {
					if word.Text == nil {
						continue
					}
					lineText.WriteString(*word.Text)
					lineText.WriteString(" ")
				}
			}

			if len(boundingBox) >= 4 {
				textLines = append(textLines, models.TextLine{
					Text:   strings.TrimSpace(lineText.String()),
					X:      boundingBox[0],
					Y:      boundingBox[1],
					Width:  boundingBox[2],
					Height: boundingBox[3],
				})
			}
		}
	}
	return textLines
}

// JoinLines lays OCR lines out as rows of text. Azure reports each column of
// a table as its own region, so lines whose vertical centres are within half
// a line height of each other are merged left to right.
func JoinLines(lines []models.TextLine) string {
	if len(lines) == 0 {
		return ""
	}
	sorted := make([]models.TextLine, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l.Text) != "" {
			sorted = append(sorted, l)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var rows [][]models.TextLine
	for _, l := range sorted {
		if n := len(rows); n > 0 && sameRow(rows[n-1][0], l) {
			rows[n-1] = append(rows[n-1], l)
			continue
		}
		rows = append(rows, []models.TextLine{l})
	}

	out := make([]string, 0, len(rows))
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })
		parts := make([]string, 0, len(row))
		for _, l := range row {
			parts = append(parts, strings.TrimSpace(l.Text))
		}
		out = append(out, strings.Join(parts, " "))
	}
	return strings.Join(out, "\n")
}

func sameRow(a, b models.TextLine) bool {
	tolerance := a.Height / 2
	if b.Height/2 > tolerance {
		tolerance = b.Height / 2
	}
	ca := a.Y + a.Height/2
	cb := b.Y + b.Height/2
	diff := ca - cb
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}
