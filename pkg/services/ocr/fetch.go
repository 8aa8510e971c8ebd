package ocr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
)

// maxImageBytes bounds remote downloads; Azure OCR accepts at most 4MB and
// the enhancement step shrinks larger scans.
const maxImageBytes = 50 << 20

// Downloader fetches remote invoice images to local temp files
type Downloader struct {
	client *http.Client
	dir    string
}

// NewDownloader creates a downloader writing into dir ("" means os.TempDir).
func NewDownloader(client *http.Client, dir string) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{client: client, dir: dir}
}

// Download saves the image at url to a temp file and returns its path.
// Any non-2xx response is an error.
func (d *Downloader) Download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("invalid image url: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("failed to download image: %s", resp.Status)
	}

	out, err := os.CreateTemp(d.dir, "remote-*"+imageExt(req.URL.Path))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer out.Close()

	n, err := io.Copy(out, io.LimitReader(resp.Body, maxImageBytes+1))
	if err == nil && n > maxImageBytes {
		err = fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	if err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	return out.Name(), nil
}

// imageExt keeps the url's extension so imaging can pick a decoder by name
func imageExt(p string) string {
	ext := strings.ToLower(path.Ext(p))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff":
		return ext
	default:
		return ""
	}
}
