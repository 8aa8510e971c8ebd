package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"invoice-ai/pkg/metrics"
	"invoice-ai/pkg/tracing"
)

const processInvoicePath = "/process-invoice"

// DelegationError describes why a call to the extraction backend did not
// produce a usable answer. Outcome is one of the metrics.Outcome* values.
type DelegationError struct {
	Outcome    string
	StatusCode int
	Err        error
}

func (e *DelegationError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("backend %s: status %d", e.Outcome, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("backend %s: %v", e.Outcome, e.Err)
	default:
		return "backend " + e.Outcome
	}
}

func (e *DelegationError) Unwrap() error {
	return e.Err
}

// Client forwards invoice submissions to the extraction backend
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   strings.TrimRight(baseURL, "/") + processInvoicePath,
		httpClient: tracing.WrapHTTPClient(&http.Client{Timeout: timeout}),
	}
}

// Endpoint returns the URL submissions are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Forward posts body unchanged with the given content type and returns the
// backend's JSON body when the backend answers with a 2xx status.
func (c *Client) Forward(ctx context.Context, contentType string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &DelegationError{Outcome: metrics.OutcomeUnreachable, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &DelegationError{Outcome: classifyTransportError(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, &DelegationError{Outcome: metrics.OutcomeBadStatus, StatusCode: resp.StatusCode}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &DelegationError{Outcome: classifyTransportError(err), Err: err}
	}
	if !json.Valid(payload) {
		return nil, &DelegationError{Outcome: metrics.OutcomeInvalidBody, Err: errors.New("response is not valid JSON")}
	}
	return payload, nil
}

func classifyTransportError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return metrics.OutcomeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return metrics.OutcomeTimeout
	}
	return metrics.OutcomeUnreachable
}
