// Package ocr provides the client for the external OCR collaborator service.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// errorMarker prefixes in-band error payloads returned by the OCR backend.
// The client converts them to tagged errors so error text never masquerades
// as extracted content downstream.
const errorMarker = "Error:"

const defaultTimeout = 30 * time.Second

// maxResponseBytes caps how much OCR output is read from the backend.
const maxResponseBytes = 4 << 20

// Client extracts text from image bytes.
type Client interface {
	ExtractImage(ctx context.Context, image []byte) (string, error)
}

// Failure reports that the OCR backend could not read the image.
type Failure struct {
	Reason string
}

func (e *Failure) Error() string {
	return "ocr: " + e.Reason
}

// HTTPClient talks to an OCR service over HTTP: POST /ocr with raw image
// bytes, plain-text response. Calls are retried once on transport errors and
// 5xx responses since extraction is an idempotent read.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
}

// NewHTTPClient returns a client for the OCR service at baseURL.
// timeout bounds each attempt; zero selects the default.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
	}
}

// ExtractImage sends image to the OCR backend and returns the recognized
// text. In-band "Error:" payloads come back as *Failure.
func (c *HTTPClient) ExtractImage(ctx context.Context, image []byte) (string, error) {
	text, err := c.attempt(ctx, image)
	if err != nil && retryable(err) && ctx.Err() == nil {
		text, err = c.attempt(ctx, image)
	}
	return text, err
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("ocr backend returned %d: %s", e.status, e.body)
}

func retryable(err error) bool {
	if se, ok := err.(*statusError); ok {
		return se.status >= 500
	}
	if _, ok := err.(*Failure); ok {
		return false
	}
	return true
}

func (c *HTTPClient) attempt(ctx context.Context, image []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr", bytes.NewReader(image))
	if err != nil {
		return "", fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read ocr response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, errorMarker) {
		return "", &Failure{Reason: strings.TrimSpace(strings.TrimPrefix(text, errorMarker))}
	}
	return text, nil
}
