// Package translator provides the client for the machine-translation
// collaborator. The backend is treated as an opaque black box speaking the
// LibreTranslate wire protocol.
package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 60 * time.Second

// Translator translates text between language codes and lists the language
// pairs the backend supports.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
	Languages(ctx context.Context) ([]Language, error)
}

// Language describes a backend-supported language.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Error reports a failed translation call: an unsupported language pair, a
// backend rejection, or an unreachable backend (Status 0).
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return "translation backend unreachable: " + e.Message
	}
	return fmt.Sprintf("translation failed (%d): %s", e.Status, e.Message)
}

// HTTPClient talks to a LibreTranslate-compatible backend. Translation calls
// are not retried.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
}

// NewHTTPClient returns a client for the translation backend at baseURL.
// timeout bounds each call; zero selects the default.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
	}
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error,omitempty"`
}

// Translate sends text to the backend for the given language pair.
func (c *HTTPClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	body, err := json.Marshal(&translateRequest{Q: text, Source: sourceLang, Target: targetLang, Format: "text"})
	if err != nil {
		return "", fmt.Errorf("marshal translate request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", &Error{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Message: err.Error()}
	}
	var tr translateResponse
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &tr) == nil && tr.Error != "" {
			msg = tr.Error
		}
		return "", &Error{Status: resp.StatusCode, Message: msg}
	}
	if err := json.Unmarshal(raw, &tr); err != nil {
		return "", &Error{Status: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	return tr.TranslatedText, nil
}

// Languages lists the languages the backend has installed.
func (c *HTTPClient) Languages(ctx context.Context) ([]Language, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/languages", nil)
	if err != nil {
		return nil, fmt.Errorf("build languages request: %w", err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &Error{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, &Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	var langs []Language
	if err := json.NewDecoder(resp.Body).Decode(&langs); err != nil {
		return nil, &Error{Status: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	return langs, nil
}
