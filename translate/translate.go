package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultEndpoint is the unofficial Google Translate web endpoint.
const DefaultEndpoint = "https://translate.googleapis.com/translate_a/single"

// Error kinds surfaced to the presentation layer. Callers classify with
// errors.Is; the wrapped error carries the underlying detail.
var (
	ErrEmptyText = errors.New("cannot translate empty text")
	ErrNetwork   = errors.New("network error")
	ErrTimeout   = errors.New("request timed out")
	ErrService   = errors.New("translation service error")
)

// Result holds the translated text and the source language the service
// detected, if any.
type Result struct {
	Text           string
	DetectedSource string
}

// Translator translates free-form text. src may be empty for auto-detection.
type Translator interface {
	Translate(ctx context.Context, text, src, dest string) (Result, error)
}

// GoogleClient is a minimal client for the unofficial Google Translate web
// API. Construction is cheap; the HTTP client performs lazy session setup on
// first use.
type GoogleClient struct {
	endpoint string
	client   *http.Client
}

// NewGoogleClient creates a client for the given endpoint. An empty endpoint
// selects DefaultEndpoint. The timeout bounds each translation request.
func NewGoogleClient(endpoint string, timeout time.Duration) *GoogleClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &GoogleClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Translate sends text to the service and parses the segment response.
func (c *GoogleClient) Translate(ctx context.Context, text, src, dest string) (Result, error) {
	if text == "" {
		return Result{}, ErrEmptyText
	}
	if src == "" {
		src = "auto"
	}

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("dt", "t")
	params.Set("sl", src)
	params.Set("tl", dest)
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: reading response: %v", ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: status %d", ErrService, resp.StatusCode)
	}

	return parseResponse(body)
}

func classifyTransportError(err error) error {
	var netErr interface{ Timeout() bool }
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
}

// parseResponse decodes the loosely-typed gtx payload. The payload is a JSON
// array: index 0 holds translation segments ([translated, original, ...]),
// index 2 holds the detected source language when present.
func parseResponse(body []byte) (Result, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return Result{}, fmt.Errorf("%w: invalid response: %v", ErrService, err)
	}
	if len(payload) == 0 {
		return Result{}, fmt.Errorf("%w: empty response", ErrService)
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return Result{}, fmt.Errorf("%w: unexpected response structure: %v", ErrService, err)
	}

	var translated string
	for _, segment := range segments {
		if len(segment) == 0 {
			continue
		}
		var part string
		if err := json.Unmarshal(segment[0], &part); err != nil {
			continue
		}
		translated += part
	}

	result := Result{Text: translated}
	if len(payload) > 2 {
		var detected string
		if err := json.Unmarshal(payload[2], &detected); err == nil {
			result.DetectedSource = detected
		}
	}
	return result, nil
}
