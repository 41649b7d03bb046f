package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"talenttrack/internal/logger"
)

// HTTPExtractor calls a resume extraction service: raw bytes in, structured
// JSON out.
type HTTPExtractor struct {
	// ServerURL is the extraction service base URL, e.g. http://localhost:9998
	ServerURL string
	// Client is the HTTP client; timeout configurable via options.
	Client *http.Client
}

// HTTPOption configures an HTTPExtractor.
type HTTPOption func(*HTTPExtractor)

// WithHTTPTimeout sets the client timeout for extraction requests.
func WithHTTPTimeout(timeout time.Duration) HTTPOption {
	return func(e *HTTPExtractor) {
		e.Client.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(e *HTTPExtractor) {
		e.Client = client
	}
}

var _ ResumeExtractor = (*HTTPExtractor)(nil)

// NewHTTPExtractor creates an extraction client against the given service URL.
func NewHTTPExtractor(serverURL string, options ...HTTPOption) *HTTPExtractor {
	extractor := &HTTPExtractor{
		ServerURL: serverURL,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor
}

// Extract sends the resume bytes to the extraction service and decodes the
// structured response.
func (e *HTTPExtractor) Extract(ctx context.Context, data []byte, filename string) (*ExtractedResume, error) {
	startTime := time.Now()

	url := fmt.Sprintf("%s/parse", e.ServerURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Filename", filename)
	req.Header.Set("Accept", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("extraction service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result ExtractedResume
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode extraction response: %w", err)
	}

	logger.Debug().
		Str("filename", filename).
		Dur("duration", time.Since(startTime)).
		Msg("resume extraction completed")
	return &result, nil
}
