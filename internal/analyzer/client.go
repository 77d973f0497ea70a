// Package analyzer is the HTTP client for the remote report analysis
// service. The service is a black box behind a single endpoint: a multipart
// POST with one "file" part, answered with a JSON analysis result.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/reportlens/backend/internal/models"
)

// DefaultTimeout bounds a single analysis round trip. OCR plus language
// model inference on the remote side can take tens of seconds.
const DefaultTimeout = 120 * time.Second

// Client calls the remote analysis endpoint.
type Client struct {
	endpoint string
	apiKey   string
	httpc    *http.Client
}

// NewClient creates a client for the given analyze endpoint URL. apiKey may
// be empty when the service requires no authentication. A zero timeout
// falls back to DefaultTimeout.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpc:    &http.Client{Timeout: timeout},
	}
}

// Analyze submits one report image and returns the decoded analysis result.
// Failure modes map to the error types in errors.go: a non-2xx response
// becomes a *RequestFailedError carrying the server's detail message, a 2xx
// response with a falsy success field becomes ErrUnsuccessful, and transport
// or decode failures are returned wrapped.
func (c *Client) Analyze(ctx context.Context, name, mediaType string, r io.Reader) (*models.AnalysisResult, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	part, err := createFilePart(w, name, mediaType)
	if err != nil {
		return nil, fmt.Errorf("building request body: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("copying file into request: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analysis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, failureFromResponse(resp)
	}

	var result models.AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding analysis response: %w", err)
	}

	if !result.Success {
		return nil, ErrUnsuccessful
	}

	return &result, nil
}

// createFilePart opens a multipart section named "file" that carries the
// image's declared media type, unlike CreateFormFile which hardwires
// application/octet-stream.
func createFilePart(w *multipart.Writer, name, mediaType string) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(name)))
	h.Set("Content-Type", mediaType)
	return w.CreatePart(h)
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, "\\\"").Replace(s)
}

// failureFromResponse turns a non-2xx response into a *RequestFailedError,
// taking the message from the JSON detail field when the body parses.
func failureFromResponse(resp *http.Response) error {
	failure := &RequestFailedError{Status: resp.StatusCode}

	var envelope struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		failure.Detail = envelope.Detail
	}

	return failure
}
