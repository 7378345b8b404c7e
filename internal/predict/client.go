// Package predict is the client for the external image-captioning model
// service (IBM MAX style REST contract).
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caption-gallery/caption-gallery/internal/models"
)

const predictPath = "/model/predict"

// ErrServiceUnavailable indicates the model service could not be reached at
// the transport level (connection refused, DNS failure, timeout).
var ErrServiceUnavailable = errors.New("caption service unavailable")

// ErrBadResponse indicates the service answered but the body was not a valid
// predictions document.
var ErrBadResponse = errors.New("caption service returned an unreadable response")

// UpstreamError indicates the service answered with a non-success HTTP status
// for a specific image.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("caption service returned status %d: %s", e.StatusCode, e.Body)
}

// Client calls the captioning endpoint. It holds no state between calls.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NormalizeEndpoint appends the predict path to a base URL unless the caller
// already included it.
func NormalizeEndpoint(base string) string {
	base = strings.TrimRight(base, "/")
	if strings.Contains(base, predictPath) {
		return base
	}
	return base + predictPath
}

// NewClient creates a client for the given endpoint base URL with a per-call
// timeout so one slow upstream call cannot stall a batch indefinitely.
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{
		endpoint: NormalizeEndpoint(base),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Endpoint returns the fully qualified predict URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Health probes the predict endpoint. Any HTTP answer, including an error
// status, proves the service is reachable; only transport failures count.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

// Caption sends the image at imagePath to the model service and returns the
// predictions array verbatim.
func (c *Client) Caption(ctx context.Context, imagePath string) ([]models.Prediction, error) {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", imagePath, err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="image"; filename=%q`, filepath.Base(imagePath)))
	header.Set("Content-Type", contentTypeFor(imagePath))

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart payload: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write multipart payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create predict request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	var response struct {
		Predictions []models.Prediction `json:"predictions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}

	return response.Predictions, nil
}

func contentTypeFor(imagePath string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(imagePath))); t != "" {
		return t
	}
	return "application/octet-stream"
}
