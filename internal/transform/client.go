// Package transform provides a client for the external image transformation
// API.
//
// The API accepts a multipart/form-data POST with a "file" part carrying the
// image bytes and a "prompt" text field, authenticated by an api-key header.
// A 200 response body is the transformed image; anything else is an error.
package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// defaultTimeout bounds a single transformation call. Image generation
	// is slow, so this is far above a normal HTTP timeout.
	defaultTimeout = 120 * time.Second

	// maxErrorBody limits how much of an error response is echoed back in
	// error messages.
	maxErrorBody = 512
)

// Configuration environment variables.
const (
	EnvEndpoint = "AZURE_ENDPOINT_URL"
	EnvAPIKey   = "AZURE_API_KEY"
)

var (
	// ErrMissingEndpoint means AZURE_ENDPOINT_URL is not set.
	ErrMissingEndpoint = errors.New("transform: endpoint not configured")

	// ErrMissingAPIKey means AZURE_API_KEY is not set.
	ErrMissingAPIKey = errors.New("transform: API key not configured")
)

// Options configures a Client.
type Options struct {
	Endpoint string
	APIKey   string

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client

	// Timeout applies when HTTPClient is nil. Zero means defaultTimeout.
	Timeout time.Duration
}

// Client calls the transformation API.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// New validates opts and returns a client.
func New(opts Options) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient: httpClient,
		endpoint:   opts.Endpoint,
		apiKey:     opts.APIKey,
	}, nil
}

// NewFromEnv builds a client from AZURE_ENDPOINT_URL and AZURE_API_KEY.
func NewFromEnv() (*Client, error) {
	return New(Options{
		Endpoint: os.Getenv(EnvEndpoint),
		APIKey:   os.Getenv(EnvAPIKey),
	})
}

// Stylize sends the image through the transformation API with the given
// prompt and returns the transformed image bytes.
func (c *Client) Stylize(ctx context.Context, image []byte, prompt string) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", "image.png")
	if err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if err := mw.WriteField("prompt", prompt); err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	// Azure-convention API key header.
	req.Header.Set("api-key", c.apiKey)

	log.Debug().Int("imageBytes", len(image)).Int("promptChars", len(prompt)).Msg("Calling transformation API")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call transformation API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("transformation API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read transformed image: %w", err)
	}
	if len(out) == 0 {
		return nil, errors.New("transformation API returned an empty image")
	}
	return out, nil
}
