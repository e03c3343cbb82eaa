package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	// DefaultTimeout is the hard per-attempt timeout for a single request.
	DefaultTimeout = 30 * time.Second

	// DefaultAttempts bounds the retry loop for JSON requests.
	DefaultAttempts = 3

	// DefaultRetryDelay is the backoff unit: the delay after attempt n
	// is n * DefaultRetryDelay.
	DefaultRetryDelay = 1 * time.Second
)

// Client is an HTTP client for the document agent API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	timeout    time.Duration
	attempts   uint
	retryDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithAttempts sets the maximum number of attempts for JSON requests.
func WithAttempts(n uint) Option {
	return func(c *Client) { c.attempts = n }
}

// WithRetryDelay sets the backoff unit between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithLogger sets the logger used for retry and upload diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new API client.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		attempts:   DefaultAttempts,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server base URL the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Get performs a GET request and decodes the JSON response.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, result)
}

// Post performs a POST request with a JSON body and decodes the response.
func (c *Client) Post(ctx context.Context, path string, body any, result any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, result)
}

// Patch performs a PATCH request with a JSON body and decodes the response.
func (c *Client) Patch(ctx context.Context, path string, body any, result any) error {
	return c.doJSON(ctx, http.MethodPatch, path, body, result)
}

// doJSON runs one JSON request with bounded retry. Transport failures,
// timeouts and 5xx responses are retried with a linearly growing delay;
// 4xx responses and application-level failures are permanent. After the
// attempts are exhausted the last error is surfaced; no partial state is
// committed anywhere.
func (c *Client) doJSON(ctx context.Context, method, path string, body, result any) error {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return Validationf("failed to encode request body: %v", err)
		}
	}

	return retry.Do(
		func() error {
			// A timed-out attempt is aborted via context cancellation
			// and takes the same fail-and-retry path as a network error.
			attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			var bodyReader io.Reader
			if bodyBytes != nil {
				bodyReader = bytes.NewReader(bodyBytes)
			}
			req, err := http.NewRequestWithContext(attemptCtx, method, c.baseURL+path, bodyReader)
			if err != nil {
				return retry.Unrecoverable(Validationf("failed to create request: %v", err))
			}
			if bodyBytes != nil {
				req.Header.Set("Content-Type", "application/json")
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return &Error{Kind: KindNetwork, Message: "request failed", Err: err}
			}
			defer resp.Body.Close()

			return c.handleResponse(resp, result)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return time.Duration(n+1) * c.retryDelay
		}),
		retry.OnRetry(func(n uint, err error) {
			if c.logger != nil {
				c.logger.Warn("request failed, retrying",
					"method", method, "path", path, "attempt", n+1, "error", err)
			}
		}),
		retry.LastErrorOnly(true),
	)
}

// handleResponse reads the body, maps error statuses onto the client error
// taxonomy, and decodes a successful JSON payload into result.
func (c *Client) handleResponse(resp *http.Response, result any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode >= 400 {
		apiErr := &Error{
			Kind:       statusKind(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    serverMessage(body),
		}
		if resp.StatusCode < 500 {
			// Client errors will not succeed on retry.
			return retry.Unrecoverable(apiErr)
		}
		return apiErr
	}

	// A 2xx response may still carry an application-level failure in the
	// success/error envelope.
	var env envelope
	if json.Unmarshal(body, &env) == nil && env.Success != nil && !*env.Success {
		msg := env.Error
		if msg == "" {
			msg = "server reported failure"
		}
		return retry.Unrecoverable(&Error{
			Kind:       KindProcessing,
			StatusCode: resp.StatusCode,
			Message:    msg,
		})
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return retry.Unrecoverable(&Error{
				Kind:    KindProcessing,
				Message: fmt.Sprintf("failed to decode response: %v", err),
				Err:     err,
			})
		}
	}

	return nil
}

// envelope is the success/error wrapper every endpoint returns.
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

// serverMessage extracts the error string from an envelope body, falling
// back to the raw body text.
func serverMessage(body []byte) string {
	var env envelope
	if json.Unmarshal(body, &env) == nil && env.Error != "" {
		return env.Error
	}
	return strings.TrimSpace(string(body))
}

// Blob is a binary download with a client-chosen filename.
type Blob struct {
	Filename    string
	ContentType string
	Data        []byte
}

// IsOfficeMIMEType reports whether a content type is treated as a binary
// office-document payload rather than text.
func IsOfficeMIMEType(mediaType string) bool {
	switch mediaType {
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/msword",
		"application/pdf",
		"application/rtf",
		"application/zip",
		"application/octet-stream":
		return true
	}
	return strings.HasPrefix(mediaType, "application/vnd.")
}

// Download performs a GET request and interprets the response by its
// declared content type: a JSON body is treated as the server declining the
// download, office-document MIME types become a binary blob, and anything
// else is delivered as raw text bytes. The filename is chosen by the caller.
func (c *Client) Download(ctx context.Context, path, filename string) (*Blob, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, Validationf("failed to create request: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "download failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "failed to read download", Err: err}
	}

	if resp.StatusCode >= 400 {
		return nil, &Error{
			Kind:       statusKind(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    serverMessage(body),
		}
	}

	mediaType := resp.Header.Get("Content-Type")
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	}

	if mediaType == "application/json" {
		var env envelope
		if json.Unmarshal(body, &env) == nil && env.Success != nil && !*env.Success {
			return nil, &Error{Kind: KindProcessing, StatusCode: resp.StatusCode, Message: env.Error}
		}
	}

	return &Blob{Filename: filename, ContentType: mediaType, Data: body}, nil
}
