// Package remote is the HTTP client for a running spindle daemon.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	spindleerrors "github.com/tessro/spindle/internal/errors"
	"github.com/tessro/spindle/internal/logging"
)

const (
	// DefaultAddr is where `spindle serve` listens unless configured otherwise.
	DefaultAddr = "http://127.0.0.1:7878"

	// Retry configuration for transient errors
	maxRetries    = 3
	baseRetryWait = 250 * time.Millisecond
)

// Client talks to the daemon's HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *log.Logger
	retryWait  time.Duration
}

// New creates a client for the daemon at baseURL. A bare host:port is
// treated as http.
func New(baseURL string, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultAddr
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logging.Component(logger, "remote"),
		retryWait:  baseRetryWait,
	}
}

// BaseURL returns the daemon address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request against the daemon.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.request(ctx, http.MethodGet, path, nil, result)
}

// Post performs a POST request against the daemon.
func (c *Client) Post(ctx context.Context, path string, body any, result any) error {
	return c.request(ctx, http.MethodPost, path, body, result)
}

// Delete performs a DELETE request against the daemon.
func (c *Client) Delete(ctx context.Context, path string, result any) error {
	return c.request(ctx, http.MethodDelete, path, nil, result)
}

func (c *Client) request(ctx context.Context, method, path string, body any, result any) error {
	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	fullURL := c.baseURL + path
	if jsonBody != nil {
		c.logger.Debug("request", "method", method, "url", fullURL, "body", string(jsonBody))
	} else {
		c.logger.Debug("request", "method", method, "url", fullURL)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.retryWait * time.Duration(1<<(attempt-1))
			c.logger.Debug("retrying", "attempt", attempt, "max", maxRetries, "wait", wait, "err", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		var bodyReader io.Reader
		if jsonBody != nil {
			bodyReader = strings.NewReader(string(jsonBody))
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		if jsonBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %v", spindleerrors.ErrDaemonUnreachable, err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		c.logger.Debug("response", "status", resp.StatusCode)

		if resp.StatusCode >= 500 && resp.StatusCode != http.StatusServiceUnavailable {
			lastErr = parseAPIError(resp.StatusCode, respBody)
			continue
		}
		if resp.StatusCode >= 400 {
			return parseAPIError(resp.StatusCode, respBody)
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("request failed after %d retries: %w", maxRetries, lastErr)
}

// APIError is an error response from the daemon.
type APIError struct {
	Status     int    `json:"-"`
	Message    string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("daemon error %d: %s", e.Status, e.Message)
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

func parseAPIError(status int, body []byte) error {
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(status)
		}
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("%w: %w", spindleerrors.ErrInvalidIndex, apiErr)
	}
	if apiErr.Suggestion != "" {
		return spindleerrors.WithSuggestion(apiErr, apiErr.Suggestion)
	}
	return apiErr
}

// IsNotFound reports whether err is a 404 from the daemon.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func indexPath(prefix string, index int) string {
	return prefix + "/" + strconv.Itoa(index)
}
