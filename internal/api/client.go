package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/myprayer/internal/location"
)

const (
	defaultBaseURL = "https://api.aladhan.com/v1"
	defaultTimeout = 10 * time.Second
)

// Client communicates with the Al Adhan prayer times API.
type Client struct {
	httpClient *http.Client
	logger     zerolog.Logger
	// BaseURL is the API base URL. Defaults to the Al Adhan API.
	// Exported for testing with httptest.
	BaseURL string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger attaches a logger for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithBaseURL overrides the API base URL. Empty values keep the default.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.BaseURL = strings.TrimRight(u, "/")
		}
	}
}

// NewClient creates a new API client with sensible defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zerolog.Nop(),
		BaseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchCalendar fetches a whole month of prayer times for loc and returns the
// provider's "data" array exactly as received.
//
// A method below zero leaves the choice of calculation method to the provider.
func (c *Client) FetchCalendar(ctx context.Context, loc location.Location, month, year, method int) ([]byte, error) {
	params := loc.RequestParams()
	if method >= 0 {
		params.Set("method", strconv.Itoa(method))
	}
	reqURL := fmt.Sprintf("%s/%s/%d/%d?%s", c.BaseURL, loc.Endpoint(), year, month, params.Encode())

	fail := func(kind error, status int, message string, err error) *ProviderError {
		return &ProviderError{
			Kind:       kind,
			StatusCode: status,
			Message:    message,
			Location:   loc.String(),
			Month:      month,
			Year:       year,
			Err:        err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fail(ErrFetchFailed, 0, "", err)
	}

	c.logger.Debug().Str("url", reqURL).Msg("[api] requesting calendar")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fail(ErrFetchFailed, 0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fail(ErrFetchFailed, resp.StatusCode, "", err)
	}

	c.logger.Debug().Int("status", resp.StatusCode).Int("bytes", len(body)).Msg("[api] calendar response")

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		return nil, fail(ErrBadRequest, resp.StatusCode, providerMessage(body), nil)
	case http.StatusTooManyRequests:
		return nil, fail(ErrRateLimited, resp.StatusCode, providerMessage(body), nil)
	case http.StatusInternalServerError:
		return nil, fail(ErrServerError, resp.StatusCode, providerMessage(body), nil)
	default:
		return nil, fail(ErrFetchFailed, resp.StatusCode, providerMessage(body), nil)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fail(ErrFetchFailed, resp.StatusCode, "", fmt.Errorf("failed to decode API response: %w", err))
	}
	if env.Code != http.StatusOK {
		return nil, fail(ErrFetchFailed, resp.StatusCode, fmt.Sprintf("API error: code=%d status=%s", env.Code, env.Status), nil)
	}

	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || data[0] != '[' {
		return nil, fail(ErrFetchFailed, resp.StatusCode, "response data is not a calendar array", nil)
	}

	return data, nil
}

// providerMessage extracts a human-readable message from an error body.
// Al Adhan puts it in "data" for 400s and "message" elsewhere; non-JSON
// bodies are returned trimmed.
func providerMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return strings.TrimSpace(string(body))
	}
	if env.Message != "" {
		return env.Message
	}
	var s string
	if len(env.Data) > 0 && json.Unmarshal(env.Data, &s) == nil && s != "" {
		return s
	}
	return env.Status
}
