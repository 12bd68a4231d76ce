// Package predict is the HTTP client for the prediction backend. Every
// endpoint is an unauthenticated GET whose parameters are positional path
// segments, so order matters.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Endpoint is a backend route path
type Endpoint string

const (
	EndpointAddiction       Endpoint = "/api/grafica-adiccion"
	EndpointPerformance     Endpoint = "/api/prediccion-rendimiento"
	EndpointMentalHealth    Endpoint = "/api/grafica-salud-mental"
	EndpointSleepQuality    Endpoint = "/api/grafica-sleep-quality"
	EndpointConflictRisk    Endpoint = "/api/grafica-conflict-risk"
	EndpointScreenTime      Endpoint = "/api/grafica-recommended-screen-time"
	EndpointStudyEfficiency Endpoint = "/api/grafica-study-efficiency"
)

// maxErrorBody caps how much of a failed response is kept in StatusError
const maxErrorBody = 512

// ErrEmptyResult is returned when a 2xx response carries no result, either an
// empty body or a JSON null
var ErrEmptyResult = errors.New("backend returned no result")

// StatusError is returned for non-2xx responses
type StatusError struct {
	Endpoint Endpoint
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.Code, e.Body)
}

// Client calls the prediction backend
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request tracing
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the backend at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q: missing host", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured backend address
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// BuildURL joins the endpoint and its positional parameters onto the base URL
func (c *Client) BuildURL(endpoint Endpoint, params ...string) string {
	path := string(endpoint)
	if len(params) > 0 {
		escaped := make([]string, len(params))
		for i, p := range params {
			escaped[i] = url.PathEscape(p)
		}
		path += "/" + strings.Join(escaped, "/")
	}
	return c.baseURL.String() + path
}

// Get calls endpoint with params and decodes the JSON body into out
func (c *Client) Get(ctx context.Context, endpoint Endpoint, out any, params ...string) error {
	target := c.BuildURL(endpoint, params...)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend call",
		zap.String("endpoint", string(endpoint)),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Endpoint: endpoint, Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to read response: %w", endpoint, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return fmt.Errorf("%s: %w", endpoint, ErrEmptyResult)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", endpoint, err)
	}
	return nil
}
