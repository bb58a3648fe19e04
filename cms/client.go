// Package cms is the HTTP client for the diary content-management API.
package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Config holds client configuration.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// RatePerSecond limits outgoing requests; zero disables the limiter.
	RatePerSecond float64
	Burst         int
}

// Client issues GET requests against the CMS and decodes JSON bodies.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	userAgent  string
	limiter    *rate.Limiter
	metrics    *Metrics
	logger     *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a client for cfg.BaseURL.
func New(cfg Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: base url %q", ErrInvalidArgument, cfg.BaseURL)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "diaryengine/1.0"
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    base,
		userAgent:  cfg.UserAgent,
		logger:     logger.With("component", "cms"),
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get requests endpoint with params and decodes the JSON response into out.
// Slice-valued params are sent as repeated keys (id=1&id=2), never joined.
func (c *Client) Get(ctx context.Context, endpoint string, params map[string]any, out any) error {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(endpoint, "/")
	u.RawQuery = EncodeParams(params).Encode()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(0, time.Since(start))
		if errors.Is(err, context.Canceled) {
			return err
		}
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()
	c.metrics.observe(resp.StatusCode, time.Since(start))

	c.logger.Debug("cms request",
		"url", u.String(),
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPError{
			Status:  resp.StatusCode,
			Message: errorMessage(body, resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// maxErrorMessage bounds the part of an error body kept in HTTPError.
const maxErrorMessage = 200

// errorMessage extracts the server's explanation from an error response: the
// "message" or "error" field of a JSON body, otherwise the trimmed body text.
// An empty body falls back to the status text.
func errorMessage(body []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil {
		switch {
		case strings.TrimSpace(payload.Message) != "":
			msg = strings.TrimSpace(payload.Message)
		case strings.TrimSpace(payload.Error) != "":
			msg = strings.TrimSpace(payload.Error)
		}
	}
	if msg == "" {
		return http.StatusText(status)
	}
	if r := []rune(msg); len(r) > maxErrorMessage {
		msg = string(r[:maxErrorMessage]) + "..."
	}
	return msg
}

// EncodeParams converts params into url.Values. Nil values are dropped and
// slices or arrays expand into one value per element.
func EncodeParams(params map[string]any) url.Values {
	q := url.Values{}
	for key, v := range params {
		if v == nil {
			continue
		}
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			for i := 0; i < rv.Len(); i++ {
				q.Add(key, fmt.Sprint(rv.Index(i).Interface()))
			}
		case reflect.Pointer:
			if rv.IsNil() {
				continue
			}
			q.Add(key, fmt.Sprint(rv.Elem().Interface()))
		default:
			q.Add(key, fmt.Sprint(v))
		}
	}
	return q
}
