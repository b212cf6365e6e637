// Package apiclient is the client of the remote school API, which is the
// system of record for students, classes, staff, attendance and fees.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/alfalah/schooladmin/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config configures the client
type Config struct {
	BaseURL             string
	Timeout             time.Duration
	RetryOnNetworkError bool
	RetryDelay          time.Duration
	RateLimitRPS        float64
	RateLimitBurst      int
	UserAgent           string
}

// Client talks JSON to the school API
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	headers    map[string]string
	retry      RetryConfig
	limiter    *rate.Limiter
	metrics    *Metrics
	logger     *zap.Logger
	mu         sync.RWMutex
}

// RetryConfig configures retry behavior. At most MaxRetries extra attempts
// are made, and only for errors ShouldRetry accepts.
type RetryConfig struct {
	MaxRetries  int
	RetryDelay  time.Duration
	ShouldRetry func(method string, err error) bool
}

// DefaultRetryConfig retries once on network errors
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  1,
		RetryDelay:  500 * time.Millisecond,
		ShouldRetry: RetryableNetworkError,
	}
}

// RetryableNetworkError reports whether a failed attempt may be repeated.
// Idempotent methods are retried on any transport failure. POST is only
// retried when the connection was never established, so a payment that may
// have reached the server is never submitted twice.
func RetryableNetworkError(method string, err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if method != http.MethodPost && method != http.MethodPatch {
		return true
	}
	return isDialError(err)
}

func isDialError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// Option customizes a Client
type Option func(*Client)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records request metrics
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRetryConfig replaces the retry policy
func WithRetryConfig(rc RetryConfig) Option {
	return func(c *Client) { c.retry = rc }
}

// NewClient creates a client for the API at cfg.BaseURL
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "schooladmin/1.0"
	}

	retry := DefaultRetryConfig()
	if cfg.RetryDelay > 0 {
		retry.RetryDelay = cfg.RetryDelay
	}
	if !cfg.RetryOnNetworkError {
		retry.MaxRetries = 0
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL: base,
		headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": cfg.UserAgent,
		},
		retry:  retry,
		logger: zap.NewNop(),
	}
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Request is a single API call. Route is the path template used as the
// metrics label, e.g. /api/student-fee/summary/:studentId.
type Request struct {
	Method string
	Route  string
	Path   string
	Query  url.Values
	Body   any
	// RawBody with ContentType is sent as-is instead of JSON-encoding Body
	RawBody     []byte
	ContentType string
}

// Response is a successful (2xx) API response
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	Attempts   int
}

// Do executes req. Non-2xx responses are returned as *RequestError or
// *NotFoundError; transport failures as *RequestError with Status 0.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	u, err := c.buildURL(req.Path, req.Query)
	if err != nil {
		return nil, err
	}
	route := req.Route
	if route == "" {
		route = req.Path
	}

	payload, contentType := req.RawBody, req.ContentType
	if payload == nil && req.Body != nil {
		if payload, err = json.Marshal(req.Body); err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		contentType = "application/json"
	}

	ctx, span := telemetry.StartSpan(ctx, "api."+req.Method+" "+route,
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute("http.request.method", req.Method),
		telemetry.WithAttribute("http.route", route),
	)
	defer span.End()

	log := c.logger.With(zap.String("method", req.Method), zap.String("route", route))
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			c.metrics.retried(req.Method, route)
			select {
			case <-ctx.Done():
				return nil, &RequestError{Method: req.Method, Path: req.Path, Err: ctx.Err()}
			case <-time.After(c.retry.RetryDelay):
			}
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, &RequestError{Method: req.Method, Path: req.Path, Err: err}
			}
		}

		start := time.Now()
		resp, err := c.attempt(ctx, req.Method, u, payload, contentType)
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		c.metrics.observe(req.Method, route, status, time.Since(start))

		if err != nil {
			if ctx.Err() == nil && attempt < c.retry.MaxRetries && c.retry.ShouldRetry != nil && c.retry.ShouldRetry(req.Method, err) {
				log.Warn("retrying after network error", zap.Error(err), zap.Int("attempt", attempt+1))
				continue
			}
			log.Debug("request failed", zap.Error(err))
			telemetry.RecordError(span, err)
			return nil, &RequestError{Method: req.Method, Path: req.Path, Err: err}
		}

		resp.Attempts = attempt + 1
		telemetry.SetAttributes(span, "http.response.status_code", resp.StatusCode, "attempts", resp.Attempts)
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			log.Debug("request rejected", zap.Int("status", resp.StatusCode))
			reqErr := errorFromResponse(req.Method, req.Path, resp.StatusCode, resp.Body)
			telemetry.RecordError(span, reqErr)
			return nil, reqErr
		}
		log.Debug("request completed", zap.Int("status", resp.StatusCode), zap.Duration("duration", resp.Duration))
		return resp, nil
	}
}

func (c *Client) attempt(ctx context.Context, method string, u *url.URL, payload []byte, contentType string) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	c.setHeaders(httpReq)
	telemetry.InjectHeaders(ctx, httpReq.Header)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	return c.send(httpReq)
}

func (c *Client) send(httpReq *http.Request) (*Response, error) {
	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       data,
		Duration:   time.Since(start),
	}, nil
}

// getJSON performs a GET and decodes the body into out
func (c *Client) getJSON(ctx context.Context, route, path string, query url.Values, out any) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Route: route, Path: path, Query: query})
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// sendJSON performs a mutation and decodes the body into out when non-nil
func (c *Client) sendJSON(ctx context.Context, method, route, path string, body, out any) error {
	resp, err := c.Do(ctx, Request{Method: method, Route: route, Path: path, Body: body})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(resp, out)
}

func decode(resp *Response, out any) error {
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return errors.New("empty response body")
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// buildURL joins the base URL and an already-escaped path
func (c *Client) buildURL(path string, query url.Values) (*url.URL, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u, err := url.Parse(strings.TrimRight(c.baseURL.String(), "/") + path)
	if err != nil {
		return nil, fmt.Errorf("building URL: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u, nil
}

func (c *Client) setHeaders(req *http.Request) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
}

// SetHeader sets a default header for all requests
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers[key] = value
}

// BaseURL returns the API base URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// escape escapes one path segment
func escape(segment string) string {
	return url.PathEscape(segment)
}
