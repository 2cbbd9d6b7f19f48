package upstream

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

	"github.com/angelmondragon/vitrine-checkout/pkg/circuitbreaker"
	"github.com/angelmondragon/vitrine-checkout/pkg/config"
	pkgerrors "github.com/angelmondragon/vitrine-checkout/pkg/errors"
	"github.com/angelmondragon/vitrine-checkout/pkg/metrics"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	errorBodyReadLimit int64 = 1024
	bodyReadLimit      int64 = 4 << 20
)

// Response is a fully read upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Request describes one outbound call relative to the client's base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any
}

// Client is the shared HTTP client for external APIs: it traces, measures and
// guards every call with a circuit breaker.
type Client struct {
	name       string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	metrics    *metrics.UpstreamMetrics
	breaker    *gobreaker.CircuitBreaker[*Response]
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. Its transport is used as is.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMetrics records latency and outcomes on the given collectors.
func WithMetrics(m *metrics.UpstreamMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(ua)
	}
}

// WithBreaker overrides the breaker settings.
func WithBreaker(cfg config.BreakerConfig) Option {
	return func(c *Client) {
		c.breaker = c.newBreaker(cfg)
	}
}

// New builds a client named after the upstream it talks to.
func New(name, baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("upstream name is required")
	}
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("%s base url is required", name)
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("%s base url: %w", name, err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		name:    name,
		baseURL: trimmed,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.breaker == nil {
		client.breaker = client.newBreaker(config.BreakerConfig{})
	}
	return client, nil
}

// Name returns the upstream label used in metrics and errors.
func (c *Client) Name() string {
	return c.name
}

func (c *Client) newBreaker(cfg config.BreakerConfig) *gobreaker.CircuitBreaker[*Response] {
	return circuitbreaker.New[*Response](c.name, cfg, isClientError, func(name string, open bool) {
		c.metrics.SetBreakerOpen(name, open)
	})
}

// Do executes the request. Non-2xx responses are returned alongside a
// *StatusError; transport failures and an open breaker map to CodeDependency.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "upstream client not configured")
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var payload []byte
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("marshal %s request", c.name))
		}
		payload = encoded
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*Response, error) {
		return c.roundTrip(ctx, method, req, payload)
	})
	c.metrics.ObserveDuration(c.name, time.Since(start))

	var statusErr *StatusError
	switch {
	case err == nil:
		c.metrics.IncOutcome(c.name, metrics.OutcomeSuccess)
		return resp, nil
	case errors.As(err, &statusErr):
		if statusErr.StatusCode < http.StatusInternalServerError {
			c.metrics.IncOutcome(c.name, metrics.OutcomeRejected)
		} else {
			c.metrics.IncOutcome(c.name, metrics.OutcomeFailure)
		}
		return resp, statusErr
	case circuitbreaker.IsOpen(err):
		c.metrics.IncOutcome(c.name, metrics.OutcomeFailure)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s temporarily unavailable", c.name))
	default:
		c.metrics.IncOutcome(c.name, metrics.OutcomeFailure)
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("execute %s request", c.name))
	}
}

// DoJSON executes the request and decodes a 2xx body into out.
func (c *Client) DoJSON(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", c.name))
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method string, req Request, payload []byte) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.buildURL(req.Path, req.Query), body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("build %s request", c.name))
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(httpResp.Body, errorBodyReadLimit))
		resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: raw}
		return resp, newStatusError(c.name, httpResp.StatusCode, raw)
	}

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, bodyReadLimit))
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: raw}, nil
}

func (c *Client) buildURL(path string, query url.Values) string {
	path = strings.TrimLeft(path, "/")
	target := c.baseURL
	if path != "" {
		target = fmt.Sprintf("%s/%s", c.baseURL, path)
	}
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

// PathEscape escapes one path segment for use in Request.Path.
func PathEscape(segment string) string {
	return url.PathEscape(strings.TrimSpace(segment))
}

func isClientError(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode < http.StatusInternalServerError
	}
	return false
}
