// Package api is the JSON-over-HTTP client behind the Upstox and OpenAI
// integrations. Reads are retried on 429 and 5xx; writes never are, since a
// repeated order placement is not idempotent.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"fingreat/internal/logger"
)

type Client struct {
	hc      *http.Client
	name    string
	baseURL string
	headers http.Header
	limiter *rate.Limiter
	retry   RetryPolicy
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.hc.Timeout = d }
}

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

func WithHeaders(h map[string]string) Option {
	return func(c *Client) {
		for k, v := range h {
			c.headers.Set(k, v)
		}
	}
}

func WithBearerToken(token string) Option {
	return WithHeader("Authorization", "Bearer "+token)
}

// WithRateLimit caps outgoing requests per second; burst 1.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithName turns on request logging; the name tags every line.
func WithName(name string) Option {
	return func(c *Client) { c.name = name }
}

func WithRetry(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		hc:      &http.Client{Timeout: 30 * time.Second},
		headers: http.Header{},
		retry:   DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is returned for any response with status >= 400.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header
}

func NewRequest(method, path string) *Request {
	return &Request{Method: method, Path: path, Query: url.Values{}, Header: http.Header{}}
}

func (r *Request) WithBody(body any) *Request {
	r.Body = body
	return r
}

func (r *Request) WithQuery(key, value string) *Request {
	r.Query.Set(key, value)
	return r
}

func (r *Request) WithHeader(key, value string) *Request {
	r.Header.Set(key, value)
	return r
}

type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

func (r *Response) ParseJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode %d response: %w", r.StatusCode, err)
	}
	return nil
}

// Do sends req once.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	httpReq, err := c.build(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.hc.Do(httpReq)
	if err != nil {
		c.log(ctx, req, 0, start, err)
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", req.Method, req.Path, err)
	}
	c.log(ctx, req, resp.StatusCode, start, nil)

	if resp.StatusCode >= 400 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
		}
	}
	return &Response{StatusCode: resp.StatusCode, Body: body, Header: resp.Header}, nil
}

func (c *Client) build(ctx context.Context, req *Request) (*http.Request, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for _, h := range []http.Header{c.headers, req.Header} {
		for k, vs := range h {
			httpReq.Header[k] = vs
		}
	}
	return httpReq, nil
}

func (c *Client) log(ctx context.Context, req *Request, status int, start time.Time, err error) {
	if c.name == "" {
		return
	}
	kv := []any{"client", c.name, "method", req.Method, "path", req.Path, "duration_ms", time.Since(start).Milliseconds()}
	switch {
	case err != nil:
		logger.ErrorWithErrSkip(ctx, 2, "HTTP request failed", err, kv...)
	case status >= 400:
		logger.WarnSkip(ctx, 2, "HTTP error response", append(kv, "status", status)...)
	default:
		logger.DebugSkip(ctx, 2, "HTTP response", append(kv, "status", status)...)
	}
}

// GetJSON issues a GET with the client's retry policy and decodes the body into v.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, v any) error {
	req := NewRequest(http.MethodGet, path)
	if query != nil {
		req.Query = query
	}
	resp, err := c.DoWithRetry(ctx, req, c.retry)
	if err != nil {
		return err
	}
	return resp.ParseJSON(v)
}

// PostJSON issues a single POST and decodes the reply into v.
func (c *Client) PostJSON(ctx context.Context, path string, body, v any) error {
	resp, err := c.Do(ctx, NewRequest(http.MethodPost, path).WithBody(body))
	if err != nil {
		return err
	}
	return resp.ParseJSON(v)
}

func UpstoxHeaders(accessToken string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + accessToken,
		"Api-Version":   "2.0",
	}
}

type RetryPolicy struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialWait: time.Second, MaxWait: 5 * time.Second}
}

// DoWithRetry retries transport errors and retryable statuses with exponential
// backoff. A Retry-After header overrides the backoff, capped at MaxWait.
func (c *Client) DoWithRetry(ctx context.Context, req *Request, p RetryPolicy) (*Response, error) {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	wait := p.InitialWait

	var lastErr error
	for attempt := 1; ; attempt++ {
		resp, err := c.Do(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var se *StatusError
		isStatus := errors.As(err, &se)
		if isStatus && !se.Retryable() {
			return nil, err
		}
		if attempt >= p.MaxAttempts || ctx.Err() != nil {
			break
		}

		pause := wait
		if isStatus && se.RetryAfter > 0 {
			pause = se.RetryAfter
		}
		if p.MaxWait > 0 && pause > p.MaxWait {
			pause = p.MaxWait
		}
		logger.Warn(ctx, "Retrying request", "client", c.name, "path", req.Path, "attempt", attempt, "wait", pause, "error", err)

		t := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
		wait *= 2
	}
	return nil, fmt.Errorf("after %d attempts: %w", p.MaxAttempts, lastErr)
}

// retryAfter reads the delay-seconds form of Retry-After.
func retryAfter(v string) time.Duration {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
