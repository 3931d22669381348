// Package apiclient is the HTTP client of the storefront REST API.
//
// Every request passes through the same interceptors: the bearer token is
// injected when a TokenSource yields one, and every failure is mapped to an
// *Error whose Kind drives a user-facing notice. Calls are never retried.
package apiclient

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
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout is used when Config.Timeout is zero.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent identifies the client to the server.
	DefaultUserAgent = "storefront-client/1.0"

	// RequestIDHeader carries the per-request correlation id.
	RequestIDHeader = "X-Request-ID"

	maxErrorBody = 64 << 10
)

// Config holds the client configuration.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	UserAgent  string
}

// TokenSource yields the bearer token for the next request; "" means anonymous.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Notifier receives the notice of a failed call.
type Notifier interface {
	Notify(kind Kind, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(kind Kind, message string)

func (f NotifierFunc) Notify(kind Kind, message string) { f(kind, message) }

// Option configures a Client.
type Option func(*Client)

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithNotifier sets the receiver of failure notices.
func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithOnUnauthorized sets the hook run when an authenticated request is
// rejected with 401. It typically clears the stored session.
func WithOnUnauthorized(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRequestIDFunc overrides the request id generator.
func WithRequestIDFunc(fn func() string) Option {
	return func(c *Client) { c.newRequestID = fn }
}

// Client calls the storefront API.
type Client struct {
	httpClient     *http.Client
	baseURL        *url.URL
	headers        map[string]string
	tokens         TokenSource
	notifier       Notifier
	onUnauthorized func()
	newRequestID   func() string
	logger         *zap.Logger
	mu             sync.RWMutex
}

// New creates a client for the API rooted at cfg.BaseURL (e.g. http://localhost:8080/api/v1).
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL scheme %q", base.Scheme)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    base,
		headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": userAgent,
		},
		newRequestID: func() string { return uuid.NewString() },
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetTokenSource replaces the token source after construction.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

// SetOnUnauthorized replaces the 401 hook after construction.
func (c *Client) SetOnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// SetHeader sets a default header sent with every request.
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers[key] = value
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Request describes one API call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string       `json:"code"`
		Message   string       `json:"message"`
		RequestID string       `json:"request_id"`
		Details   []FieldError `json:"details"`
	} `json:"error"`
	Meta *Meta `json:"meta"`
}

// Do executes req and decodes the envelope's data into out (which may be nil).
// The returned Meta is non-nil only for paginated responses.
func (c *Client) Do(ctx context.Context, req Request, out any) (*Meta, error) {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	authenticated := httpReq.Header.Get("Authorization") != ""

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		apiErr := &Error{Kind: KindNetwork, Message: err.Error(), Err: err}
		// caller-cancelled requests are not user-visible failures
		if ctx.Err() == nil {
			c.fail(apiErr, authenticated, req.Path)
		}
		return nil, apiErr
	}
	defer resp.Body.Close()

	c.logger.Debug("API request",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeError(resp)
		c.fail(apiErr, authenticated, req.Path)
		return nil, apiErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErr := &Error{Kind: KindNetwork, Status: resp.StatusCode, Message: "failed to read response", Err: err}
		c.fail(apiErr, authenticated, req.Path)
		return nil, apiErr
	}
	if len(body) == 0 {
		return nil, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &Error{Kind: KindOther, Status: resp.StatusCode, Message: "invalid response body", Err: err}
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, &Error{Kind: KindOther, Status: resp.StatusCode, Message: "invalid response data", Err: err}
		}
	}
	return env.Meta, nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.buildURL(req.Path, req.Query), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.mu.RLock()
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	tokens := c.tokens
	c.mu.RUnlock()

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if tokens != nil {
		if token := tokens.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if c.newRequestID != nil {
		httpReq.Header.Set(RequestIDHeader, c.newRequestID())
	}
	return httpReq, nil
}

// buildURL joins path onto the base URL and encodes query.
func (c *Client) buildURL(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func decodeError(resp *http.Response) *Error {
	apiErr := &Error{
		Kind:   KindForStatus(resp.StatusCode),
		Status: resp.StatusCode,
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.RequestID = env.Error.RequestID
		apiErr.Details = env.Error.Details
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// fail runs the response-side interceptors for a failed call to path.
func (c *Client) fail(err *Error, authenticated bool, path string) {
	c.mu.RLock()
	onUnauthorized := c.onUnauthorized
	notifier := c.notifier
	c.mu.RUnlock()

	if err.Kind == KindUnauthorized && authenticated && onUnauthorized != nil {
		onUnauthorized()
	}

	fields := []zap.Field{
		zap.String("kind", err.Kind.String()),
		zap.Int("status", err.Status),
		zap.String("code", err.Code),
		zap.String("message", err.Message),
	}
	if err.Kind == KindServer || err.Kind == KindNetwork {
		c.logger.Warn("API call failed", fields...)
	} else {
		c.logger.Debug("API call rejected", fields...)
	}

	// a 403 under /user/ means the account has no such data yet
	if err.Kind == KindForbidden && strings.Contains(path, "/user/") {
		return
	}
	if notifier != nil {
		notifier.Notify(err.Kind, notice(err, authenticated))
	}
}

// Do executes req and returns the decoded data as T.
func Do[T any](ctx context.Context, c *Client, req Request) (T, *Meta, error) {
	var out T
	meta, err := c.Do(ctx, req, &out)
	return out, meta, err
}

// Get fetches path with the given query.
func Get[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	out, _, err := Do[T](ctx, c, Request{Method: http.MethodGet, Path: path, Query: query})
	return out, err
}

// Post sends body to path.
func Post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	out, _, err := Do[T](ctx, c, Request{Method: http.MethodPost, Path: path, Body: body})
	return out, err
}

// Put sends body to path.
func Put[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	out, _, err := Do[T](ctx, c, Request{Method: http.MethodPut, Path: path, Body: body})
	return out, err
}

// Delete removes the resource at path.
func Delete[T any](ctx context.Context, c *Client, path string) (T, error) {
	out, _, err := Do[T](ctx, c, Request{Method: http.MethodDelete, Path: path})
	return out, err
}

// AsError returns err as *Error when it is one.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}
