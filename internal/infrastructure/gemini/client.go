// Package gemini is the chat assistant backed by the Gemini generateContent API.
package gemini

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

	chatapp "github.com/ecomt/storefront/internal/application/chat"
	"github.com/ecomt/storefront/internal/infrastructure/config"
	"github.com/ecomt/storefront/internal/infrastructure/telemetry"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const maxResponseSize = 1 << 20

var (
	// ErrEmptyResponse is returned when the API answers without any candidate text
	ErrEmptyResponse = errors.New("gemini: empty response")
	// ErrRequestFailed wraps non-2xx answers
	ErrRequestFailed = errors.New("gemini: request failed")
	// ErrMissingAPIKey is returned by NewClient without an API key
	ErrMissingAPIKey = errors.New("gemini: api key is required")
)

// Client implements chat.Assistant
type Client struct {
	cfg        config.GeminiConfig
	endpoint   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[string]
	logger     *zap.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// BreakerSettings returns the circuit breaker settings used by the client.
// The breaker opens after consecutiveFailures failed calls in a row and
// tries again after openTimeout.
func BreakerSettings(consecutiveFailures uint32, openTimeout time.Duration, logger *zap.Logger) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			// a caller giving up is not an upstream fault
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
}

// NewClient creates a Gemini client from configuration
func NewClient(cfg config.GeminiConfig, opts ...ClientOption) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrMissingAPIKey
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		cfg:        cfg,
		endpoint:   fmt.Sprintf("%s/models/%s:generateContent", base, url.PathEscape(model)),
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker[string](BreakerSettings(5, 30*time.Second, c.logger))
	return c, nil
}

// Generate sends the prompt and returns the first candidate's text
func (c *Client) Generate(ctx context.Context, prompt string) (reply string, err error) {
	ctx, span := telemetry.StartSpan(ctx, "gemini.generate", trace.SpanKindClient,
		attribute.String("gemini.model", c.cfg.Model))
	defer func() { telemetry.EndSpan(span, err) }()

	return c.breaker.Execute(func() (string, error) {
		return c.generate(ctx, prompt)
	})
}

// BreakerState exposes the breaker state for health reporting
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateContentRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     c.cfg.Temperature,
			TopK:            c.cfg.TopK,
			TopP:            c.cfg.TopP,
			MaxOutputTokens: c.cfg.MaxOutputTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("gemini: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?key="+url.QueryEscape(c.cfg.APIKey), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("gemini: failed to read response: %w", err)
	}

	var out generateContentResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrRequestFailed, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("gemini: failed to decode response: %w", decodeErr)
	}

	text, ok := out.firstText()
	if !ok {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("Gemini reply generated",
		zap.Duration("duration", time.Since(start)),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("reply_chars", len(text)),
	)
	return text, nil
}

// Ensure Client implements chat.Assistant
var _ chatapp.Assistant = (*Client)(nil)
