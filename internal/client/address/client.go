// Package address loads Vietnamese administrative divisions from the public
// provinces API and drives the province → ward selection of the checkout form.
package address

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

	"github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL  = "https://provinces.open-api.vn/api/v1"
	DefaultTimeout  = 10 * time.Second
	DefaultCacheTTL = 24 * time.Hour

	maxResponseSize = 8 << 20
	provincesKey    = "provinces"
)

var (
	ErrProvinceNotFound = errors.New("province not found")
	ErrUpstream         = errors.New("address service unavailable")
)

// Province is a first-level division. Districts are only filled by Province(code).
type Province struct {
	Name         string     `json:"name"`
	Code         int        `json:"code"`
	DivisionType string     `json:"division_type"`
	Codename     string     `json:"codename"`
	PhoneCode    int        `json:"phone_code"`
	Districts    []District `json:"districts"`
}

type District struct {
	Name         string `json:"name"`
	Code         int    `json:"code"`
	DivisionType string `json:"division_type"`
	Codename     string `json:"codename"`
	ProvinceCode int    `json:"province_code"`
	Wards        []Ward `json:"wards"`
}

type Ward struct {
	Name         string `json:"name"`
	Code         int    `json:"code"`
	DivisionType string `json:"division_type"`
	Codename     string `json:"codename"`
	DistrictCode int    `json:"district_code"`
}

// Config holds the client configuration.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBreaker overrides how many consecutive failures open the breaker and
// how long it stays open.
func WithBreaker(consecutiveFailures uint32, openTimeout time.Duration) ClientOption {
	return func(c *Client) {
		c.tripAfter = consecutiveFailures
		c.openTimeout = openTimeout
	}
}

// Client reads the provinces API through a TTL cache and a circuit breaker.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	cache       *cache.Cache
	breaker     *gobreaker.CircuitBreaker[[]byte]
	tripAfter   uint32
	openTimeout time.Duration
	logger      *zap.Logger
}

// NewClient creates a client; zero config fields take defaults.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	c := &Client{
		baseURL:     base,
		httpClient:  &http.Client{Timeout: timeout},
		cache:       cache.New(ttl, 2*ttl),
		tripAfter:   3,
		openTimeout: 30 * time.Second,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "provinces",
		MaxRequests: 1,
		Timeout:     c.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.tripAfter
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrProvinceNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c
}

// Provinces lists all provinces without their districts.
func (c *Client) Provinces(ctx context.Context) ([]Province, error) {
	if cached, ok := c.cache.Get(provincesKey); ok {
		return append([]Province(nil), cached.([]Province)...), nil
	}

	raw, err := c.fetch(ctx, "/p", nil)
	if err != nil {
		return nil, err
	}
	var provinces []Province
	if err := json.Unmarshal(raw, &provinces); err != nil {
		return nil, fmt.Errorf("%w: invalid province list: %v", ErrUpstream, err)
	}

	c.cache.SetDefault(provincesKey, provinces)
	return append([]Province(nil), provinces...), nil
}

// Province returns a province with its districts and wards.
func (c *Client) Province(ctx context.Context, code int) (*Province, error) {
	key := "province:" + strconv.Itoa(code)
	if cached, ok := c.cache.Get(key); ok {
		p := cached.(Province)
		return &p, nil
	}

	raw, err := c.fetch(ctx, "/p/"+strconv.Itoa(code), map[string]string{"depth": "3"})
	if err != nil {
		return nil, err
	}
	var province Province
	if err := json.Unmarshal(raw, &province); err != nil {
		return nil, fmt.Errorf("%w: invalid province %d: %v", ErrUpstream, code, err)
	}

	c.cache.SetDefault(key, province)
	return &province, nil
}

// BreakerState exposes the breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// Flush empties the cache.
func (c *Client) Flush() {
	c.cache.Flush()
}

func (c *Client) fetch(ctx context.Context, path string, query map[string]string) ([]byte, error) {
	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.get(ctx, path, query)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return raw, err
}

func (c *Client) get(ctx context.Context, path string, query map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if len(query) > 0 {
		q := req.URL.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Provinces API request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProvinceNotFound
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrUpstream, resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return raw, nil
}
