// HTTP client shared by every stage of a run. All outbound calls, wiki and
// Scryfall alike, draw from one rate limiter budget, and GET responses are
// cached in a local sqlite file so reruns don't hammer the upstreams.
package session

import (
	"context"
	"io"
	"net/http"
	"time"

	"ormosbot/oops"

	"golang.org/x/time/rate"
)

type Config struct {
	RequestsPerSecond float64
	CacheTTL          time.Duration
	AllowedCodes      []int
	CachePath         string
}

func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 10,
		CacheTTL:          7 * 24 * time.Hour,
		AllowedCodes:      []int{200, 400, 404},
		CachePath:         "cache.db",
	}
}

type Client struct {
	httpClient   *http.Client
	limiter      *rate.Limiter
	cache        *responseCache
	cacheTTL     time.Duration
	allowedCodes map[int]bool
	headers      map[string]string
}

type Response struct {
	StatusCode int
	Body       []byte
	FromCache  bool
}

func (r *Response) Ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type RequestOptions struct {
	Timeout      time.Duration
	Headers      map[string]string
	DisableCache bool
}

// NewClient opens the backing cache file eagerly so a bad path fails at
// startup. headers are sent with every request and can be overridden
// per-request via RequestOptions.
func NewClient(config Config, headers map[string]string) (*Client, error) {
	var cache *responseCache
	if config.CachePath != "" {
		var err error
		cache, err = openResponseCache(config.CachePath)
		if err != nil {
			return nil, err
		}
	}

	allowedCodes := make(map[int]bool)
	for _, code := range config.AllowedCodes {
		allowedCodes[code] = true
	}

	return &Client{
		httpClient:   &http.Client{Timeout: time.Minute},
		limiter:      rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		cache:        cache,
		cacheTTL:     config.CacheTTL,
		allowedCodes: allowedCodes,
		headers:      headers,
	}, nil
}

func (c *Client) Close() error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Close()
}

// Get returns the response for a url, from cache when a fresh entry exists.
// Transport-level failures come back as errors; any received response, error
// status included, comes back as a *Response for the caller to branch on.
func (c *Client) Get(ctx context.Context, url string, opts RequestOptions) (*Response, error) {
	useCache := c.cache != nil && !opts.DisableCache
	if useCache {
		cached, ok, err := c.cache.lookup(url, c.cacheTTL)
		if err != nil {
			return nil, err
		}
		if ok {
			return &Response{
				StatusCode: cached.StatusCode,
				Body:       cached.Body,
				FromCache:  true,
			}, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, oops.Wrap(err)
	}

	requestCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		requestCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, oops.Wrap(err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if useCache && c.allowedCodes[resp.StatusCode] {
		if err := c.cache.store(url, resp.StatusCode, body); err != nil {
			return nil, err
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		FromCache:  false,
	}, nil
}
