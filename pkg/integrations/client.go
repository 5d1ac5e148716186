package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/matzehuels/contribnet/pkg/cache"
	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/httputil"
	"github.com/matzehuels/contribnet/pkg/observability"
)

// Client is the HTTP layer shared by API clients: default headers,
// optional basic auth, response caching and retries.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	keyer     cache.Keyer
	namespace string
	ttl       time.Duration
	headers   map[string]string
	user      string
	password  string
	now       func() time.Time
}

// NewClient creates a Client whose cached responses are keyed under
// namespace. A nil cache disables caching.
func NewClient(c cache.Cache, namespace string, ttl time.Duration, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:      NewHTTPClient(),
		cache:     c,
		keyer:     cache.NewDefaultKeyer(),
		namespace: namespace,
		ttl:       ttl,
		headers:   headers,
		now:       time.Now,
	}
}

// SetBasicAuth authenticates every request with user and password. GitHub
// accepts a personal access token as the password.
func (c *Client) SetBasicAuth(user, password string) {
	c.user, c.password = user, password
}

// SetHTTPClient replaces the underlying HTTP client (tests use the
// httptest server client).
func (c *Client) SetHTTPClient(h *http.Client) {
	if h != nil {
		c.http = h
	}
}

// Cached loads key into v from the cache or runs fetch (with retries) and
// stores v afterwards. refresh skips the lookup but still stores.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	k := c.keyer.HTTPKey(c.namespace, key)
	if !refresh {
		if data, ok, err := c.cache.Get(ctx, k); err == nil && ok {
			if json.Unmarshal(data, v) == nil {
				observability.Cache().OnCacheHit(ctx, "http")
				return nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "http")
	}

	if err := httputil.RetryWithBackoff(ctx, fetch); err != nil {
		return err
	}

	if data, err := json.Marshal(v); err == nil {
		if c.cache.Set(ctx, k, data, c.ttl) == nil {
			observability.Cache().OnCacheSet(ctx, "http", len(data))
		}
	}
	return nil
}

// Get performs a GET and decodes the JSON body into v. A 204 response
// leaves v untouched.
func (c *Client) Get(ctx context.Context, rawURL string, v any) error {
	return c.GetWithHeaders(ctx, rawURL, nil, v)
}

// GetWithHeaders is Get with per-request headers overriding the defaults.
func (c *Client) GetWithHeaders(ctx context.Context, rawURL string, headers map[string]string, v any) error {
	body, err := c.doRequest(ctx, rawURL, headers)
	if err != nil {
		return err
	}
	if body == nil {
		return nil
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s", rawURL)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, rawURL string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if c.user != "" || c.password != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	host, path := hostPath(rawURL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusNoContent {
		resp.Body.Close()
		return nil, nil
	}
	if err := c.checkResponse(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) checkResponse(resp *http.Response) error {
	if rl := c.rateLimit(resp); rl != nil {
		// A server named wait is short enough to sit out; an exhausted
		// hourly quota is not.
		if rl.RetryAfter > 0 && resp.Header.Get("Retry-After") != "" {
			return &httputil.RetryableError{Err: rl, After: time.Duration(rl.RetryAfter) * time.Second}
		}
		return rl
	}
	return checkStatus(resp.StatusCode)
}

// rateLimit recognises primary (X-RateLimit-Remaining: 0) and secondary
// (Retry-After) limits on 403 and 429 responses.
func (c *Client) rateLimit(resp *http.Response) *errors.RateLimitedError {
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
		return nil
	}
	if s := resp.Header.Get("Retry-After"); s != "" {
		secs, _ := strconv.Atoi(s)
		return &errors.RateLimitedError{RetryAfter: secs, Message: "secondary rate limit"}
	}
	if resp.Header.Get("X-RateLimit-Remaining") == "0" {
		rl := &errors.RateLimitedError{Message: "API quota exhausted"}
		if reset, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
			rl.RetryAfter = max(int(time.Unix(reset, 0).Sub(c.now()).Seconds()), 0)
		}
		return rl
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return &errors.RateLimitedError{}
	}
	return nil
}

func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusUnauthorized:
		return errors.New(errors.ErrCodeUnauthorized, "bad or missing credentials (status %d)", code)
	case code == http.StatusForbidden:
		return errors.New(errors.ErrCodeForbidden, "access denied (status %d)", code)
	case code >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

func hostPath(rawURL string) (string, string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", rawURL
	}
	return u.Host, u.Path
}
