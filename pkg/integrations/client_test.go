package integrations

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/matzehuels/contribnet/pkg/cache"
	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/httputil"
)

func testClient(t *testing.T, h http.HandlerFunc) (*Client, cache.Cache, string) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := cache.NewMemoryCache(16)
	if err != nil {
		t.Fatal(err)
	}
	client := NewClient(c, "test", time.Hour, map[string]string{"X-Default": "default"})
	client.SetHTTPClient(srv.Client())
	return client, c, srv.URL
}

func TestNewClientNilCache(t *testing.T) {
	client := NewClient(nil, "test", time.Hour, nil)
	if client.cache == nil {
		t.Fatal("nil cache should be replaced by a no-op cache")
	}
	if client.http.Timeout != httpTimeout {
		t.Errorf("Timeout = %v, want %v", client.http.Timeout, httpTimeout)
	}
}

func TestClientGet(t *testing.T) {
	var gotDefault, gotCustom, gotUser, gotPass string
	client, _, url := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotDefault = r.Header.Get("X-Default")
		gotCustom = r.Header.Get("X-Custom")
		gotUser, gotPass, _ = r.BasicAuth()
		json.NewEncoder(w).Encode(map[string]string{"message": "hello"})
	})
	client.SetBasicAuth("octocat", "secret")

	var resp map[string]string
	err := client.GetWithHeaders(context.Background(), url+"/x", map[string]string{"X-Custom": "custom"}, &resp)
	if err != nil {
		t.Fatalf("GetWithHeaders() error: %v", err)
	}
	if resp["message"] != "hello" {
		t.Errorf("message = %q", resp["message"])
	}
	if gotDefault != "default" || gotCustom != "custom" {
		t.Errorf("headers = %q, %q", gotDefault, gotCustom)
	}
	if gotUser != "octocat" || gotPass != "secret" {
		t.Errorf("basic auth = %q:%q", gotUser, gotPass)
	}
}

func TestClientHeaderOverride(t *testing.T) {
	var got string
	client, _, url := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Default")
		w.Write([]byte(`{}`))
	})
	var resp map[string]string
	_ = client.GetWithHeaders(context.Background(), url, map[string]string{"X-Default": "override"}, &resp)
	if got != "override" {
		t.Errorf("header = %q, want override", got)
	}
}

func TestClientNoContent(t *testing.T) {
	client, _, url := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	var resp []string
	if err := client.Get(context.Background(), url, &resp); err != nil {
		t.Fatalf("Get(204) error: %v", err)
	}
	if resp != nil {
		t.Errorf("Get(204) decoded %v", resp)
	}
}

func TestClientBadJSON(t *testing.T) {
	client, _, url := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"broken"`))
	})
	var resp map[string]string
	err := client.Get(context.Background(), url, &resp)
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Get() error = %v, want INVALID_FORMAT", err)
	}
}

func TestClientStatusErrors(t *testing.T) {
	reset := strconv.FormatInt(time.Unix(2000, 0).Unix(), 10)

	tests := []struct {
		name      string
		status    int
		headers   map[string]string
		wantCode  errors.Code
		wantErr   error
		retryable bool
		retryIn   int
	}{
		{name: "notFound", status: 404, wantErr: ErrNotFound},
		{name: "serverError", status: 502, wantErr: ErrNetwork, retryable: true},
		{name: "badRequest", status: 400, wantErr: ErrNetwork},
		{name: "unauthorized", status: 401, wantCode: errors.ErrCodeUnauthorized},
		{name: "forbidden", status: 403, wantCode: errors.ErrCodeForbidden},
		{
			name:     "quotaExhausted",
			status:   403,
			headers:  map[string]string{"X-RateLimit-Remaining": "0", "X-RateLimit-Reset": reset},
			wantCode: errors.ErrCodeRateLimited,
			retryIn:  1000,
		},
		{
			name:      "secondaryLimit",
			status:    403,
			headers:   map[string]string{"Retry-After": "7"},
			wantCode:  errors.ErrCodeRateLimited,
			retryable: true,
			retryIn:   7,
		},
		{name: "tooManyRequests", status: 429, wantCode: errors.ErrCodeRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _, url := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
			})
			client.now = func() time.Time { return time.Unix(1000, 0) }

			var resp any
			err := client.Get(context.Background(), url, &resp)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !stderrors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantCode != "" && errors.GetCode(err) != tt.wantCode {
				t.Errorf("code = %q, want %q (err %v)", errors.GetCode(err), tt.wantCode, err)
			}
			var re *httputil.RetryableError
			if got := stderrors.As(err, &re); got != tt.retryable {
				t.Errorf("retryable = %v, want %v", got, tt.retryable)
			}
			if tt.retryIn > 0 {
				var rl *errors.RateLimitedError
				if !stderrors.As(err, &rl) || rl.RetryAfter != tt.retryIn {
					t.Errorf("RetryAfter = %+v, want %d", rl, tt.retryIn)
				}
			}
		})
	}
}

func TestClientCached(t *testing.T) {
	client, c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()

	fetches := 0
	fetch := func(v *[]string) func() error {
		return func() error {
			fetches++
			*v = []string{"a", "b"}
			return nil
		}
	}

	var first []string
	if err := client.Cached(ctx, "k", false, &first, fetch(&first)); err != nil {
		t.Fatal(err)
	}
	var second []string
	if err := client.Cached(ctx, "k", false, &second, fetch(&second)); err != nil {
		t.Fatal(err)
	}
	if fetches != 1 {
		t.Errorf("fetches = %d, want 1", fetches)
	}
	if len(second) != 2 || second[1] != "b" {
		t.Errorf("cached value = %v", second)
	}

	var third []string
	_ = client.Cached(ctx, "k", true, &third, fetch(&third))
	if fetches != 2 {
		t.Errorf("refresh should refetch, fetches = %d", fetches)
	}

	if _, ok, _ := c.Get(ctx, cache.NewDefaultKeyer().HTTPKey("test", "k")); !ok {
		t.Error("value not stored under namespaced key")
	}
}

func TestClientCachedFetchError(t *testing.T) {
	client, c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()

	var v string
	err := client.Cached(ctx, "bad", false, &v, func() error { return ErrNotFound })
	if !stderrors.Is(err, ErrNotFound) {
		t.Errorf("Cached() error = %v, want ErrNotFound", err)
	}
	if _, ok, _ := c.Get(ctx, cache.NewDefaultKeyer().HTTPKey("test", "bad")); ok {
		t.Error("failed fetch should not be cached")
	}
}

func TestURLEncode(t *testing.T) {
	if got := URLEncode("stars:>10000 size:>1000"); got != "stars%3A%3E10000+size%3A%3E1000" {
		t.Errorf("URLEncode() = %q", got)
	}
}
