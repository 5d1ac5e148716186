package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestBackends(t *testing.T) {
	ctx := context.Background()
	file, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	mem, err := NewMemoryCache(8)
	if err != nil {
		t.Fatal(err)
	}

	for name, c := range map[string]Cache{"file": file, "memory": mem} {
		t.Run(name, func(t *testing.T) {
			if _, hit, _ := c.Get(ctx, "missing"); hit {
				t.Error("unexpected hit for missing key")
			}
			if err := c.Set(ctx, "k", []byte("v1"), 0); err != nil {
				t.Fatal(err)
			}
			data, hit, err := c.Get(ctx, "k")
			if err != nil || !hit || string(data) != "v1" {
				t.Fatalf("Get(k) = %q, %v, %v", data, hit, err)
			}
			if err := c.Set(ctx, "k", []byte("v2"), time.Hour); err != nil {
				t.Fatal(err)
			}
			if data, _, _ := c.Get(ctx, "k"); string(data) != "v2" {
				t.Errorf("overwrite: Get(k) = %q", data)
			}
			if err := c.Delete(ctx, "k"); err != nil {
				t.Fatal(err)
			}
			if _, hit, _ := c.Get(ctx, "k"); hit {
				t.Error("hit after Delete")
			}
			if err := c.Delete(ctx, "k"); err != nil {
				t.Errorf("second Delete: %v", err)
			}
		})
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry not removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	p := c.path("k")
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get(corrupt) = %v, %v; want miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)

	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(c.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("cache dir has %d entries after Clear", len(entries))
	}
}

func TestMemoryCacheEviction(t *testing.T) {
	ctx := context.Background()
	c, _ := NewMemoryCache(2)

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	_, _, _ = c.Get(ctx, "a") // a is now most recent
	_ = c.Set(ctx, "c", []byte("3"), 0)

	if _, hit, _ := c.Get(ctx, "b"); hit {
		t.Error("least recently used entry b was not evicted")
	}
	if _, hit, _ := c.Get(ctx, "a"); !hit {
		t.Error("recently used entry a was evicted")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestMemoryCacheTTL(t *testing.T) {
	ctx := context.Background()
	c, _ := NewMemoryCache(0)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "k", []byte("v"), time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Fatal("fresh entry missing")
	}
	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}
}

func TestMemoryCacheCopies(t *testing.T) {
	ctx := context.Background()
	c, _ := NewMemoryCache(4)

	buf := []byte("abc")
	_ = c.Set(ctx, "k", buf, 0)
	buf[0] = 'x'
	got, _, _ := c.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value aliased caller buffer: %q", got)
	}
	got[1] = 'y'
	again, _, _ := c.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("returned value aliased stored entry: %q", again)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.HTTPKey("github", "search:1"); got != "http:github:search:1" {
		t.Errorf("HTTPKey = %s", got)
	}

	m1 := k.MetricsKey("abc", MetricsKeyOpts{PairCounting: "ordered"})
	m2 := k.MetricsKey("abc", MetricsKeyOpts{PairCounting: "unordered"})
	m3 := k.MetricsKey("abd", MetricsKeyOpts{PairCounting: "ordered"})
	if m1 == m2 || m1 == m3 {
		t.Error("MetricsKey should depend on relation hash and options")
	}
	if m1 != k.MetricsKey("abc", MetricsKeyOpts{PairCounting: "ordered"}) {
		t.Error("MetricsKey should be deterministic")
	}
	if !strings.HasPrefix(m1, "metrics:") {
		t.Errorf("MetricsKey prefix: %s", m1)
	}
	if p := k.ProjectionKey("abc"); !strings.HasPrefix(p, "projection:") || p == m1 {
		t.Errorf("ProjectionKey = %s", p)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "upload:")

	if got := scoped.HTTPKey("github", "x"); got != "upload:http:github:x" {
		t.Errorf("HTTPKey = %s", got)
	}
	inner := NewDefaultKeyer()
	want := "upload:" + inner.MetricsKey("h", MetricsKeyOpts{})
	if got := scoped.MetricsKey("h", MetricsKeyOpts{}); got != want {
		t.Errorf("MetricsKey = %s, want %s", got, want)
	}
	if got := scoped.ProjectionKey("h"); got != "upload:"+inner.ProjectionKey("h") {
		t.Errorf("ProjectionKey = %s", got)
	}
}
