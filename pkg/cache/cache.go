// Package cache stores intermediate pipeline results behind a small
// byte-oriented interface.
//
// Backends:
//
//   - [FileCache]: one JSON file per key under a directory, used by the CLI.
//   - [MemoryCache]: bounded in-process LRU, used by the HTTP server.
//   - [RedisCache]: shared cache for several server instances.
//   - [NullCache]: never stores anything (--no-cache).
//
// Keys are produced by a [Keyer] so that every backend sees the same key
// layout. [DefaultKeyer] hashes the inputs of each stage together with the
// options that affect its output.
package cache

import (
	"context"
	"time"
)

// Default TTLs for the cached stages.
const (
	// HTTPTTL bounds how long collected GitHub responses are reused.
	HTTPTTL = 24 * time.Hour
	// ProjectionTTL applies to projected graphs keyed by relation hash.
	ProjectionTTL = 7 * 24 * time.Hour
	// MetricsTTL applies to metric tables keyed by relation hash and options.
	MetricsTTL = 7 * 24 * time.Hour
)

// Cache is a key/value store for serialized pipeline artifacts.
//
// Get reports a miss with ok == false and a nil error. A ttl of zero in
// Set means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
