// Package config loads contribnet settings from an optional TOML file and
// the environment.
//
// Values are resolved in order default < file < environment; command line
// flags are applied on top by the CLI. A missing file at the default path
// is not an error, a missing file named explicitly is.
//
// Example config.toml:
//
//	[github]
//	query = "stars:>10000 size:>1000"
//	repo_count = 50
//	contributor_limit = 100
//	min_contributions = 5
//
//	[analysis]
//	workers = 8
//	pair_counting = "unordered"
//
//	[cache]
//	ttl = "24h"
//	redis_addr = "localhost:6379"
//
//	[store]
//	kind = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/contribnet/pkg/cache"
	"github.com/matzehuels/contribnet/pkg/collect"
	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/integrations/github"
	"github.com/matzehuels/contribnet/pkg/store"
)

const appName = "contribnet"

// Environment variables read by [Load].
const (
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubUsername = "GITHUB_USERNAME"
	EnvRedisAddr      = "CONTRIBNET_REDIS_ADDR"
	EnvMongoURI       = "CONTRIBNET_MONGO_URI"
)

// DefaultAddr is the listen address of the HTTP server.
const DefaultAddr = ":8080"

// Config is the merged configuration.
type Config struct {
	GitHub   GitHub   `toml:"github"`
	Analysis Analysis `toml:"analysis"`
	Cache    Cache    `toml:"cache"`
	Server   Server   `toml:"server"`
	Store    Store    `toml:"store"`

	// Path is the file the configuration was read from, empty if none.
	Path string `toml:"-"`
}

// GitHub configures collection.
type GitHub struct {
	Token            string `toml:"token"`
	Username         string `toml:"username"`
	Query            string `toml:"query"`
	RepoCount        int    `toml:"repo_count"`
	ContributorLimit int    `toml:"contributor_limit"`
	MinContributions int    `toml:"min_contributions"`
	IncludeBots      bool   `toml:"include_bots"`
	Concurrency      int    `toml:"concurrency"`
}

// Analysis configures centrality computation.
type Analysis struct {
	Workers      int    `toml:"workers"`
	PairCounting string `toml:"pair_counting"`
}

// Cache configures the pipeline and HTTP response caches.
type Cache struct {
	Dir       string        `toml:"dir"`
	TTL       time.Duration `toml:"ttl"`
	RedisAddr string        `toml:"redis_addr"`
}

// Server configures `contribnet serve`.
type Server struct {
	Addr            string `toml:"addr"`
	MemoryCacheSize int    `toml:"memory_cache_size"`
}

// Store configures where analyzed snapshots are saved.
type Store struct {
	Kind          string `toml:"kind"`
	Dir           string `toml:"dir"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		GitHub: GitHub{
			Query:            github.DefaultQuery,
			RepoCount:        collect.DefaultRepoCount,
			ContributorLimit: github.DefaultContributorLimit,
			MinContributions: github.DefaultMinContributions,
			Concurrency:      collect.DefaultConcurrency,
		},
		Analysis: Analysis{PairCounting: "ordered"},
		Cache:    Cache{TTL: cache.HTTPTTL},
		Server:   Server{Addr: DefaultAddr, MemoryCacheSize: cache.DefaultMemoryEntries},
		Store: Store{
			Kind:          string(store.KindFile),
			MongoURI:      store.DefaultMongoURI,
			MongoDatabase: store.DefaultMongoDatabase,
		},
	}
}

// Load reads path (or the default location when path is empty) and
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}

	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			if !explicit && errors.Is(err, errors.ErrCodeFileNotFound) {
				path = ""
			} else {
				return nil, err
			}
		}
	}
	cfg.Path = path

	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s does not exist", path)
		}
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidInput, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvGitHubToken); v != "" {
		c.GitHub.Token = v
	}
	if v := getenv(EnvGitHubUsername); v != "" {
		c.GitHub.Username = v
	}
	if v := getenv(EnvRedisAddr); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := getenv(EnvMongoURI); v != "" {
		c.Store.MongoURI = v
	}
}

// Validate rejects values no command could use.
func (c *Config) Validate() error {
	switch {
	case c.GitHub.RepoCount < 0:
		return errors.New(errors.ErrCodeInvalidInput, "github.repo_count must not be negative")
	case c.GitHub.ContributorLimit < 0:
		return errors.New(errors.ErrCodeInvalidInput, "github.contributor_limit must not be negative")
	case c.GitHub.MinContributions < 0:
		return errors.New(errors.ErrCodeInvalidInput, "github.min_contributions must not be negative")
	case c.Analysis.Workers < 0:
		return errors.New(errors.ErrCodeInvalidInput, "analysis.workers must not be negative")
	case c.Cache.TTL < 0:
		return errors.New(errors.ErrCodeInvalidInput, "cache.ttl must not be negative")
	case c.Server.MemoryCacheSize < 0:
		return errors.New(errors.ErrCodeInvalidInput, "server.memory_cache_size must not be negative")
	}
	switch store.Kind(c.Store.Kind) {
	case "", store.KindFile, store.KindMongo:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "store.kind must be %q or %q, got %q", store.KindFile, store.KindMongo, c.Store.Kind)
	}
	return nil
}

// StoreConfig returns the store settings in the form [store.Open] takes.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Kind:          store.Kind(c.Store.Kind),
		Dir:           c.Store.Dir,
		MongoURI:      c.Store.MongoURI,
		MongoDatabase: c.Store.MongoDatabase,
	}
}

// CacheDir returns the configured cache directory or the XDG default.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return DefaultCacheDir()
}

// DefaultPath returns $XDG_CONFIG_HOME/contribnet/config.toml, falling
// back to ~/.config.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// DefaultCacheDir returns the cache directory using XDG standard
// (~/.cache/contribnet/).
func DefaultCacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
