package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/contribnet/internal/config"
	"github.com/matzehuels/contribnet/internal/server"
	"github.com/matzehuels/contribnet/pkg/cache"
	"github.com/matzehuels/contribnet/pkg/pipeline"
	"github.com/matzehuels/contribnet/pkg/store"
)

// serveCommand creates the serve command, which exposes the pipeline over
// HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var memEntries int
	var popts pipeline.Options

	cmd := &cobra.Command{
		Use:   "serve [membership.json]",
		Short: "Serve metrics over HTTP",
		Long: `Start the HTTP API. With a membership file the dataset is analyzed at
startup and served under /v1/graph, /v1/metrics and /v1/summary. Uploads go
to POST /v1/analyze; saved results are listed under /v1/snapshots.

Results are cached in memory, or in Redis when one is configured.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				popts.InputPath = args[0]
			}
			c.analysisOptions(cmd, &popts)
			if !cmd.Flags().Changed("addr") && c.Config.Server.Addr != "" {
				addr = c.Config.Server.Addr
			}
			if !cmd.Flags().Changed("memory-cache") && c.Config.Server.MemoryCacheSize > 0 {
				memEntries = c.Config.Server.MemoryCacheSize
			}
			return c.runServe(cmd.Context(), addr, memEntries, popts)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")
	cmd.Flags().IntVar(&memEntries, "memory-cache", cache.DefaultMemoryEntries, "in-memory cache entries")
	addAnalysisFlags(cmd, &popts)

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, memEntries int, popts pipeline.Options) error {
	cc, err := c.serverCache(ctx, memEntries)
	if err != nil {
		return err
	}

	snapshots, err := store.Open(ctx, c.Config.StoreConfig())
	if err != nil {
		c.Logger.Warn("snapshots disabled", "error", err)
	}

	popts.Logger = c.Logger
	srv, err := server.New(ctx, server.Config{
		Runner:  pipeline.NewRunner(cc, nil, c.Logger),
		Options: popts,
		Store:   snapshots,
		Logger:  c.Logger,
	})
	if err != nil {
		return err
	}
	defer srv.Close() // closes the runner cache and the store

	return srv.ListenAndServe(ctx, addr)
}

// serverCache returns Redis when configured, otherwise a bounded in-memory
// cache. --no-cache disables both.
func (c *CLI) serverCache(ctx context.Context, entries int) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	if addr := c.Config.Cache.RedisAddr; addr != "" {
		return cache.NewRedisCache(ctx, cache.RedisConfig{Addr: addr, Prefix: redisPrefix})
	}
	return cache.NewMemoryCache(entries)
}
