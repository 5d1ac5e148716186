package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/contribnet/internal/config"
	"github.com/matzehuels/contribnet/pkg/observability"
)

// registerFlags adds the persistent flags every command accepts.
func (c *CLI) registerFlags(root *cobra.Command) {
	pf := root.PersistentFlags()
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/contribnet/config.toml)")
	pf.BoolVar(&c.noCache, "no-cache", false, "disable the result and HTTP caches")
	pf.StringVar(&c.redisAddr, "redis", "", "use the Redis cache at this address")
}

// setup runs before every subcommand: it loads the configuration, applies
// flag overrides and sets the log level.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level, plus pipeline, cache and HTTP
//     events from the observability hooks
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	level := LogInfo
	if c.verbose {
		level = LogDebug
		observability.NewLogHooks(c.Logger).Install()
	}
	c.SetLogLevel(level)

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.redisAddr != "" {
		cfg.Cache.RedisAddr = c.redisAddr
	}
	c.Config = cfg

	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	return nil
}
