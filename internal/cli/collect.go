package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/contribnet/pkg/collect"
	"github.com/matzehuels/contribnet/pkg/integrations/github"
	"github.com/matzehuels/contribnet/pkg/membership"
)

// collectOpts holds the command-line flags for the collect command.
type collectOpts struct {
	output           string
	query            string
	repos            []string
	count            int
	limit            int
	minContributions int
	includeBots      bool
	concurrency      int
	refresh          bool
}

// collectCommand creates the collect command, which builds a membership
// relation from GitHub repositories and their contributors.
func (c *CLI) collectCommand() *cobra.Command {
	var opts collectOpts

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect repository contributors from GitHub",
		Long: `Collect the contributors of popular GitHub repositories into a
membership file ({"owner/repo": ["login", ...]}).

Repositories come from a search (--query, --count) or are listed with --repo.
Set GITHUB_TOKEN to raise the API rate limit; with GITHUB_USERNAME the token
is sent as basic auth.

Examples:
  contribnet collect -o contributors.json
  contribnet collect --query "language:go stars:>5000" --count 20 -o go.json
  contribnet collect --repo golang/go --repo golang/tools --limit 200`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.collectDefaults(cmd, &opts)
			return c.runCollect(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "repository search query (default "+github.DefaultQuery+")")
	cmd.Flags().StringSliceVar(&opts.repos, "repo", nil, "collect these owner/repo slugs instead of searching")
	cmd.Flags().IntVarP(&opts.count, "count", "n", 0, "number of repositories to search for")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "contributors kept per repository")
	cmd.Flags().IntVar(&opts.minContributions, "min-contributions", 0, "minimum contributions to count as a member")
	cmd.Flags().BoolVar(&opts.includeBots, "include-bots", false, "keep bot accounts")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "repositories fetched in parallel")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached API responses")

	return cmd
}

// collectDefaults fills flags the user did not set from the [github]
// config section.
func (c *CLI) collectDefaults(cmd *cobra.Command, opts *collectOpts) {
	gh := c.Config.GitHub
	f := cmd.Flags()
	if !f.Changed("query") {
		opts.query = gh.Query
	}
	if !f.Changed("count") {
		opts.count = gh.RepoCount
	}
	if !f.Changed("limit") {
		opts.limit = gh.ContributorLimit
	}
	if !f.Changed("min-contributions") {
		opts.minContributions = gh.MinContributions
	}
	if !f.Changed("include-bots") {
		opts.includeBots = gh.IncludeBots
	}
	if !f.Changed("concurrency") {
		opts.concurrency = gh.Concurrency
	}
}

func (c *CLI) runCollect(ctx context.Context, opts collectOpts) error {
	httpCache, err := c.newCache(ctx)
	if err != nil {
		return err
	}
	defer httpCache.Close()

	client := github.NewClient(github.Config{
		Token:    c.Config.GitHub.Token,
		Username: c.Config.GitHub.Username,
		Cache:    httpCache,
		CacheTTL: c.Config.Cache.TTL,
		Refresh:  opts.refresh,
	})
	if c.Config.GitHub.Token == "" {
		printWarning("GITHUB_TOKEN is not set; anonymous requests are limited to 60 per hour")
	}

	prog := newProgress(c.Logger)
	rel, err := collect.Run(ctx, client, collect.Options{
		Query:     opts.query,
		RepoCount: opts.count,
		Repos:     opts.repos,
		Contributors: github.ContributorOptions{
			MinContributions: opts.minContributions,
			Limit:            opts.limit,
			IncludeBots:      opts.includeBots,
		},
		Concurrency: opts.concurrency,
		Logger:      c.Logger,
	})
	if err != nil {
		return err
	}
	st := rel.Stats()
	prog.done("Collected " + pluralize(st.Groups, "repository", "repositories"))

	if err := writeRelation(rel, opts.output); err != nil {
		return err
	}
	if opts.output != "" {
		printSuccess("Wrote %s, %s", pluralize(st.Members, "member", "members"), pluralize(st.Memberships, "membership", "memberships"))
		printFile(opts.output)
		printNextStep("Analyze it", "contribnet analyze "+opts.output)
	}
	return nil
}

// writeRelation writes rel to path, or to stdout when path is empty.
func writeRelation(rel membership.Relation, path string) error {
	if path == "" {
		return membership.Write(rel, os.Stdout)
	}
	return membership.WriteFile(rel, path)
}
