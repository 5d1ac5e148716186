// Package collect builds a membership relation (repository -> contributor
// logins) from GitHub.
//
// Repositories come either from a search (most starred first) or from an
// explicit owner/repo list. Each repository's contributors are filtered by
// [github.ContributorOptions]; repositories left without contributors are
// omitted from the result.
//
// Failures that affect every repository (rate limits, bad credentials,
// cancellation) abort the run. Anything else, such as a repository whose
// contributor list GitHub refuses to compute, is logged and the repository
// is skipped.
package collect

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/integrations/github"
	"github.com/matzehuels/contribnet/pkg/membership"
	"github.com/matzehuels/contribnet/pkg/observability"
)

const (
	DefaultRepoCount   = 50
	DefaultConcurrency = 1
	DefaultRepoDelay   = time.Second
)

// Source is the subset of the GitHub client used by Run.
type Source interface {
	SearchRepositories(ctx context.Context, query string, count int) ([]github.Repository, error)
	Contributors(ctx context.Context, owner, repo string, opts github.ContributorOptions) ([]github.Contributor, error)
}

// Options controls a collection run.
type Options struct {
	// Query and RepoCount drive the repository search. Ignored when Repos
	// is set.
	Query     string
	RepoCount int
	// Repos lists owner/repo slugs to collect instead of searching.
	Repos []string

	Contributors github.ContributorOptions

	// Concurrency bounds parallel repositories (default 1).
	Concurrency int
	// RepoDelay pauses a worker after each repository (default 1s,
	// negative disables).
	RepoDelay time.Duration

	Logger *log.Logger
}

func (o *Options) setDefaults() {
	if o.RepoCount <= 0 {
		o.RepoCount = DefaultRepoCount
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	switch {
	case o.RepoDelay == 0:
		o.RepoDelay = DefaultRepoDelay
	case o.RepoDelay < 0:
		o.RepoDelay = 0
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// Run collects the relation described by opts.
func Run(ctx context.Context, src Source, opts Options) (membership.Relation, error) {
	opts.setDefaults()
	logger := opts.Logger

	repos, err := targets(ctx, src, opts)
	if err != nil {
		return nil, err
	}
	logger.Info("collecting contributors", "repos", len(repos))

	found := make([][]string, len(repos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, r := range repos {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			people, err := src.Contributors(gctx, r.Owner, r.Name, opts.Contributors)
			observability.Pipeline().OnCollectRepo(gctx, r.FullName(), len(people), err)
			if err != nil {
				if fatal(err) {
					return err
				}
				logger.Warn("skipping repository", "repo", r.FullName(), "err", err)
				return nil
			}
			logger.Info("collected", "repo", r.FullName(), "contributors", len(people))

			logins := make([]string, len(people))
			for j, p := range people {
				logins[j] = p.Login
			}
			found[i] = logins
			return pause(gctx, opts.RepoDelay)
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Canceled(ctx.Err(), "collection canceled")
		}
		return nil, err
	}

	rel := make(membership.Relation, len(repos))
	for i, r := range repos {
		if len(found[i]) > 0 {
			rel[r.FullName()] = found[i]
		}
	}
	return rel, nil
}

func targets(ctx context.Context, src Source, opts Options) ([]github.Repository, error) {
	if len(opts.Repos) == 0 {
		repos, err := src.SearchRepositories(ctx, opts.Query, opts.RepoCount)
		if err != nil {
			return nil, fmt.Errorf("search repositories: %w", err)
		}
		return repos, nil
	}

	repos := make([]github.Repository, 0, len(opts.Repos))
	seen := make(map[string]bool, len(opts.Repos))
	for _, slug := range opts.Repos {
		owner, name, err := errors.ValidateRepoSlug(slug)
		if err != nil {
			return nil, err
		}
		if seen[slug] {
			continue
		}
		seen[slug] = true
		repos = append(repos, github.Repository{Owner: owner, Name: name})
	}
	return repos, nil
}

// fatal reports errors that would fail every remaining repository too.
func fatal(err error) bool {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeRateLimited, errors.ErrCodeUnauthorized, errors.ErrCodeCanceled:
		return true
	}
	return false
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
