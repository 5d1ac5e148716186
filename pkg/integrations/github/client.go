package github

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/contribnet/pkg/cache"
	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/integrations"
)

// Config configures a Client. The zero value talks to api.github.com
// anonymously without caching.
type Config struct {
	// Token authenticates requests. With Username set the pair is sent as
	// basic auth, otherwise as a bearer token.
	Token    string
	Username string

	BaseURL  string
	Cache    cache.Cache
	CacheTTL time.Duration
	// Refresh bypasses cached responses (fresh ones are still stored).
	Refresh bool
	// PageDelay is the minimum spacing between API requests
	// (default DefaultPageDelay; negative disables pacing).
	PageDelay time.Duration
}

// Client lists repositories and contributors from the GitHub REST API.
// It is safe for concurrent use; requests from all goroutines share one
// pacing schedule.
type Client struct {
	*integrations.Client
	baseURL   string
	refresh   bool
	pageDelay time.Duration

	mu   sync.Mutex
	next time.Time
	now  func() time.Time
}

// NewClient creates a GitHub client.
func NewClient(cfg Config) *Client {
	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if cfg.Token != "" && cfg.Username == "" {
		headers["Authorization"] = "Bearer " + cfg.Token
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = cache.HTTPTTL
	}
	base := integrations.NewClient(cfg.Cache, "github", cfg.CacheTTL, headers)
	if cfg.Token != "" && cfg.Username != "" {
		base.SetBasicAuth(cfg.Username, cfg.Token)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	switch {
	case cfg.PageDelay == 0:
		cfg.PageDelay = DefaultPageDelay
	case cfg.PageDelay < 0:
		cfg.PageDelay = 0
	}
	return &Client{
		Client:    base,
		baseURL:   cfg.BaseURL,
		refresh:   cfg.Refresh,
		pageDelay: cfg.PageDelay,
		now:       time.Now,
	}
}

// SearchRepositories returns up to count repositories matching query,
// most starred first. An empty query uses DefaultQuery.
func (c *Client) SearchRepositories(ctx context.Context, query string, count int) ([]Repository, error) {
	if count <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "repository count must be positive, got %d", count)
	}
	if query == "" {
		query = DefaultQuery
	}

	var repos []Repository
	for page := 1; len(repos) < count; page++ {
		var resp searchResponse
		key := fmt.Sprintf("search:%s:%d", query, page)
		err := c.Cached(ctx, key, c.refresh, &resp, func() error {
			if err := c.throttle(ctx); err != nil {
				return err
			}
			url := fmt.Sprintf("%s/search/repositories?q=%s&sort=stars&order=desc&per_page=%d&page=%d",
				c.baseURL, integrations.URLEncode(query), perPage, page)
			return c.Get(ctx, url, &resp)
		})
		if err != nil {
			return repos, fmt.Errorf("search page %d: %w", page, err)
		}

		for _, item := range resp.Items {
			repos = append(repos, Repository{
				Owner:  item.Owner.Login,
				Name:   item.Name,
				Stars:  item.Stars,
				SizeKB: item.Size,
			})
			if len(repos) == count {
				break
			}
		}
		if len(resp.Items) < perPage {
			break
		}
	}
	return repos, nil
}

// Contributors returns the contributors of owner/repo that pass opts,
// ordered by contribution count (ties by login) and truncated to
// opts.Limit. Anonymous entries carry no login and are skipped. Paging
// stops at a short page or once Limit contributors were accepted.
func (c *Client) Contributors(ctx context.Context, owner, repo string, opts ContributorOptions) ([]Contributor, error) {
	if _, _, err := errors.ValidateRepoSlug(owner + "/" + repo); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	var kept []Contributor
	for page := 1; len(kept) < opts.Limit; page++ {
		var batch []Contributor
		key := fmt.Sprintf("contributors:%s/%s:%d", owner, repo, page)
		err := c.Cached(ctx, key, c.refresh, &batch, func() error {
			if err := c.throttle(ctx); err != nil {
				return err
			}
			url := fmt.Sprintf("%s/repos/%s/%s/contributors?anon=1&per_page=%d&page=%d",
				c.baseURL, owner, repo, perPage, page)
			return c.Get(ctx, url, &batch)
		})
		if err != nil {
			return nil, fmt.Errorf("contributors of %s/%s: %w", owner, repo, err)
		}

		for _, ct := range batch {
			// anonymous entries and logins that would not survive as member ids
			if errors.ValidateExternalID(ct.Login, "login") != nil {
				continue
			}
			if !opts.IncludeBots && ct.IsBot() {
				continue
			}
			if ct.Contributions < opts.MinContributions {
				continue
			}
			kept = append(kept, ct)
		}
		if len(batch) < perPage {
			break
		}
	}

	slices.SortStableFunc(kept, func(a, b Contributor) int {
		if d := cmp.Compare(b.Contributions, a.Contributions); d != 0 {
			return d
		}
		return cmp.Compare(a.Login, b.Login)
	})
	if len(kept) > opts.Limit {
		kept = kept[:opts.Limit]
	}
	return kept, nil
}

// throttle waits for the next free request slot.
func (c *Client) throttle(ctx context.Context) error {
	if c.pageDelay <= 0 {
		return nil
	}
	c.mu.Lock()
	now := c.now()
	slot := now
	if c.next.After(now) {
		slot = c.next
	}
	c.next = slot.Add(c.pageDelay)
	c.mu.Unlock()

	wait := slot.Sub(now)
	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
