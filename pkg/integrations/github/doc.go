// Package github collects repository membership data from the GitHub REST
// API.
//
// # Usage
//
//	client := github.NewClient(github.Config{Token: os.Getenv("GITHUB_TOKEN")})
//	repos, err := client.SearchRepositories(ctx, github.DefaultQuery, 50)
//	if err != nil {
//	    return err
//	}
//	for _, r := range repos {
//	    people, err := client.Contributors(ctx, r.Owner, r.Name, github.ContributorOptions{})
//	    ...
//	}
//
// # Filtering
//
// [Client.Contributors] requests anonymous contributors too (anon=1) but only
// keeps entries with a login. By default it skips bots (see
// [Contributor.IsBot]) and anyone with fewer than [DefaultMinContributions]
// contributions, then keeps the top [DefaultContributorLimit] by count.
//
// # Rate limits
//
// Unauthenticated clients get 60 requests per hour, authenticated ones 5000.
// Requests are spaced by [Config.PageDelay]. An exhausted quota surfaces as
// *errors.RateLimitedError with the seconds until reset; secondary limits
// that name a Retry-After are retried automatically.
//
// # Caching
//
// Raw pages are cached through [Config.Cache] for [Config.CacheTTL], so
// filters can change without refetching.
package github
