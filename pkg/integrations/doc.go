// Package integrations provides the HTTP plumbing for remote data sources.
//
// [Client] wraps net/http with default headers, optional basic auth,
// response caching through a [cache.Cache], retries for transient failures
// and rate-limit detection. Errors are classified as:
//
//   - [ErrNotFound] for 404
//   - *errors.RateLimitedError for exhausted quotas and secondary limits
//   - ErrCodeUnauthorized / ErrCodeForbidden structured errors for 401/403
//   - [ErrNetwork] (retryable for 5xx and transport failures) otherwise
//
// The [github] subpackage builds on it to list popular repositories and
// their contributors.
//
// [github]: github.com/matzehuels/contribnet/pkg/integrations/github
// [cache.Cache]: github.com/matzehuels/contribnet/pkg/cache.Cache
package integrations
