package github

import (
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.github.com"

	// DefaultQuery selects large, popular repositories.
	DefaultQuery = "stars:>10000 size:>1000"

	DefaultMinContributions = 5
	DefaultContributorLimit = 100
	DefaultPageDelay        = 500 * time.Millisecond

	perPage = 100
)

// Repository is a search hit.
type Repository struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
	Stars int    `json:"stars"`
	// SizeKB is the repository size as reported by GitHub.
	SizeKB int `json:"size_kb"`
}

// FullName returns "owner/name", the group id used in membership files.
func (r Repository) FullName() string { return r.Owner + "/" + r.Name }

// Contributor is one entry of a repository's contributor list.
type Contributor struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
	Type          string `json:"type,omitempty"`
}

// IsBot reports whether the account looks automated: GitHub marks it as a
// Bot, or its login contains "bot" in any case (dependabot[bot], ...).
func (c Contributor) IsBot() bool {
	return c.Type == "Bot" || strings.Contains(strings.ToLower(c.Login), "bot")
}

// ContributorOptions filter a contributor list.
type ContributorOptions struct {
	// MinContributions drops contributors below the threshold
	// (default DefaultMinContributions).
	MinContributions int
	// Limit keeps the top N by contribution count (default DefaultContributorLimit).
	Limit int
	// IncludeBots keeps accounts for which IsBot is true.
	IncludeBots bool
}

func (o ContributorOptions) withDefaults() ContributorOptions {
	if o.MinContributions <= 0 {
		o.MinContributions = DefaultMinContributions
	}
	if o.Limit <= 0 {
		o.Limit = DefaultContributorLimit
	}
	return o
}

type searchResponse struct {
	TotalCount int            `json:"total_count"`
	Items      []searchedRepo `json:"items"`
}

type searchedRepo struct {
	Name  string `json:"name"`
	Stars int    `json:"stargazers_count"`
	Size  int    `json:"size"`
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
}
