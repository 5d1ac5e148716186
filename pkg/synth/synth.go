// Package synth generates membership relations without touching the
// GitHub API, for load testing and development.
//
// Identifiers follow a fixed pattern so generated files are recognizable:
// groups are "owner_001/repo_001", members are "user_00001".
package synth

import (
	"fmt"
	"math/rand/v2"

	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/membership"
)

// Defaults used by `contribnet synth complete`.
const (
	DefaultRepos = 200
	DefaultUsers = 5000
)

// RepoID returns the group id of the i-th repository (1-based).
func RepoID(i int) string { return fmt.Sprintf("owner_%03d/repo_%03d", i, i) }

// UserID returns the member id of the j-th user (1-based).
func UserID(j int) string { return fmt.Sprintf("user_%05d", j) }

// Complete returns repos groups that each contain all users members. The
// projection is the complete graph K_users with every edge weighing repos,
// the worst case for projection size.
//
// All groups share one backing array of member ids, capped to its length so
// an append on one group copies. Clone a list before editing it in place.
func Complete(repos, users int) (membership.Relation, error) {
	if err := checkSize(repos, users); err != nil {
		return nil, err
	}
	all := make([]string, users)
	for j := range all {
		all[j] = UserID(j + 1)
	}
	rel := make(membership.Relation, repos)
	for i := 1; i <= repos; i++ {
		rel[RepoID(i)] = all[:len(all):len(all)]
	}
	return rel, nil
}

// Random includes each (repository, user) pair independently with
// probability p. The same seed always yields the same relation.
// Repositories that end up empty are left out.
func Random(repos, users int, p float64, seed uint64) (membership.Relation, error) {
	if err := checkSize(repos, users); err != nil {
		return nil, err
	}
	if !(p > 0 && p <= 1) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "probability must be in (0, 1], got %v", p)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	rel := make(membership.Relation, repos)
	for i := 1; i <= repos; i++ {
		var ms []string
		for j := 1; j <= users; j++ {
			if rng.Float64() < p {
				ms = append(ms, UserID(j))
			}
		}
		if len(ms) > 0 {
			rel[RepoID(i)] = ms
		}
	}
	return rel, nil
}

func checkSize(repos, users int) error {
	if repos <= 0 || users <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "repos and users must be positive, got %d and %d", repos, users)
	}
	return nil
}
