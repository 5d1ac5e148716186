package membership

import (
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/matzehuels/contribnet/pkg/errors"
)

// Relation maps a group identifier to the members that belong to it.
//
// Member lists may contain duplicates; they are removed before any pair is
// counted. The order of groups and members carries no meaning.
type Relation map[string][]string

// Stats summarizes the size of a relation.
type Stats struct {
	Groups      int `json:"groups"`      // Number of groups
	Members     int `json:"members"`     // Distinct members across all groups
	Memberships int `json:"memberships"` // Distinct (group, member) pairs
	Empty       int `json:"empty"`       // Groups without members
}

// Validate checks every group and member identifier.
// Identifiers are opaque, so only empty ones (null entries in the source
// data) are rejected. The first offending entry is reported as an
// ErrCodeMalformedInput error naming the group it was found in.
func (r Relation) Validate() error {
	return r.validate(func(id, what string) error {
		if what == "group id" {
			return errors.ValidateGroupID(id)
		}
		return errors.ValidateMemberID(id)
	})
}

// ValidateExternal applies [errors.ValidateExternalID] to every identifier.
// It is meant for relations arriving from the network, where blank,
// oversized or control-character ids point at broken input.
func (r Relation) ValidateExternal() error {
	return r.validate(errors.ValidateExternalID)
}

func (r Relation) validate(check func(id, what string) error) error {
	for _, g := range r.Groups() {
		if err := check(g, "group id"); err != nil {
			return locate(err, "group %q", g)
		}
		for i, m := range r[g] {
			if err := check(m, "member id"); err != nil {
				return locate(err, "group %q: member %d", g, i)
			}
		}
	}
	return nil
}

// locate prefixes the message of a validation error with where it was
// found, keeping its code.
func locate(err error, format string, args ...any) error {
	return errors.New(errors.GetCode(err), "%s: %s", fmt.Sprintf(format, args...), errors.UserMessage(err))
}

// Groups returns the group identifiers in ascending order.
func (r Relation) Groups() []string {
	return slices.Sorted(maps.Keys(r))
}

// Members returns the distinct members of group g in ascending order.
// It returns nil for unknown groups.
func (r Relation) Members(g string) []string {
	return Dedupe(r[g])
}

// AllMembers returns every distinct member across all groups, sorted.
func (r Relation) AllMembers() []string {
	seen := make(map[string]struct{})
	for _, ms := range r {
		for _, m := range ms {
			seen[m] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// GroupsOf returns the groups containing member m, sorted.
func (r Relation) GroupsOf(m string) []string {
	var out []string
	for g, ms := range r {
		if slices.Contains(ms, m) {
			out = append(out, g)
		}
	}
	sort.Strings(out)
	return out
}

// Stats counts groups, distinct members and distinct memberships.
func (r Relation) Stats() Stats {
	s := Stats{Groups: len(r)}
	members := make(map[string]struct{})
	for _, ms := range r {
		d := Dedupe(ms)
		if len(d) == 0 {
			s.Empty++
		}
		s.Memberships += len(d)
		for _, m := range d {
			members[m] = struct{}{}
		}
	}
	s.Members = len(members)
	return s
}

// Normalize returns a copy of r with each member list deduplicated and sorted.
// The result has the same projection as r and a canonical encoding.
func (r Relation) Normalize() Relation {
	out := make(Relation, len(r))
	for g, ms := range r {
		out[g] = Dedupe(ms)
	}
	return out
}

// Filter returns a copy of r keeping only members for which keep returns true.
// Groups left without members are dropped when dropEmpty is set.
func (r Relation) Filter(keep func(group, member string) bool, dropEmpty bool) Relation {
	out := make(Relation, len(r))
	for g, ms := range r {
		var kept []string
		for _, m := range ms {
			if keep(g, m) {
				kept = append(kept, m)
			}
		}
		if len(kept) == 0 && dropEmpty {
			continue
		}
		out[g] = kept
	}
	return out
}

// Merge adds the memberships of other into r, returning r.
// A nil receiver yields a new relation.
func (r Relation) Merge(other Relation) Relation {
	if r == nil {
		r = make(Relation, len(other))
	}
	for g, ms := range other {
		r[g] = Dedupe(append(slices.Clone(r[g]), ms...))
	}
	return r
}

// Dedupe returns the distinct values of ms in ascending order.
// The input slice is not modified.
func Dedupe(ms []string) []string {
	if ms == nil {
		return nil
	}
	out := slices.Clone(ms)
	slices.Sort(out)
	return slices.Compact(out)
}
