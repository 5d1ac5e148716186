package projection

import (
	"context"
	"math"
	"runtime"
	"slices"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/membership"
)

// Options configures projection building.
type Options struct {
	// Workers is the number of goroutines counting shared groups.
	// Zero means runtime.GOMAXPROCS(0).
	Workers int
}

// Build projects rel onto its members: two members are adjacent when they
// share at least one group, and the edge weight is the number of distinct
// groups they share. Duplicate members inside a group count once. Members
// that share no group with anyone become isolated nodes.
//
// Build rejects empty group or member identifiers with
// errors.ErrCodeMalformedInput.
func Build(rel membership.Relation) (*Graph, error) {
	return BuildContext(context.Background(), rel, Options{})
}

// BuildContext is [Build] with cancellation and a worker count.
//
// The cost is the number of member pairs summed over groups. Work is split
// by node: each worker owns a dense counter array and, for each node u,
// counts how many of u's groups contain every v > u.
func BuildContext(ctx context.Context, rel membership.Relation, opts Options) (*Graph, error) {
	if err := rel.Validate(); err != nil {
		return nil, err
	}

	names := rel.AllMembers()
	n := len(names)
	index := make(map[string]int32, n)
	for i, name := range names {
		index[name] = int32(i)
	}

	// groupMembers holds sorted member ids per group; memberGroups is the
	// inverse incidence list.
	groups := rel.Groups()
	groupMembers := make([][]int32, len(groups))
	memberGroups := make([][]int32, n)
	for gi, gname := range groups {
		ms := membership.Dedupe(rel[gname])
		ids := make([]int32, len(ms))
		for k, m := range ms {
			ids[k] = index[m]
			memberGroups[ids[k]] = append(memberGroups[ids[k]], int32(gi))
		}
		groupMembers[gi] = ids
	}

	upper := make([][]int32, n)
	upperW := make([][]int32, n)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = max(1, min(workers, n))

	var next atomic.Int64
	eg, ctx := errgroup.WithContext(ctx)
	for range workers {
		eg.Go(func() error {
			counts := make([]int32, n)
			var touched []int32
			for {
				u := int(next.Add(1) - 1)
				if u >= n {
					return nil
				}
				if u%256 == 0 {
					if err := ctx.Err(); err != nil {
						return errors.Canceled(err, "projection canceled")
					}
				}

				touched = touched[:0]
				for _, gi := range memberGroups[u] {
					ms := groupMembers[gi]
					start := sort.Search(len(ms), func(k int) bool { return int(ms[k]) > u })
					for _, v := range ms[start:] {
						if counts[v] == 0 {
							touched = append(touched, v)
						}
						counts[v]++
					}
				}
				if len(touched) == 0 {
					continue
				}

				slices.Sort(touched)
				row := slices.Clone(touched)
				ws := make([]int32, len(row))
				for k, v := range row {
					ws[k] = counts[v]
					counts[v] = 0
				}
				upper[u], upperW[u] = row, ws
			}
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return assemble(names, upper, upperW), nil
}

// FromEdges rebuilds a graph from a node list and an edge list, for example
// one read back from an exported file. Edge endpoints must be listed in
// nodes, weights must lie in [1, math.MaxInt32], self loops are rejected
// and an edge may appear only once (in either orientation).
func FromEdges(nodes []string, edges []Edge) (*Graph, error) {
	for _, id := range nodes {
		if err := errors.ValidateMemberID(id); err != nil {
			return nil, err
		}
	}
	names := slices.Clone(nodes)
	slices.Sort(names)
	if len(slices.Compact(slices.Clone(names))) != len(names) {
		return nil, errors.New(errors.ErrCodeMalformedInput, "duplicate node identifiers")
	}

	index := make(map[string]int32, len(names))
	for i, name := range names {
		index[name] = int32(i)
	}

	type pair struct{ u, v int32 }
	seen := make(map[pair]struct{}, len(edges))
	upper := make([][]int32, len(names))
	upperW := make([][]int32, len(names))
	for _, e := range edges {
		u, ok := index[e.Source]
		if !ok {
			return nil, errors.New(errors.ErrCodeMalformedInput, "edge source %q is not a node", e.Source)
		}
		v, ok := index[e.Target]
		if !ok {
			return nil, errors.New(errors.ErrCodeMalformedInput, "edge target %q is not a node", e.Target)
		}
		if u == v {
			return nil, errors.New(errors.ErrCodeMalformedInput, "self loop on %q", e.Source)
		}
		if e.Weight < 1 || e.Weight > math.MaxInt32 {
			return nil, errors.New(errors.ErrCodeMalformedInput, "edge %s-%s has weight %d", e.Source, e.Target, e.Weight)
		}
		if u > v {
			u, v = v, u
		}
		if _, dup := seen[pair{u, v}]; dup {
			return nil, errors.New(errors.ErrCodeMalformedInput, "duplicate edge %s-%s", e.Source, e.Target)
		}
		seen[pair{u, v}] = struct{}{}
		upper[u] = append(upper[u], v)
		upperW[u] = append(upperW[u], int32(e.Weight))
	}

	for u := range upper {
		sortRow(upper[u], upperW[u])
	}
	return assemble(names, upper, upperW), nil
}

// sortRow sorts ids ascending, permuting ws alongside.
func sortRow(ids, ws []int32) {
	sort.Sort(rowSorter{ids, ws})
}

type rowSorter struct{ ids, ws []int32 }

func (r rowSorter) Len() int           { return len(r.ids) }
func (r rowSorter) Less(i, j int) bool { return r.ids[i] < r.ids[j] }
func (r rowSorter) Swap(i, j int) {
	r.ids[i], r.ids[j] = r.ids[j], r.ids[i]
	r.ws[i], r.ws[j] = r.ws[j], r.ws[i]
}
