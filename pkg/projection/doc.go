// Package projection builds the weighted user graph induced by a membership
// relation.
//
// # Overview
//
// Given groups and their members (repositories and contributors), the
// projection connects every pair of members that share a group. The edge
// weight counts the distinct groups the pair has in common:
//
//	rel := membership.Relation{
//	    "A": {"x", "y", "z"},
//	    "B": {"x", "y"},
//	}
//	g, err := projection.Build(rel)
//	g.Weight("x", "y") // 2
//	g.Weight("x", "z") // 1
//
// The graph is undirected and simple: no self loops, no zero weights.
// Every member that appears in some group is a node, including members
// that never share a group with anyone else.
//
// # Representation
//
// Node ids are dense integers assigned in ascending identifier order, so
// id order and identifier order agree. Adjacency is kept in compressed
// sparse row form with sorted rows. The centrality algorithms iterate
// [Graph.NeighborIDs] directly; callers that prefer names can use
// [Graph.Neighbors], which yields (neighbor, weight) pairs.
//
// # Cost
//
// Projection is quadratic in group size: a group of k members contributes
// k(k-1)/2 pair increments. [BuildContext] spreads that work over several
// goroutines and honors context cancellation.
//
// # Concurrency
//
// A [Graph] is immutable once built. Any number of goroutines may read it
// concurrently without synchronization.
package projection
