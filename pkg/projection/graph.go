package projection

import (
	"iter"
	"slices"
	"sort"
)

// Graph is the weighted user projection of a membership relation.
//
// Nodes carry dense ids 0..N-1 assigned in ascending identifier order.
// Adjacency is stored in compressed sparse row form: the neighbors of node i
// are adj[offsets[i]:offsets[i+1]], sorted by id, with the matching edge
// weights at the same positions in weights. Every undirected edge appears
// once in each endpoint's row.
//
// A Graph is immutable after construction and safe for concurrent reads.
type Graph struct {
	names   []string
	index   map[string]int32
	offsets []int
	adj     []int32
	weights []int32
	edges   int
	total   int
}

// Edge is an undirected weighted edge. Source sorts before Target.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// NodeCount returns the number of nodes, isolated ones included.
func (g *Graph) NodeCount() int { return len(g.names) }

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int { return g.edges }

// TotalWeight returns the sum of all edge weights.
func (g *Graph) TotalWeight() int { return g.total }

// Nodes returns the node identifiers in id order.
func (g *Graph) Nodes() []string { return slices.Clone(g.names) }

// Name returns the identifier of node i.
func (g *Graph) Name(i int) string { return g.names[i] }

// Lookup returns the dense id of the node named id.
func (g *Graph) Lookup(id string) (int, bool) {
	i, ok := g.index[id]
	return int(i), ok
}

// Degree returns the number of distinct neighbors of node i.
func (g *Graph) Degree(i int) int { return g.offsets[i+1] - g.offsets[i] }

// NeighborIDs returns the sorted neighbor ids of node i.
// The slice aliases internal storage and must not be modified.
func (g *Graph) NeighborIDs(i int) []int32 {
	return g.adj[g.offsets[i]:g.offsets[i+1]:g.offsets[i+1]]
}

// NeighborWeights returns the edge weights matching [Graph.NeighborIDs].
// The slice aliases internal storage and must not be modified.
func (g *Graph) NeighborWeights(i int) []int32 {
	return g.weights[g.offsets[i]:g.offsets[i+1]:g.offsets[i+1]]
}

// Neighbors iterates over the neighbors of the node named id together with
// the edge weight. Unknown ids yield nothing.
func (g *Graph) Neighbors(id string) iter.Seq2[string, int] {
	return func(yield func(string, int) bool) {
		i, ok := g.index[id]
		if !ok {
			return
		}
		ws := g.NeighborWeights(int(i))
		for k, v := range g.NeighborIDs(int(i)) {
			if !yield(g.names[v], int(ws[k])) {
				return
			}
		}
	}
}

// HasEdge reports whether nodes i and j are adjacent.
func (g *Graph) HasEdge(i, j int) bool {
	_, ok := g.find(i, j)
	return ok
}

// Weight returns the number of groups shared by u and v.
// It returns 0 for non-adjacent or unknown nodes, and for u == v.
func (g *Graph) Weight(u, v string) int {
	i, ok := g.index[u]
	if !ok {
		return 0
	}
	j, ok := g.index[v]
	if !ok {
		return 0
	}
	if k, ok := g.find(int(i), int(j)); ok {
		return int(g.weights[k])
	}
	return 0
}

// Edges returns every edge once, ordered by source then target id.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edges)
	for i := range g.names {
		ws := g.NeighborWeights(i)
		for k, j := range g.NeighborIDs(i) {
			if int(j) > i {
				out = append(out, Edge{Source: g.names[i], Target: g.names[j], Weight: int(ws[k])})
			}
		}
	}
	return out
}

// Isolated returns the identifiers of nodes without neighbors.
func (g *Graph) Isolated() []string {
	var out []string
	for i, name := range g.names {
		if g.Degree(i) == 0 {
			out = append(out, name)
		}
	}
	return out
}

// find returns the position of j in i's row.
func (g *Graph) find(i, j int) (int, bool) {
	row := g.NeighborIDs(i)
	k := sort.Search(len(row), func(k int) bool { return int(row[k]) >= j })
	if k < len(row) && int(row[k]) == j {
		return g.offsets[i] + k, true
	}
	return 0, false
}

// assemble builds the CSR arrays from per-node upper rows, where upper[u]
// lists neighbors v > u in ascending order with weights in upperW[u].
func assemble(names []string, upper, upperW [][]int32) *Graph {
	n := len(names)
	g := &Graph{
		names:   names,
		index:   make(map[string]int32, n),
		offsets: make([]int, n+1),
	}
	for i, name := range names {
		g.index[name] = int32(i)
	}

	deg := make([]int, n)
	for u, row := range upper {
		deg[u] += len(row)
		for _, v := range row {
			deg[v]++
		}
		g.edges += len(row)
		for _, w := range upperW[u] {
			g.total += int(w)
		}
	}
	for i := range n {
		g.offsets[i+1] = g.offsets[i] + deg[i]
	}

	g.adj = make([]int32, g.offsets[n])
	g.weights = make([]int32, g.offsets[n])
	pos := slices.Clone(g.offsets[:n])

	// Rows stay sorted: node v first receives its lower neighbors in
	// ascending u order, then its own upper row.
	for u, row := range upper {
		for k, v := range row {
			w := upperW[u][k]
			g.adj[pos[u]], g.weights[pos[u]] = v, w
			pos[u]++
			g.adj[pos[v]], g.weights[pos[v]] = int32(u), w
			pos[v]++
		}
	}
	return g
}
