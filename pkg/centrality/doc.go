// Package centrality computes per-member network metrics on a user
// projection graph.
//
// # Metrics
//
// Every metric ignores edge weights and treats the projection as a simple
// undirected graph:
//
//   - Degree: number of distinct neighbors ([Degree]).
//   - Normalized degree: degree/(N-1), or degree when N = 1 ([NormalizedDegree]).
//   - Closeness: r/D(s) from a BFS at s, where r counts reachable nodes and
//     D(s) sums their distances; 0 for isolated nodes ([Closeness]).
//   - Betweenness: Brandes' dependency accumulation ([Betweenness]).
//   - Clustering: 2*links/(k(k-1)) over the neighborhood, 0 when k < 2
//     ([Clustering]).
//
// Degenerate inputs are not errors. Isolated members, single-node graphs
// and disconnected components all produce finite values through the
// fallbacks above, so a [Table] never holds NaN or Inf.
//
// # Betweenness Convention
//
// By default the per-source dependencies are summed without halving
// ([OrderedPairs]): on a path a-b-c, b scores 2 because the pair {a, c} is
// seen from both a and c. Set [Options.PairCounting] to [UnorderedPairs] to
// count each pair once, giving b a score of 1.
//
// # Parallelism
//
// [Compute] runs the four metric families concurrently. Closeness,
// betweenness and clustering also split their sources across
// [Options.Workers] goroutines with private scratch buffers, so the graph
// is only ever read. Each per-source loop checks the context between
// sources and stops early when it is cancelled.
//
// # Usage
//
//	g, _ := projection.Build(rel)
//	table, err := centrality.Compute(ctx, g, centrality.Options{})
//	if err != nil {
//	    return err
//	}
//	m, _ := table.Get("octocat")
//	fmt.Println(m.Betweenness)
package centrality
