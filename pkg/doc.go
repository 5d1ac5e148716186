// Package pkg provides the core libraries for contribnet contributor
// network analysis.
//
// # Overview
//
// Contribnet turns a group membership relation (repositories and the users
// who contribute to them) into a weighted co-membership graph and computes
// centrality metrics for every member. The pkg directory is organized into
// four areas:
//
//  1. Domain: [membership], [projection], [centrality], [synth]
//  2. Infrastructure: [cache], [store], [observability], [errors]
//  3. Integrations: [integrations] and the GitHub client, [collect]
//  4. Orchestration and output: [pipeline], [io], [render]
//
// # Architecture
//
// The typical data flow:
//
//	GitHub search / membership file / synthetic generator
//	         ↓
//	    [membership] (group → members relation)
//	         ↓
//	    [projection] (weighted member graph, CSR adjacency)
//	         ↓
//	    [centrality] (degree, closeness, betweenness, clustering)
//	         ↓
//	    JSON / CSV / GEXF / DOT / SVG / PNG / PDF
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/contribnet/pkg/centrality"
//	    "github.com/matzehuels/contribnet/pkg/membership"
//	    "github.com/matzehuels/contribnet/pkg/projection"
//	)
//
//	rel, _ := membership.ReadFile("contributors.json")
//	g, _ := projection.Build(rel)
//	t, _ := centrality.Compute(context.Background(), g, centrality.Options{})
//	for _, r := range t.Top(centrality.MetricBetweenness, 10) {
//	    fmt.Println(r.Member, r.Value)
//	}
//
// The [pipeline] package wraps these steps with caching and is what the
// CLI and HTTP server use.
//
// [membership]: github.com/matzehuels/contribnet/pkg/membership
// [projection]: github.com/matzehuels/contribnet/pkg/projection
// [centrality]: github.com/matzehuels/contribnet/pkg/centrality
// [synth]: github.com/matzehuels/contribnet/pkg/synth
// [cache]: github.com/matzehuels/contribnet/pkg/cache
// [store]: github.com/matzehuels/contribnet/pkg/store
// [observability]: github.com/matzehuels/contribnet/pkg/observability
// [errors]: github.com/matzehuels/contribnet/pkg/errors
// [integrations]: github.com/matzehuels/contribnet/pkg/integrations
// [collect]: github.com/matzehuels/contribnet/pkg/collect
// [pipeline]: github.com/matzehuels/contribnet/pkg/pipeline
// [io]: github.com/matzehuels/contribnet/pkg/io
// [render]: github.com/matzehuels/contribnet/pkg/render
package pkg
