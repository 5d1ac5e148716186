// Package nodelink draws a projection as a node-link diagram with Graphviz.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, table, nodelink.Options{SizeBy: centrality.MetricBetweenness})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The DOT source is undirected and uses a force-directed engine (neato by
// default) since projections have no natural ranking. Heavier edges are
// drawn thicker. Given a metrics table, nodes grow and darken with the
// [Options.SizeBy] metric; [Options.LabelTop] keeps large graphs readable by
// labeling only the leading members.
//
// # Dependencies
//
// Rendering uses [github.com/goccy/go-graphviz] in-process. PDF and PNG
// conversion requires librsvg (rsvg-convert).
package nodelink
