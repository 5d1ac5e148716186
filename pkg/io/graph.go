package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/contribnet/pkg/centrality"
	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/projection"
)

type graphDoc struct {
	Nodes []nodeDoc `json:"nodes"`
	Edges []edgeDoc `json:"edges"`
}

type nodeDoc struct {
	ID      string              `json:"id"`
	Metrics *centrality.Metrics `json:"metrics,omitempty"`
}

type edgeDoc struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// WriteGraph encodes g as node-link JSON. When t is non-nil each node
// carries its metrics record. Nodes are sorted by id and edges appear once
// with source < target.
func WriteGraph(w io.Writer, g *projection.Graph, t *centrality.Table) error {
	doc := graphDoc{
		Nodes: make([]nodeDoc, 0, g.NodeCount()),
		Edges: make([]edgeDoc, 0, g.EdgeCount()),
	}
	for _, id := range g.Nodes() {
		nd := nodeDoc{ID: id}
		if t != nil {
			if m, ok := t.Get(id); ok {
				nd.Metrics = &m
			}
		}
		doc.Nodes = append(doc.Nodes, nd)
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, edgeDoc{Source: e.Source, Target: e.Target, Weight: e.Weight})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadGraph decodes node-link JSON written by [WriteGraph]. The table is
// nil unless every node carries metrics.
//
// The graph is rebuilt with [projection.FromEdges], so duplicate edges,
// self loops, non-positive weights and unknown endpoints are rejected as
// MALFORMED_INPUT.
func ReadGraph(r io.Reader) (*projection.Graph, *centrality.Table, error) {
	var doc graphDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "decode graph")
	}

	nodes := make([]string, len(doc.Nodes))
	withMetrics := len(doc.Nodes) > 0
	for i, n := range doc.Nodes {
		nodes[i] = n.ID
		withMetrics = withMetrics && n.Metrics != nil
	}
	edges := make([]projection.Edge, len(doc.Edges))
	for i, e := range doc.Edges {
		edges[i] = projection.Edge{Source: e.Source, Target: e.Target, Weight: e.Weight}
	}

	g, err := projection.FromEdges(nodes, edges)
	if err != nil {
		return nil, nil, err
	}
	if !withMetrics {
		return g, nil, nil
	}
	t := centrality.NewTable(nodes)
	for _, n := range doc.Nodes {
		t.Set(n.ID, *n.Metrics)
	}
	return g, t, nil
}

// ExportGraph writes [WriteGraph] output to path.
func ExportGraph(path string, g *projection.Graph, t *centrality.Table) error {
	return writeFile(path, func(w io.Writer) error { return WriteGraph(w, g, t) })
}

// ImportGraph reads a graph file written by [ExportGraph].
func ImportGraph(path string) (*projection.Graph, *centrality.Table, error) {
	f, err := open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ReadGraph(f)
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s does not exist", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// writeFile creates path and runs write against it, reporting the first
// error including the one from Close.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return write(f)
}
