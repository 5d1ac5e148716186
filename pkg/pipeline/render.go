package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/matzehuels/contribnet/pkg/centrality"
	contribio "github.com/matzehuels/contribnet/pkg/io"
	"github.com/matzehuels/contribnet/pkg/projection"
	"github.com/matzehuels/contribnet/pkg/render/nodelink"
)

// Render generates artifacts for the requested formats. The graph formats
// (dot, svg, png, pdf) draw the projection sized by opts.SizeBy; json is
// the node-link graph with metrics, csv the metric table and gexf the
// projection with metric attributes.
func Render(ctx context.Context, g *projection.Graph, t *centrality.Table, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	var dot string
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		if dot == "" && isDiagram(format) {
			dot = nodelink.ToDOT(g, t, opts.NodelinkOptions())
		}

		var data []byte
		var err error

		switch format {
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot, DefaultPNGScale)
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, dot)
		case FormatJSON:
			data, err = encode(func(w io.Writer) error { return contribio.WriteGraph(w, g, t) })
		case FormatCSV:
			if t == nil {
				return nil, fmt.Errorf("csv output needs metrics")
			}
			data, err = encode(func(w io.Writer) error { return contribio.WriteMetricsCSV(w, t) })
		case FormatGEXF:
			data, err = encode(func(w io.Writer) error { return contribio.WriteGEXF(w, g, t) })
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// RenderResult renders the graph and metrics of a finished run.
func RenderResult(ctx context.Context, res *Result, opts Options) (map[string][]byte, error) {
	return Render(ctx, res.Graph, res.Metrics, opts)
}

func isDiagram(format string) bool {
	switch format {
	case FormatDOT, FormatSVG, FormatPNG, FormatPDF:
		return true
	}
	return false
}

func encode(write func(io.Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
