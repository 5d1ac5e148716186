package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/contribnet/pkg/centrality"
	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/projection"
	"github.com/matzehuels/contribnet/pkg/render"
)

// Node sizes in inches.
const (
	minNodeWidth = 0.3
	maxNodeWidth = 1.5
)

// Layouts accepted by [Options.Layout].
var Layouts = []string{"neato", "fdp", "sfdp", "circo", "dot"}

// Options configures node-link diagram rendering.
type Options struct {
	// SizeBy scales nodes (and shades them) by this metric. Empty means
	// betweenness. Ignored without a metrics table.
	SizeBy centrality.Metric

	// MinWeight hides edges lighter than this. Values below 1 show all.
	MinWeight int

	// LabelTop labels only the k highest ranked members by SizeBy; the rest
	// are drawn as unlabeled dots. Zero labels everyone.
	LabelTop int

	// Layout is the Graphviz engine (default "neato").
	Layout string
}

func (o Options) withDefaults() Options {
	if o.SizeBy == "" {
		o.SizeBy = centrality.MetricBetweenness
	}
	if o.Layout == "" {
		o.Layout = "neato"
	}
	return o
}

// ToDOT converts a projection to an undirected Graphviz graph. Edge pen
// width grows with the logarithm of the weight; with a table t, node size
// and fill follow opts.SizeBy relative to the largest value.
func ToDOT(g *projection.Graph, t *centrality.Table, opts Options) string {
	opts = opts.withDefaults()

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	fmt.Fprintf(&buf, "  layout=%s;\n", opts.Layout)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=\"#dbe9f6\", fixedsize=true, fontsize=10, width=0.5];\n")
	buf.WriteString("  edge [color=\"#00000055\"];\n")
	buf.WriteString("\n")

	scale, labeled := nodeScale(t, opts)
	for _, id := range g.Nodes() {
		label := id
		if labeled != nil && !labeled[id] {
			label = ""
		}
		attrs := []string{fmt.Sprintf("label=%q", label)}
		if scale != nil {
			s := scale[id]
			w := minNodeWidth + (maxNodeWidth-minNodeWidth)*s
			attrs = append(attrs,
				"width="+strconv.FormatFloat(w, 'f', 2, 64),
				fmt.Sprintf("fillcolor=%q", shade(s)))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if e.Weight < opts.MinWeight {
			continue
		}
		pen := 1 + math.Log2(float64(e.Weight))
		fmt.Fprintf(&buf, "  %q -- %q [weight=%d, penwidth=%s];\n",
			e.Source, e.Target, e.Weight, strconv.FormatFloat(pen, 'f', 2, 64))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// nodeScale maps each member to its metric value divided by the maximum
// (all zero when the maximum is zero) and picks the labeled members.
func nodeScale(t *centrality.Table, opts Options) (map[string]float64, map[string]bool) {
	if t == nil {
		return nil, nil
	}
	col := t.Column(opts.SizeBy)
	hi := 0.0
	for _, v := range col {
		hi = max(hi, v)
	}
	scale := make(map[string]float64, len(col))
	for i, m := range t.Members() {
		if hi > 0 {
			scale[m] = col[i] / hi
		} else {
			scale[m] = 0
		}
	}

	if opts.LabelTop <= 0 {
		return scale, nil
	}
	labeled := make(map[string]bool, opts.LabelTop)
	for _, r := range t.Top(opts.SizeBy, opts.LabelTop) {
		labeled[r.Member] = true
	}
	return scale, labeled
}

// shade interpolates from a pale to a saturated blue for s in [0,1].
func shade(s float64) string {
	lerp := func(a, b int) int { return a + int(math.Round(float64(b-a)*s)) }
	return fmt.Sprintf("#%02x%02x%02x", lerp(0xdb, 0x08), lerp(0xe9, 0x51), lerp(0xf6, 0x9c))
}

// RenderSVG renders a DOT graph to SVG using Graphviz, honoring the layout
// named in the source. The result can be converted further with
// [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()
	if m := layoutRe.FindStringSubmatch(dot); m != nil {
		gv.SetLayout(graphviz.Layout(m[1]))
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	layoutRe  = regexp.MustCompile(`(?m)^\s*layout=(\w+);`)
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion. A scale of 2.0
// doubles the resolution.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
