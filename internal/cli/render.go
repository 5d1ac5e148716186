package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/contribnet/pkg/centrality"
	"github.com/matzehuels/contribnet/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string // output file (single format) or base path (multiple)
	formats string // comma-separated formats
}

// renderCommand creates the render command for drawing the projection and
// writing graph artifacts.
//
// Defaults:
//   - format: svg
//   - size-by: betweenness
//   - layout: neato
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts
	var popts pipeline.Options

	cmd := &cobra.Command{
		Use:   "render <membership.json>",
		Short: "Render the co-membership graph",
		Long: `Render the projection of a membership file. Node size follows a metric,
labels go to the highest-ranked members and light edges can be hidden.

Formats: svg (default), png, pdf, dot, json (node-link graph with metrics),
csv (metric table), gexf (Gephi). Diagram formats need Graphviz.

Examples:
  contribnet render contributors.json
  contribnet render contributors.json -f svg,gexf --size-by closeness --label-top 20
  contribnet render contributors.json --min-weight 2 --layout sfdp -o network.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			popts.InputPath = args[0]
			popts.Formats = parseFormats(opts.formats)
			c.analysisOptions(cmd, &popts)
			if err := popts.ValidateForRender(); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), popts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg, png, pdf, dot, json, csv, gexf (comma-separated)")
	cmd.Flags().StringVar(&popts.SizeBy, "size-by", string(centrality.MetricBetweenness), "metric that sizes nodes")
	cmd.Flags().IntVar(&popts.MinWeight, "min-weight", 0, "hide edges lighter than this")
	cmd.Flags().IntVar(&popts.LabelTop, "label-top", 0, "label only the top N members by size (0 labels all)")
	cmd.Flags().StringVar(&popts.Layout, "layout", "neato", "Graphviz layout engine")
	addAnalysisFlags(cmd, &popts)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, popts pipeline.Options, opts renderOpts) error {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Analyzing "+popts.InputPath)
	popts.Logger = c.stageLogger()
	popts.Progress = spinner.Progress()
	spinner.Start()
	res, err := runner.Execute(ctx, popts)
	if err != nil {
		spinner.Stop()
		return err
	}
	spinner.SetDetail("rendering")
	artifacts, err := pipeline.RenderResult(ctx, res, popts)
	spinner.Stop()
	if err != nil {
		return err
	}

	printSuccess("Rendered %s, %s", pluralize(res.Stats.Nodes, "node", "nodes"), pluralize(res.Stats.Edges, "edge", "edges"))
	for _, path := range outputPaths(opts.output, popts.InputPath, popts.Formats) {
		if err := os.WriteFile(path.file, artifacts[path.format], 0o644); err != nil {
			return err
		}
		printFile(path.file)
	}
	return nil
}

type outputPath struct {
	format string
	file   string
}

// outputPaths maps each format to <base>.<format>, where base is the
// output flag without a format extension, or the input path without its
// extension.
func outputPaths(output, input string, formats []string) []outputPath {
	base := basePath(output, input)
	seen := make(map[string]bool, len(formats))
	var paths []outputPath
	for _, f := range formats {
		if seen[f] {
			continue
		}
		seen[f] = true
		paths = append(paths, outputPath{format: f, file: base + "." + f})
	}
	return paths
}
