package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/contribnet/pkg/errors"
	contribio "github.com/matzehuels/contribnet/pkg/io"
	"github.com/matzehuels/contribnet/pkg/membership"
	"github.com/matzehuels/contribnet/pkg/pipeline"
)

// Project output formats.
const (
	projectJSON      = "json"
	projectGEXF      = "gexf"
	projectBipartite = "bipartite"
)

// projectCommand creates the project command, which writes the
// co-membership graph without computing metrics.
func (c *CLI) projectCommand() *cobra.Command {
	var output, format string
	var opts pipeline.Options

	cmd := &cobra.Command{
		Use:   "project <membership.json>",
		Short: "Build the weighted co-membership graph",
		Long: `Project a membership file onto its members. Two members are linked when
they share a group; the edge weight is the number of shared groups.

Formats:
  json       node-link graph (default)
  gexf       projection for Gephi
  bipartite  groups and members as a two-mode GEXF network`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.InputPath = args[0]
			if output == "" {
				ext := ".json"
				if format != projectJSON {
					ext = ".gexf"
				}
				output = basePath("", args[0]) + ".projection" + ext
			}
			return c.runProject(cmd.Context(), opts, format, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <input>.projection.json)")
	cmd.Flags().StringVarP(&format, "format", "f", projectJSON, "output format: json, gexf, bipartite")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "worker goroutines (default GOMAXPROCS)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "rebuild even when a cached projection exists")

	return cmd
}

func (c *CLI) runProject(ctx context.Context, opts pipeline.Options, format, output string) error {
	switch format {
	case projectJSON, projectGEXF, projectBipartite:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "invalid format %q (must be json, gexf or bipartite)", format)
	}

	rel, err := membership.ReadFile(opts.InputPath)
	if err != nil {
		return err
	}
	if format == projectBipartite {
		if err := writeBipartite(rel, output); err != nil {
			return err
		}
		st := rel.Stats()
		printSuccess("Wrote %s and %s", pluralize(st.Groups, "group", "groups"), pluralize(st.Members, "member", "members"))
		printFile(output)
		return nil
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	g, err := runner.Project(ctx, rel, opts)
	if err != nil {
		return err
	}
	prog.done("Projected " + pluralize(g.NodeCount(), "member", "members"))

	if format == projectGEXF {
		err = contribio.ExportGEXF(output, g, nil)
	} else {
		err = contribio.ExportGraph(output, g, nil)
	}
	if err != nil {
		return err
	}

	printSuccess("Wrote %s, %s", pluralize(g.NodeCount(), "node", "nodes"), pluralize(g.EdgeCount(), "edge", "edges"))
	printFile(output)
	return nil
}

func writeBipartite(rel membership.Relation, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := contribio.WriteBipartiteGEXF(f, rel); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
