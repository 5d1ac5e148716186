package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/contribnet/pkg/centrality"
	"github.com/matzehuels/contribnet/pkg/errors"
	contribio "github.com/matzehuels/contribnet/pkg/io"
	"github.com/matzehuels/contribnet/pkg/pipeline"
	"github.com/matzehuels/contribnet/pkg/store"
)

// analyzeOpts holds the command-line flags for the analyze command.
type analyzeOpts struct {
	output string
	sortBy string
	save   bool
	stats  bool
	quiet  bool
}

// analyzeCommand creates the analyze command, which runs the full pipeline
// and prints a ranking and summary.
func (c *CLI) analyzeCommand() *cobra.Command {
	var opts analyzeOpts
	var popts pipeline.Options

	cmd := &cobra.Command{
		Use:   "analyze <membership.json>",
		Short: "Compute centrality metrics for every member",
		Long: `Analyze a membership file: project it onto members and compute degree,
normalized degree, closeness, betweenness and clustering.

The output format follows the -o extension: .json, .csv or .gexf.
Results are cached by content, so re-analyzing an unchanged file is instant
(use --refresh to recompute).

Examples:
  contribnet analyze contributors.json
  contribnet analyze contributors.json -o metrics.csv --top 25 --sort closeness
  contribnet analyze contributors.json --pair-counting unordered --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			popts.InputPath = args[0]
			c.analysisOptions(cmd, &popts)
			return c.runAnalyze(cmd.Context(), popts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write metrics to this file (.json, .csv, .gexf)")
	cmd.Flags().IntVarP(&popts.TopK, "top", "k", pipeline.DefaultTopK, "members shown in the ranking")
	cmd.Flags().StringVarP(&opts.sortBy, "sort", "s", string(centrality.MetricBetweenness), "ranking metric")
	cmd.Flags().BoolVar(&opts.save, "save", false, "store the result as a snapshot")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "print sizes, timings and memory")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "skip the ranking and summary")
	addAnalysisFlags(cmd, &popts)

	return cmd
}

func (c *CLI) runAnalyze(ctx context.Context, popts pipeline.Options, opts analyzeOpts) error {
	metric, err := centrality.ParseMetric(opts.sortBy)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "--sort")
	}
	if opts.output != "" {
		if _, err := contribio.FormatFromPath(opts.output); err != nil {
			return err
		}
	}
	if err := popts.ValidateForAnalysis(); err != nil {
		return err
	}

	var snapshots store.Store
	if opts.save {
		snapshots, err = store.Open(ctx, c.Config.StoreConfig())
		if err != nil {
			return err
		}
		defer snapshots.Close()
	}

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
		if spinner.Cancelled() {
			spinner.Stop()
			return err
		}
		spinner.StopWithError("Analysis failed")
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Analyzed %s (%s)",
		pluralize(res.Metrics.Len(), "member", "members"),
		stageTime(res.Stats.ProjectTime+res.Stats.AnalyzeTime, res.CacheInfo.MetricsHit)))

	if !opts.quiet {
		printNewline()
		fmt.Println(rankingTable(res.Metrics, metric, popts.TopK))
		printNewline()
		printSummary(res.Summary)
	}
	if opts.stats {
		printNewline()
		printRunStats(res.Stats, res.CacheInfo)
	}

	if opts.output != "" {
		if err := contribio.ExportMetrics(opts.output, res.Graph, res.Metrics); err != nil {
			return err
		}
		printFile(opts.output)
	}

	if snapshots != nil {
		snap := store.NewSnapshot(res, popts.InputPath, popts.PairCounting)
		if err := snapshots.Save(ctx, snap); err != nil {
			return err
		}
		printSuccess("Saved snapshot %s", StyleHighlight.Render(snap.ID))
	}

	if opts.output == "" && !opts.quiet {
		printNewline()
		printNextStep("Render it", "contribnet render "+popts.InputPath)
	}
	return nil
}
