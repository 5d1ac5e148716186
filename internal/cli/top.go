package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/contribnet/pkg/centrality"
	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/pipeline"
	"github.com/matzehuels/contribnet/pkg/projection"
	"github.com/matzehuels/contribnet/pkg/store"
)

// topOpts holds the command-line flags for the top command.
type topOpts struct {
	sortBy   string
	k        int
	plain    bool
	snapshot string
}

// topCommand creates the top command, an interactive ranking browser.
func (c *CLI) topCommand() *cobra.Command {
	var opts topOpts
	var popts pipeline.Options

	cmd := &cobra.Command{
		Use:   "top [membership.json]",
		Short: "Browse members ranked by a metric",
		Long: `Browse the ranking interactively: ←/→ switch the metric, ↑/↓ move through
members and the strongest ties of the selected member are shown below.

With --plain the top k members are printed as a table instead. With
--snapshot the ranking comes from a stored snapshot and no input is needed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (opts.snapshot == "") {
				return errors.New(errors.ErrCodeInvalidInput, "give either a membership file or --snapshot")
			}
			if len(args) == 1 {
				popts.InputPath = args[0]
			}
			c.analysisOptions(cmd, &popts)
			return c.runTop(cmd.Context(), popts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.sortBy, "sort", "s", string(centrality.MetricBetweenness), "initial ranking metric")
	cmd.Flags().IntVarP(&opts.k, "top", "k", pipeline.DefaultTopK, "members printed with --plain")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "print a table instead of the interactive view")
	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "rank a stored snapshot by id")
	addAnalysisFlags(cmd, &popts)

	return cmd
}

func (c *CLI) runTop(ctx context.Context, popts pipeline.Options, opts topOpts) error {
	metric, err := centrality.ParseMetric(opts.sortBy)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "--sort")
	}

	var t *centrality.Table
	var g *projection.Graph
	if opts.snapshot != "" {
		t, err = c.loadSnapshotTable(ctx, opts.snapshot)
	} else {
		t, g, err = c.loadRanking(ctx, popts)
	}
	if err != nil {
		return err
	}

	if opts.plain {
		fmt.Println(rankingTable(t, metric, opts.k))
		return nil
	}

	p := tea.NewProgram(NewRankingModel(t, g, metric), tea.WithContext(ctx), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func (c *CLI) loadRanking(ctx context.Context, popts pipeline.Options) (*centrality.Table, *projection.Graph, error) {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Analyzing "+popts.InputPath)
	popts.Logger = c.stageLogger()
	popts.Progress = spinner.Progress()
	spinner.Start()
	res, err := runner.Execute(ctx, popts)
	spinner.Stop()
	if err != nil {
		return nil, nil, err
	}
	return res.Metrics, res.Graph, nil
}

func (c *CLI) loadSnapshotTable(ctx context.Context, id string) (*centrality.Table, error) {
	st, err := store.Open(ctx, c.Config.StoreConfig())
	if err != nil {
		return nil, err
	}
	defer st.Close()

	snap, err := st.Load(ctx, id)
	if err != nil {
		return nil, snapshotError(err, id)
	}
	return snap.Table(), nil
}
