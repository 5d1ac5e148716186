package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/contribnet/pkg/centrality"
	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/store"
)

// snapshotCommand creates the snapshot management command.
func (c *CLI) snapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshot",
		Aliases: []string{"snapshots"},
		Short:   "Manage stored analysis snapshots",
		Long: `Snapshots are analysis results saved with "analyze --save" or
POST /v1/analyze?save=true. They live in the store configured in the
[store] config section (files by default, or MongoDB).`,
	}

	cmd.AddCommand(c.snapshotListCommand())
	cmd.AddCommand(c.snapshotShowCommand())
	cmd.AddCommand(c.snapshotRemoveCommand())

	return cmd
}

func (c *CLI) snapshotListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List snapshots, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				list, err := st.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(list) == 0 {
					printInfo("No snapshots")
					return nil
				}
				fmt.Println(snapshotTable(list))
				return nil
			})
		},
	}
}

func (c *CLI) snapshotShowCommand() *cobra.Command {
	var k int
	var sortBy string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the summary and ranking of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			metric, err := centrality.ParseMetric(sortBy)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "--sort")
			}
			return c.withStore(cmd.Context(), func(st store.Store) error {
				snap, err := st.Load(cmd.Context(), args[0])
				if err != nil {
					return snapshotError(err, args[0])
				}
				printKeyValue("ID", snap.ID)
				printKeyValue("Created", snap.CreatedAt.Local().Format(time.DateTime))
				printKeyValue("Source", snap.Source)
				printKeyValue("Pairs", snap.PairCounting)
				printSummary(snap.Summary)
				printNewline()
				fmt.Println(rankingTable(snap.Table(), metric, k))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&k, "top", "k", 10, "members shown in the ranking")
	cmd.Flags().StringVarP(&sortBy, "sort", "s", string(centrality.MetricBetweenness), "ranking metric")

	return cmd
}

func (c *CLI) snapshotRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete snapshots",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				for _, id := range args {
					if err := st.Delete(cmd.Context(), id); err != nil {
						return err
					}
				}
				printSuccess("Deleted %s", pluralize(len(args), "snapshot", "snapshots"))
				return nil
			})
		},
	}
}

// withStore opens the configured snapshot store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(store.Store) error) error {
	st, err := store.Open(ctx, c.Config.StoreConfig())
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

// snapshotError gives store.ErrNotFound a NOT_FOUND code.
func snapshotError(err error, id string) error {
	if stderrors.Is(err, store.ErrNotFound) {
		return errors.Wrap(errors.ErrCodeNotFound, err, "no snapshot %s", id)
	}
	return err
}

func snapshotTable(list []*store.Snapshot) string {
	rows := make([][]string, len(list))
	for i, s := range list {
		rows[i] = []string{
			s.ID,
			s.CreatedAt.Local().Format(time.DateTime),
			s.Source,
			strconv.Itoa(s.Stats.Nodes),
			strconv.Itoa(s.Stats.Edges),
			s.PairCounting,
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("id", "created", "source", "nodes", "edges", "pairs").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		}).
		Render()
}
