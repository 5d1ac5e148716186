package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/contribnet/pkg/membership"
	"github.com/matzehuels/contribnet/pkg/synth"
)

// synthCommand creates the synth command for generating test datasets.
func (c *CLI) synthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Generate synthetic membership datasets",
		Long: `Generate synthetic membership files for benchmarking and tests.

Repositories are named owner_NNN/repo_NNN and users user_NNNNN.`,
	}

	cmd.AddCommand(c.synthCompleteCommand())
	cmd.AddCommand(c.synthRandomCommand())

	return cmd
}

// synthCompleteCommand creates "synth complete": every user contributes
// to every repository, so the projection is a complete graph.
func (c *CLI) synthCompleteCommand() *cobra.Command {
	var output string
	repos, users := synth.DefaultRepos, synth.DefaultUsers

	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Every user contributes to every repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rel, err := synth.Complete(repos, users)
			if err != nil {
				return err
			}
			return c.writeSynth(rel, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().IntVar(&repos, "repos", repos, "number of repositories")
	cmd.Flags().IntVar(&users, "users", users, "number of users")

	return cmd
}

// synthRandomCommand creates "synth random": each (repository, user) pair
// is a membership with probability p.
func (c *CLI) synthRandomCommand() *cobra.Command {
	var output string
	var seed uint64 = 1
	repos, users, p := synth.DefaultRepos, synth.DefaultUsers, 0.01

	cmd := &cobra.Command{
		Use:   "random",
		Short: "Random memberships with a fixed probability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rel, err := synth.Random(repos, users, p, seed)
			if err != nil {
				return err
			}
			return c.writeSynth(rel, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().IntVar(&repos, "repos", repos, "number of repositories")
	cmd.Flags().IntVar(&users, "users", users, "number of users")
	cmd.Flags().Float64VarP(&p, "probability", "p", p, "membership probability")
	cmd.Flags().Uint64Var(&seed, "seed", seed, "random seed")

	return cmd
}

func (c *CLI) writeSynth(rel membership.Relation, output string) error {
	if err := writeRelation(rel, output); err != nil {
		return err
	}
	if output != "" {
		st := rel.Stats()
		printSuccess("Generated %s with %s", pluralize(st.Groups, "repository", "repositories"), pluralize(st.Memberships, "membership", "memberships"))
		printFile(output)
	}
	return nil
}
