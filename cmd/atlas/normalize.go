package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/precinct-atlas/internal/aggregate"
	"github.com/Veraticus/precinct-atlas/internal/cli"
	"github.com/Veraticus/precinct-atlas/internal/config"
	"github.com/Veraticus/precinct-atlas/internal/tally"
)

func normalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize <export.csv>",
		Short: "Normalize one contest's tally export and audit merged districts",
		Long: `Read a raw precinct tally export, normalize it for one contest and print
citywide and borough totals, the merged-district audit list and any
choices that were dropped.`,
		Args: cobra.ExactArgs(1),
		RunE: runNormalize,
	}

	cmd.Flags().String("contest", "mayor", "contest key")
	cmd.Flags().Bool("by-assembly", false, "also print per-county assembly district tables")

	return cmd
}

func runNormalize(cmd *cobra.Command, args []string) error {
	key, _ := cmd.Flags().GetString("contest")
	byAssembly, _ := cmd.Flags().GetBool("by-assembly")

	registry, err := config.LoadRegistry()
	if err != nil {
		return err
	}
	c, err := registry.Lookup(key)
	if err != nil {
		return err
	}

	records, err := readTally(args[0])
	if err != nil {
		return err
	}
	result, err := tally.Normalize(records, c)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := cli.RenderContestSummary(out, aggregate.Summarize(c, result.Candidates)); err != nil {
		return err
	}
	if byAssembly {
		if err := cli.RenderCountyVotes(out, aggregate.CountyVoteTables(c, result.Candidates)); err != nil {
			return err
		}
	}
	if err := cli.RenderMerged(out, c.Key(), result.Merged); err != nil {
		return err
	}
	if result.Dropped.Rows > 0 {
		_, err = fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Dropped %d rows (%d votes) for choices outside the roster: %v",
			result.Dropped.Rows, result.Dropped.Votes, result.Dropped.Choices)))
	}
	return err
}
