package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/precinct-atlas/internal/cli"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored pipeline runs",
		Args:  cobra.NoArgs,
		RunE:  runListRuns,
	}
	cmd.AddCommand(runsMergedCmd())
	return cmd
}

func runListRuns(cmd *cobra.Command, _ []string) error {
	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(cmd.Context())
	if err != nil {
		return err
	}
	return cli.RenderRuns(cmd.OutOrStdout(), runs)
}

func runsMergedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merged <run-id>",
		Short: "Show the merged districts recorded for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contest, _ := cmd.Flags().GetString("contest")

			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			merged, err := store.GetMergedDistricts(cmd.Context(), args[0], contest)
			if err != nil {
				return err
			}
			return cli.RenderMerged(cmd.OutOrStdout(), contest, merged)
		},
	}
	cmd.Flags().String("contest", "mayor", "contest key")
	return cmd
}
