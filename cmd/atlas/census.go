package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/precinct-atlas/internal/cli"
	"github.com/Veraticus/precinct-atlas/internal/config"
)

func censusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "census",
		Short: "Fetch and summarize tract demographics for the five counties",
		Long: `Fetch the configured ACS variables for every tract in the five New York
City counties, normalize them and print county-level demographics.

Requires census.api_key in the config file or CENSUS_API_KEY in the
environment.`,
		Args: cobra.NoArgs,
		RunE: runCensus,
	}
}

func runCensus(cmd *cobra.Command, _ []string) error {
	progress := cli.NewCountyProgress(cmd.ErrOrStderr(), len(config.LoadCensusConfig().Counties))
	client, err := newCensusClient(progress.Observe)
	if err != nil {
		return err
	}

	result, err := client.Load(cmd.Context())
	if err != nil {
		return err
	}

	return cli.RenderCounties(cmd.OutOrStdout(), result.Counties, result.Missing, result.Excluded)
}
