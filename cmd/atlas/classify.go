package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/precinct-atlas/internal/config"
	"github.com/Veraticus/precinct-atlas/internal/model"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify one pair of shares with the configured bivariate scheme",
		Example: `  atlas classify --x 42.5 --y 18
  atlas classify --x 60 --y 55 --categories`,
		Args: cobra.NoArgs,
		RunE: runClassify,
	}

	cmd.Flags().Float64("x", -1, "share on the X axis (omit for no data)")
	cmd.Flags().Float64("y", -1, "share on the Y axis (omit for no data)")
	cmd.Flags().Bool("categories", false, "list every category of the scheme")

	return cmd
}

func runClassify(cmd *cobra.Command, _ []string) error {
	scheme, err := config.LoadScheme()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if list, _ := cmd.Flags().GetBool("categories"); list {
		for _, c := range scheme.Categories() {
			if _, err := fmt.Fprintln(out, c); err != nil {
				return err
			}
		}
		return nil
	}

	x := shareFlag(cmd, "x")
	y := shareFlag(cmd, "y")
	_, err = fmt.Fprintln(out, scheme.Classify(x, y))
	return err
}

func shareFlag(cmd *cobra.Command, name string) model.Share {
	if !cmd.Flags().Changed(name) {
		return model.NoData
	}
	v, _ := cmd.Flags().GetFloat64(name)
	return model.ShareOf(v)
}
