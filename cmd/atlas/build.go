package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/precinct-atlas/internal/aggregate"
	"github.com/Veraticus/precinct-atlas/internal/cli"
	"github.com/Veraticus/precinct-atlas/internal/config"
	"github.com/Veraticus/precinct-atlas/internal/export"
	"github.com/Veraticus/precinct-atlas/internal/metrics"
	"github.com/Veraticus/precinct-atlas/internal/pipeline"
	"github.com/Veraticus/precinct-atlas/internal/service"
	"github.com/Veraticus/precinct-atlas/internal/sheets"
)

func buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run the full pipeline and write the district table",
		Long: `Normalize every contest export, fetch census demographics, join both onto
the district boundaries, classify each district and write the results.

Outputs are written only after every pipeline stage succeeds. Each output is
written in turn; a failed write stops the build before the run is recorded,
though outputs written before it remain.`,
		Example: `  atlas build --contest mayor=mayor.csv --contest president=pres.csv \
    --boundaries eds.geojson --xlsx atlas.xlsx --geojson atlas.geojson`,
		Args: cobra.NoArgs,
		RunE: runBuild,
	}

	cmd.Flags().StringArray("contest", nil, "contest export as key=path (repeatable)")
	cmd.Flags().String("boundaries", "", "district boundary GeoJSON")
	cmd.Flags().Bool("skip-census", false, "build without demographics")
	cmd.Flags().String("xlsx", "", "write a workbook to this path")
	cmd.Flags().String("geojson", "", "write a FeatureCollection to this path")
	cmd.Flags().Bool("sheets", false, "publish the district table to Google Sheets")
	cmd.Flags().String("metrics", "", "write pipeline metrics in text format to this path")
	cmd.Flags().Bool("no-store", false, "do not record the run in the database")

	_ = cmd.MarkFlagRequired("contest")
	_ = cmd.MarkFlagRequired("boundaries")

	return cmd
}

func runBuild(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()
	contestArgs, _ := flags.GetStringArray("contest")
	boundaryPath, _ := flags.GetString("boundaries")
	skipCensus, _ := flags.GetBool("skip-census")
	xlsxPath, _ := flags.GetString("xlsx")
	geojsonPath, _ := flags.GetString("geojson")
	toSheets, _ := flags.GetBool("sheets")
	metricsPath, _ := flags.GetString("metrics")
	noStore, _ := flags.GetBool("no-store")

	registry, err := config.LoadRegistry()
	if err != nil {
		return err
	}
	scheme, err := config.LoadScheme()
	if err != nil {
		return err
	}

	in := pipeline.Input{
		Registry:    registry,
		Scheme:      &scheme,
		Differences: aggregate.DefaultDifferences(),
	}

	// Credentials are checked before any input is read.
	if !skipCensus {
		progress := cli.NewCountyProgress(cmd.ErrOrStderr(), len(config.LoadCensusConfig().Counties))
		client, err := newCensusClient(progress.Observe)
		if err != nil {
			return err
		}
		in.Demographics = client
	}

	for _, arg := range contestArgs {
		key, path, err := parseContestArg(arg)
		if err != nil {
			return err
		}
		// Resolve before reading so a typo fails fast.
		if _, err := registry.Lookup(key); err != nil {
			return err
		}
		records, err := readTally(path)
		if err != nil {
			return err
		}
		in.Tallies = append(in.Tallies, pipeline.TallyInput{Contest: key, Records: records})
	}

	in.Boundaries, err = loadBoundaries(boundaryPath)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if metricsPath != "" {
		if m, err = metrics.New(); err != nil {
			return err
		}
		in.Recorder = m
	}

	// Open every sink before running so a bad credential fails early.
	var writers []service.ReportWriter
	if xlsxPath != "" {
		writers = append(writers, export.NewXLSXWriter(config.ExpandPath(xlsxPath)))
	}
	if geojsonPath != "" {
		writers = append(writers, export.NewGeoJSONWriter(config.ExpandPath(geojsonPath)))
	}
	if toSheets {
		sheetsCfg, err := config.LoadSheetsConfig()
		if err != nil {
			return err
		}
		w, err := sheets.NewWriter(ctx, *sheetsCfg, slog.Default())
		if err != nil {
			return err
		}
		writers = append(writers, w)
	}

	var store service.Storage
	if !noStore {
		s, err := initStorage(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		store = s
	}

	report, err := pipeline.Run(ctx, in)
	if err != nil {
		return err
	}

	for _, w := range writers {
		if err := w.Write(ctx, report); err != nil {
			return err
		}
	}
	if store != nil {
		runID, err := store.SaveRun(ctx, report)
		if err != nil {
			return fmt.Errorf("failed to store run: %w", err)
		}
		slog.Info("Stored run", "run_id", runID)
	}
	if m != nil {
		if err := m.WriteTextfile(config.ExpandPath(metricsPath)); err != nil {
			return err
		}
	}

	return cli.RenderReport(cmd.OutOrStdout(), report)
}
