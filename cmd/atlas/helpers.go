package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/precinct-atlas/internal/census"
	"github.com/Veraticus/precinct-atlas/internal/common"
	"github.com/Veraticus/precinct-atlas/internal/config"
	"github.com/Veraticus/precinct-atlas/internal/geo"
	"github.com/Veraticus/precinct-atlas/internal/model"
	"github.com/Veraticus/precinct-atlas/internal/storage"
	"github.com/Veraticus/precinct-atlas/internal/tally"
)

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := config.DatabasePath()

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// readTally reads one raw tally export.
func readTally(path string) ([]model.RawTallyRecord, error) {
	f, err := os.Open(config.ExpandPath(path)) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to open tally export: %w", err)
	}
	defer func() { _ = f.Close() }()

	records, err := tally.NewReader(tally.DefaultLayout()).Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return records, nil
}

// parseContestArg splits a "contest=path" flag value.
func parseContestArg(arg string) (string, string, error) {
	key, path, ok := strings.Cut(arg, "=")
	key, path = strings.TrimSpace(key), strings.TrimSpace(path)
	if !ok || key == "" || path == "" {
		return "", "", fmt.Errorf("%w: expected contest=path, got %q", common.ErrInvalidConfig, arg)
	}
	return key, path, nil
}

// loadBoundaries reads a boundary file and reprojects it to WGS84.
func loadBoundaries(path string) (*geo.Collection, error) {
	opts, err := config.LoadBoundaryOptions()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(config.ExpandPath(path)) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to open boundaries: %w", err)
	}
	defer func() { _ = f.Close() }()

	collection, err := geo.ReadGeoJSON(f, opts.KeyProperty, opts.Projection.EPSG())
	if err != nil {
		return nil, err
	}
	reprojected, err := geo.Reproject(collection, opts.Projection)
	if err != nil {
		return nil, err
	}
	slog.Info("Loaded boundaries", "districts", reprojected.Len(), "source_epsg", opts.Projection.EPSG())
	return reprojected, nil
}

// newCensusClient builds a Census client from configuration.
func newCensusClient(observer census.Observer) (*census.Client, error) {
	cfg := config.LoadCensusConfig()
	opts := []census.Option{census.WithLogger(slog.Default())}
	if observer != nil {
		opts = append(opts, census.WithObserver(observer))
	}
	return census.NewClient(cfg, opts...)
}
