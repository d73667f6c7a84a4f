package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS runs (
					id TEXT PRIMARY KEY,
					created_at DATETIME NOT NULL,
					contests TEXT NOT NULL,
					districts INTEGER NOT NULL DEFAULT 0
				)`,
				`CREATE INDEX idx_runs_created_at ON runs(created_at)`,

				`CREATE TABLE IF NOT EXISTS district_votes (
					run_id TEXT NOT NULL,
					contest TEXT NOT NULL,
					elect_dist INTEGER NOT NULL,
					county TEXT NOT NULL,
					candidate TEXT NOT NULL,
					votes INTEGER NOT NULL,
					PRIMARY KEY (run_id, contest, elect_dist, candidate),
					FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
				)`,

				`CREATE TABLE IF NOT EXISTS district_rows (
					run_id TEXT NOT NULL,
					elect_dist INTEGER NOT NULL,
					county TEXT,
					category TEXT,
					row_json TEXT NOT NULL,
					PRIMARY KEY (run_id, elect_dist),
					FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
				)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Record merged districts and ballot-type counts",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS merged_districts (
					run_id TEXT NOT NULL,
					contest TEXT NOT NULL,
					county TEXT NOT NULL,
					note TEXT NOT NULL,
					source_ad INTEGER NOT NULL,
					source_ed INTEGER NOT NULL,
					reported_ad INTEGER NOT NULL,
					reported_ed INTEGER NOT NULL,
					votes INTEGER NOT NULL,
					FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_merged_districts_run ON merged_districts(run_id, contest)`,

				`CREATE TABLE IF NOT EXISTS ballot_type_votes (
					run_id TEXT NOT NULL,
					contest TEXT NOT NULL,
					elect_dist INTEGER NOT NULL,
					county TEXT NOT NULL,
					ballot_type TEXT NOT NULL,
					votes INTEGER NOT NULL,
					PRIMARY KEY (run_id, contest, elect_dist, ballot_type),
					FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
				)`,
			)
		},
	},
	{
		Version:     3,
		Description: "County demographics and run diagnostics",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS county_demographics (
					run_id TEXT NOT NULL,
					county TEXT NOT NULL,
					tracts INTEGER NOT NULL,
					median_income REAL,
					pct_less_than_hs REAL NOT NULL,
					pct_hs_only REAL NOT NULL,
					pct_some_college REAL NOT NULL,
					pct_associates REAL NOT NULL,
					pct_bachelors_plus REAL NOT NULL,
					pct_white REAL NOT NULL,
					pct_black REAL NOT NULL,
					pct_asian REAL NOT NULL,
					pct_hispanic REAL NOT NULL,
					pct_other REAL NOT NULL,
					majority_race TEXT NOT NULL,
					PRIMARY KEY (run_id, county),
					FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
				)`,
				`ALTER TABLE runs ADD COLUMN missing_counties TEXT NOT NULL DEFAULT ''`,
				`ALTER TABLE runs ADD COLUMN excluded_units INTEGER NOT NULL DEFAULT 0`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate applies every pending migration.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
