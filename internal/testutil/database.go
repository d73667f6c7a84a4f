// Package testutil provides test helpers shared across packages: an isolated,
// migrated SQLite store and access to the sample datasets in fixtures.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/precinct-atlas/internal/model"
	"github.com/Veraticus/precinct-atlas/internal/storage"
	"github.com/Veraticus/precinct-atlas/internal/testutil/fixtures"
)

// TestDB is a migrated in-memory store scoped to one test.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database. Migrations are applied
// and the store is closed when the test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	runID := db.SaveSampleRun()
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// SaveRun stores report and returns its run id.
func (db *TestDB) SaveRun(report *model.Report) string {
	db.t.Helper()
	id, err := db.Storage.SaveRun(context.Background(), report)
	if err != nil {
		db.t.Fatalf("failed to save run: %v", err)
	}
	return id
}

// SaveSampleRun stores the sample report and returns its run id.
func (db *TestDB) SaveSampleRun() string {
	db.t.Helper()
	return db.SaveRun(fixtures.Report(db.t))
}
