package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/precinct-atlas/internal/bivariate"
	"github.com/Veraticus/precinct-atlas/internal/census"
	"github.com/Veraticus/precinct-atlas/internal/common"
	"github.com/Veraticus/precinct-atlas/internal/geo"
	"github.com/Veraticus/precinct-atlas/internal/sheets"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("ATLAS_TEST_DIR", "/data")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "atlas.db"), ExpandPath("~/atlas.db"))
	assert.Equal(t, "/data/runs.db", ExpandPath("$ATLAS_TEST_DIR/runs.db"))
}

func TestDatabasePath(t *testing.T) {
	resetViper(t)
	assert.Equal(t, filepath.Join(Dir(), "atlas.db"), DatabasePath())

	viper.Set("storage.path", "/tmp/atlas-test.db")
	assert.Equal(t, "/tmp/atlas-test.db", DatabasePath())
}

func TestLoadCensusConfig(t *testing.T) {
	t.Run("defaults with env key", func(t *testing.T) {
		resetViper(t)
		t.Setenv("CENSUS_API_KEY", "env-key")

		cfg := LoadCensusConfig()
		assert.Equal(t, "env-key", cfg.APIKey)
		assert.Equal(t, census.DefaultYear, cfg.Year)
		assert.Equal(t, census.DefaultBaseURL, cfg.BaseURL)
		assert.Len(t, cfg.Counties, 5)
	})

	t.Run("viper overrides", func(t *testing.T) {
		resetViper(t)
		t.Setenv("CENSUS_API_KEY", "env-key")
		viper.Set("census.api_key", "file-key")
		viper.Set("census.year", 2022)
		viper.Set("census.timeout", "5s")
		viper.Set("census.cache_ttl", "0s")

		cfg := LoadCensusConfig()
		assert.Equal(t, "file-key", cfg.APIKey)
		assert.Equal(t, 2022, cfg.Year)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
		assert.Zero(t, cfg.CacheTTL)
	})
}

func TestLoadScheme(t *testing.T) {
	t.Run("nine with overrides", func(t *testing.T) {
		resetViper(t)
		viper.Set("bivariate.scheme", "nine")
		viper.Set("bivariate.x_cuts", []any{30, 60})

		s, err := LoadScheme()
		require.NoError(t, err)
		assert.Equal(t, 9, s.Size())
		assert.Equal(t, []float64{30, 60}, s.X.Cuts)
		assert.Equal(t, bivariate.DefaultNine().Y.Cuts, s.Y.Cuts)
	})

	t.Run("four by default", func(t *testing.T) {
		resetViper(t)
		s, err := LoadScheme()
		require.NoError(t, err)
		assert.Equal(t, 4, s.Size())
	})

	t.Run("bad cut", func(t *testing.T) {
		resetViper(t)
		viper.Set("bivariate.scheme", "nine")
		viper.Set("bivariate.y_cuts", []string{"20", "forty"})

		_, err := LoadScheme()
		assert.ErrorIs(t, err, common.ErrInvalidConfig)
	})

	t.Run("unknown scheme", func(t *testing.T) {
		resetViper(t)
		viper.Set("bivariate.scheme", "sixteen")

		_, err := LoadScheme()
		assert.ErrorIs(t, err, common.ErrInvalidConfig)
	})
}

func TestLoadRegistry(t *testing.T) {
	resetViper(t)
	r, err := LoadRegistry()
	require.NoError(t, err)
	assert.Equal(t, []string{"mayor", "president"}, r.Keys())

	path := filepath.Join(t.TempDir(), "contests.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
contests:
  - key: council
    title: City Council
    candidates: [Alice Adams, Bob Brown]
`), 0o600))
	viper.Set("contests.file", path)

	r, err = LoadRegistry()
	require.NoError(t, err)
	assert.Equal(t, []string{"council", "mayor", "president"}, r.Keys())

	viper.Set("contests.file", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = LoadRegistry()
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestLoadBoundaryOptions(t *testing.T) {
	resetViper(t)
	opts, err := LoadBoundaryOptions()
	require.NoError(t, err)
	assert.Equal(t, geo.DefaultKeyProperty, opts.KeyProperty)
	assert.Equal(t, geo.WGS84, opts.Projection.EPSG())

	viper.Set("boundaries.epsg", 2263)
	viper.Set("boundaries.key", "ED")
	opts, err = LoadBoundaryOptions()
	require.NoError(t, err)
	assert.Equal(t, "ED", opts.KeyProperty)
	assert.Equal(t, 2263, opts.Projection.EPSG())

	viper.Set("boundaries.epsg", 3857)
	_, err = LoadBoundaryOptions()
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestLoadSheetsConfig(t *testing.T) {
	for _, k := range []string{
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "GOOGLE_SHEETS_CLIENT_ID", "GOOGLE_SHEETS_CLIENT_SECRET",
		"GOOGLE_SHEETS_REFRESH_TOKEN", "GOOGLE_SHEETS_SPREADSHEET_ID", "GOOGLE_SHEETS_SPREADSHEET_NAME",
	} {
		t.Setenv(k, "")
	}

	t.Run("viper wins over env", func(t *testing.T) {
		resetViper(t)
		t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "from-env")
		viper.Set("sheets.service_account_path", "/keys/sa.json")
		viper.Set("sheets.spreadsheet_id", "from-viper")

		cfg, err := LoadSheetsConfig()
		require.NoError(t, err)
		assert.Equal(t, "/keys/sa.json", cfg.ServiceAccountPath)
		assert.Equal(t, "from-viper", cfg.SpreadsheetID)
		assert.Equal(t, sheets.DefaultSpreadsheetName, cfg.SpreadsheetName)
	})

	t.Run("env fallback", func(t *testing.T) {
		resetViper(t)
		t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "id")
		t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "secret")
		t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "token")
		t.Setenv("GOOGLE_SHEETS_SPREADSHEET_NAME", "Election Night")

		cfg, err := LoadSheetsConfig()
		require.NoError(t, err)
		assert.Equal(t, "id", cfg.ClientID)
		assert.Equal(t, "Election Night", cfg.SpreadsheetName)
	})

	t.Run("no credentials", func(t *testing.T) {
		resetViper(t)
		_, err := LoadSheetsConfig()
		assert.ErrorIs(t, err, common.ErrMissingConfig)
	})
}
