package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/precinct-atlas/internal/common"
	"github.com/Veraticus/precinct-atlas/internal/model"
)

// SaveRun stores a report in one transaction and returns the new run id.
func (s *SQLiteStorage) SaveRun(ctx context.Context, report *model.Report) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateReport(report); err != nil {
		return "", err
	}

	runID := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	keys := make([]string, len(report.Contests))
	for i, c := range report.Contests {
		keys[i] = c.Key
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, contests, districts, missing_counties, excluded_units)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, s.now(), strings.Join(keys, ","), len(report.Table.Rows),
		strings.Join(report.MissingCounties, ","), report.ExcludedUnits)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for _, c := range report.Contests {
		if err = saveContest(ctx, tx, runID, c); err != nil {
			return "", err
		}
	}
	if err = saveRows(ctx, tx, runID, report.Table); err != nil {
		return "", err
	}
	if err = saveCounties(ctx, tx, runID, report.Counties); err != nil {
		return "", err
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

func saveContest(ctx context.Context, tx *sql.Tx, runID string, c model.ContestReport) error {
	votes, err := tx.PrepareContext(ctx, `
		INSERT INTO district_votes (run_id, contest, elect_dist, county, candidate, votes)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare vote insert: %w", err)
	}
	defer func() { _ = votes.Close() }()

	for _, r := range c.Candidates {
		if _, err := votes.ExecContext(ctx, runID, c.Key, int(r.ElectDist), r.County, r.VoteChoice, r.VoteCount); err != nil {
			return fmt.Errorf("failed to insert votes for %s %s: %w", c.Key, r.ElectDist, err)
		}
	}

	ballots, err := tx.PrepareContext(ctx, `
		INSERT INTO ballot_type_votes (run_id, contest, elect_dist, county, ballot_type, votes)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare ballot type insert: %w", err)
	}
	defer func() { _ = ballots.Close() }()

	for _, r := range c.BallotTypes {
		if _, err := ballots.ExecContext(ctx, runID, c.Key, int(r.ElectDist), r.County, r.VoteChoice, r.VoteCount); err != nil {
			return fmt.Errorf("failed to insert ballot type for %s %s: %w", c.Key, r.ElectDist, err)
		}
	}

	merged, err := tx.PrepareContext(ctx, `
		INSERT INTO merged_districts (run_id, contest, county, note, source_ad, source_ed, reported_ad, reported_ed, votes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare merged district insert: %w", err)
	}
	defer func() { _ = merged.Close() }()

	for _, m := range c.Merged {
		if _, err := merged.ExecContext(ctx, runID, c.Key, m.County, m.Note,
			m.SourceAD, m.SourceED, m.ReportedAD, m.ReportedED, m.VoteCount); err != nil {
			return fmt.Errorf("failed to insert merged district %s: %w", m.SourceElectDist(), err)
		}
	}
	return nil
}

func saveRows(ctx context.Context, tx *sql.Tx, runID string, table *model.DistrictTable) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO district_rows (run_id, elect_dist, county, category, row_json)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	header := table.Header()
	for i := range table.Rows {
		row := &table.Rows[i]
		values := table.Values(row)
		flat := make(map[string]any, len(header))
		for j, h := range header {
			flat[h] = values[j]
		}
		data, err := json.Marshal(flat)
		if err != nil {
			return fmt.Errorf("failed to encode district %s: %w", row.ElectDist, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, int(row.ElectDist),
			nullString(row.County), nullString(row.Category), string(data)); err != nil {
			return fmt.Errorf("failed to insert district %s: %w", row.ElectDist, err)
		}
	}
	return nil
}

func saveCounties(ctx context.Context, tx *sql.Tx, runID string, counties []model.CountyDemographics) error {
	for _, c := range counties {
		var income sql.NullFloat64
		if c.HasMedianIncome {
			income = sql.NullFloat64{Float64: c.MedianIncome, Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO county_demographics (
				run_id, county, tracts, median_income,
				pct_less_than_hs, pct_hs_only, pct_some_college, pct_associates, pct_bachelors_plus,
				pct_white, pct_black, pct_asian, pct_hispanic, pct_other, majority_race
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, c.County, c.Tracts, income,
			c.Education.LessThanHS, c.Education.HSOnly, c.Education.SomeCollege, c.Education.Associates, c.Education.BachelorsPlus,
			c.Race.White, c.Race.Black, c.Race.Asian, c.Race.Hispanic, c.Race.Other, c.MajorityRace)
		if err != nil {
			return fmt.Errorf("failed to insert demographics for %s: %w", c.County, err)
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ListRuns returns stored runs, newest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context) ([]model.RunInfo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, contests, districts
		FROM runs
		ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.RunInfo
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one stored run.
func (s *SQLiteStorage) GetRun(ctx context.Context, runID string) (*model.RunInfo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(runID, "runID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, contests, districts
		FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (model.RunInfo, error) {
	var run model.RunInfo
	var contests string
	var created time.Time
	if err := sc.Scan(&run.ID, &created, &contests, &run.Districts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("failed to scan run: %w", err)
	}
	run.CreatedAt = created
	if contests != "" {
		run.Contests = strings.Split(contests, ",")
	}
	return run, nil
}

// GetMergedDistricts returns the merged districts recorded for a run, sorted
// by contest and source district. An empty contest returns every contest.
func (s *SQLiteStorage) GetMergedDistricts(ctx context.Context, runID, contest string) ([]model.MergedDistrictRecord, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	query := `
		SELECT county, note, source_ad, source_ed, reported_ad, reported_ed, votes
		FROM merged_districts
		WHERE run_id = ?`
	args := []any{runID}
	if contest != "" {
		query += ` AND contest = ?`
		args = append(args, contest)
	}
	query += ` ORDER BY contest, source_ad, source_ed, county`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query merged districts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.MergedDistrictRecord
	for rows.Next() {
		var m model.MergedDistrictRecord
		if err := rows.Scan(&m.County, &m.Note, &m.SourceAD, &m.SourceED, &m.ReportedAD, &m.ReportedED, &m.VoteCount); err != nil {
			return nil, fmt.Errorf("failed to scan merged district: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate merged districts: %w", err)
	}
	return out, nil
}

// GetDistrictRow returns the stored flat row of one district, keyed by column
// name.
func (s *SQLiteStorage) GetDistrictRow(ctx context.Context, runID string, ed model.ElectDist) (map[string]any, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT row_json FROM district_rows WHERE run_id = ? AND elect_dist = ?`,
		runID, int(ed)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("district %s in run %s: %w", ed, runID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query district row: %w", err)
	}

	var row map[string]any
	if err := json.Unmarshal([]byte(data), &row); err != nil {
		return nil, fmt.Errorf("failed to decode district row: %w", err)
	}
	return row, nil
}

// CountVotes returns the stored vote total of a contest in a run.
func (s *SQLiteStorage) CountVotes(ctx context.Context, runID, contest string) (int, error) {
	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT SUM(votes) FROM district_votes WHERE run_id = ? AND contest = ?`,
		runID, contest).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum votes: %w", err)
	}
	return int(total.Int64), nil
}
