package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/precinct-atlas/internal/model"
)

// Workbook sheet names.
const (
	SheetDistricts   = "Districts"
	SheetMerged      = "Merged Districts"
	SheetBallotTypes = "Ballot Types"
	SheetCounties    = "Counties"
)

// XLSXWriter writes a report as a workbook.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter creates a writer targeting path.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path}
}

// Write builds the workbook and saves it.
func (w *XLSXWriter) Write(ctx context.Context, report *model.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := Workbook(report)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", w.path, err)
	}
	return nil
}

// Workbook builds the districts, merged districts, ballot types and counties
// sheets. Missing values are left blank.
func Workbook(report *model.Report) (*excelize.File, error) {
	if report == nil || report.Table == nil {
		return nil, fmt.Errorf("xlsx export: report has no district table")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetDistricts); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	sheets := []struct {
		name string
		rows [][]any
	}{
		{SheetDistricts, districtRows(report.Table)},
		{SheetMerged, mergedRows(report)},
		{SheetBallotTypes, ballotTypeRows(report)},
		{SheetCounties, countyRows(report.Counties)},
	}

	for _, s := range sheets {
		if s.name != SheetDistricts {
			if _, err := f.NewSheet(s.name); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("failed to create sheet %s: %w", s.name, err)
			}
		}
		if err := writeRows(f, s.name, s.rows); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("invalid cell for row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) > 0 {
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("failed to freeze %s header: %w", sheet, err)
		}
	}
	return nil
}

func districtRows(table *model.DistrictTable) [][]any {
	header := table.Header()
	rows := make([][]any, 0, len(table.Rows)+1)
	rows = append(rows, toAny(header))
	for i := range table.Rows {
		rows = append(rows, table.Values(&table.Rows[i]))
	}
	return rows
}

func mergedRows(report *model.Report) [][]any {
	rows := [][]any{{"contest", "county", "ElectDist", "reported_ElectDist", "note", "votes"}}
	for _, c := range report.Contests {
		for _, m := range c.Merged {
			rows = append(rows, []any{
				c.Key, m.County, int(m.SourceElectDist()), int(m.ReportedElectDist()), m.Note, m.VoteCount,
			})
		}
	}
	return rows
}

func ballotTypeRows(report *model.Report) [][]any {
	rows := [][]any{{"contest", "ElectDist", "county", "ballot_type", "votes"}}
	for _, c := range report.Contests {
		for _, b := range c.BallotTypes {
			rows = append(rows, []any{c.Key, int(b.ElectDist), b.County, b.VoteChoice, b.VoteCount})
		}
	}
	return rows
}

func countyRows(counties []model.CountyDemographics) [][]any {
	rows := [][]any{{
		"county", "borough", "tracts", "median_income",
		"pct_less_than_hs", "pct_hs_only", "pct_some_college", "pct_associates", "pct_bachelors_plus",
		"pct_white", "pct_black", "pct_asian", "pct_hispanic", "pct_other", "majority_race",
	}}
	for _, c := range counties {
		var income any
		if c.HasMedianIncome {
			income = c.MedianIncome
		}
		rows = append(rows, []any{
			c.County, model.BoroughName(c.County), c.Tracts, income,
			model.Round2(c.Education.LessThanHS), model.Round2(c.Education.HSOnly),
			model.Round2(c.Education.SomeCollege), model.Round2(c.Education.Associates),
			model.Round2(c.Education.BachelorsPlus),
			model.Round2(c.Race.White), model.Round2(c.Race.Black), model.Round2(c.Race.Asian),
			model.Round2(c.Race.Hispanic), model.Round2(c.Race.Other),
			c.MajorityRace,
		})
	}
	return rows
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
