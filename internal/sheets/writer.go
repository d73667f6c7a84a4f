package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/precinct-atlas/internal/common"
	"github.com/Veraticus/precinct-atlas/internal/model"
	"github.com/Veraticus/precinct-atlas/internal/service"
)

// Tab titles written by the Writer.
const (
	TabDistricts = "Districts"
	TabMerged    = "Merged Districts"
)

// Writer implements the ReportWriter interface for Google Sheets.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

var _ service.ReportWriter = (*Writer)(nil)

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newWriter(config, srv, logger), nil
}

func newWriter(config Config, srv *sheets.Service, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	return &Writer{
		config:  config,
		service: srv,
		logger:  logger,
	}
}

type tab struct {
	title string
	rows  [][]any
}

// Write replaces the Districts and Merged Districts tabs with the report.
func (w *Writer) Write(ctx context.Context, report *model.Report) error {
	if report == nil || report.Table == nil {
		return fmt.Errorf("sheets export: report has no district table")
	}

	tabs := []tab{
		{title: TabDistricts, rows: districtValues(report.Table)},
		{title: TabMerged, rows: mergedValues(report)},
	}

	w.logger.Info("starting sheets export",
		"districts", len(report.Table.Rows),
		"contests", len(report.Contests))

	retryOpts := service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts < 1 {
		retryOpts.MaxAttempts = 1
	}

	spreadsheet, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	sheetIDs, err := w.ensureTabs(ctx, spreadsheet)
	if err != nil {
		return fmt.Errorf("failed to prepare tabs: %w", err)
	}

	for _, t := range tabs {
		if clearErr := w.clearTab(ctx, spreadsheet.SpreadsheetId, t.title); clearErr != nil {
			return fmt.Errorf("failed to clear %s: %w", t.title, clearErr)
		}

		err = common.WithRetry(ctx, func() error {
			return classifyAPIError(w.writeData(ctx, spreadsheet.SpreadsheetId, t.title, t.rows))
		}, retryOpts)
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", t.title, err)
		}
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return classifyAPIError(w.applyFormatting(ctx, spreadsheet.SpreadsheetId, sheetIDs))
		}, retryOpts)
		if err != nil {
			// Formatting failures leave the data in place.
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("sheets export completed",
		"spreadsheet_id", spreadsheet.SpreadsheetId,
		"rows_written", len(tabs[0].rows)+len(tabs[1].rows))

	return nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}

		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}

		tokenSource = client.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet gets an existing spreadsheet or creates a new one
// holding both tabs.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (*sheets.Spreadsheet, error) {
	if w.config.SpreadsheetID != "" {
		existing, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return existing, nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: TabDistricts}},
			{Properties: &sheets.SheetProperties{Title: TabMerged}},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created, nil
}

// ensureTabs adds any missing tab and returns the sheet id of every tab by
// title.
func (w *Writer) ensureTabs(ctx context.Context, spreadsheet *sheets.Spreadsheet) (map[string]int64, error) {
	ids := make(map[string]int64)
	for _, s := range spreadsheet.Sheets {
		if s.Properties != nil {
			ids[s.Properties.Title] = s.Properties.SheetId
		}
	}

	var requests []*sheets.Request
	var pending []string
	for _, title := range []string{TabDistricts, TabMerged} {
		if _, ok := ids[title]; ok {
			continue
		}
		pending = append(pending, title)
		requests = append(requests, &sheets.Request{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		})
	}
	if len(requests) == 0 {
		return ids, nil
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(spreadsheet.SpreadsheetId, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if len(resp.Replies) != len(pending) {
		return nil, fmt.Errorf("expected %d add sheet replies, got %d", len(pending), len(resp.Replies))
	}
	for i, reply := range resp.Replies {
		if reply.AddSheet == nil || reply.AddSheet.Properties == nil {
			return nil, fmt.Errorf("missing properties for added tab %s", pending[i])
		}
		ids[pending[i]] = reply.AddSheet.Properties.SheetId
		w.logger.Debug("added tab", "title", pending[i], "sheet_id", reply.AddSheet.Properties.SheetId)
	}
	return ids, nil
}

func (w *Writer) clearTab(ctx context.Context, spreadsheetID, title string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, tabRange(title, "A:ZZ"), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// writeData writes values into the tab in batches.
func (w *Writer) writeData(ctx context.Context, spreadsheetID, title string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))

		batch := values[i:end]
		valueRange := &sheets.ValueRange{
			Values: batch,
		}

		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, tabRange(title, fmt.Sprintf("A%d", i+1)), valueRange).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "tab", title, "start_row", i+1, "rows", len(batch))
	}

	return nil
}

// applyFormatting bolds and freezes the header row of every tab.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, sheetIDs map[string]int64) error {
	var requests []*sheets.Request
	for _, title := range []string{TabDistricts, TabMerged} {
		id := sheetIDs[title]
		requests = append(requests,
			&sheets.Request{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{
						SheetId:       id,
						StartRowIndex: 0,
						EndRowIndex:   1,
					},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{
							TextFormat: &sheets.TextFormat{Bold: true},
						},
					},
					Fields: "userEnteredFormat.textFormat",
				},
			},
			&sheets.Request{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId: id,
						GridProperties: &sheets.GridProperties{
							FrozenRowCount: 1,
						},
					},
					Fields: "gridProperties.frozenRowCount",
				},
			},
		)
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}

// classifyAPIError marks client errors other than 429 as permanent and maps
// 429 to ErrRateLimit.
func classifyAPIError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code >= 400 && apiErr.Code < 500:
		return &common.RetryableError{Err: err, Retryable: false}
	default:
		return err
	}
}

func tabRange(title, cells string) string {
	return fmt.Sprintf("'%s'!%s", title, cells)
}

func districtValues(table *model.DistrictTable) [][]any {
	header := table.Header()
	values := make([][]any, 0, len(table.Rows)+1)

	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	values = append(values, row)

	for i := range table.Rows {
		values = append(values, cells(table.Values(&table.Rows[i])))
	}
	return values
}

func mergedValues(report *model.Report) [][]any {
	values := [][]any{{"contest", "county", "ElectDist", "reported_ElectDist", "note", "votes"}}
	for _, c := range report.Contests {
		for _, m := range c.Merged {
			values = append(values, []any{
				c.Key, m.County, int(m.SourceElectDist()), int(m.ReportedElectDist()), m.Note, m.VoteCount,
			})
		}
	}
	return values
}

// cells replaces missing values with empty strings; the API rejects null
// cells in an update.
func cells(row []any) []any {
	for i, v := range row {
		if v == nil {
			row[i] = ""
		}
	}
	return row
}
