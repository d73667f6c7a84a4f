// Package tally parses and normalizes raw precinct-level election tally
// exports.
package tally

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Veraticus/precinct-atlas/internal/common"
	"github.com/Veraticus/precinct-atlas/internal/model"
)

// InPlayNote marks a row whose votes are counted in its own district.
const InPlayNote = "IN-PLAY"

// Layout holds the 0-based column positions consumed from the export. The
// positions are fixed by the upstream exporter.
type Layout struct {
	AssemblyDistrict int
	ElectionDistrict int
	County           int
	Note             int
	VoteChoice       int
	VoteCount        int
}

// DefaultLayout is the column layout of the citywide results export.
func DefaultLayout() Layout {
	return Layout{
		AssemblyDistrict: 11,
		ElectionDistrict: 12,
		County:           13,
		Note:             14,
		VoteChoice:       20,
		VoteCount:        21,
	}
}

func (l Layout) width() int {
	return max(l.AssemblyDistrict, l.ElectionDistrict, l.County, l.Note, l.VoteChoice, l.VoteCount) + 1
}

// Reader reads header-less tally exports.
type Reader struct {
	layout Layout
}

// NewReader creates a reader for the given layout.
func NewReader(layout Layout) *Reader {
	return &Reader{layout: layout}
}

// Read consumes the whole export. A row narrower than the layout is a format
// error; there is no skip-and-continue.
func (r *Reader) Read(src io.Reader) ([]model.RawTallyRecord, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	width := r.layout.width()
	var records []model.RawTallyRecord

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line := 0
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				line = parseErr.StartLine
			}
			return nil, common.FormatErrorf("tally", fmt.Sprintf("line %d", line), "unreadable row: %v", err)
		}
		// Physical line where the record starts; quoted fields may span lines.
		line, _ := reader.FieldPos(0)
		if len(row) < width {
			return nil, common.FormatErrorf("tally", fmt.Sprintf("line %d", line),
				"expected at least %d columns, got %d", width, len(row))
		}

		records = append(records, model.RawTallyRecord{
			Line:             line,
			AssemblyDistrict: strings.TrimSpace(row[r.layout.AssemblyDistrict]),
			ElectionDistrict: strings.TrimSpace(row[r.layout.ElectionDistrict]),
			County:           strings.TrimSpace(row[r.layout.County]),
			Note:             strings.TrimSpace(row[r.layout.Note]),
			VoteChoice:       strings.TrimSpace(row[r.layout.VoteChoice]),
			VoteCount:        strings.TrimSpace(row[r.layout.VoteCount]),
		})
	}

	slog.Debug("Read tally export", "rows", len(records))
	return records, nil
}
