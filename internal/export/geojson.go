// Package export writes pipeline reports to files for presentation tools.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/Veraticus/precinct-atlas/internal/model"
	"github.com/Veraticus/precinct-atlas/internal/service"
)

var (
	_ service.ReportWriter = (*GeoJSONWriter)(nil)
	_ service.ReportWriter = (*XLSXWriter)(nil)
)

// FeatureCollection converts the district table to GeoJSON features whose
// properties are the table columns. Missing values are null.
func FeatureCollection(table *model.DistrictTable) *geojson.FeatureCollection {
	header := table.Header()
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(table.Rows))}
	for i := range table.Rows {
		row := &table.Rows[i]
		values := table.Values(row)
		props := make(map[string]any, len(header))
		for j, h := range header {
			props[h] = values[j]
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         row.ElectDist.String(),
			Geometry:   row.Geometry,
			Properties: props,
		})
	}
	return fc
}

// EncodeGeoJSON writes the table as a FeatureCollection.
func EncodeGeoJSON(w io.Writer, table *model.DistrictTable) error {
	data, err := json.Marshal(FeatureCollection(table))
	if err != nil {
		return fmt.Errorf("failed to encode geojson: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write geojson: %w", err)
	}
	return nil
}

// GeoJSONWriter writes the district table to a file.
type GeoJSONWriter struct {
	path string
}

// NewGeoJSONWriter creates a writer targeting path.
func NewGeoJSONWriter(path string) *GeoJSONWriter {
	return &GeoJSONWriter{path: path}
}

// Write writes the report's district table, replacing any existing file.
func (w *GeoJSONWriter) Write(ctx context.Context, report *model.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if report == nil || report.Table == nil {
		return fmt.Errorf("geojson export: report has no district table")
	}

	tmp, err := os.CreateTemp(filepath.Dir(w.path), ".atlas-*.geojson")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := EncodeGeoJSON(tmp, report.Table); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("failed to move geojson into place: %w", err)
	}
	return nil
}
