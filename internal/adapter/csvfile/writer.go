package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"weather-station-etl/internal/domain"
)

// monthlyColumns is the output contract: the exact column order consumed by
// downstream SQL analysis.
var monthlyColumns = []string{
	"station_name",
	"climate_id",
	"latitude",
	"longitude",
	"date_month",
	"feature_id",
	"map",
	"temperature_celsius_avg",
	"temperature_celsius_min",
	"temperature_celsius_max",
	"temperature_celsius_yoy_avg",
}

// WriteMonthlyAggregates renders the final station-month table as CSV.
// Null statistics render as empty fields, never zero.
func WriteMonthlyAggregates(w io.Writer, aggregates []domain.MonthlyAggregate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(monthlyColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, agg := range aggregates {
		row := make([]string, 0, len(monthlyColumns))

		// Metadata fields stay empty for stations missing from the
		// reference dimension, except climate_id, which falls back to the
		// record's station identifier so the row remains attributable.
		name, climateID, lat, lon, featureID, mapSheet := "", agg.StationID, "", "", "", ""
		if agg.Metadata != nil {
			name = agg.Metadata.StationName
			climateID = agg.Metadata.ClimateID
			lat = formatFloat(agg.Metadata.Latitude)
			lon = formatFloat(agg.Metadata.Longitude)
			featureID = agg.Metadata.FeatureID
			mapSheet = agg.Metadata.Map
		}

		row = append(row, name, climateID, lat, lon, agg.Month.String(), featureID, mapSheet,
			formatNullableFloat(agg.TemperatureAvg),
			formatNullableFloat(agg.TemperatureMin),
			formatNullableFloat(agg.TemperatureMax),
			formatNullableFloat(agg.TemperatureYoYAvg),
		)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadMonthlyAggregates parses a previously written monthly table, for
// loading into the analytical store.
func ReadMonthlyAggregates(r io.Reader) ([]domain.MonthlyAggregate, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.SchemaError{Source: "monthly_aggregates", Detail: fmt.Sprintf("read header: %v", err)}
	}
	cleanHeader(header)

	idx := make(map[string]int, len(monthlyColumns))
	for _, col := range monthlyColumns {
		i := findColumn(header, []string{col})
		if i < 0 {
			return nil, &domain.SchemaError{Source: "monthly_aggregates", Detail: fmt.Sprintf("required column %q not found", col)}
		}
		idx[col] = i
	}

	var aggregates []domain.MonthlyAggregate
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &domain.SchemaError{Source: "monthly_aggregates", Detail: fmt.Sprintf("read row: %v", err)}
		}

		month, err := domain.ParseYearMonth(row[idx["date_month"]])
		if err != nil {
			return nil, &domain.SchemaError{Source: "monthly_aggregates", Detail: err.Error()}
		}

		agg := domain.MonthlyAggregate{
			StationID: row[idx["climate_id"]],
			Month:     month,
		}
		if row[idx["station_name"]] != "" || row[idx["latitude"]] != "" {
			lat, err := parseFloat(row[idx["latitude"]])
			if err != nil {
				return nil, &domain.SchemaError{Source: "monthly_aggregates", Detail: fmt.Sprintf("latitude %q: not numeric", row[idx["latitude"]])}
			}
			lon, err := parseFloat(row[idx["longitude"]])
			if err != nil {
				return nil, &domain.SchemaError{Source: "monthly_aggregates", Detail: fmt.Sprintf("longitude %q: not numeric", row[idx["longitude"]])}
			}
			agg.Metadata = &domain.StationMetadata{
				ClimateID:   row[idx["climate_id"]],
				StationName: row[idx["station_name"]],
				Latitude:    lat,
				Longitude:   lon,
				FeatureID:   row[idx["feature_id"]],
				Map:         row[idx["map"]],
			}
		}

		for col, dest := range map[string]**float64{
			"temperature_celsius_avg":     &agg.TemperatureAvg,
			"temperature_celsius_min":     &agg.TemperatureMin,
			"temperature_celsius_max":     &agg.TemperatureMax,
			"temperature_celsius_yoy_avg": &agg.TemperatureYoYAvg,
		} {
			v, err := parseNullableFloat(row[idx[col]])
			if err != nil {
				return nil, &domain.SchemaError{Source: "monthly_aggregates", Detail: fmt.Sprintf("%s %q: not numeric", col, row[idx[col]])}
			}
			*dest = v
		}

		aggregates = append(aggregates, agg)
	}
	return aggregates, nil
}

// MonthlyWriter writes the final table to OutputDir/OutputFile. It implements
// pipeline.AggregateLoader.
type MonthlyWriter struct {
	dir    string
	file   string
	logger *slog.Logger
}

// NewMonthlyWriter creates a CSV sink for the final monthly table.
func NewMonthlyWriter(dir, file string, logger *slog.Logger) *MonthlyWriter {
	return &MonthlyWriter{dir: dir, file: file, logger: logger}
}

func (w *MonthlyWriter) LoadAggregates(_ context.Context, aggregates []domain.MonthlyAggregate) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(w.dir, w.file)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteMonthlyAggregates(f, aggregates); err != nil {
		return err
	}
	w.logger.Info("monthly table written", "path", path, "rows", len(aggregates))
	return nil
}

// SaveRawCSV writes fetched bulk-service bytes to the raw-data directory
// using the station_<id>_<year>.csv convention, so a later run can re-read
// them without refetching.
func SaveRawCSV(dir, stationID string, year int, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create raw data dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("station_%s_%d.csv", stationID, year))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatNullableFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
