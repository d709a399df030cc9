// Package csvfile reads and writes the pipeline's file-format boundary:
// raw station CSVs from the climate bulk service, the geonames reference
// dimension, and the final monthly table. Structural problems (missing
// required columns, malformed dates, non-numeric temperatures) surface as
// *domain.SchemaError.
package csvfile

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"weather-station-etl/internal/domain"
)

// Column name variants in Environment Canada bulk CSVs. Hourly exports use
// "Date/Time (LST)" and "Temp (°C)"; daily exports use "Date/Time" and
// "Mean Temp (°C)".
var (
	dateColumns = []string{"Date/Time (LST)", "Date/Time"}
	tempColumns = []string{"Temp (°C)", "Mean Temp (°C)"}
)

// Geonames columns required for the reference dimension, as exported from
// the geonames service ("id" doubles as the climate identifier).
var geonamesColumns = []string{"id", "name", "feature.id", "latitude", "longitude", "map"}

// ParseDailyRecords parses one raw station CSV into daily records. The
// station identifier comes from the filename convention, not the file body,
// so it is passed in by the caller.
func ParseDailyRecords(r io.Reader, stationID string) ([]domain.DailyRecord, error) {
	cr := csv.NewReader(skipBOM(r))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.SchemaError{Source: "daily_records", Detail: fmt.Sprintf("read header: %v", err)}
	}
	cleanHeader(header)

	dateIdx := findColumn(header, dateColumns)
	if dateIdx < 0 {
		return nil, &domain.SchemaError{Source: "daily_records", Detail: "date column not found (want \"Date/Time (LST)\" or \"Date/Time\")"}
	}
	tempIdx := findColumn(header, tempColumns)
	if tempIdx < 0 {
		return nil, &domain.SchemaError{Source: "daily_records", Detail: "temperature column not found (want \"Temp (°C)\" or \"Mean Temp (°C)\")"}
	}

	var records []domain.DailyRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &domain.SchemaError{Source: "daily_records", Detail: fmt.Sprintf("read row: %v", err)}
		}
		if dateIdx >= len(row) || tempIdx >= len(row) {
			return nil, &domain.SchemaError{Source: "daily_records", Detail: fmt.Sprintf("row has %d fields, need at least %d", len(row), max(dateIdx, tempIdx)+1)}
		}

		date, err := parseDate(row[dateIdx])
		if err != nil {
			return nil, &domain.SchemaError{Source: "daily_records", Detail: err.Error()}
		}

		temperature, err := parseNullableFloat(row[tempIdx])
		if err != nil {
			return nil, &domain.SchemaError{Source: "daily_records", Detail: fmt.Sprintf("temperature %q: not numeric", row[tempIdx])}
		}

		records = append(records, domain.DailyRecord{
			StationID:   stationID,
			Date:        date,
			Temperature: temperature,
		})
	}
	return records, nil
}

// ParseStationMetadata parses the geonames CSV into the station reference
// dimension.
func ParseStationMetadata(r io.Reader) ([]domain.StationMetadata, error) {
	cr := csv.NewReader(skipBOM(r))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.SchemaError{Source: "station_metadata", Detail: fmt.Sprintf("read header: %v", err)}
	}
	cleanHeader(header)

	idx := make(map[string]int, len(geonamesColumns))
	for _, col := range geonamesColumns {
		i := findColumn(header, []string{col})
		if i < 0 {
			return nil, &domain.SchemaError{Source: "station_metadata", Detail: fmt.Sprintf("required column %q not found", col)}
		}
		idx[col] = i
	}

	var metadata []domain.StationMetadata
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &domain.SchemaError{Source: "station_metadata", Detail: fmt.Sprintf("read row: %v", err)}
		}

		lat, err := parseFloat(row[idx["latitude"]])
		if err != nil {
			return nil, &domain.SchemaError{Source: "station_metadata", Detail: fmt.Sprintf("latitude %q: not numeric", row[idx["latitude"]])}
		}
		lon, err := parseFloat(row[idx["longitude"]])
		if err != nil {
			return nil, &domain.SchemaError{Source: "station_metadata", Detail: fmt.Sprintf("longitude %q: not numeric", row[idx["longitude"]])}
		}

		metadata = append(metadata, domain.StationMetadata{
			ClimateID:   strings.TrimSpace(row[idx["id"]]),
			StationName: strings.TrimSpace(row[idx["name"]]),
			Latitude:    lat,
			Longitude:   lon,
			FeatureID:   strings.TrimSpace(row[idx["feature.id"]]),
			Map:         strings.TrimSpace(row[idx["map"]]),
		})
	}
	return metadata, nil
}

// DirectorySource reads raw station CSVs named station_<id>_<year>.csv from
// a directory. It implements pipeline.RecordExtractor.
type DirectorySource struct {
	dir    string
	logger *slog.Logger
}

// NewDirectorySource creates a raw-file extractor over dir.
func NewDirectorySource(dir string, logger *slog.Logger) *DirectorySource {
	return &DirectorySource{dir: dir, logger: logger}
}

// ExtractRecords reads every station_*.csv file under the source directory.
func (s *DirectorySource) ExtractRecords(_ context.Context) ([]domain.DailyRecord, error) {
	pattern := filepath.Join(s.dir, "station_*.csv")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no raw data files found in %s", s.dir)
	}

	var all []domain.DailyRecord
	for _, file := range files {
		stationID, ok := stationIDFromFilename(filepath.Base(file))
		if !ok {
			s.logger.Warn("skipping file with unexpected name", "file", file)
			continue
		}

		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", file, err)
		}
		records, err := ParseDailyRecords(f, stationID)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}

		s.logger.Info("raw file loaded", "file", filepath.Base(file), "records", len(records))
		all = append(all, records...)
	}
	return all, nil
}

// GeonamesFile reads the station reference dimension from a geonames CSV.
// It implements pipeline.MetadataProvider.
type GeonamesFile struct {
	path string
}

// NewGeonamesFile creates a metadata provider over the given CSV path.
func NewGeonamesFile(path string) *GeonamesFile {
	return &GeonamesFile{path: path}
}

func (g *GeonamesFile) StationMetadata(_ context.Context) ([]domain.StationMetadata, error) {
	f, err := os.Open(g.path)
	if err != nil {
		return nil, fmt.Errorf("open geonames file: %w", err)
	}
	defer f.Close()
	return ParseStationMetadata(f)
}

// stationIDFromFilename extracts the station ID from the
// station_<id>_<year>.csv convention.
func stationIDFromFilename(name string) (string, bool) {
	name = strings.TrimSuffix(name, ".csv")
	parts := strings.Split(name, "_")
	if len(parts) != 3 || parts[0] != "station" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// skipBOM returns a reader positioned past a leading UTF-8 byte order mark.
// The bulk service prefixes its CSV exports with one; left in the stream it
// turns a quoted first header cell into a parse error.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if lead, err := br.Peek(3); err == nil && bytes.Equal(lead, []byte("\ufeff")) {
		br.Discard(3) //nolint:errcheck // peek succeeded, three bytes are buffered
	}
	return br
}

// cleanHeader trims whitespace from header cells.
func cleanHeader(header []string) {
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
}

func findColumn(header []string, candidates []string) int {
	for _, want := range candidates {
		for i, col := range header {
			if col == want {
				return i
			}
		}
	}
	return -1
}

// parseDate accepts both the hourly ("2023-01-01 13:00") and daily
// ("2023-01-01") date forms and normalizes to midnight UTC.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q: malformed", s)
}

func parseNullableFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
