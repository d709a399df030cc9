package climate

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"weather-station-etl/internal/adapter/csvfile"
	"weather-station-etl/internal/domain"
)

// Extractor fetches the configured station-year combinations from the bulk
// service and parses them into daily records. It implements
// pipeline.RecordExtractor.
type Extractor struct {
	client   *Client
	stations []string
	years    []int
	rawDir   string // when non-empty, fetched CSVs are also saved here
	logger   *slog.Logger
}

// NewExtractor creates a fetching extractor. Pass an empty rawDir to skip
// persisting the fetched CSVs.
func NewExtractor(client *Client, stations []string, years []int, rawDir string, logger *slog.Logger) *Extractor {
	return &Extractor{
		client:   client,
		stations: stations,
		years:    years,
		rawDir:   rawDir,
		logger:   logger,
	}
}

// ExtractRecords fetches every configured station-year CSV and concatenates
// the parsed records into one table.
func (e *Extractor) ExtractRecords(ctx context.Context) ([]domain.DailyRecord, error) {
	var all []domain.DailyRecord
	for _, stationID := range e.stations {
		for _, year := range e.years {
			data, err := e.client.FetchStationYear(ctx, stationID, year)
			if err != nil {
				return nil, err
			}

			if e.rawDir != "" {
				path, err := csvfile.SaveRawCSV(e.rawDir, stationID, year, data)
				if err != nil {
					return nil, err
				}
				e.logger.Info("raw data saved", "path", path)
			}

			records, err := csvfile.ParseDailyRecords(bytes.NewReader(data), stationID)
			if err != nil {
				return nil, fmt.Errorf("parse station %s year %d: %w", stationID, year, err)
			}
			e.logger.Info("station year fetched",
				"station_id", stationID, "year", year, "records", len(records))
			all = append(all, records...)
		}
	}
	return all, nil
}
