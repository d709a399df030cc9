// Package sqlite loads the final monthly table into a SQLite database and
// runs the standing analytical queries over it.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"weather-station-etl/internal/domain"
)

// Store owns a SQLite database holding the weather_data table. It implements
// pipeline.AggregateLoader.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore opens (creating if necessary) the database at path. Use
// ":memory:" for an ephemeral store.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadAggregates replaces the weather_data table with the given rows,
// mirroring the CSV output contract column for column.
func (s *Store) LoadAggregates(ctx context.Context, aggregates []domain.MonthlyAggregate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS weather_data`); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE weather_data (
			station_name                TEXT,
			climate_id                  TEXT NOT NULL,
			latitude                    REAL,
			longitude                   REAL,
			date_month                  TEXT NOT NULL,
			feature_id                  TEXT,
			map                         TEXT,
			temperature_celsius_avg     REAL,
			temperature_celsius_min     REAL,
			temperature_celsius_max     REAL,
			temperature_celsius_yoy_avg REAL,
			UNIQUE (climate_id, date_month)
		)`); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO weather_data (
			station_name, climate_id, latitude, longitude, date_month,
			feature_id, map, temperature_celsius_avg, temperature_celsius_min,
			temperature_celsius_max, temperature_celsius_yoy_avg
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, agg := range aggregates {
		var name, featureID, mapSheet sql.NullString
		var lat, lon sql.NullFloat64
		climateID := agg.StationID
		if agg.Metadata != nil {
			name = sql.NullString{String: agg.Metadata.StationName, Valid: true}
			featureID = sql.NullString{String: agg.Metadata.FeatureID, Valid: true}
			mapSheet = sql.NullString{String: agg.Metadata.Map, Valid: true}
			lat = sql.NullFloat64{Float64: agg.Metadata.Latitude, Valid: true}
			lon = sql.NullFloat64{Float64: agg.Metadata.Longitude, Valid: true}
			climateID = agg.Metadata.ClimateID
		}

		if _, err := stmt.ExecContext(ctx,
			name, climateID, lat, lon, agg.Month.String(), featureID, mapSheet,
			agg.TemperatureAvg, agg.TemperatureMin, agg.TemperatureMax, agg.TemperatureYoYAvg,
		); err != nil {
			return fmt.Errorf("insert %s/%s: %w", climateID, agg.Month, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("aggregates loaded into sqlite", "rows", len(aggregates))
	return nil
}

// StationYearAvg is one row of the average-temperature-by-station-and-year
// query.
type StationYearAvg struct {
	StationName string
	Year        string
	AvgCelsius  float64
}

// AvgTemperatureByStationYear averages the monthly means per station per year.
func (s *Store) AvgTemperatureByStationYear(ctx context.Context) ([]StationYearAvg, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			station_name,
			substr(date_month, 1, 4) AS year,
			round(avg(temperature_celsius_avg), 2) AS avg_temperature
		FROM weather_data
		WHERE temperature_celsius_avg IS NOT NULL
		GROUP BY station_name, year
		ORDER BY station_name, year`)
	if err != nil {
		return nil, fmt.Errorf("query station-year averages: %w", err)
	}
	defer rows.Close()

	var out []StationYearAvg
	for rows.Next() {
		var r StationYearAvg
		if err := rows.Scan(&r.StationName, &r.Year, &r.AvgCelsius); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MonthVariation is one row of the monthly temperature-variation query.
type MonthVariation struct {
	StationName string
	Month       string // "01".."12"
	AvgRange    float64
}

// MonthlyTemperatureVariation averages the monthly max-min spread per station
// per calendar month.
func (s *Store) MonthlyTemperatureVariation(ctx context.Context) ([]MonthVariation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			station_name,
			substr(date_month, 6, 2) AS month,
			round(avg(temperature_celsius_max - temperature_celsius_min), 2) AS avg_variation
		FROM weather_data
		WHERE temperature_celsius_max IS NOT NULL
		GROUP BY station_name, month
		ORDER BY station_name, month`)
	if err != nil {
		return nil, fmt.Errorf("query monthly variation: %w", err)
	}
	defer rows.Close()

	var out []MonthVariation
	for rows.Next() {
		var r MonthVariation
		if err := rows.Scan(&r.StationName, &r.Month, &r.AvgRange); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MonthYoYChange is one row of the year-over-year change query.
type MonthYoYChange struct {
	StationName string
	Month       string
	AvgChange   float64
}

// YoYTemperatureChange averages the year-over-year delta per station per
// calendar month, skipping rows with no prior-year comparison.
func (s *Store) YoYTemperatureChange(ctx context.Context) ([]MonthYoYChange, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			station_name,
			substr(date_month, 6, 2) AS month,
			round(avg(temperature_celsius_yoy_avg), 2) AS avg_yoy_change
		FROM weather_data
		WHERE temperature_celsius_yoy_avg IS NOT NULL
		GROUP BY station_name, month
		ORDER BY station_name, month`)
	if err != nil {
		return nil, fmt.Errorf("query yoy change: %w", err)
	}
	defer rows.Close()

	var out []MonthYoYChange
	for rows.Next() {
		var r MonthYoYChange
		if err := rows.Scan(&r.StationName, &r.Month, &r.AvgChange); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ExtremeMonth is one row of the hottest/coldest month queries.
type ExtremeMonth struct {
	StationName string
	DateMonth   string
	Celsius     float64
}

// HottestMonths returns the station-months with the highest maximum
// temperatures.
func (s *Store) HottestMonths(ctx context.Context, limit int) ([]ExtremeMonth, error) {
	return s.extremeMonths(ctx, `
		SELECT station_name, date_month, temperature_celsius_max
		FROM weather_data
		WHERE temperature_celsius_max IS NOT NULL
		ORDER BY temperature_celsius_max DESC
		LIMIT ?`, limit)
}

// ColdestMonths returns the station-months with the lowest minimum
// temperatures.
func (s *Store) ColdestMonths(ctx context.Context, limit int) ([]ExtremeMonth, error) {
	return s.extremeMonths(ctx, `
		SELECT station_name, date_month, temperature_celsius_min
		FROM weather_data
		WHERE temperature_celsius_min IS NOT NULL
		ORDER BY temperature_celsius_min ASC
		LIMIT ?`, limit)
}

func (s *Store) extremeMonths(ctx context.Context, query string, limit int) ([]ExtremeMonth, error) {
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query extreme months: %w", err)
	}
	defer rows.Close()

	var out []ExtremeMonth
	for rows.Next() {
		var r ExtremeMonth
		var name sql.NullString
		if err := rows.Scan(&name, &r.DateMonth, &r.Celsius); err != nil {
			return nil, err
		}
		r.StationName = name.String
		out = append(out, r)
	}
	return out, rows.Err()
}
