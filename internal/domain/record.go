package domain

import (
	"fmt"
	"strings"
	"time"
)

// YearMonth is the aggregation grain: a calendar month within a year.
type YearMonth struct {
	Year  int
	Month time.Month
}

// MonthOf returns the YearMonth containing t.
func MonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// ParseYearMonth parses the "YYYY-MM" wire form.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("parse year-month %q: %w", s, err)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

// String renders the YYYY-MM form used in the output table.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// PriorYear returns the same calendar month one year earlier.
func (ym YearMonth) PriorYear() YearMonth {
	return YearMonth{Year: ym.Year - 1, Month: ym.Month}
}

// Before reports whether ym precedes other in calendar order.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// MarshalText implements encoding.TextMarshaler so the YYYY-MM form is used
// in JSON payloads.
func (ym YearMonth) MarshalText() ([]byte, error) {
	return []byte(ym.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (ym *YearMonth) UnmarshalText(text []byte) error {
	parsed, err := ParseYearMonth(string(text))
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}

// DailyRecord is one observation for one station on one calendar date.
// Temperature is nil when the station reported no reading that day.
type DailyRecord struct {
	StationID   string    `json:"station_id"`
	Date        time.Time `json:"date"`
	Temperature *float64  `json:"temperature_celsius,omitempty"`
}

// StationMetadata is the reference dimension, one row per station, keyed by
// climate identifier.
type StationMetadata struct {
	ClimateID   string  `json:"climate_id"`
	StationName string  `json:"station_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	FeatureID   string  `json:"feature_id"`
	Map         string  `json:"map"`
}

// EnrichedRecord is a daily record after the metadata join. Metadata is nil
// when the station has no row in the reference dimension.
type EnrichedRecord struct {
	DailyRecord
	Metadata *StationMetadata
}

// MonthlyAggregate is one row of the final table: statistics for one station
// over one calendar month. Statistic fields are nil when the month had no
// non-null readings; TemperatureYoYAvg is nil when no prior-year row exists
// or either side's average is null.
type MonthlyAggregate struct {
	StationID string           `json:"station_id"`
	Month     YearMonth        `json:"date_month"`
	Metadata  *StationMetadata `json:"metadata,omitempty"`

	TemperatureAvg    *float64 `json:"temperature_celsius_avg,omitempty"`
	TemperatureMin    *float64 `json:"temperature_celsius_min,omitempty"`
	TemperatureMax    *float64 `json:"temperature_celsius_max,omitempty"`
	TemperatureYoYAvg *float64 `json:"temperature_celsius_yoy_avg,omitempty"`
}

// Outlier is a non-null reading lying beyond the configured number of sample
// standard deviations from its station's mean.
type Outlier struct {
	StationID   string
	Date        time.Time
	Temperature float64
	StationMean float64
	StationStd  float64
}

// MissingDay is a calendar date inside a station-year's expected range with
// no corresponding daily record.
type MissingDay struct {
	StationID string
	Date      time.Time
}

// ValidationReport summarizes data-quality findings for one validation run.
// It is produced for logging and alerting and is not part of the pipeline's
// persisted data model.
type ValidationReport struct {
	RecordCount      int
	NullTemperatures int
	Outliers         []Outlier
	MissingDays      []MissingDay
	GeneratedAt      time.Time
}

// HasFindings reports whether any data-quality condition was detected.
func (r ValidationReport) HasFindings() bool {
	return r.NullTemperatures > 0 || len(r.Outliers) > 0 || len(r.MissingDays) > 0
}

// JoinReport summarizes unmatched-station findings from the metadata join.
type JoinReport struct {
	UnmatchedStations []string // normalized IDs, sorted, unique
	UnmatchedRecords  int
}

// NormalizeStationID canonicalizes a station identifier for join comparison:
// surrounding whitespace and leading zeros are stripped, so "026953" and
// " 26953 " compare equal. Identifiers of all zeros normalize to "0".
func NormalizeStationID(id string) string {
	id = strings.TrimSpace(id)
	trimmed := strings.TrimLeft(id, "0")
	if trimmed == "" && id != "" {
		return "0"
	}
	return trimmed
}
