package domain

import (
	"math"
	"sort"
	"time"
)

// DateRangePolicy selects the expected calendar range for missing-day
// detection within each station-year.
type DateRangePolicy string

const (
	// DateRangeObserved expects days between the first and last observed
	// date of the station-year. Matches the upstream quality checks.
	DateRangeObserved DateRangePolicy = "observed"

	// DateRangeFullYear expects every day from Jan 1 to Dec 31.
	DateRangeFullYear DateRangePolicy = "full-year"
)

// ValidateConfig carries the tunable validation policies. The zero value is
// not usable; start from DefaultValidateConfig.
type ValidateConfig struct {
	// OutlierStdDevThreshold is the number of sample standard deviations
	// beyond which a reading is flagged.
	OutlierStdDevThreshold float64

	// DateRange selects the expected-range policy for missing-day detection.
	DateRange DateRangePolicy
}

// DefaultValidateConfig returns the standard policies: 3σ outliers, observed
// date range.
func DefaultValidateConfig() ValidateConfig {
	return ValidateConfig{
		OutlierStdDevThreshold: 3.0,
		DateRange:              DateRangeObserved,
	}
}

// Validate checks a daily-record table for data-quality conditions: null
// temperatures, statistical outliers per station, and missing calendar days
// per station-year. Findings are descriptive; no records are dropped or
// corrected. The input is not modified.
//
// Station identity is the normalized identifier throughout, so "26953" and
// "026953" are the same station for duplicate, outlier, and gap detection.
//
// A duplicate (station, date) pair violates the table's uniqueness invariant
// and returns a *DuplicateKeyError; everything else lands in the report.
// Empty input yields an empty report.
func Validate(records []DailyRecord, cfg ValidateConfig) (ValidationReport, error) {
	report := ValidationReport{
		RecordCount: len(records),
		GeneratedAt: clock.Now(),
	}

	if err := checkDuplicates(records); err != nil {
		return ValidationReport{}, err
	}

	for _, rec := range records {
		if rec.Temperature == nil {
			report.NullTemperatures++
		}
	}

	report.Outliers = detectOutliers(records, cfg.OutlierStdDevThreshold)
	report.MissingDays = detectMissingDays(records, cfg.DateRange)

	return report, nil
}

func checkDuplicates(records []DailyRecord) error {
	type key struct {
		station string
		date    string
	}
	seen := make(map[key]struct{}, len(records))
	for _, rec := range records {
		k := key{NormalizeStationID(rec.StationID), rec.Date.Format("2006-01-02")}
		if _, ok := seen[k]; ok {
			return &DuplicateKeyError{Table: "daily_records", StationID: rec.StationID, Date: rec.Date}
		}
		seen[k] = struct{}{}
	}
	return nil
}

type stationStats struct {
	mean  float64
	std   float64
	count int
}

// detectOutliers flags non-null readings more than threshold sample standard
// deviations from their station's mean. Stations with fewer than two non-null
// readings are skipped: a single observation has no defined deviation.
// Findings preserve input order, keeping reports deterministic.
func detectOutliers(records []DailyRecord, threshold float64) []Outlier {
	byStation := make(map[string][]float64)
	for _, rec := range records {
		if rec.Temperature != nil {
			id := NormalizeStationID(rec.StationID)
			byStation[id] = append(byStation[id], *rec.Temperature)
		}
	}

	stats := make(map[string]stationStats, len(byStation))
	for station, temps := range byStation {
		if len(temps) < 2 {
			continue
		}
		var sum float64
		for _, t := range temps {
			sum += t
		}
		mean := sum / float64(len(temps))
		var sqSum float64
		for _, t := range temps {
			d := t - mean
			sqSum += d * d
		}
		std := math.Sqrt(sqSum / float64(len(temps)-1))
		stats[station] = stationStats{mean: mean, std: std, count: len(temps)}
	}

	var outliers []Outlier
	for _, rec := range records {
		if rec.Temperature == nil {
			continue
		}
		st, ok := stats[NormalizeStationID(rec.StationID)]
		if !ok {
			continue
		}
		if math.Abs(*rec.Temperature-st.mean) > threshold*st.std {
			outliers = append(outliers, Outlier{
				StationID:   rec.StationID,
				Date:        rec.Date,
				Temperature: *rec.Temperature,
				StationMean: st.mean,
				StationStd:  st.std,
			})
		}
	}
	return outliers
}

// detectMissingDays reports, per station-year, every calendar date inside the
// expected range with no record. Gaps are reported, never imputed. Output is
// sorted by station then date.
func detectMissingDays(records []DailyRecord, policy DateRangePolicy) []MissingDay {
	type stationYear struct {
		station string
		year    int
	}
	observed := make(map[stationYear]map[string]struct{})
	bounds := make(map[stationYear][2]time.Time) // [first, last] observed date

	for _, rec := range records {
		// Bucket on the date's calendar components, not the absolute
		// timeline, so a non-UTC timestamp lands on its own day.
		day := time.Date(rec.Date.Year(), rec.Date.Month(), rec.Date.Day(), 0, 0, 0, 0, time.UTC)
		sy := stationYear{NormalizeStationID(rec.StationID), day.Year()}
		if observed[sy] == nil {
			observed[sy] = make(map[string]struct{})
			bounds[sy] = [2]time.Time{day, day}
		}
		observed[sy][day.Format("2006-01-02")] = struct{}{}
		b := bounds[sy]
		if day.Before(b[0]) {
			b[0] = day
		}
		if day.After(b[1]) {
			b[1] = day
		}
		bounds[sy] = b
	}

	var missing []MissingDay
	for sy, days := range observed {
		first, last := bounds[sy][0], bounds[sy][1]
		if policy == DateRangeFullYear {
			first = time.Date(sy.year, time.January, 1, 0, 0, 0, 0, time.UTC)
			last = time.Date(sy.year, time.December, 31, 0, 0, 0, 0, time.UTC)
		}
		for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
			if _, ok := days[d.Format("2006-01-02")]; !ok {
				missing = append(missing, MissingDay{StationID: sy.station, Date: d})
			}
		}
	}

	sort.Slice(missing, func(i, j int) bool {
		if missing[i].StationID != missing[j].StationID {
			return missing[i].StationID < missing[j].StationID
		}
		return missing[i].Date.Before(missing[j].Date)
	})
	return missing
}
