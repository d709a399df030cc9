// Package domain models daily weather-station observations and the pure
// transformations that turn them into a monthly analytical dataset.
//
// # Data Source
//
// Daily records originate from the Environment and Climate Change Canada bulk
// data service (https://climate.weather.gc.ca/climate_data/bulk_data_e.html),
// fetched one CSV per station per year. Depending on the report variant the
// date column is "Date/Time (LST)" or "Date/Time" and the temperature column
// is "Temp (°C)" or "Mean Temp (°C)"; the CSV adapter normalizes both into
// [DailyRecord]. Temperatures are nullable: an empty field means the station
// reported no reading that day, never zero.
//
// # Reference Dimension
//
// Station attributes (name, coordinates, feature id, map sheet) come from a
// geonames extract keyed by climate identifier. Identifiers appear in the wild
// both zero-padded and bare, so joins compare [NormalizeStationID] forms.
//
// # Transformations
//
// The pipeline is four pure, non-mutating stages:
//
//	Validate  → ValidationReport (nulls, outliers, missing days)
//	Join      → EnrichedRecord   (left join onto station metadata)
//	Aggregate → MonthlyAggregate (avg/min/max per station-month)
//	ComputeYoY                   (delta vs. same month, prior year)
//
// Each stage returns a fresh table; inputs are never modified, so re-running
// any stage on the same input yields the same output.
//
// # Data Quality vs. Structural Errors
//
// Nulls, statistical outliers, calendar gaps, and unmatched station
// identifiers are data-quality conditions: they are reported (and counted by
// the caller) but never stop a run. Duplicate (station, date) pairs, duplicate
// metadata identifiers, and conflicting metadata within an aggregation group
// are structural errors surfaced as [DuplicateKeyError] and
// [MetadataConflictError]; malformed input files surface as [SchemaError] from
// the adapters. Structural errors halt the pipeline before statistics are
// computed over corrupt data.
//
// # Conventions
//
//	Outlier:     reading more than OutlierStdDevThreshold (default 3) sample
//	             standard deviations from its station mean; stations with
//	             fewer than two non-null readings are skipped.
//	Missing day: calendar date with no record inside the station-year's
//	             expected range (observed min..max, or the full year when
//	             DateRangeFullYear is configured).
//	YoY delta:   station-month average minus the same station and calendar
//	             month one year earlier; null when either side is null or the
//	             prior-year row does not exist.
package domain
