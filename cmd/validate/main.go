// Command validate runs the data-quality checks over raw station CSVs and the
// geonames reference dimension without producing any output tables. It prints
// a human-readable report of null temperatures, statistical outliers, missing
// days, and stations absent from the reference metadata.
//
// Structural problems (schema violations, duplicate keys) are fatal and exit
// nonzero; data-quality findings are reported but exit zero.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -raw-data-dir raw_data \
//	  -geonames geonames.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"weather-station-etl/internal/adapter/csvfile"
	"weather-station-etl/internal/domain"
)

func main() {
	rawDataDir := flag.String("raw-data-dir", "raw_data", "directory containing station_<id>_<year>.csv files")
	geonames := flag.String("geonames", "geonames.csv", "path to the geonames reference CSV")
	threshold := flag.Float64("outlier-threshold", 3.0, "outlier threshold in sample standard deviations")
	policy := flag.String("date-range-policy", "observed", "missing-day range: observed or full-year")
	flag.Parse()

	if code := run(*rawDataDir, *geonames, *threshold, *policy); code != 0 {
		os.Exit(code)
	}
}

func run(rawDataDir, geonames string, threshold float64, policy string) int {
	cfg := domain.ValidateConfig{
		OutlierStdDevThreshold: threshold,
		DateRange:              domain.DateRangePolicy(policy),
	}
	switch cfg.DateRange {
	case domain.DateRangeObserved, domain.DateRangeFullYear:
	default:
		fmt.Fprintf(os.Stderr, "FATAL: invalid -date-range-policy %q\n", policy)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	records, err := csvfile.NewDirectorySource(rawDataDir, logger).ExtractRecords(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load raw data: %v\n", err)
		return 1
	}

	metadata, err := csvfile.NewGeonamesFile(geonames).StationMetadata(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load geonames: %v\n", err)
		return 1
	}

	fmt.Println("=== Weather Station Data Validation ===")
	fmt.Println()
	fmt.Printf("Daily records:  %d\n", len(records))
	fmt.Printf("Metadata rows:  %d\n", len(metadata))
	fmt.Println()

	report, err := domain.Validate(records, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	_, joinReport, err := domain.Join(records, metadata)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	printValidation(report)
	printJoin(joinReport)

	if report.HasFindings() || len(joinReport.UnmatchedStations) > 0 {
		fmt.Println("\nData-quality findings present (non-fatal).")
	} else {
		fmt.Println("\nAll checks clean.")
	}
	return 0
}

func printValidation(report domain.ValidationReport) {
	fmt.Printf("Null temperatures: %d\n", report.NullTemperatures)

	fmt.Printf("Outliers:          %d\n", len(report.Outliers))
	for _, o := range report.Outliers {
		fmt.Printf("  %s  %s  %.1f°C (station mean %.1f, stddev %.1f)\n",
			o.StationID, o.Date.Format("2006-01-02"), o.Temperature, o.StationMean, o.StationStd)
	}

	fmt.Printf("Missing days:      %d\n", len(report.MissingDays))
	for _, m := range report.MissingDays {
		fmt.Printf("  %s  %s\n", m.StationID, m.Date.Format("2006-01-02"))
	}
}

func printJoin(report domain.JoinReport) {
	fmt.Printf("Unmatched stations: %d", len(report.UnmatchedStations))
	if len(report.UnmatchedStations) > 0 {
		fmt.Printf(" (%d records)", report.UnmatchedRecords)
	}
	fmt.Println()
	for _, s := range report.UnmatchedStations {
		fmt.Printf("  %s missing from reference metadata\n", s)
	}
}
