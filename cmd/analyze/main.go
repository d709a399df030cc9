// Command analyze loads a previously written monthly table into SQLite and
// prints the standing analytical queries: average temperature by station and
// year, monthly variation, average year-over-year change, and the hottest and
// coldest station-months.
//
// Usage:
//
//	go run ./cmd/analyze \
//	  -input output/weather_station_monthly.csv \
//	  -db weather.db
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"weather-station-etl/internal/adapter/csvfile"
	"weather-station-etl/internal/adapter/sqlite"
)

const extremeLimit = 10

func main() {
	input := flag.String("input", "output/weather_station_monthly.csv", "path to the monthly aggregate CSV")
	dbPath := flag.String("db", ":memory:", "SQLite database path (:memory: for ephemeral)")
	flag.Parse()

	if err := run(*input, *dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}

func run(input, dbPath string) error {
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	aggregates, err := csvfile.ReadMonthlyAggregates(f)
	if err != nil {
		return fmt.Errorf("parse monthly table: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := sqlite.NewStore(dbPath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.LoadAggregates(ctx, aggregates); err != nil {
		return err
	}
	fmt.Printf("Loaded %d station-months from %s\n", len(aggregates), input)

	if err := printStationYearAverages(ctx, store); err != nil {
		return err
	}
	if err := printMonthlyVariation(ctx, store); err != nil {
		return err
	}
	if err := printYoYChange(ctx, store); err != nil {
		return err
	}
	return printExtremes(ctx, store)
}

func printStationYearAverages(ctx context.Context, store *sqlite.Store) error {
	rows, err := store.AvgTemperatureByStationYear(ctx)
	if err != nil {
		return err
	}
	fmt.Println("\n=== Average temperature by station and year ===")
	for _, r := range rows {
		fmt.Printf("  %-30s %s  %6.2f°C\n", r.StationName, r.Year, r.AvgCelsius)
	}
	return nil
}

func printMonthlyVariation(ctx context.Context, store *sqlite.Store) error {
	rows, err := store.MonthlyTemperatureVariation(ctx)
	if err != nil {
		return err
	}
	fmt.Println("\n=== Average monthly temperature variation (max - min) ===")
	for _, r := range rows {
		fmt.Printf("  %-30s month %s  %6.2f°C\n", r.StationName, r.Month, r.AvgRange)
	}
	return nil
}

func printYoYChange(ctx context.Context, store *sqlite.Store) error {
	rows, err := store.YoYTemperatureChange(ctx)
	if err != nil {
		return err
	}
	fmt.Println("\n=== Average year-over-year temperature change by month ===")
	for _, r := range rows {
		fmt.Printf("  %-30s month %s  %+6.2f°C\n", r.StationName, r.Month, r.AvgChange)
	}
	return nil
}

func printExtremes(ctx context.Context, store *sqlite.Store) error {
	hottest, err := store.HottestMonths(ctx, extremeLimit)
	if err != nil {
		return err
	}
	fmt.Printf("\n=== Top %d hottest station-months ===\n", extremeLimit)
	for _, r := range hottest {
		fmt.Printf("  %-30s %s  %6.2f°C\n", r.StationName, r.DateMonth, r.Celsius)
	}

	coldest, err := store.ColdestMonths(ctx, extremeLimit)
	if err != nil {
		return err
	}
	fmt.Printf("\n=== Top %d coldest station-months ===\n", extremeLimit)
	for _, r := range coldest {
		fmt.Printf("  %-30s %s  %6.2f°C\n", r.StationName, r.DateMonth, r.Celsius)
	}
	return nil
}
