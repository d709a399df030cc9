// Command genmock generates synthetic raw station CSVs and a matching
// geonames file for local pipeline runs and demos. Daily temperatures follow
// a seasonal sine curve with random noise, plus injected nulls, missing days,
// and the occasional extreme reading so the validation stages have something
// to find.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -output-dir raw_data \
//	  -geonames geonames.csv \
//	  -stations 26953,31688 \
//	  -years 2022,2023 \
//	  -seed 1
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	nullProbability    = 0.02
	missingProbability = 0.01
	outlierProbability = 0.003
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outputDir := flag.String("output-dir", "raw_data", "directory for generated station CSVs")
	geonames := flag.String("geonames", "geonames.csv", "path for the generated geonames CSV")
	stations := flag.String("stations", "26953,31688", "comma-separated station IDs")
	years := flag.String("years", "2022,2023", "comma-separated years")
	seed := flag.Int64("seed", 1, "random seed for reproducible fixtures")
	flag.Parse()

	stationIDs := strings.Split(*stations, ",")
	yearList, err := parseYears(*years)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for _, stationID := range stationIDs {
		// Per-station climate offset so stations are distinguishable.
		baseline := -5 + rng.Float64()*10
		for _, year := range yearList {
			path := filepath.Join(*outputDir, fmt.Sprintf("station_%s_%d.csv", stationID, year))
			rows := generateYear(rng, year, baseline)
			if err := writeStationCSV(path, rows); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			log.Printf("%s: %d rows", path, len(rows))
		}
	}

	if err := writeGeonames(*geonames, stationIDs, rng); err != nil {
		return fmt.Errorf("write geonames: %w", err)
	}
	log.Printf("wrote geonames: %s", *geonames)
	return nil
}

func parseYears(s string) ([]int, error) {
	var years []int
	for _, part := range strings.Split(s, ",") {
		y, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid year %q", part)
		}
		years = append(years, y)
	}
	return years, nil
}

type dailyRow struct {
	date string
	temp string // empty for null readings
}

// generateYear produces one row per calendar day, minus randomly dropped
// days. Temperatures follow a northern-hemisphere seasonal curve: coldest
// near the end of January, warmest near the end of July.
func generateYear(rng *rand.Rand, year int, baseline float64) []dailyRow {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	var rows []dailyRow
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if rng.Float64() < missingProbability {
			continue
		}

		row := dailyRow{date: d.Format("2006-01-02")}
		if rng.Float64() >= nullProbability {
			dayOfYear := float64(d.YearDay())
			seasonal := baseline - 15*math.Cos(2*math.Pi*(dayOfYear-28)/365)
			temp := seasonal + rng.NormFloat64()*3
			if rng.Float64() < outlierProbability {
				temp += 40 // sensor glitch
			}
			row.temp = strconv.FormatFloat(math.Round(temp*10)/10, 'f', 1, 64)
		}
		rows = append(rows, row)
	}
	return rows
}

func writeStationCSV(path string, rows []dailyRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Date/Time", "Year", "Month", "Day", "Mean Temp (°C)"}); err != nil {
		return err
	}
	for _, row := range rows {
		date, err := time.Parse("2006-01-02", row.date)
		if err != nil {
			return err
		}
		record := []string{
			row.date,
			strconv.Itoa(date.Year()),
			fmt.Sprintf("%02d", int(date.Month())),
			fmt.Sprintf("%02d", date.Day()),
			row.temp,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeGeonames(path string, stationIDs []string, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "name", "feature.id", "latitude", "longitude", "map"}); err != nil {
		return err
	}
	for i, stationID := range stationIDs {
		lat := 43 + rng.Float64()*10
		lon := -80 + rng.Float64()*8
		record := []string{
			stationID,
			fmt.Sprintf("MOCK STATION %s", stationID),
			fmt.Sprintf("FEMOCK%02d", i+1),
			strconv.FormatFloat(math.Round(lat*100)/100, 'f', 2, 64),
			strconv.FormatFloat(math.Round(lon*100)/100, 'f', 2, 64),
			fmt.Sprintf("%03dG", 30+i),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
