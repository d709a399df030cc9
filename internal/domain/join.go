package domain

import "sort"

// Join left-joins daily records onto station metadata by normalized station
// identifier. Records whose station has no metadata row are retained with nil
// metadata and reported in the JoinReport; real measurements never silently
// disappear because the reference table is incomplete.
//
// A duplicate identifier in the metadata table violates the dimension's
// uniqueness invariant and returns a *DuplicateKeyError.
func Join(records []DailyRecord, metadata []StationMetadata) ([]EnrichedRecord, JoinReport, error) {
	byID := make(map[string]*StationMetadata, len(metadata))
	for i := range metadata {
		id := NormalizeStationID(metadata[i].ClimateID)
		if _, ok := byID[id]; ok {
			return nil, JoinReport{}, &DuplicateKeyError{Table: "station_metadata", StationID: metadata[i].ClimateID}
		}
		byID[id] = &metadata[i]
	}

	enriched := make([]EnrichedRecord, 0, len(records))
	unmatched := make(map[string]struct{})
	report := JoinReport{}

	for _, rec := range records {
		meta := byID[NormalizeStationID(rec.StationID)]
		if meta == nil {
			unmatched[NormalizeStationID(rec.StationID)] = struct{}{}
			report.UnmatchedRecords++
		}
		enriched = append(enriched, EnrichedRecord{DailyRecord: rec, Metadata: meta})
	}

	for id := range unmatched {
		report.UnmatchedStations = append(report.UnmatchedStations, id)
	}
	sort.Strings(report.UnmatchedStations)

	return enriched, report, nil
}
