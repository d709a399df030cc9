package domain

import (
	"fmt"
	"time"
)

// SchemaError reports a structurally invalid input table: a required column
// is absent or a field cannot be parsed into its declared type. It is fatal
// to the stage that detects it.
type SchemaError struct {
	Source string // which table or file was malformed
	Detail string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error in %s: %s", e.Source, e.Detail)
}

// DuplicateKeyError reports a violated uniqueness invariant: more than one
// daily record for a (station, date) pair, or more than one metadata row for
// a station identifier.
type DuplicateKeyError struct {
	Table     string // "daily_records" or "station_metadata"
	StationID string
	Date      time.Time // zero for metadata duplicates
}

func (e *DuplicateKeyError) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("duplicate key in %s: station %s", e.Table, e.StationID)
	}
	return fmt.Sprintf("duplicate key in %s: station %s, date %s",
		e.Table, e.StationID, e.Date.Format("2006-01-02"))
}

// MetadataConflictError reports differing metadata values inside a single
// aggregation group. A station cannot change its reference attributes
// mid-month; this indicates a join defect and is surfaced rather than
// resolved by picking an arbitrary value.
type MetadataConflictError struct {
	StationID string
	Month     YearMonth
}

func (e *MetadataConflictError) Error() string {
	return fmt.Sprintf("conflicting station metadata within group %s/%s", e.StationID, e.Month)
}
