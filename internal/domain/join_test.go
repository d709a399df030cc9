package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ottawaMeta = StationMetadata{
	ClimateID:   "26953",
	StationName: "OTTAWA INTL A",
	Latitude:    45.32,
	Longitude:   -75.67,
	FeatureID:   "FEAOBGN",
	Map:         "031G",
}

func TestJoin_MatchedStation(t *testing.T) {
	records := []DailyRecord{
		rec("26953", day(2023, time.January, 1), temp(-5)),
	}

	enriched, report, err := Join(records, []StationMetadata{ottawaMeta})
	require.NoError(t, err)

	require.Len(t, enriched, 1)
	require.NotNil(t, enriched[0].Metadata)
	assert.Equal(t, "OTTAWA INTL A", enriched[0].Metadata.StationName)
	assert.Equal(t, 45.32, enriched[0].Metadata.Latitude)
	assert.Empty(t, report.UnmatchedStations)
	assert.Zero(t, report.UnmatchedRecords)
}

func TestJoin_UnmatchedStationRetained(t *testing.T) {
	records := []DailyRecord{
		rec("99999", day(2023, time.January, 1), temp(2)),
		rec("99999", day(2023, time.January, 2), temp(3)),
	}

	enriched, report, err := Join(records, []StationMetadata{ottawaMeta})
	require.NoError(t, err)

	// Unmatched measurements stay in the output with null metadata;
	// the condition is reported, not fatal.
	require.Len(t, enriched, 2)
	assert.Nil(t, enriched[0].Metadata)
	assert.Nil(t, enriched[1].Metadata)
	assert.Equal(t, []string{"99999"}, report.UnmatchedStations)
	assert.Equal(t, 2, report.UnmatchedRecords)
}

func TestJoin_KeyNormalization(t *testing.T) {
	// Zero-padded and whitespace-wrapped identifiers must still match:
	// mismatched representations are a classic silent-join failure.
	records := []DailyRecord{
		rec(" 26953 ", day(2023, time.January, 1), temp(1)),
		rec("026953", day(2023, time.January, 2), temp(2)),
	}

	enriched, report, err := Join(records, []StationMetadata{ottawaMeta})
	require.NoError(t, err)

	require.Len(t, enriched, 2)
	assert.NotNil(t, enriched[0].Metadata)
	assert.NotNil(t, enriched[1].Metadata)
	assert.Zero(t, report.UnmatchedRecords)
}

func TestJoin_DuplicateMetadata(t *testing.T) {
	dup := ottawaMeta
	dup.StationName = "OTTAWA INTL A (COPY)"

	_, _, err := Join(nil, []StationMetadata{ottawaMeta, dup})
	require.Error(t, err)

	var dke *DuplicateKeyError
	require.ErrorAs(t, err, &dke)
	assert.Equal(t, "station_metadata", dke.Table)
	assert.Equal(t, "26953", dke.StationID)
}

func TestJoin_EmptyInputs(t *testing.T) {
	enriched, report, err := Join(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, enriched)
	assert.Empty(t, report.UnmatchedStations)
}

func TestNormalizeStationID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "26953", "26953"},
		{"leading zeros", "026953", "26953"},
		{"surrounding whitespace", " 26953 ", "26953"},
		{"all zeros", "000", "0"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeStationID(tt.input))
		})
	}
}
