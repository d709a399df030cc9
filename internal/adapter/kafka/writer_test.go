package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-station-etl/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	avg := -6.5
	agg := domain.MonthlyAggregate{
		StationID: "26953",
		Month:     domain.YearMonth{Year: 2023, Month: 1},
		Metadata: &domain.StationMetadata{
			ClimateID:   "26953",
			StationName: "OTTAWA INTL A",
			Latitude:    45.32,
			Longitude:   -75.67,
			FeatureID:   "FEAOBGN",
			Map:         "031G",
		},
		TemperatureAvg: &avg,
	}

	msg, err := serializeToMessage(agg)
	require.NoError(t, err)

	assert.Equal(t, []byte("26953|2023-01"), msg.Key)
	assert.Contains(t, string(msg.Value), `"date_month":"2023-01"`)
	assert.Contains(t, string(msg.Value), `"temperature_celsius_avg":-6.5`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "station_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("26953"), msg.Headers[0].Value)
	assert.Equal(t, "date_month", msg.Headers[1].Key)
	assert.Equal(t, []byte("2023-01"), msg.Headers[1].Value)
}

func TestSerializeToMessageOmitsNullStatistics(t *testing.T) {
	agg := domain.MonthlyAggregate{
		StationID: "10999",
		Month:     domain.YearMonth{Year: 2022, Month: 7},
	}

	msg, err := serializeToMessage(agg)
	require.NoError(t, err)

	assert.Equal(t, []byte("10999|2022-07"), msg.Key)
	assert.NotContains(t, string(msg.Value), "temperature_celsius_avg")
	assert.NotContains(t, string(msg.Value), "metadata")
}
