package sqlite

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-station-etl/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func monthly(station, name string, year int, month int, avg, min, max, yoy *float64) domain.MonthlyAggregate {
	agg := domain.MonthlyAggregate{
		StationID:         station,
		Month:             domain.YearMonth{Year: year, Month: time.Month(month)},
		TemperatureAvg:    avg,
		TemperatureMin:    min,
		TemperatureMax:    max,
		TemperatureYoYAvg: yoy,
	}
	if name != "" {
		agg.Metadata = &domain.StationMetadata{ClimateID: station, StationName: name}
	}
	return agg
}

func TestLoadAggregatesAndQuery(t *testing.T) {
	store := newTestStore(t)

	aggs := []domain.MonthlyAggregate{
		monthly("26953", "OTTAWA", 2022, 1, ptr(-10), ptr(-25), ptr(-1), nil),
		monthly("26953", "OTTAWA", 2022, 7, ptr(21), ptr(12), ptr(33), nil),
		monthly("26953", "OTTAWA", 2023, 1, ptr(-4), ptr(-18), ptr(3), ptr(6)),
		monthly("26953", "OTTAWA", 2023, 7, ptr(23), ptr(14), ptr(35), ptr(2)),
		monthly("10999", "TORONTO", 2023, 1, ptr(-2), ptr(-12), ptr(5), nil),
	}
	require.NoError(t, store.LoadAggregates(t.Context(), aggs))

	t.Run("average temperature by station and year", func(t *testing.T) {
		rows, err := store.AvgTemperatureByStationYear(t.Context())
		require.NoError(t, err)
		require.Len(t, rows, 3)

		assert.Equal(t, StationYearAvg{StationName: "OTTAWA", Year: "2022", AvgCelsius: 5.5}, rows[0])
		assert.Equal(t, StationYearAvg{StationName: "OTTAWA", Year: "2023", AvgCelsius: 9.5}, rows[1])
		assert.Equal(t, StationYearAvg{StationName: "TORONTO", Year: "2023", AvgCelsius: -2}, rows[2])
	})

	t.Run("monthly temperature variation", func(t *testing.T) {
		rows, err := store.MonthlyTemperatureVariation(t.Context())
		require.NoError(t, err)
		require.Len(t, rows, 3)

		// OTTAWA January: (24 + 21) / 2
		assert.Equal(t, MonthVariation{StationName: "OTTAWA", Month: "01", AvgRange: 22.5}, rows[0])
		assert.Equal(t, MonthVariation{StationName: "OTTAWA", Month: "07", AvgRange: 21}, rows[1])
	})

	t.Run("year over year change", func(t *testing.T) {
		rows, err := store.YoYTemperatureChange(t.Context())
		require.NoError(t, err)
		require.Len(t, rows, 2, "rows without a prior-year comparison are skipped")

		assert.Equal(t, MonthYoYChange{StationName: "OTTAWA", Month: "01", AvgChange: 6}, rows[0])
		assert.Equal(t, MonthYoYChange{StationName: "OTTAWA", Month: "07", AvgChange: 2}, rows[1])
	})

	t.Run("hottest months", func(t *testing.T) {
		rows, err := store.HottestMonths(t.Context(), 2)
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, ExtremeMonth{StationName: "OTTAWA", DateMonth: "2023-07", Celsius: 35}, rows[0])
		assert.Equal(t, ExtremeMonth{StationName: "OTTAWA", DateMonth: "2022-07", Celsius: 33}, rows[1])
	})

	t.Run("coldest months", func(t *testing.T) {
		rows, err := store.ColdestMonths(t.Context(), 1)
		require.NoError(t, err)
		require.Len(t, rows, 1)

		assert.Equal(t, ExtremeMonth{StationName: "OTTAWA", DateMonth: "2022-01", Celsius: -25}, rows[0])
	})
}

func TestLoadAggregatesReplacesExistingTable(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.LoadAggregates(t.Context(), []domain.MonthlyAggregate{
		monthly("26953", "OTTAWA", 2022, 1, ptr(-10), ptr(-25), ptr(-1), nil),
		monthly("26953", "OTTAWA", 2022, 2, ptr(-8), ptr(-20), ptr(0), nil),
	}))
	require.NoError(t, store.LoadAggregates(t.Context(), []domain.MonthlyAggregate{
		monthly("26953", "OTTAWA", 2023, 1, ptr(-4), ptr(-18), ptr(3), nil),
	}))

	rows, err := store.AvgTemperatureByStationYear(t.Context())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2023", rows[0].Year)
}

func TestLoadAggregatesNullStatistics(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.LoadAggregates(t.Context(), []domain.MonthlyAggregate{
		monthly("26953", "OTTAWA", 2023, 3, nil, nil, nil, nil),
	}))

	rows, err := store.AvgTemperatureByStationYear(t.Context())
	require.NoError(t, err)
	assert.Empty(t, rows, "all-null months contribute nothing to averages")
}

func TestLoadAggregatesUnmatchedStation(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.LoadAggregates(t.Context(), []domain.MonthlyAggregate{
		monthly("99999", "", 2023, 6, ptr(18), ptr(10), ptr(27), nil),
	}))

	rows, err := store.HottestMonths(t.Context(), 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].StationName)
	assert.Equal(t, 27.0, rows[0].Celsius)
}
