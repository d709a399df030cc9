package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-station-etl/internal/adapter/csvfile"
	"weather-station-etl/internal/domain"
	"weather-station-etl/internal/observability"
)

type mockExtractor struct {
	records []domain.DailyRecord
	err     error
}

func (m *mockExtractor) ExtractRecords(_ context.Context) ([]domain.DailyRecord, error) {
	return m.records, m.err
}

type mockMetadata struct {
	metadata []domain.StationMetadata
	err      error
}

func (m *mockMetadata) StationMetadata(_ context.Context) ([]domain.StationMetadata, error) {
	return m.metadata, m.err
}

type captureLoader struct {
	got   []domain.MonthlyAggregate
	calls int
	err   error
}

func (l *captureLoader) LoadAggregates(_ context.Context, aggregates []domain.MonthlyAggregate) error {
	l.calls++
	l.got = aggregates
	return l.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func rec(station string, date time.Time, temp float64) domain.DailyRecord {
	return domain.DailyRecord{StationID: station, Date: date, Temperature: &temp}
}

func ottawaMetadata() []domain.StationMetadata {
	return []domain.StationMetadata{{
		ClimateID:   "26953",
		StationName: "OTTAWA INTL A",
		Latitude:    45.32,
		Longitude:   -75.67,
		FeatureID:   "FEAOBGN",
		Map:         "031G",
	}}
}

func newTestPipeline(e RecordExtractor, m MetadataProvider, loaders ...AggregateLoader) *Pipeline {
	return New(e, m, loaders, domain.DefaultValidateConfig(), testLogger(), observability.NewMetricsForTesting())
}

func TestRunHappyPath(t *testing.T) {
	extractor := &mockExtractor{records: []domain.DailyRecord{
		rec("26953", day(2022, time.January, 1), -10),
		rec("26953", day(2022, time.January, 2), -12),
		rec("26953", day(2023, time.January, 1), -4),
		rec("26953", day(2023, time.January, 2), -6),
	}}
	loader := &captureLoader{}
	p := newTestPipeline(extractor, &mockMetadata{metadata: ottawaMetadata()}, loader)

	require.NoError(t, p.Run(t.Context()))
	require.Equal(t, 1, loader.calls)
	require.Len(t, loader.got, 2)

	jan2022, jan2023 := loader.got[0], loader.got[1]
	assert.Equal(t, domain.YearMonth{Year: 2022, Month: time.January}, jan2022.Month)
	require.NotNil(t, jan2022.TemperatureAvg)
	assert.Equal(t, -11.0, *jan2022.TemperatureAvg)
	assert.Nil(t, jan2022.TemperatureYoYAvg, "first year has no prior comparison")

	require.NotNil(t, jan2023.TemperatureYoYAvg)
	assert.Equal(t, 6.0, *jan2023.TemperatureYoYAvg)

	require.NotNil(t, jan2023.Metadata)
	assert.Equal(t, "OTTAWA INTL A", jan2023.Metadata.StationName)
}

func TestRunLoadsEverySink(t *testing.T) {
	extractor := &mockExtractor{records: []domain.DailyRecord{
		rec("26953", day(2023, time.January, 1), -4),
	}}
	first, second := &captureLoader{}, &captureLoader{}
	p := newTestPipeline(extractor, &mockMetadata{metadata: ottawaMetadata()}, first, second)

	require.NoError(t, p.Run(t.Context()))
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, first.got, second.got)
}

func TestRunIsIdempotent(t *testing.T) {
	extractor := &mockExtractor{records: []domain.DailyRecord{
		rec("26953", day(2022, time.June, 1), 15),
		rec("26953", day(2022, time.June, 2), 17),
		rec("26953", day(2023, time.June, 1), 18),
	}}
	loader := &captureLoader{}
	p := newTestPipeline(extractor, &mockMetadata{metadata: ottawaMetadata()}, loader)

	require.NoError(t, p.Run(t.Context()))
	var first bytes.Buffer
	require.NoError(t, csvfile.WriteMonthlyAggregates(&first, loader.got))

	require.NoError(t, p.Run(t.Context()))
	var second bytes.Buffer
	require.NoError(t, csvfile.WriteMonthlyAggregates(&second, loader.got))

	assert.Equal(t, first.Bytes(), second.Bytes(), "same input produces byte-identical output")
}

func TestRunEmptyInput(t *testing.T) {
	loader := &captureLoader{}
	p := newTestPipeline(&mockExtractor{}, &mockMetadata{}, loader)

	require.NoError(t, p.Run(t.Context()))
	assert.Equal(t, 1, loader.calls)
	assert.Empty(t, loader.got)
}

func TestRunHaltsOnDuplicateRecords(t *testing.T) {
	extractor := &mockExtractor{records: []domain.DailyRecord{
		rec("26953", day(2023, time.January, 1), -4),
		rec("26953", day(2023, time.January, 1), -5),
	}}
	loader := &captureLoader{}
	p := newTestPipeline(extractor, &mockMetadata{metadata: ottawaMetadata()}, loader)

	err := p.Run(t.Context())
	var dupErr *domain.DuplicateKeyError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, 0, loader.calls, "no sink is written after a structural error")
}

func TestRunHaltsOnExtractError(t *testing.T) {
	p := newTestPipeline(&mockExtractor{err: errors.New("bulk service down")}, &mockMetadata{}, &captureLoader{})

	err := p.Run(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extract records")
}

func TestRunPropagatesLoaderError(t *testing.T) {
	extractor := &mockExtractor{records: []domain.DailyRecord{
		rec("26953", day(2023, time.January, 1), -4),
	}}
	p := newTestPipeline(extractor, &mockMetadata{metadata: ottawaMetadata()}, &captureLoader{err: errors.New("disk full")})

	err := p.Run(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load aggregates")
}

func TestCheckReadiness(t *testing.T) {
	p := newTestPipeline(&mockExtractor{}, &mockMetadata{}, &captureLoader{})

	require.Error(t, p.CheckReadiness(t.Context()), "not ready before the first run")
	require.NoError(t, p.Run(t.Context()))
	assert.NoError(t, p.CheckReadiness(t.Context()))
}

func TestLastRun(t *testing.T) {
	extractor := &mockExtractor{records: []domain.DailyRecord{
		rec("26953", day(2023, time.January, 1), -4),
		rec("26953", day(2023, time.January, 2), -6),
		rec("26953", day(2023, time.February, 1), -2),
	}}
	p := newTestPipeline(extractor, &mockMetadata{metadata: ottawaMetadata()}, &captureLoader{})

	_, ok := p.LastRun()
	assert.False(t, ok, "no summary before the first run")

	require.NoError(t, p.Run(t.Context()))

	summary, ok := p.LastRun()
	require.True(t, ok)
	assert.Equal(t, 3, summary.Records)
	assert.Equal(t, 2, summary.StationMonths)
	assert.False(t, summary.CompletedAt.IsZero())
}

func TestLastRunUnsetAfterFailedRun(t *testing.T) {
	p := newTestPipeline(&mockExtractor{err: errors.New("boom")}, &mockMetadata{}, &captureLoader{})

	require.Error(t, p.Run(t.Context()))
	_, ok := p.LastRun()
	assert.False(t, ok)
}

func TestCheckReadinessStaysFalseAfterFailedRun(t *testing.T) {
	p := newTestPipeline(&mockExtractor{err: errors.New("boom")}, &mockMetadata{}, &captureLoader{})

	require.Error(t, p.Run(t.Context()))
	assert.Error(t, p.CheckReadiness(t.Context()))
}
