package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"weather-station-etl/internal/domain"
	"weather-station-etl/internal/observability"
)

// RecordExtractor produces the raw daily-record table for one run.
type RecordExtractor interface {
	ExtractRecords(ctx context.Context) ([]domain.DailyRecord, error)
}

// MetadataProvider produces the station reference dimension.
type MetadataProvider interface {
	StationMetadata(ctx context.Context) ([]domain.StationMetadata, error)
}

// AggregateLoader writes the final station-month table to a sink.
type AggregateLoader interface {
	LoadAggregates(ctx context.Context, aggregates []domain.MonthlyAggregate) error
}

// RunSummary describes the most recent successful pipeline run. It backs the
// readiness endpoint so operators can see what the service last produced.
type RunSummary struct {
	CompletedAt   time.Time `json:"completed_at"`
	Records       int       `json:"records"`
	StationMonths int       `json:"station_months"`
}

// Pipeline orchestrates one batch run: extract, validate, join, aggregate,
// compute year-over-year deltas, and load the result into every sink.
//
// Each stage is a pure function of its input, so a run that fails partway can
// simply be repeated; there is no partial state to clean up.
type Pipeline struct {
	extractor   RecordExtractor
	metadata    MetadataProvider
	loaders     []AggregateLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	validateCfg domain.ValidateConfig
	lastRun     atomic.Pointer[RunSummary]
}

// New creates a Pipeline with the given stages, sinks, and observability.
func New(e RecordExtractor, m MetadataProvider, loaders []AggregateLoader, validateCfg domain.ValidateConfig, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor:   e,
		metadata:    m,
		loaders:     loaders,
		logger:      logger,
		metrics:     metrics,
		validateCfg: validateCfg,
	}
}

// CheckReadiness returns nil once at least one run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.lastRun.Load() == nil {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LastRun returns the summary of the most recent successful run, if any.
func (p *Pipeline) LastRun() (RunSummary, bool) {
	if s := p.lastRun.Load(); s != nil {
		return *s, true
	}
	return RunSummary{}, false
}

// Run executes one full batch run. Data-quality findings are logged and
// counted but never abort the run; structural errors (duplicate keys, schema
// violations, metadata conflicts) do, before any statistics are computed
// over corrupt data.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	summary, err := p.run(ctx)
	if err != nil {
		p.metrics.PipelineRuns.WithLabelValues("error").Inc()
		return err
	}

	p.metrics.PipelineRuns.WithLabelValues("success").Inc()
	p.metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	summary.CompletedAt = time.Now()
	p.lastRun.Store(&summary)
	return nil
}

func (p *Pipeline) run(ctx context.Context) (RunSummary, error) {
	records, err := p.extractor.ExtractRecords(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("extract records: %w", err)
	}
	p.metrics.RecordsExtracted.Add(float64(len(records)))

	metadata, err := p.metadata.StationMetadata(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("load station metadata: %w", err)
	}
	p.logger.Info("tables loaded", "daily_records", len(records), "metadata_rows", len(metadata))

	report, err := domain.Validate(records, p.validateCfg)
	if err != nil {
		return RunSummary{}, fmt.Errorf("validate records: %w", err)
	}
	p.logValidation(report)

	enriched, joinReport, err := domain.Join(records, metadata)
	if err != nil {
		return RunSummary{}, fmt.Errorf("join station metadata: %w", err)
	}
	p.logJoin(joinReport)

	aggregates, err := domain.Aggregate(enriched)
	if err != nil {
		return RunSummary{}, fmt.Errorf("aggregate monthly: %w", err)
	}

	aggregates = domain.ComputeYoY(aggregates)
	p.metrics.AggregatesProduced.Add(float64(len(aggregates)))
	p.logger.Info("monthly aggregation complete", "station_months", len(aggregates))

	for _, loader := range p.loaders {
		if err := loader.LoadAggregates(ctx, aggregates); err != nil {
			return RunSummary{}, fmt.Errorf("load aggregates: %w", err)
		}
	}
	return RunSummary{Records: len(records), StationMonths: len(aggregates)}, nil
}

func (p *Pipeline) logValidation(report domain.ValidationReport) {
	p.metrics.NullTemperatures.Add(float64(report.NullTemperatures))
	p.metrics.OutliersDetected.Add(float64(len(report.Outliers)))
	p.metrics.MissingDays.Add(float64(len(report.MissingDays)))

	if !report.HasFindings() {
		p.logger.Info("validation clean", "records", report.RecordCount)
		return
	}

	p.logger.Warn("validation findings",
		"records", report.RecordCount,
		"null_temperatures", report.NullTemperatures,
		"outliers", len(report.Outliers),
		"missing_days", len(report.MissingDays),
	)
	for _, o := range report.Outliers {
		p.logger.Warn("temperature outlier",
			"station_id", o.StationID,
			"date", o.Date.Format("2006-01-02"),
			"temperature", o.Temperature,
			"station_mean", o.StationMean,
			"station_stddev", o.StationStd,
		)
	}
	for _, m := range report.MissingDays {
		p.logger.Warn("missing day",
			"station_id", m.StationID,
			"date", m.Date.Format("2006-01-02"),
		)
	}
}

func (p *Pipeline) logJoin(report domain.JoinReport) {
	p.metrics.UnmatchedStations.Add(float64(len(report.UnmatchedStations)))
	p.metrics.UnmatchedRecords.Add(float64(report.UnmatchedRecords))

	for _, station := range report.UnmatchedStations {
		p.logger.Warn("station missing from reference metadata", "station_id", station)
	}
}
