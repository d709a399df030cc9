package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"weather-station-etl/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Extraction scope.
	StationIDs []string `envconfig:"STATION_IDS" default:"26953,31688"`
	Years      []int    `envconfig:"YEARS" default:"2023,2024"`

	// File locations. Raw station CSVs live in RawDataDir as
	// station_<id>_<year>.csv; the final table is written to
	// OutputDir/OutputFile.
	RawDataDir   string `envconfig:"RAW_DATA_DIR" default:"raw_data"`
	OutputDir    string `envconfig:"OUTPUT_DIR" default:"output"`
	OutputFile   string `envconfig:"OUTPUT_FILE" default:"weather_station_monthly.csv"`
	GeonamesFile string `envconfig:"GEONAMES_FILE" default:"geonames.csv"`

	// Climate API extraction. When disabled, raw records are read from
	// RawDataDir instead of being fetched.
	FetchEnabled   bool          `envconfig:"FETCH_ENABLED" default:"false"`
	ClimateBaseURL string        `envconfig:"CLIMATE_BASE_URL" default:"https://climate.weather.gc.ca/climate_data/bulk_data_e.html"`
	FetchTimeout   time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`
	FetchRateLimit float64       `envconfig:"FETCH_RATE_LIMIT" default:"1"` // requests per second

	// Validation policies.
	OutlierStdDevThreshold float64 `envconfig:"OUTLIER_STDDEV_THRESHOLD" default:"3.0"`
	DateRangePolicy        string  `envconfig:"DATE_RANGE_POLICY" default:"observed"`

	// Optional sinks.
	SQLitePath     string   `envconfig:"SQLITE_PATH" default:""`
	KafkaEnabled   bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	KafkaBrokers   []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaSinkTopic string   `envconfig:"KAFKA_SINK_TOPIC" default:"weather-station-monthly"`

	// Service plumbing.
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
	RunInterval     time.Duration `envconfig:"RUN_INTERVAL" default:"24h"` // 0 = run once and exit
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads configuration from environment variables, applying defaults
// where unset, and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.StationIDs) == 0 {
		return errors.New("STATION_IDS is required")
	}
	if len(c.Years) == 0 {
		return errors.New("YEARS is required")
	}
	if c.OutlierStdDevThreshold <= 0 {
		return errors.New("OUTLIER_STDDEV_THRESHOLD must be positive")
	}
	switch domain.DateRangePolicy(c.DateRangePolicy) {
	case domain.DateRangeObserved, domain.DateRangeFullYear:
	default:
		return fmt.Errorf("invalid DATE_RANGE_POLICY %q (want %q or %q)",
			c.DateRangePolicy, domain.DateRangeObserved, domain.DateRangeFullYear)
	}
	if c.FetchEnabled {
		if c.ClimateBaseURL == "" {
			return errors.New("FETCH_ENABLED is true but CLIMATE_BASE_URL is not set")
		}
		if c.FetchRateLimit <= 0 {
			return errors.New("FETCH_RATE_LIMIT must be positive")
		}
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
		}
		if c.KafkaSinkTopic == "" {
			return errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is not set")
		}
	}
	if c.RunInterval < 0 {
		return errors.New("RUN_INTERVAL must not be negative")
	}
	return nil
}

// ValidateConfig derives the domain validation policies from the service
// configuration.
func (c *Config) ValidateConfig() domain.ValidateConfig {
	return domain.ValidateConfig{
		OutlierStdDevThreshold: c.OutlierStdDevThreshold,
		DateRange:              domain.DateRangePolicy(c.DateRangePolicy),
	}
}
