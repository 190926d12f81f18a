package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/analysis"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/attribution"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/correlate"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/geo"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/ratio"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/windrose"
)

// Config holds all service settings, populated from environment variables
// and an optional .env file.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// District registry.
	RegistryFile   string // empty uses the embedded Punjab registry
	NeighborK      int
	FireBoxDegrees float64

	// Analysis settings.
	MinSampleSize        int
	MaxLagDays           int
	WindSectors          int
	WindSpeedBands       []windrose.SpeedBand
	RatioCombustionAbove float64
	RatioDustBelow       float64
	AttributionLagDays   int
	AnalysisWindow       time.Duration
	AnalysisInterval     time.Duration
	AnalysisWorkers      int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}
	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "district-observations"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "smog-analysis-reports"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "smog-correlation-engine"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		RegistryFile:       sharedcfg.EnvOrDefault("REGISTRY_FILE", ""),
	}

	var p parser
	cfg.NeighborK = p.positiveIntOr("NEIGHBOR_K", geo.DefaultNeighborK)
	cfg.FireBoxDegrees = p.positiveFloatOr("FIRE_BOX_DEGREES", geo.DefaultFireBoxDegrees)
	cfg.MinSampleSize = p.positiveIntOr("MIN_SAMPLE_SIZE", correlate.DefaultConfig().MinSampleSize)
	cfg.MaxLagDays = p.intOr("MAX_LAG_DAYS", correlate.DefaultConfig().MaxLagDays)
	cfg.WindSectors = p.intOr("WIND_SECTORS", windrose.DefaultConfig().Sectors)
	cfg.RatioCombustionAbove = p.floatOr("RATIO_COMBUSTION_ABOVE", ratio.DefaultConfig().CombustionAbove)
	cfg.RatioDustBelow = p.floatOr("RATIO_DUST_BELOW", ratio.DefaultConfig().DustBelow)
	cfg.AttributionLagDays = p.intOr("ATTRIBUTION_LAG_DAYS", attribution.DefaultConfig().LagDays)
	cfg.AnalysisWindow = p.durationOr("ANALYSIS_WINDOW", 30*24*time.Hour)
	cfg.AnalysisInterval = p.durationOr("ANALYSIS_INTERVAL", 15*time.Minute)
	cfg.AnalysisWorkers = p.intOr("ANALYSIS_WORKERS", 0)
	if p.err != nil {
		return nil, p.err
	}

	cfg.WindSpeedBands, err = windrose.ParseBands(sharedcfg.EnvOrDefault("WIND_SPEED_BANDS", "calm:0,light:2,moderate:6,strong:12"))
	if err != nil {
		return nil, fmt.Errorf("invalid WIND_SPEED_BANDS: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if c.KafkaSourceTopic == "" {
		return errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if c.KafkaSinkTopic == "" {
		return errors.New("KAFKA_SINK_TOPIC is required")
	}
	if c.MinSampleSize < 2 {
		return errors.New("MIN_SAMPLE_SIZE must be at least 2")
	}
	if c.MaxLagDays < 0 {
		return errors.New("MAX_LAG_DAYS must not be negative")
	}
	if c.WindSectors != 8 && c.WindSectors != 16 {
		return errors.New("WIND_SECTORS must be 8 or 16")
	}
	if err := (windrose.Config{Sectors: c.WindSectors, Bands: c.WindSpeedBands}).Validate(); err != nil {
		return fmt.Errorf("invalid WIND_SPEED_BANDS: %w", err)
	}
	if c.RatioDustBelow < 0 || c.RatioCombustionAbove < c.RatioDustBelow {
		return errors.New("RATIO_DUST_BELOW must be between 0 and RATIO_COMBUSTION_ABOVE")
	}
	if c.AttributionLagDays < 0 || c.AttributionLagDays > c.MaxLagDays {
		return errors.New("ATTRIBUTION_LAG_DAYS must be between 0 and MAX_LAG_DAYS")
	}
	if c.AnalysisWindow < 24*time.Hour {
		return errors.New("ANALYSIS_WINDOW must cover at least one day")
	}
	if c.AnalysisInterval < time.Minute {
		return errors.New("ANALYSIS_INTERVAL must be at least 1m")
	}
	return nil
}

// Analysis returns the engine configuration.
func (c *Config) Analysis() analysis.Config {
	rc := ratio.DefaultConfig()
	rc.CombustionAbove = c.RatioCombustionAbove
	rc.DustBelow = c.RatioDustBelow
	if rc.MaxPlausible < rc.CombustionAbove {
		rc.MaxPlausible = rc.CombustionAbove
	}
	return analysis.Config{
		WindRose:    windrose.Config{Sectors: c.WindSectors, Bands: c.WindSpeedBands},
		Correlation: correlate.Config{MinSampleSize: c.MinSampleSize, MaxLagDays: c.MaxLagDays},
		Ratio:       rc,
		Attribution: attribution.Config{Neighbors: c.NeighborK, LagDays: c.AttributionLagDays},
		Workers:     c.AnalysisWorkers,
	}
}

// RegistrySource returns the configured district registry source.
func (c *Config) RegistrySource() geo.Source {
	if c.RegistryFile == "" {
		return geo.EmbeddedSource()
	}
	return geo.FileSource(c.RegistryFile)
}

// parser reads typed variables and keeps the first error.
type parser struct {
	err error
}

func (p *parser) fail(key, value string, cause error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %w", key, value, cause)
	}
}

func (p *parser) intOr(key string, def int) int {
	s := sharedcfg.EnvOrDefault(key, "")
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		p.fail(key, s, err)
		return def
	}
	return n
}

func (p *parser) positiveIntOr(key string, def int) int {
	n := p.intOr(key, def)
	if n <= 0 {
		p.fail(key, strconv.Itoa(n), errors.New("must be positive"))
	}
	return n
}

func (p *parser) floatOr(key string, def float64) float64 {
	s := sharedcfg.EnvOrDefault(key, "")
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.fail(key, s, err)
		return def
	}
	return v
}

func (p *parser) positiveFloatOr(key string, def float64) float64 {
	v := p.floatOr(key, def)
	if v <= 0 {
		p.fail(key, strconv.FormatFloat(v, 'g', -1, 64), errors.New("must be positive"))
	}
	return v
}

func (p *parser) durationOr(key string, def time.Duration) time.Duration {
	s := sharedcfg.EnvOrDefault(key, "")
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		p.fail(key, s, err)
		return def
	}
	return d
}
