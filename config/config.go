package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full engine configuration.
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	Observability ObservabilityConfig `yaml:"observability"`
	Standings     StandingsConfig     `yaml:"standings"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// ObservabilityConfig holds configuration for observability components.
type ObservabilityConfig struct {
	MetricsAddress  string  `yaml:"metrics_address"`
	Environment     string  `yaml:"environment"`
	TraceSampleRate float64 `yaml:"trace_sample_rate"`
}

// StandingsConfig tunes the recompute engine.
type StandingsConfig struct {
	// ThrottleInterval is the debounce window: a slate recomputed within
	// this interval is skipped silently.
	ThrottleInterval time.Duration `yaml:"throttle_interval"`
	// LockTTL bounds how long a recompute lease survives a crashed
	// worker before the slate becomes recomputable again.
	LockTTL time.Duration `yaml:"lock_ttl"`
	// ChronologyTTL bounds staleness of the per-season slate index cache.
	ChronologyTTL time.Duration `yaml:"chronology_ttl"`
	// PropBonusWeek is the first week at which prop picks score double.
	PropBonusWeek int `yaml:"prop_bonus_week"`
	// Cohort optionally restricts the global roster to a named cohort.
	// Empty means every eligible member; "-" disables the global roster
	// entirely (organic participation mode).
	Cohort string `yaml:"cohort"`
	// RecomputeDelay is how long the scheduler waits after an outcome
	// finalizes before enqueuing the recompute, to batch grading bursts.
	RecomputeDelay time.Duration `yaml:"recompute_delay"`
}

// LoadConfig loads the configuration from a YAML file, with environment
// variables taking precedence. A missing file falls back to env-only.
func LoadConfig(filename string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("TRACE_SAMPLE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Observability.TraceSampleRate = f
		}
	}
	if v := os.Getenv("STANDINGS_THROTTLE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Standings.ThrottleInterval = d
		}
	}
	if v := os.Getenv("STANDINGS_LOCK_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Standings.LockTTL = d
		}
	}
	if v := os.Getenv("STANDINGS_PROP_BONUS_WEEK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Standings.PropBonusWeek = n
		}
	}
	if v := os.Getenv("STANDINGS_COHORT"); v != "" {
		cfg.Standings.Cohort = v
	}

	cfg.applyDefaults()

	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("postgres DSN not configured (config file or DATABASE_URL)")
	}
	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("NATS URL not configured (config file or NATS_URL)")
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Standings.ThrottleInterval == 0 {
		c.Standings.ThrottleInterval = 10 * time.Second
	}
	if c.Standings.LockTTL == 0 {
		c.Standings.LockTTL = 60 * time.Second
	}
	if c.Standings.ChronologyTTL == 0 {
		c.Standings.ChronologyTTL = 30 * time.Second
	}
	if c.Standings.PropBonusWeek == 0 {
		c.Standings.PropBonusWeek = 12
	}
	if c.Standings.RecomputeDelay == 0 {
		c.Standings.RecomputeDelay = 5 * time.Second
	}
	if c.Observability.MetricsAddress == "" {
		c.Observability.MetricsAddress = ":9090"
	}
	if c.Observability.TraceSampleRate == 0 {
		c.Observability.TraceSampleRate = 0.1
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = "development"
	}
}

// GlobalRosterEnabled reports whether the engine runs roster-gated.
func (c *StandingsConfig) GlobalRosterEnabled() bool {
	return c.Cohort != "-"
}

// CohortFilter returns the cohort restriction, or nil for the whole
// eligible membership.
func (c *StandingsConfig) CohortFilter() *string {
	if c.Cohort == "" || c.Cohort == "-" {
		return nil
	}
	cohort := c.Cohort
	return &cohort
}
