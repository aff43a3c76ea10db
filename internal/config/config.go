// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Harvester HarvesterConfig `mapstructure:"harvester"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Sink      SinkConfig      `mapstructure:"sink"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls the metrics/health HTTP listener.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// HarvesterConfig governs traversal behavior.
type HarvesterConfig struct {
	BaseURL              string `mapstructure:"base_url"`
	CountryAreaCode      string `mapstructure:"country_area_code"`
	PerPage              int    `mapstructure:"per_page"`
	MaxConcurrentFetches int    `mapstructure:"max_concurrent_fetches"`
	ShuffleAreas         bool   `mapstructure:"shuffle_areas"`
	UserAgent            string `mapstructure:"user_agent"`
}

// HTTPConfig configures HTTP client timeout, retry and rate limit behavior.
type HTTPConfig struct {
	TimeoutSeconds   int     `mapstructure:"timeout_seconds"`
	MaxRetries       int     `mapstructure:"max_retries"`
	BackoffInitialMs int     `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int     `mapstructure:"backoff_max_ms"`
	RateLimitRPS     float64 `mapstructure:"rate_limit_rps"`
	RateBurst        int     `mapstructure:"rate_burst"`
}

// SinkConfig selects and configures the persistence backend.
type SinkConfig struct {
	Provider string         `mapstructure:"provider"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Badger   BadgerConfig   `mapstructure:"badger"`
}

// PostgresConfig controls access to the relational document table.
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// BadgerConfig locates the embedded store.
type BadgerConfig struct {
	Path string `mapstructure:"path"`
}

// PubSubConfig holds metadata for persisted-record notifications.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HARVESTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("harvester.base_url", "https://api.hh.ru")
	v.SetDefault("harvester.country_area_code", "113")
	v.SetDefault("harvester.per_page", 100)
	v.SetDefault("harvester.max_concurrent_fetches", 8)
	v.SetDefault("harvester.shuffle_areas", true)
	v.SetDefault("harvester.user_agent", "vacancy-harvester/0.1")
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_initial_ms", 250)
	v.SetDefault("http.backoff_max_ms", 5000)
	v.SetDefault("http.rate_limit_rps", 0)
	v.SetDefault("http.rate_burst", 1)
	v.SetDefault("sink.provider", "memory")
	v.SetDefault("sink.postgres.table", "vacancies")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Harvester.MaxConcurrentFetches <= 0 {
		return fmt.Errorf("harvester.max_concurrent_fetches must be > 0")
	}
	if c.Harvester.PerPage <= 0 || c.Harvester.PerPage > 100 {
		return fmt.Errorf("harvester.per_page must be in 1..100")
	}
	if c.Harvester.CountryAreaCode == "" {
		return fmt.Errorf("harvester.country_area_code must be set")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	switch c.Sink.Provider {
	case "memory":
	case "postgres":
		if c.Sink.Postgres.DSN == "" {
			return fmt.Errorf("sink.postgres.dsn must be set when sink.provider is postgres")
		}
	case "badger":
		if c.Sink.Badger.Path == "" {
			return fmt.Errorf("sink.badger.path must be set when sink.provider is badger")
		}
	default:
		return fmt.Errorf("unknown sink provider %q", c.Sink.Provider)
	}
	if c.PubSub.Enabled && (c.PubSub.ProjectID == "" || c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set when pubsub is enabled")
	}
	return nil
}

// HTTPTimeout converts the timeout config into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// BackoffInitial converts the initial backoff config into a duration.
func (c Config) BackoffInitial() time.Duration {
	return time.Duration(c.HTTP.BackoffInitialMs) * time.Millisecond
}

// BackoffMax converts the max backoff config into a duration.
func (c Config) BackoffMax() time.Duration {
	return time.Duration(c.HTTP.BackoffMaxMs) * time.Millisecond
}
