// Package config loads the YAML configuration shared by every command,
// applies RS_* environment overrides on top and validates the result.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	CORS      CORSConfig      `yaml:"cors"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	DocumentSubmitted string `yaml:"documentSubmitted"`
	ScoreEvents       string `yaml:"scoreEvents"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// ScoringConfig bounds request sizes and controls how documents are
// measured.
type ScoringConfig struct {
	MaxBodyLength     int           `yaml:"maxBodyLength"`
	MaxChunks         int           `yaml:"maxChunks"`
	Workers           int           `yaml:"workers"`
	Normalize         bool          `yaml:"normalize"`
	RequestTimeout    time.Duration `yaml:"requestTimeout"`
	SnapshotEvery     time.Duration `yaml:"snapshotEvery"`
	SnapshotRetention time.Duration `yaml:"snapshotRetention"`
}

// RateLimitConfig sets the per-client request budget. Zero disables it.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requestsPerMinute"`
}

// CORSConfig lists the origins allowed to call the HTTP API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig controls span logging.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	SampleRate float64 `yaml:"sampleRate"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load starts from Default, merges the file at path when path is not
// empty, then applies the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config with defaults for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "readability",
			User:            "readability",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "readability-group",
			Topics: KafkaTopics{
				DocumentSubmitted: "document-submitted",
				ScoreEvents:       "score-events",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 10 * time.Minute,
		},
		Scoring: ScoringConfig{
			MaxBodyLength:     1 << 20,
			MaxChunks:         1000,
			Workers:           4,
			Normalize:         true,
			RequestTimeout:    10 * time.Second,
			SnapshotEvery:     time.Minute,
			SnapshotRetention: 7 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 600,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Scoring.MaxBodyLength <= 0 {
		return fmt.Errorf("scoring.maxBodyLength must be positive, got %d", c.Scoring.MaxBodyLength)
	}
	if c.Scoring.MaxChunks <= 0 {
		return fmt.Errorf("scoring.maxChunks must be positive, got %d", c.Scoring.MaxChunks)
	}
	if c.Scoring.SnapshotEvery <= 0 {
		return fmt.Errorf("scoring.snapshotEvery must be positive, got %v", c.Scoring.SnapshotEvery)
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		return fmt.Errorf("rateLimit.requestsPerMinute must not be negative, got %d", c.RateLimit.RequestsPerMinute)
	}
	return nil
}

// envOverrides maps RS_* variables to the fields they replace. Values that
// fail to parse are ignored.
func envOverrides(cfg *Config) map[string]func(string) {
	return map[string]func(string){
		"RS_SERVER_PORT":        intVar(&cfg.Server.Port),
		"RS_POSTGRES_HOST":      stringVar(&cfg.Postgres.Host),
		"RS_POSTGRES_PORT":      intVar(&cfg.Postgres.Port),
		"RS_POSTGRES_DATABASE":  stringVar(&cfg.Postgres.Database),
		"RS_POSTGRES_USER":      stringVar(&cfg.Postgres.User),
		"RS_POSTGRES_PASSWORD":  stringVar(&cfg.Postgres.Password),
		"RS_POSTGRES_SSLMODE":   stringVar(&cfg.Postgres.SSLMode),
		"RS_KAFKA_BROKERS":      listVar(&cfg.Kafka.Brokers),
		"RS_REDIS_ADDR":         stringVar(&cfg.Redis.Addr),
		"RS_REDIS_PASSWORD":     stringVar(&cfg.Redis.Password),
		"RS_SCORING_WORKERS":    intVar(&cfg.Scoring.Workers),
		"RS_SCORING_NORMALIZE":  boolVar(&cfg.Scoring.Normalize),
		"RS_RATELIMIT_RPM":      intVar(&cfg.RateLimit.RequestsPerMinute),
		"RS_CORS_ORIGINS":       listVar(&cfg.CORS.AllowedOrigins),
		"RS_METRICS_PORT":       intVar(&cfg.Metrics.Port),
		"RS_LOGGING_LEVEL":      stringVar(&cfg.Logging.Level),
		"RS_LOGGING_FORMAT":     stringVar(&cfg.Logging.Format),
		"RS_TRACING_ENABLED":    boolVar(&cfg.Tracing.Enabled),
		"RS_TRACING_SAMPLERATE": floatVar(&cfg.Tracing.SampleRate),
	}
}

func applyEnvOverrides(cfg *Config) {
	for name, set := range envOverrides(cfg) {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			set(v)
		}
	}
}

func stringVar(dst *string) func(string) {
	return func(v string) { *dst = v }
}

func listVar(dst *[]string) func(string) {
	return func(v string) { *dst = strings.Split(v, ",") }
}

func intVar(dst *int) func(string) {
	return func(v string) {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func boolVar(dst *bool) func(string) {
	return func(v string) {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func floatVar(dst *float64) func(string) {
	return func(v string) {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
