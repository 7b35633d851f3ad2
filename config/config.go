// Package config loads newsdigest settings.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables (after .env files are loaded). Environment always wins.
//
// .env files are loaded in this order:
//
//  1. ENV_FILE (if set, only this file is loaded)
//  2. .env.local
//  3. .env
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the YAML file read when DIGEST_CONFIG is unset
const DefaultPath = "config.yml"

var (
	ErrNoFeeds           = errors.New("at least one feed url is required")
	ErrInvalidWindow     = errors.New("recency window must be positive")
	ErrInvalidTimeout    = errors.New("timeouts must be positive")
	ErrInvalidWorkers    = errors.New("extract workers out of range")
	ErrInvalidProvider   = errors.New("unknown summarizer provider")
	ErrInvalidTimezone   = errors.New("unknown digest timezone")
	ErrInvalidSchedule   = errors.New("invalid cron schedule")
	ErrMissingKafkaTopic = errors.New("kafka topic is required when brokers are set")
)

// Config holds everything a run or the daemon needs.
type Config struct {
	Feeds      FeedsConfig      `yaml:"feeds"`
	Extract    ExtractConfig    `yaml:"extract"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Line       LineConfig       `yaml:"line"`
	Document   DocumentConfig   `yaml:"document"`
	Redis      RedisConfig      `yaml:"redis"`
	S3         S3Config         `yaml:"s3"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`

	// ReportFailExitCode makes the one-shot binary exit 2 after a degraded run
	ReportFailExitCode bool `yaml:"report_fail_exit_code" env:"REPORT_FAIL_EXIT_CODE"`
}

type FeedsConfig struct {
	URLs          []string      `yaml:"urls" env:"FEED_URLS"`
	Timeout       time.Duration `yaml:"timeout" env:"FEED_TIMEOUT"`
	RecencyWindow time.Duration `yaml:"recency_window" env:"RECENCY_WINDOW"`
}

type ExtractConfig struct {
	Enabled             bool          `yaml:"enabled" env:"EXTRACT_BODIES"`
	Timeout             time.Duration `yaml:"timeout" env:"EXTRACT_TIMEOUT"`
	Workers             int           `yaml:"workers" env:"EXTRACT_WORKERS"`
	ReadabilityFallback bool          `yaml:"readability_fallback" env:"EXTRACT_READABILITY_FALLBACK"`
	UserAgent           string        `yaml:"user_agent" env:"EXTRACT_USER_AGENT"`
}

type SummarizerConfig struct {
	Provider     string `yaml:"provider" env:"SUMMARIZER_PROVIDER"`
	GeminiAPIKey string `yaml:"-" env:"GEMINI_API_KEY"`
	GeminiModel  string `yaml:"gemini_model" env:"GEMINI_MODEL"`
	CohereAPIKey string `yaml:"-" env:"COHERE_API_KEY"`
	CohereModel  string `yaml:"cohere_model" env:"COHERE_MODEL"`
}

type LineConfig struct {
	ChannelAccessToken string `yaml:"-" env:"LINE_CHANNEL_ACCESS_TOKEN"`
	UserID             string `yaml:"user_id" env:"LINE_USER_ID"`
}

// Enabled reports whether push delivery has both a token and a recipient
func (c LineConfig) Enabled() bool {
	return c.ChannelAccessToken != "" && c.UserID != ""
}

type DocumentConfig struct {
	Enabled         bool   `yaml:"enabled" env:"DOC_APPEND"`
	CredentialsJSON string `yaml:"-" env:"GOOGLE_CREDENTIALS_JSON"`
	DocID           string `yaml:"doc_id" env:"GOOGLE_DOC_ID"`
	Timezone        string `yaml:"timezone" env:"DIGEST_TIMEZONE"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
	Password string        `yaml:"-" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB"`
	TTL      time.Duration `yaml:"ttl" env:"BODY_CACHE_TTL"`
}

type S3Config struct {
	Bucket       string `yaml:"bucket" env:"S3_BUCKET"`
	Region       string `yaml:"region" env:"S3_REGION"`
	Profile      string `yaml:"profile" env:"S3_PROFILE"`
	Prefix       string `yaml:"prefix" env:"S3_PREFIX"`
	Endpoint     string `yaml:"endpoint" env:"S3_ENDPOINT"`
	UsePathStyle bool   `yaml:"use_path_style" env:"S3_USE_PATH_STYLE"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS"`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC"`
}

type ServerConfig struct {
	Port     string `yaml:"port" env:"HTTP_PORT"`
	Schedule string `yaml:"schedule" env:"DIGEST_CRON"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

// Defaults returns a Config populated with built-in values
func Defaults() *Config {
	return &Config{
		Feeds: FeedsConfig{
			URLs:          append([]string(nil), DefaultFeedURLs...),
			Timeout:       DefaultFeedTimeout,
			RecencyWindow: DefaultRecencyWindow,
		},
		Extract: ExtractConfig{
			Timeout:   DefaultExtractTimeout,
			Workers:   DefaultExtractWorkers,
			UserAgent: DefaultUserAgent,
		},
		Summarizer: SummarizerConfig{
			Provider:    ProviderGemini,
			GeminiModel: DefaultGeminiModel,
			CohereModel: DefaultCohereModel,
		},
		Document: DocumentConfig{Timezone: DefaultTimezone},
		Redis:    RedisConfig{TTL: DefaultBodyTTL},
		Kafka:    KafkaConfig{Topic: DefaultKafkaTopic},
		Server:   ServerConfig{Port: DefaultHTTPPort, Schedule: DefaultCron},
		Log:      LogConfig{Level: "info"},
	}
}

// Load builds a Config from defaults, the YAML file at path (if it exists)
// and the environment. An empty path falls back to DIGEST_CONFIG, then DefaultPath.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("load environment files: %w", err)
	}

	if path == "" {
		path = os.Getenv("DIGEST_CONFIG")
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// yaml is optional; env alone is a complete configuration
	default:
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	// godotenv never overrides variables already set, so .env.local wins over .env
	if err := godotenv.Load(".env.local"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env.local: %w", err)
	}
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Validate checks the configuration for values a run cannot work with.
// Missing collaborator credentials are not errors; those stages are skipped.
func (c *Config) Validate() error {
	c.normalize()
	if len(c.Feeds.URLs) == 0 {
		return ErrNoFeeds
	}
	if c.Feeds.RecencyWindow <= 0 {
		return ErrInvalidWindow
	}
	if c.Feeds.Timeout <= 0 || c.Extract.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Extract.Workers < 1 || c.Extract.Workers > MaxExtractWorkers {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Extract.Workers)
	}

	switch c.Summarizer.Provider {
	case ProviderGemini, ProviderCohere:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidProvider, c.Summarizer.Provider)
	}

	if _, err := time.LoadLocation(c.Document.Timezone); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimezone, c.Document.Timezone)
	}
	if _, err := cron.ParseStandard(c.Server.Schedule); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return ErrMissingKafkaTopic
	}
	return nil
}

// normalize canonicalises values compared case-sensitively downstream
func (c *Config) normalize() {
	c.Summarizer.Provider = strings.ToLower(strings.TrimSpace(c.Summarizer.Provider))
}

// Location returns the digest timezone, falling back to UTC when it cannot be loaded
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Document.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
