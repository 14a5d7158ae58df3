package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port          string `yaml:"port"`
	DatabaseURL   string `yaml:"database_url"`
	AutoMigrate   bool   `yaml:"auto_migrate"`
	LogLevel      string `yaml:"log_level"`
	ImportDir     string `yaml:"import_dir"`
	HTTPBodyLimit string `yaml:"http_body_limit"`

	Import ImportConfig `yaml:"import"`

	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	LeaseTTL      time.Duration `yaml:"lease_ttl"`

	KafkaBrokers    []string `yaml:"kafka_brokers"`
	KafkaAuditTopic string   `yaml:"kafka_audit_topic"`

	RabbitMQURL      string `yaml:"rabbitmq_url"`
	RabbitMQExchange string `yaml:"rabbitmq_exchange"`

	S3 S3Config `yaml:"s3"`

	OpenAIKey   string `yaml:"openai_api_key"`
	OpenAIModel string `yaml:"openai_model"`
}

type ImportConfig struct {
	Concurrency       int           `yaml:"concurrency"`
	MaxRetries        int           `yaml:"max_retries"`
	InitialDelay      time.Duration `yaml:"initial_delay"`
	MaxDelay          time.Duration `yaml:"max_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
	AttemptTimeout    time.Duration `yaml:"attempt_timeout"`
	ResumeWindow      time.Duration `yaml:"resume_window"`
	MaxFileBytes      int64         `yaml:"max_file_bytes"`
	MaxFiles          int           `yaml:"max_files"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

const (
	minConcurrency = 1
	maxConcurrency = 8
)

// Load reads .env (if present), then the environment, then the YAML file named
// by CONFIG_FILE. Values in the file win over the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		AutoMigrate:   getBoolEnv("DB_AUTO_MIGRATE", false),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		ImportDir:     getEnv("IMPORT_BASE_DIR", "."),
		HTTPBodyLimit: getEnv("HTTP_BODY_LIMIT", "256M"),

		Import: ImportConfig{
			Concurrency:       parseIntEnv("IMPORT_CONCURRENCY", 5),
			MaxRetries:        parseIntEnv("IMPORT_MAX_RETRIES", 3),
			InitialDelay:      getDurationEnv("IMPORT_INITIAL_DELAY", time.Second),
			MaxDelay:          getDurationEnv("IMPORT_MAX_DELAY", 10*time.Second),
			BackoffMultiplier: getFloatEnv("IMPORT_BACKOFF_MULTIPLIER", 2),
			AttemptTimeout:    getDurationEnv("IMPORT_ATTEMPT_TIMEOUT", 60*time.Second),
			ResumeWindow:      getDurationEnv("IMPORT_RESUME_WINDOW", 7*24*time.Hour),
			MaxFileBytes:      int64(parseIntEnv("IMPORT_MAX_FILE_BYTES", 10*1024*1024)),
			MaxFiles:          parseIntEnv("IMPORT_MAX_FILES", 1000),
		},

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       parseIntEnv("REDIS_DB", 0),
		LeaseTTL:      getDurationEnv("SESSION_LEASE_TTL", 5*time.Minute),

		KafkaBrokers:    getStringSliceEnv("KAFKA_BROKERS"),
		KafkaAuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "resume-import.audit"),

		RabbitMQURL:      os.Getenv("RABBITMQ_URL"),
		RabbitMQExchange: getEnv("RABBITMQ_EXCHANGE", "session_updates"),

		S3: S3Config{
			Bucket:    os.Getenv("S3_BUCKET"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Region:    getEnv("S3_REGION", "auto"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
		},

		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: getEnv("OPENAI_MODEL", "gpt-4o-mini"),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Import.Concurrency = clampConcurrency(cfg.Import.Concurrency)
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func clampConcurrency(n int) int {
	if n < minConcurrency {
		return minConcurrency
	}
	if n > maxConcurrency {
		return maxConcurrency
	}
	return n
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func parseIntEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func getFloatEnv(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}

func getBoolEnv(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}

func getStringSliceEnv(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
