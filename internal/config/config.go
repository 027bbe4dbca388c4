// Package config loads gradebook settings from the environment.
// A .env file in the working directory, when present, is read first;
// variables already set in the environment take precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/mmynk/gradebook/internal/models"
)

// Storage drivers.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	Storage StorageConfig
	Grading GradingConfig

	// TopN is how many students the ranking shows.
	TopN int `validate:"gte=1"`

	// MetricsAddr enables the Prometheus endpoint when set (e.g. ":9090").
	MetricsAddr string `validate:"omitempty,hostname_port"`

	// ExportDir is where XLSX reports are written.
	ExportDir string `validate:"required"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `validate:"omitempty,oneof=debug info warn error"`
}

// StorageConfig selects and configures the snapshot backend.
type StorageConfig struct {
	Driver string `validate:"oneof=json sqlite redis"`

	// Path is the data file for the json and sqlite drivers.
	Path string `validate:"required_unless=Driver redis"`

	RedisAddr     string `validate:"required_if=Driver redis"`
	RedisPassword string
	RedisDB       int `validate:"gte=0,lte=15"`
	RedisKey      string
}

// GradingConfig holds the scoring thresholds.
type GradingConfig struct {
	PassingGrade float64 `validate:"gte=0,lte=100"`
	MinFailGrade float64 `validate:"gte=0,lte=100,ltefield=PassingGrade"`
}

// Thresholds converts the grading settings for the registry.
func (g GradingConfig) Thresholds() models.Thresholds {
	return models.Thresholds{Passing: g.PassingGrade, MinFail: g.MinFailGrade}
}

// Load reads .env (if any) and the environment, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	var errs []string
	getInt := func(key string, fallback int) int {
		v, err := envInt(key, fallback)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	getFloat := func(key string, fallback float64) float64 {
		v, err := envFloat(key, fallback)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}

	driver := strings.ToLower(getEnv("STORAGE_DRIVER", DriverJSON))
	defaultPath := "./data/students.json"
	if driver == DriverSQLite {
		defaultPath = "./data/students.db"
	}

	cfg := &Config{
		Storage: StorageConfig{
			Driver:        driver,
			Path:          getEnv("DATA_PATH", defaultPath),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getInt("REDIS_DB", 0),
			RedisKey:      getEnv("REDIS_KEY", "gradebook:snapshot"),
		},
		Grading: GradingConfig{
			PassingGrade: getFloat("PASSING_GRADE", models.DefaultPassingGrade),
			MinFailGrade: getFloat("MIN_FAIL_GRADE", models.DefaultMinFailGrade),
		},
		TopN:        getInt("TOP_N", 3),
		MetricsAddr: os.Getenv("METRICS_ADDR"),
		ExportDir:   getEnv("EXPORT_DIR", "./exports"),
		LogLevel:    strings.ToLower(os.Getenv("LOG_LEVEL")),
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback, fmt.Errorf("%s: %q is not an integer", key, raw)
	}
	return v, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback, fmt.Errorf("%s: %q is not a number", key, raw)
	}
	return v, nil
}
