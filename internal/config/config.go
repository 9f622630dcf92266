// Package config resolves runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration. CLI flags override these values.
type Config struct {
	Processing ProcessingConfig
	OCR        OCRConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Output     OutputConfig
}

type ProcessingConfig struct {
	Workers     int
	FileTimeout time.Duration
}

type OCRConfig struct {
	Enabled bool
	Lang    string
	DPI     int
}

type LogConfig struct {
	Level  string
	Format string
}

type HTTPConfig struct {
	Addr          string
	MaxUploadSize int
	// RateLimit is conversions per second across all clients; 0 disables it.
	RateLimit float64
	RateBurst int
}

type OutputConfig struct {
	Format string
}

var outputFormats = []string{"xlsx", "csv", "json"}

// Load reads BANKPARSER_* variables. A .env file in the working directory is
// loaded first when present; variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Processing: ProcessingConfig{
			Workers:     getEnvAsInt("BANKPARSER_WORKERS", runtime.NumCPU()),
			FileTimeout: getEnvAsDuration("BANKPARSER_FILE_TIMEOUT", 5*time.Minute),
		},
		OCR: OCRConfig{
			Enabled: getEnvAsBool("BANKPARSER_OCR_ENABLED", true),
			Lang:    getEnv("BANKPARSER_OCR_LANG", "spa+eng"),
			DPI:     getEnvAsInt("BANKPARSER_OCR_DPI", 300),
		},
		Log: LogConfig{
			Level:  getEnv("BANKPARSER_LOG_LEVEL", "info"),
			Format: getEnv("BANKPARSER_LOG_FORMAT", "text"),
		},
		HTTP: HTTPConfig{
			Addr:          getEnv("BANKPARSER_HTTP_ADDR", ":8080"),
			MaxUploadSize: getEnvAsInt("BANKPARSER_MAX_UPLOAD_MB", 50) * 1024 * 1024,
			RateLimit:     getEnvAsFloat("BANKPARSER_HTTP_RATE", 2),
			RateBurst:     getEnvAsInt("BANKPARSER_HTTP_BURST", 4),
		},
		Output: OutputConfig{
			Format: strings.ToLower(getEnv("BANKPARSER_OUTPUT_FORMAT", "xlsx")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Processing.Workers <= 0 {
		return errors.New("invalid config: BANKPARSER_WORKERS must be greater than 0")
	}
	if c.Processing.FileTimeout <= 0 {
		return errors.New("invalid config: BANKPARSER_FILE_TIMEOUT must be positive")
	}
	if c.OCR.DPI < 72 || c.OCR.DPI > 1200 {
		return fmt.Errorf("invalid config: BANKPARSER_OCR_DPI %d out of range [72, 1200]", c.OCR.DPI)
	}
	if !isOneOf(c.Output.Format, outputFormats) {
		return fmt.Errorf("invalid config: BANKPARSER_OUTPUT_FORMAT must be one of %s", strings.Join(outputFormats, ", "))
	}
	if c.HTTP.MaxUploadSize <= 0 {
		return errors.New("invalid config: BANKPARSER_MAX_UPLOAD_MB must be greater than 0")
	}
	if c.HTTP.RateLimit < 0 {
		return errors.New("invalid config: BANKPARSER_HTTP_RATE must not be negative")
	}
	if c.HTTP.RateLimit > 0 && c.HTTP.RateBurst <= 0 {
		return errors.New("invalid config: BANKPARSER_HTTP_BURST must be greater than 0")
	}
	return nil
}

func isOneOf(v string, options []string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}
