package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP server
	Port string

	// Database
	DBPath string

	// Logging
	LogLevel  string
	LogFormat string

	// Dashboard month windows
	Timezone string

	// Identity
	SessionTTL time.Duration

	// Inventory items created on finalize
	DefaultLowThreshold float64

	// Domain events; empty URL disables publishing
	AMQPURL      string
	AMQPExchange string

	MetricsEnabled bool
}

// Load reads a .env file when present, then the environment.
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the configuration from the environment only.
func FromEnv() *Config {
	return &Config{
		Port:   getEnv("DESPENSA_PORT", "8080"),
		DBPath: getEnv("DESPENSA_DB_PATH", "despensa.db"),

		LogLevel:  getEnv("DESPENSA_LOG_LEVEL", "info"),
		LogFormat: getEnv("DESPENSA_LOG_FORMAT", "text"),

		Timezone:   getEnv("DESPENSA_TIMEZONE", "Local"),
		SessionTTL: getEnvDuration("DESPENSA_SESSION_TTL", 720*time.Hour),

		DefaultLowThreshold: getEnvFloat("DESPENSA_DEFAULT_LOW_THRESHOLD", 1),

		AMQPURL:      getEnv("DESPENSA_AMQP_URL", ""),
		AMQPExchange: getEnv("DESPENSA_AMQP_EXCHANGE", "despensa"),

		MetricsEnabled: getEnvBool("DESPENSA_METRICS_ENABLED", true),
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DBPath == "" {
		errs = append(errs, "database path cannot be empty")
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if c.SessionTTL <= 0 {
		errs = append(errs, "session TTL must be positive")
	}

	if c.DefaultLowThreshold < 0 {
		errs = append(errs, "default low threshold cannot be negative")
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Location resolves Timezone for the dashboard month windows.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
