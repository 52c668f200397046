// Package config provides application configuration loading from
// environment variables and .env files. It uses viper with sensible
// defaults; environment variables take precedence.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	AppEnv         string // Application environment (dev, staging, prod)
	HTTPAddr       string // HTTP server bind address (e.g., ":8080")
	MetricsAddr    string // Metrics server bind address
	RuleFile       string // Optional mapping config file loaded at startup
	DefaultUnitID  string // Fallback unit when no rule matches and none configured
	ConfigVersion  string // Version string stamped on built configs
	LogLevel       string // zerolog level (debug, info, warn, error)
	RateLimitPerIP int    // Request rate limit per client IP
	MaxBodyBytes   int64  // Request body size cap
}

// Load reads configuration from environment variables and an optional
// .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env") // optional; silently ignored if absent
	_ = v.ReadInConfig()
	v.AutomaticEnv()

	setDefaults(v)

	return &Config{
		AppEnv:         v.GetString("APP_ENV"),
		HTTPAddr:       v.GetString("APP_HTTP_ADDR"),
		MetricsAddr:    v.GetString("METRICS_ADDR"),
		RuleFile:       v.GetString("RULE_FILE"),
		DefaultUnitID:  v.GetString("DEFAULT_UNIT_ID"),
		ConfigVersion:  v.GetString("CONFIG_VERSION"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		RateLimitPerIP: v.GetInt("RATE_LIMIT_PER_IP"),
		MaxBodyBytes:   v.GetInt64("MAX_BODY_BYTES"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("APP_HTTP_ADDR", ":8080")
	v.SetDefault("METRICS_ADDR", ":9090")
	v.SetDefault("RULE_FILE", "")
	v.SetDefault("DEFAULT_UNIT_ID", "")
	v.SetDefault("CONFIG_VERSION", "1.0")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RATE_LIMIT_PER_IP", 100)
	v.SetDefault("MAX_BODY_BYTES", 1<<20)
}

// ValidationError represents a configuration validation failure.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed [%s]: %s", e.Field, e.Message)
}

// Validate checks that the configuration is usable, failing fast at
// startup on the first violation.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return ValidationError{Field: "APP_HTTP_ADDR", Message: "HTTP server address cannot be empty"}
	}
	if c.MetricsAddr == "" {
		return ValidationError{Field: "METRICS_ADDR", Message: "metrics server address cannot be empty"}
	}
	if c.RateLimitPerIP <= 0 {
		return ValidationError{Field: "RATE_LIMIT_PER_IP", Message: fmt.Sprintf("must be positive, got %d", c.RateLimitPerIP)}
	}
	if c.MaxBodyBytes <= 0 {
		return ValidationError{Field: "MAX_BODY_BYTES", Message: fmt.Sprintf("must be positive, got %d", c.MaxBodyBytes)}
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return ValidationError{Field: "LOG_LEVEL", Message: fmt.Sprintf("unknown level %q", c.LogLevel)}
	}
	return nil
}
