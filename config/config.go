// Package config loads server settings from the environment, with an
// optional .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/warp/payroll-engine/logger"
)

type Config struct {
	App AppConfig
	Log logger.LogConfig
}

type AppConfig struct {
	Port       int
	DBPath     string
	PolicyFile string // empty means the built-in policy
	OrgName    string

	// rawPort keeps an unparseable PAYROLL_PORT for the error message;
	// a --port flag may still replace it before Validate.
	rawPort string
}

// Load reads .env if present, then the process environment. The result is
// not validated: callers apply their overrides and then call Validate.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the process environment only.
func FromEnv() *Config {
	rawPort := getEnv("PAYROLL_PORT", "8080")
	port, err := strconv.Atoi(rawPort)
	if err != nil {
		port = 0
	} else {
		rawPort = ""
	}

	defaults := logger.DefaultConfig()
	config := &Config{
		App: AppConfig{
			Port:       port,
			DBPath:     getEnv("PAYROLL_DB_PATH", "payroll.db"),
			PolicyFile: getEnv("PAYROLL_POLICY_FILE", ""),
			OrgName:    getEnv("PAYROLL_ORG_NAME", "Hotel Empire"),
			rawPort:    rawPort,
		},
		Log: logger.LogConfig{
			Level:      getEnv("LOG_LEVEL", defaults.Level),
			Format:     getEnv("LOG_FORMAT", defaults.Format),
			TimeFormat: getEnv("LOG_TIME_FORMAT", defaults.TimeFormat),
			Output:     getEnv("LOG_OUTPUT", defaults.Output),
		},
	}

	return config
}

func (c *Config) Validate() error {
	if c.App.Port == 0 && c.App.rawPort != "" {
		return fmt.Errorf("invalid PAYROLL_PORT %q", c.App.rawPort)
	}
	if c.App.Port < 1 || c.App.Port > 65535 {
		return fmt.Errorf("PAYROLL_PORT must be between 1 and 65535, got %d", c.App.Port)
	}
	if c.App.DBPath == "" {
		return fmt.Errorf("PAYROLL_DB_PATH is required")
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Log.Format)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
