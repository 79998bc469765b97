// Package config loads environment-based settings for shelfsim-api.
package config

// File: internal/config/config.go
// Purpose: Centralized configuration parsing and derived helpers (DSN, Rabbit URL).

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Supported database drivers.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config stores parsed environment configuration for shelfsim-api.
type Config struct {
	Port           int
	DBDriver       string
	MySQLHost      string
	MySQLPort      string
	MySQLUser      string
	MySQLPassword  string
	MySQLDB        string
	SQLitePath     string
	RabbitEnabled  bool
	RabbitHost     string
	RabbitPort     string
	RabbitUser     string
	RabbitPass     string
	ExchangeName   string
	ExportTimezone string
	LogLevel       string
	LogFormat      string
	AllowedOrigins []string
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	port, err := atoiWithDefault(os.Getenv("SHELFSIM_API_PORT"), 8000)
	if err != nil {
		return nil, err
	}
	rabbitEnabled, err := boolWithDefault(os.Getenv("RABBITMQ_ENABLED"), false)
	if err != nil {
		return nil, err
	}

	driver := strings.ToLower(getenv("DB_DRIVER", DriverMySQL))
	if driver != DriverMySQL && driver != DriverSQLite {
		return nil, fmt.Errorf("invalid DB_DRIVER: %s", driver)
	}

	level := strings.ToLower(getenv("LOG_LEVEL", "info"))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid LOG_LEVEL: %s", level)
	}

	format := strings.ToLower(getenv("LOG_FORMAT", "json"))
	if format != "json" && format != "console" {
		return nil, fmt.Errorf("invalid LOG_FORMAT: %s", format)
	}

	cfg := &Config{
		Port:           port,
		DBDriver:       driver,
		MySQLHost:      getenv("MYSQL_HOST", "mysql"),
		MySQLPort:      getenv("MYSQL_PORT", "3306"),
		MySQLUser:      getenv("MYSQL_USER", "shelfsim"),
		MySQLPassword:  getenv("MYSQL_PASSWORD", "shelfsim"),
		MySQLDB:        getenv("MYSQL_DB", "shelfsim"),
		SQLitePath:     getenv("SQLITE_PATH", "shelfsim.db"),
		RabbitEnabled:  rabbitEnabled,
		RabbitHost:     getenv("RABBITMQ_HOST", "rabbitmq"),
		RabbitPort:     getenv("RABBITMQ_PORT", "5672"),
		RabbitUser:     getenv("RABBITMQ_USER", "shelfsim"),
		RabbitPass:     getenv("RABBITMQ_PASS", "shelfsim"),
		ExchangeName:   "shelfsim.events",
		ExportTimezone: getenv("EXPORT_TIMEZONE", "Asia/Seoul"),
		LogLevel:       level,
		LogFormat:      format,
		AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "*")),
	}
	return cfg, nil
}

// DSN returns the driver-specific data source name.
func (c *Config) DSN() string {
	if c.DBDriver == DriverSQLite {
		return SQLiteDSN(c.SQLitePath)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&clientFoundRows=true", c.MySQLUser, c.MySQLPassword, c.MySQLHost, c.MySQLPort, c.MySQLDB)
}

// SQLiteDSN builds a modernc sqlite DSN with foreign keys and a busy timeout enabled.
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
}

// RabbitURL returns the AMQP URL used by the publisher.
func (c *Config) RabbitURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.RabbitUser, c.RabbitPass, c.RabbitHost, c.RabbitPort)
}

// LoadDotEnv loads the first .env found in the working directory or up to
// four of its parents. Missing files are not an error.
func LoadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func atoiWithDefault(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid int %q: %w", raw, err)
	}
	return v, nil
}

func boolWithDefault(raw string, fallback bool) (bool, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid bool %q: %w", raw, err)
	}
	return v, nil
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
