package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv   string
	LogLevel string

	DBDriver  string
	DBPath    string
	DBMigrate bool
	DBTimeout time.Duration

	// RedisAddr empty disables response caching.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	GRPCPort              int
	GRPCReflectionEnabled bool
	GRPCRequestTimeout    time.Duration

	AtParThreshold float64
}

var defaults = map[string]any{
	"app_env":                 "development",
	"log_level":               "info",
	"db_driver":               "sqlite3",
	"db_path":                 "./data/feedback.db",
	"db_migrate":              true,
	"db_timeout":              "2s",
	"redis_addr":              "localhost:6379",
	"redis_password":          "",
	"redis_db":                0,
	"cache_ttl":               "1m",
	"grpc_port":               50051,
	"grpc_reflection_enabled": false,
	"grpc_request_timeout":    "10s",
	"at_par_threshold":        0.01,
}

// Load reads configuration from the environment, falling back to an optional config.yaml
// found in one of searchPaths (default "." and "./config") and then to defaults.
// Keys are the lower-case form of the environment variable names.
func Load(searchPaths ...string) (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(searchPaths) == 0 {
		searchPaths = []string{".", "./config"}
	}
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		AppEnv:                v.GetString("app_env"),
		LogLevel:              v.GetString("log_level"),
		DBDriver:              v.GetString("db_driver"),
		DBPath:                v.GetString("db_path"),
		DBMigrate:             v.GetBool("db_migrate"),
		DBTimeout:             v.GetDuration("db_timeout"),
		RedisAddr:             v.GetString("redis_addr"),
		RedisPassword:         v.GetString("redis_password"),
		RedisDB:               v.GetInt("redis_db"),
		CacheTTL:              v.GetDuration("cache_ttl"),
		GRPCPort:              v.GetInt("grpc_port"),
		GRPCReflectionEnabled: v.GetBool("grpc_reflection_enabled"),
		GRPCRequestTimeout:    v.GetDuration("grpc_request_timeout"),
		AtParThreshold:        v.GetFloat64("at_par_threshold"),
	}

	// viper ignores empty variables, but an explicitly empty REDIS_ADDR turns caching off
	if addr, ok := os.LookupEnv("REDIS_ADDR"); ok {
		cfg.RedisAddr = strings.TrimSpace(addr)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch {
	case c.DBDriver == "":
		return errors.New("DB_DRIVER must not be empty")
	case c.DBPath == "":
		return errors.New("DB_PATH must not be empty")
	case c.GRPCPort < 1 || c.GRPCPort > 65535:
		return fmt.Errorf("GRPC_PORT %d out of range", c.GRPCPort)
	case c.DBTimeout <= 0:
		return fmt.Errorf("DB_TIMEOUT must be positive, got %s", c.DBTimeout)
	case c.GRPCRequestTimeout <= 0:
		return fmt.Errorf("GRPC_REQUEST_TIMEOUT must be positive, got %s", c.GRPCRequestTimeout)
	case c.CacheTTL <= 0:
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.CacheTTL)
	case c.AtParThreshold <= 0:
		return fmt.Errorf("AT_PAR_THRESHOLD must be positive, got %v", c.AtParThreshold)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// CachingEnabled reports whether a Redis address is configured.
func (c *Config) CachingEnabled() bool {
	return c.RedisAddr != ""
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	zcfg := zap.NewDevelopmentConfig()
	if cfg.AppEnv == "production" {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	return zcfg.Build()
}
