// Package config loads application configuration from the environment, with
// an optional YAML overlay file for deployment-managed settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ita004/analytics-engine/pkg/observability"
	"github.com/ita004/analytics-engine/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Storage       storage.Config
	Redis         RedisConfig
	Observability ObservabilityConfig
	Session       SessionConfig

	// Debug exposes internal error detail in failure envelopes
	Debug bool
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// RedisConfig holds cache and rate limiter settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel observability.LogLevel

	MetricsEnabled bool

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// SessionConfig holds the trusted-proxy session settings
type SessionConfig struct {
	// Header carries the proxy-asserted account id
	Header string
}

// overlay mirrors the YAML overlay file. Only set fields override the
// environment-derived values.
type overlay struct {
	Server struct {
		Host       string `yaml:"host"`
		Port       string `yaml:"port"`
		HealthPort string `yaml:"health_port"`
	} `yaml:"server"`
	Storage struct {
		URL string `yaml:"url"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       *int   `yaml:"db"`
	} `yaml:"redis"`
	LogLevel string `yaml:"log_level"`
}

// LoadConfig loads configuration from environment variables, applies the
// optional overlay file named by ANALYTICS_CONFIG_FILE, and validates the
// result
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Redis:         loadRedisConfig(),
		Observability: loadObservabilityConfig(),
		Session: SessionConfig{
			Header: getEnv("ANALYTICS_SESSION_HEADER", "X-Account-ID"),
		},
		Debug: getEnvBool("ANALYTICS_DEBUG", false),
	}

	if path := getEnv("ANALYTICS_CONFIG_FILE", ""); path != "" {
		if err := cfg.applyOverlay(path); err != nil {
			return nil, fmt.Errorf("failed to apply config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("ANALYTICS_HOST", "0.0.0.0"),
		Port:            getEnv("ANALYTICS_PORT", "8080"),
		ReadTimeout:     getEnvDuration("ANALYTICS_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("ANALYTICS_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("ANALYTICS_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("ANALYTICS_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("ANALYTICS_HEALTH_PORT", "9090"),
	}
}

func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	if url := getEnv("ANALYTICS_POSTGRES_URL", ""); url != "" {
		cfg.URL = url
	}
	if maxConns := getEnvInt("ANALYTICS_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns := getEnvInt("ANALYTICS_POSTGRES_MIN_CONNS", 0); minConns > 0 {
		cfg.MinConns = minConns
	}
	if timeout := getEnvDuration("ANALYTICS_POSTGRES_TIMEOUT", 0); timeout > 0 {
		cfg.Timeout = timeout
	}

	return cfg
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:     getEnv("ANALYTICS_REDIS_ADDR", "localhost:6379"),
		Password: getEnv("ANALYTICS_REDIS_PASSWORD", ""),
		DB:       getEnvInt("ANALYTICS_REDIS_DB", 0),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(getEnv("ANALYTICS_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("ANALYTICS_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("ANALYTICS_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("ANALYTICS_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("ANALYTICS_OTEL_SERVICE_NAME", "analytics-engine"),
		OTelServiceVersion: getEnv("ANALYTICS_OTEL_SERVICE_VERSION", "dev"),
		OTelInsecure:       getEnvBool("ANALYTICS_OTEL_INSECURE", true),
	}
}

// applyOverlay merges the YAML overlay into the loaded configuration
func (c *Config) applyOverlay(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var o overlay
	if err := yaml.Unmarshal(raw, &o); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}

	if o.Server.Host != "" {
		c.Server.Host = o.Server.Host
	}
	if o.Server.Port != "" {
		c.Server.Port = o.Server.Port
	}
	if o.Server.HealthPort != "" {
		c.Server.HealthPort = o.Server.HealthPort
	}
	if o.Storage.URL != "" {
		c.Storage.URL = o.Storage.URL
	}
	if o.Redis.Addr != "" {
		c.Redis.Addr = o.Redis.Addr
	}
	if o.Redis.Password != "" {
		c.Redis.Password = o.Redis.Password
	}
	if o.Redis.DB != nil {
		c.Redis.DB = *o.Redis.DB
	}
	if o.LogLevel != "" {
		c.Observability.LogLevel = observability.ParseLogLevel(o.LogLevel)
	}

	return nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must differ")
	}
	if c.Storage.URL == "" {
		return fmt.Errorf("postgres URL is required (ANALYTICS_POSTGRES_URL)")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required (ANALYTICS_REDIS_ADDR)")
	}
	if c.Observability.OTelEnabled && c.Observability.OTelEndpoint == "" {
		return fmt.Errorf("OTel endpoint is required when tracing is enabled")
	}
	return nil
}

// OTelConfig assembles the tracing configuration
func (c *Config) OTelConfig() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        c.Observability.OTelEnabled,
		Endpoint:       c.Observability.OTelEndpoint,
		ServiceName:    c.Observability.OTelServiceName,
		ServiceVersion: c.Observability.OTelServiceVersion,
		Insecure:       c.Observability.OTelInsecure,
	}
}

// getEnv retrieves an environment variable with a fallback
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback
func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvBool retrieves a boolean environment variable with a fallback
func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvDuration retrieves a duration environment variable with a fallback
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
