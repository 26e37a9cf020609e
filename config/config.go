package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Providers     ProvidersConfig
	News          NewsConfig
	Database      *DatabaseConfig // Optional: exchange recording is disabled when nil
	Recorder      RecorderConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	TLS             struct {
		Enabled  bool
		CertFile string
		KeyFile  string
	}
}

// ProvidersConfig holds LLM provider configurations
type ProvidersConfig struct {
	Groq       GroqConfig
	Databricks DatabricksConfig
}

// GroqConfig holds Groq provider configuration
type GroqConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// DatabricksConfig holds Databricks model serving configuration
type DatabricksConfig struct {
	APIKey   string
	Endpoint string // Full invocation URL of the serving endpoint
	Timeout  time.Duration
}

// NewsConfig holds the news provider configuration
type NewsConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// RecorderConfig holds the chat exchange recorder settings
type RecorderConfig struct {
	BufferSize  int
	WorkerCount int
	StopTimeout time.Duration
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or text
	MetricsEnabled bool
}

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"json", "text", "console"}
)

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists; real environment variables win
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 45*time.Second),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 40*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			TLS: struct {
				Enabled  bool
				CertFile string
				KeyFile  string
			}{
				Enabled:  getEnvAsBool("TLS_ENABLED", false),
				CertFile: getEnv("TLS_CERT_FILE", "certs/cert.pem"),
				KeyFile:  getEnv("TLS_KEY_FILE", "certs/key.pem"),
			},
		},
		Providers: ProvidersConfig{
			Groq: GroqConfig{
				APIKey:  getEnv("GROQ_API_KEY", ""),
				BaseURL: getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
				Timeout: getEnvAsDuration("GROQ_TIMEOUT", 30*time.Second),
			},
			Databricks: DatabricksConfig{
				APIKey:   getEnv("DATABRICKS_API_KEY", ""),
				Endpoint: getEnv("DATABRICKS_SERVING_ENDPOINT", ""),
				Timeout:  getEnvAsDuration("DATABRICKS_TIMEOUT", 30*time.Second),
			},
		},
		News: NewsConfig{
			APIKey:  getEnv("NEWS_API_KEY", ""),
			BaseURL: getEnv("NEWS_BASE_URL", "https://newsapi.org/v2"),
			Timeout: getEnvAsDuration("NEWS_TIMEOUT", 30*time.Second),
		},
		Database: loadDatabaseConfig(),
		Recorder: RecorderConfig{
			BufferSize:  getEnvAsInt("RECORDER_BUFFER_SIZE", 1000),
			WorkerCount: getEnvAsInt("RECORDER_WORKERS", 2),
			StopTimeout: getEnvAsDuration("RECORDER_STOP_TIMEOUT", 5*time.Second),
		},
		Observability: ObservabilityConfig{
			LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
			LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", "json")),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
// Missing provider credentials are not an error: those providers report as unavailable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.TLS.Enabled && (c.Server.TLS.CertFile == "" || c.Server.TLS.KeyFile == "") {
		return fmt.Errorf("TLS cert and key files are required when TLS is enabled")
	}

	// Database validation only applies when recording is configured
	if c.Database != nil && c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if c.Recorder.BufferSize <= 0 || c.Recorder.WorkerCount <= 0 {
		return fmt.Errorf("recorder buffer size and worker count must be positive")
	}

	// Observability validation
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}
	if !contains(validLogLevels, c.Observability.LogLevel) {
		return fmt.Errorf("invalid log level %q: must be one of %s", c.Observability.LogLevel, strings.Join(validLogLevels, ", "))
	}
	if !contains(validLogFormats, c.Observability.LogFormat) {
		return fmt.Errorf("invalid log format %q: must be one of %s", c.Observability.LogFormat, strings.Join(validLogFormats, ", "))
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// RecordingEnabled reports whether chat exchanges are persisted
func (c *Config) RecordingEnabled() bool {
	return c.Database != nil
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars.
// Returns nil when neither DATABASE_URL nor DB_HOST is set.
func loadDatabaseConfig() *DatabaseConfig {
	pool := DatabaseConfig{
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}

	if dbURL := getEnv("DATABASE_URL", ""); dbURL != "" {
		pool.ConnectionString = dbURL
		return &pool
	}
	if os.Getenv("DB_HOST") == "" {
		return nil
	}

	pool.Host = getEnv("DB_HOST", "localhost")
	pool.Port = getEnvAsInt("DB_PORT", 5432)
	pool.User = getEnv("DB_USER", "chatbot")
	pool.Password = getEnv("DB_PASSWORD", "")
	pool.Database = getEnv("DB_NAME", "chatbot")
	pool.SSLMode = getEnv("DB_SSLMODE", "disable")
	return &pool
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8000)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8000
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
