// Package config provides environment configuration for the API server.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	CORSAllowedOrigins []string

	// Database settings
	DBDriver string
	DBDSN    string

	// LLM settings
	LLMProvider       string
	LLMAPIKey         string
	LLMModel          string
	LLMMaxTokens      int
	LLMTemperature    float64
	GenerationTimeout time.Duration
	PersistTimeout    time.Duration

	// NATS settings; empty URL disables event publishing
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Logging
	LogLevel    string
	Development bool

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool

	// InvalidKeys lists variables that were set but could not be parsed;
	// their defaults were used instead.
	InvalidKeys []string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present; real env vars win.
func Load() *Config {
	_ = godotenv.Load()

	e := &env{}
	cfg := &Config{
		// Server
		ServerPort:         getEnv("PORT", "8000"),
		ServerReadTimeout:  e.getDuration("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: e.getDuration("SERVER_WRITE_TIMEOUT", 0),
		CORSAllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:9000"}),

		// Database
		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBDSN:    getEnv("DB_DSN", "sql_app.db"),

		// LLM
		LLMProvider:       getEnv("LLM_PROVIDER", "gemini"),
		LLMAPIKey:         getEnv("LLM_API_KEY", ""),
		LLMModel:          getEnv("LLM_MODEL", ""),
		LLMMaxTokens:      e.getInt("LLM_MAX_TOKENS", 2048),
		LLMTemperature:    e.getFloat("LLM_TEMPERATURE", 0.7),
		GenerationTimeout: e.getDuration("GENERATION_TIMEOUT", 60*time.Second),
		PersistTimeout:    e.getDuration("PERSIST_TIMEOUT", 10*time.Second),

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// Logging
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Development: getEnv("ENV", "") == "development",

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  e.getBool("TRACING_ENABLED", false),
	}
	cfg.InvalidKeys = e.invalid
	return cfg
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres", "mysql":
	default:
		return errors.New("DB_DRIVER must be one of sqlite, postgres, mysql")
	}
	if c.DBDSN == "" {
		return errors.New("DB_DSN is required")
	}
	if c.GenerationTimeout <= 0 {
		return errors.New("GENERATION_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// env reads typed variables and remembers the ones it could not parse.
type env struct {
	invalid []string
}

func (e *env) lookup(key string) (string, bool) {
	value := os.Getenv(key)
	return value, value != ""
}

func (e *env) getInt(key string, defaultValue int) int {
	if value, ok := e.lookup(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		e.invalid = append(e.invalid, key)
	}
	return defaultValue
}

func (e *env) getFloat(key string, defaultValue float64) float64 {
	if value, ok := e.lookup(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		e.invalid = append(e.invalid, key)
	}
	return defaultValue
}

func (e *env) getBool(key string, defaultValue bool) bool {
	if value, ok := e.lookup(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		e.invalid = append(e.invalid, key)
	}
	return defaultValue
}

func (e *env) getDuration(key string, defaultValue time.Duration) time.Duration {
	if value, ok := e.lookup(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		e.invalid = append(e.invalid, key)
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
