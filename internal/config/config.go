package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит настройки сервиса, собранные из окружения
type Config struct {
	PostgresConn      string
	ServerAddress     string
	RedisURL          string
	DirectoryCacheTTL time.Duration
	RunMigrations     bool
	LogLevel          string
	LogPretty         bool
	CORSOrigins       []string
	// Идентификаторы активных проверок; пусто означает набор по умолчанию
	ValidationChecks []string
	ShutdownTimeout  time.Duration
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		PostgresConn:      getEnv("POSTGRES_CONN", ""),
		ServerAddress:     getEnv("SERVER_ADDRESS", "0.0.0.0:8080"),
		RedisURL:          getEnv("REDIS_URL", ""),
		DirectoryCacheTTL: getEnvAsDuration("DIRECTORY_CACHE_TTL", 5*time.Minute),
		RunMigrations:     getEnvAsBool("RUN_MIGRATIONS", true),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogPretty:         getEnvAsBool("LOG_PRETTY", false),
		CORSOrigins:       getEnvAsList("CORS_ORIGINS", []string{"*"}),
		ValidationChecks:  getEnvAsList("VALIDATION_CHECKS", nil),
		ShutdownTimeout:   getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.PostgresConn == "" {
		return errors.New("POSTGRES_CONN env variable is not set")
	}
	if c.DirectoryCacheTTL <= 0 {
		return errors.New("DIRECTORY_CACHE_TTL must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
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
