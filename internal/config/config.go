package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

const (
	HashSchemeSHA256   = "sha256"
	HashSchemeArgon2ID = "argon2id"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type AppConfig struct {
	Name    string
	Version string
}

type ServerConfig struct {
	Port            string
	Env             string // development, production or testing
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string // CORS allowed origins
}

type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	// URL enables the Redis-backed rate limiter when set, e.g. redis://:pass@localhost:6379/0
	URL string
}

type AuthConfig struct {
	// PASETO symmetric key (must be 32 bytes for v4.local). Empty means a
	// random key is generated at startup and tokens do not survive restarts.
	TokenKey            []byte
	AccessTokenDuration time.Duration
	PasswordHashScheme  string
}

type RateLimitConfig struct {
	PerMinute int
}

type LogConfig struct {
	Level string
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	env := getEnv("APP_ENV", EnvDevelopment)

	cfg := &Config{
		App: AppConfig{
			Name:    getEnv("PROJECT_NAME", "User Management API"),
			Version: getEnv("VERSION", "1.0.0"),
		},
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8000"),
			Env:             env,
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("BACKEND_CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:8000"}),
		},
		Database: DatabaseConfig{
			URL:          getEnv("DATABASE_URL", "sqlite:///./users.db"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
			AutoMigrate:  getBoolEnv("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Auth: AuthConfig{
			TokenKey:            []byte(getEnv("SECRET_KEY", "")),
			AccessTokenDuration: time.Duration(getIntEnv("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
			PasswordHashScheme:  strings.ToLower(getEnv("PASSWORD_HASH_SCHEME", HashSchemeSHA256)),
		},
		RateLimit: RateLimitConfig{
			PerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 60),
		},
		Log: LogConfig{
			Level: strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel(env))),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Server.Env {
	case EnvDevelopment, EnvProduction, EnvTesting:
	default:
		return fmt.Errorf("APP_ENV must be one of development, production, testing, got %q", c.Server.Env)
	}

	// Validate PASETO key length (must be 32 bytes for v4.local)
	if n := len(c.Auth.TokenKey); n != 0 && n != 32 {
		return fmt.Errorf("SECRET_KEY must be exactly 32 bytes, got %d", n)
	}

	if c.Auth.AccessTokenDuration <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}

	switch c.Auth.PasswordHashScheme {
	case HashSchemeSHA256, HashSchemeArgon2ID:
	default:
		return fmt.Errorf("PASSWORD_HASH_SCHEME must be %q or %q, got %q", HashSchemeSHA256, HashSchemeArgon2ID, c.Auth.PasswordHashScheme)
	}

	if c.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimit.PerMinute)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.Log.Level)
	}

	if _, err := c.Database.Driver(); err != nil {
		return err
	}

	return nil
}

// Driver returns the database family selected by the URL scheme: "postgres" or "sqlite".
func (c *DatabaseConfig) Driver() (string, error) {
	switch {
	case strings.HasPrefix(c.URL, "postgres://"), strings.HasPrefix(c.URL, "postgresql://"):
		return "postgres", nil
	case strings.HasPrefix(c.URL, "sqlite:"):
		return "sqlite", nil
	default:
		return "", fmt.Errorf("DATABASE_URL has unsupported scheme: %q", c.URL)
	}
}

// IsDevelopment returns true if the environment is set to development
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// Enabled reports whether a Redis URL was configured
func (c *RedisConfig) Enabled() bool {
	return c.URL != ""
}

func defaultLogLevel(env string) string {
	if env == EnvProduction {
		return "info"
	}
	return "debug"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Split by comma and trim whitespace
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
