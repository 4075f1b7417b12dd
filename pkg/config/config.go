// ==============================================================================
// CONFIG PACKAGE - pkg/config/config.go
// ==============================================================================
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Login probe target. These are fixed on purpose and never read from the environment.
const (
	ProbeURL      = "http://localhost:3002/api/auth/login"
	ProbeEmail    = "admin@company.com"
	ProbePassword = "admin123"
)

// ProbeConfig is the hardcoded request the login probe sends.
type ProbeConfig struct {
	URL      string
	Email    string
	Password string
}

// Probe returns the fixed probe target.
func Probe() ProbeConfig {
	return ProbeConfig{
		URL:      ProbeURL,
		Email:    ProbeEmail,
		Password: ProbePassword,
	}
}

// Config holds the auth stub's settings.
type Config struct {
	Env       string
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Seed      SeedConfig
	LogLevel  string
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// RedisConfig is optional; an empty URL disables login rate limiting. URL is
// passed to the cache as given, so redis:// URLs keep their credentials and db.
type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	RefreshSecret     string
	AccessExpiration  time.Duration
	RefreshExpiration time.Duration
}

type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

// SeedConfig is the account the in-memory user store starts with.
type SeedConfig struct {
	Email    string
	Password string
	Role     string
	Name     string
}

// LoadDotEnv reads an optional .env file. Variables already set win.
func LoadDotEnv(paths ...string) error {
	return godotenv.Load(paths...)
}

func Load() *Config {
	return &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "3002"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", "change-this-secret"),
			RefreshSecret:     getEnv("JWT_REFRESH_SECRET", "change-this-refresh-secret"),
			AccessExpiration:  getDurationEnv("JWT_ACCESS_EXPIRATION", 24*time.Hour),
			RefreshExpiration: getDurationEnv("JWT_REFRESH_EXPIRATION", 7*24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			Max:    getIntEnv("LOGIN_RATE_LIMIT", 5),
			Window: getDurationEnv("LOGIN_RATE_WINDOW", 15*time.Minute),
		},
		Seed: SeedConfig{
			Email:    getEnv("SEED_ADMIN_EMAIL", ProbeEmail),
			Password: getEnv("SEED_ADMIN_PASSWORD", ProbePassword),
			Role:     "super_admin",
			Name:     getEnv("SEED_ADMIN_NAME", "Admin"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// IsProduction reports whether cookies should be marked Secure.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
