package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

const devSessionSecret = "secret_key_change_me"

// Config is populated from environment variables (optionally via a .env file).
type Config struct {
	App     AppConfig
	DB      DBConfig
	Session SessionConfig
	Nearby  NearbyConfig
	Cache   CacheConfig
	Auth    AuthConfig
}

type AppConfig struct {
	Environment string // development, production
	Port        string
}

type DBConfig struct {
	Driver string // postgres, memory
	DSN    string
}

type SessionConfig struct {
	Name   string
	Secret string
	MaxAge int // seconds
	Secure bool
}

type NearbyConfig struct {
	MaxRadiusKm float64
	MaxResults  int
}

type CacheConfig struct {
	Size int
	TTL  time.Duration
}

type AuthConfig struct {
	RateLimit float64 // requests per second per client IP
	RateBurst int
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// Load 从环境变量读取配置
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("PORT", "8000"),
		},
		DB: DBConfig{
			Driver: getEnv("STORE_DRIVER", "postgres"),
			DSN:    getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=luontovahdit port=5432 sslmode=disable"),
		},
		Session: SessionConfig{
			Name:   getEnv("SESSION_NAME", "luontovahdit-id"),
			Secret: getEnv("SESSION_SECRET", ""),
			MaxAge: getEnvInt("SESSION_MAX_AGE", 180*24*60*60),
			Secure: getEnvBool("SESSION_SECURE", false),
		},
		Nearby: NearbyConfig{
			MaxRadiusKm: getEnvFloat("NEARBY_MAX_RADIUS_KM", 500),
			MaxResults:  getEnvInt("NEARBY_MAX_RESULTS", 100),
		},
		Cache: CacheConfig{
			Size: getEnvInt("CACHE_SIZE", 500),
			TTL:  getEnvDuration("CACHE_TTL", time.Minute),
		},
		Auth: AuthConfig{
			RateLimit: getEnvFloat("AUTH_RATE_LIMIT", 5),
			RateBurst: getEnvInt("AUTH_RATE_BURST", 10),
		},
	}

	if cfg.Session.Secret == "" {
		if !cfg.IsDevelopment() {
			return nil, errors.New("SESSION_SECRET is required outside development")
		}
		cfg.Session.Secret = devSessionSecret
	}
	if cfg.DB.Driver != "postgres" && cfg.DB.Driver != "memory" {
		return nil, errors.New("STORE_DRIVER must be postgres or memory")
	}
	if cfg.Nearby.MaxRadiusKm <= 0 || cfg.Nearby.MaxResults <= 0 {
		return nil, errors.New("nearby search limits must be positive")
	}
	if cfg.Cache.Size <= 0 {
		return nil, errors.New("CACHE_SIZE must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
