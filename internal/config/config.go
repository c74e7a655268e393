package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	Env        string
	ServerPort string
	MySQLDSN   string

	RedisAddr string
	RedisDB   int
	RedisPass string

	JWTSecret string
	JWTExpiry time.Duration

	BcryptCost      int
	HashConcurrency int

	// Medium rate-limit tier; the short and long tiers are fixed policy.
	RateLimitWindow time.Duration
	RateLimitMax    int
}

// Load builds Config from environment with sensible defaults. A .env file in
// the working directory is honored when present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded configuration overrides from .env")
	}

	return &Config{
		Env:             getEnv("ENV", "development"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		MySQLDSN:        getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/authgate?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		RedisPass:       os.Getenv("REDIS_PASSWORD"),
		JWTSecret:       getEnv("JWT_SECRET", "change-me"),
		JWTExpiry:       getEnvDuration("JWT_EXPIRY", 168*time.Hour),
		BcryptCost:      getEnvInt("BCRYPT_COST", 12),
		HashConcurrency: getEnvInt("HASH_CONCURRENCY", 8),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		RateLimitMax:    getEnvInt("RATE_LIMIT_MAX", 100),
	}
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
		log.Printf("invalid duration for %s, using default %s", key, def)
	}
	return def
}
