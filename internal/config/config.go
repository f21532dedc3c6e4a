package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Gemini AI
	GeminiAPIKey         string
	GeminiModel          string
	GeminiTemperature    float32
	GeminiMaxTokens      int
	GeminiConcurrentReqs int
	PromptCharBudget     int

	// Result cache
	CacheBackend      string // "memory" | "redis"
	CacheTTLSeconds   int
	CacheSweepSeconds int

	// Optional infrastructure
	DatabaseURL string
	RedisURL    string

	// Admin API
	AdminJWTSecret string

	// Rate limiting
	RateLimitMax           int
	RateLimitWindowSeconds int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                   getEnvOrDefault("PORT", "8080"),
		Env:                    getEnvOrDefault("ENV", "development"),
		GeminiAPIKey:           mustGetEnv("GEMINI_API_KEY"),
		GeminiModel:            getEnvOrDefault("GEMINI_MODEL", "gemini-3-flash-preview"),
		GeminiTemperature:      getEnvAsFloatOrDefault("GEMINI_TEMPERATURE", 0.3),
		GeminiMaxTokens:        getEnvAsIntOrDefault("GEMINI_MAX_TOKENS", 8192),
		GeminiConcurrentReqs:   getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		PromptCharBudget:       getEnvAsIntOrDefault("PROMPT_CHAR_BUDGET", 12000),
		CacheBackend:           getEnvOrDefault("CACHE_BACKEND", "memory"),
		CacheTTLSeconds:        getEnvAsIntOrDefault("CACHE_TTL_SECONDS", 3600),
		CacheSweepSeconds:      getEnvAsIntOrDefault("CACHE_SWEEP_SECONDS", 600),
		DatabaseURL:            getEnvOrDefault("DATABASE_URL", ""),
		RedisURL:               getEnvOrDefault("REDIS_URL", ""),
		AdminJWTSecret:         getEnvOrDefault("ADMIN_JWT_SECRET", ""),
		RateLimitMax:           getEnvAsIntOrDefault("RATE_LIMIT_MAX", 30),
		RateLimitWindowSeconds: getEnvAsIntOrDefault("RATE_LIMIT_WINDOW_SECONDS", 60),
		FrontendURL:            getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	if cfg.CacheBackend == "redis" && cfg.RedisURL == "" {
		panic("CACHE_BACKEND=redis requires REDIS_URL to be set")
	}

	return cfg
}

// IsProduction reports whether error details should be withheld from API
// responses.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float32) float32 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 32)
	if err != nil {
		return defaultVal
	}
	return float32(f)
}
