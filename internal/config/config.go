package config

import (
	"os"
	"strconv"
	"time"

	"mines_webapp/internal/logger"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	AppPort     string
	DatabaseURL string // пусто - работа без БД, только в памяти

	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RateLimitPerMinute int

	MinBet     decimal.Decimal
	MaxBet     decimal.Decimal
	GridSize   int
	SessionTTL time.Duration
	RNGMode    string

	AllowedOrigin string
	LogLevel      string
	LogFormat     string
}

// Load читает .env (если есть) и переменные окружения
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("config: не удалось прочитать .env", "error", err)
	}

	return &Config{
		AppPort:     getEnv("APP_PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getInt("REDIS_DB", 0),
		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 120),

		MinBet:     getDecimal("MIN_BET", "0.10"),
		MaxBet:     getDecimal("MAX_BET", "1000"),
		GridSize:   getInt("GRID_SIZE", 25),
		SessionTTL: getDuration("SESSION_TTL", time.Hour),
		RNGMode:    getEnv("RNG_MODE", "fair"),

		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn("config: некорректное число, используется значение по умолчанию", "key", key, "value", v)
		return def
	}
	return n
}

func getDecimal(key, def string) decimal.Decimal {
	v := getEnv(key, def)
	d, err := decimal.NewFromString(v)
	if err != nil {
		logger.Warn("config: некорректная сумма, используется значение по умолчанию", "key", key, "value", v)
		return decimal.RequireFromString(def)
	}
	return d
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logger.Warn("config: некорректная длительность, используется значение по умолчанию", "key", key, "value", v)
		return def
	}
	return d
}
