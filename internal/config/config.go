package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BoardConfigPath string
	ActorConfigPath string
	Port            string
	LogLevel        string

	// Optional; without either the board lives in memory only. DatabaseURL
	// wins when both are set.
	DatabaseURL  string
	SQLitePath   string
	QueryTimeout time.Duration

	// Clustering
	ClusterPadding int

	// Trigger framework
	TriggerRetryMax     int
	TriggerRetryBackoff time.Duration
	TriggerRPCTimeout   time.Duration
	BreakerMaxFailures  int
	BreakerResetTimeout time.Duration
}

// Load reads the configuration from the environment. When ENV_FILE names a
// dotenv file its variables are loaded first; variables already set in the
// environment take precedence.
func Load() Config {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			panic(fmt.Sprintf("load env file %s: %v", envFile, err))
		}
	}

	return Config{
		BoardConfigPath:     getEnvRequired("BOARD_CONFIG_PATH"),
		ActorConfigPath:     getEnv("ACTOR_CONFIG_PATH", ""),
		Port:                getEnv("PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		SQLitePath:          getEnv("SQLITE_PATH", ""),
		QueryTimeout:        getEnvDuration("QUERY_TIMEOUT", 5*time.Second),
		ClusterPadding:      max(getEnvInt("CLUSTER_PADDING", 1), 0),
		TriggerRetryMax:     getEnvInt("TRIGGER_RETRY_MAX", 3),
		TriggerRetryBackoff: getEnvDuration("TRIGGER_RETRY_BACKOFF", 100*time.Millisecond),
		TriggerRPCTimeout:   getEnvDuration("TRIGGER_RPC_TIMEOUT", 5*time.Second),
		BreakerMaxFailures:  getEnvInt("BREAKER_MAX_FAILURES", 5),
		BreakerResetTimeout: getEnvDuration("BREAKER_RESET_TIMEOUT", 30*time.Second),
	}
}

// SlogLevel maps LogLevel to a slog level; unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func getEnvRequired(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic("required environment variable " + key + " is not set")
	}
	return v
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "error", err)
			return fallback
		}
		return n
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "error", err)
			return fallback
		}
		return d
	}
	return fallback
}
