package config

import (
	"os"
	"strconv"
	"time"

	"sekretarz/internal/drive"
	"sekretarz/internal/gemini"
)

type Config struct {
	Host        string
	GatewayPort string
	ChatPort    string

	DriveBaseURL string

	GeminiAPIKey       string
	GeminiModel        string
	SystemInstructions string

	RedisAddr string

	HistoryMaxPerSession int
	HistoryRetention     time.Duration
	HistorySweepSpec     string
}

func Load() Config {
	return Config{
		Host:        envDefault("SEKRETARZ_HOST", "0.0.0.0"),
		GatewayPort: envDefault("SEKRETARZ_GATEWAY_PORT", "8000"),
		ChatPort:    envDefault("SEKRETARZ_CHAT_PORT", "8080"),

		DriveBaseURL: envDefault("DRIVE_WEBAPP_URL", drive.DefaultBaseURL),

		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        envDefault("GEMINI_MODEL", gemini.DefaultModel),
		SystemInstructions: os.Getenv("SYSTEM_INSTRUCTIONS"),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		HistoryMaxPerSession: envInt("HISTORY_MAX_PER_SESSION", 500),
		HistoryRetention:     envDuration("HISTORY_RETENTION", 0),
		HistorySweepSpec:     envDefault("HISTORY_SWEEP", "@every 5m"),
	}
}

func envDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
