package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"geoclash/models"
	"geoclash/service"
)

// Config holds everything main needs to wire the service
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DBPath        string
	ServerPort    string
	InvitationTTL time.Duration
	BattleRangeKm float64
	SafeRadiusKm  float64
}

// Load reads configuration from the environment, with .env support and
// defaults for local development
func Load() *Config {
	// missing .env is fine; plain env vars still apply
	_ = godotenv.Load()

	return &Config{
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		DBPath:        getEnv("DB_PATH", "geoclash.db"),
		ServerPort:    getEnv("SERVER_PORT", ":8080"),
		InvitationTTL: getEnvDuration("INVITATION_TTL", service.DefaultInvitationTTL),
		BattleRangeKm: getEnvFloat("BATTLE_RANGE_KM", models.DefaultBattleRangeKm),
		SafeRadiusKm:  getEnvFloat("SAFE_RADIUS_KM", models.DefaultSafeRadiusKm),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
