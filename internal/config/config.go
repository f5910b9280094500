package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Session settings
	SessionExpiryMinutes      int
	IdleTimeoutSeconds        int
	ReaperPollSeconds         int
	LeaderboardRefreshSeconds int

	// Playfield tuning
	PlayfieldWidth  float64
	PlayfieldHeight float64
	GravityY        float64
	AirResistance   float64
	BallRadius      float64

	// Security
	JWTSecret string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/tiltbar?sslmode=disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Session settings
		SessionExpiryMinutes:      getEnvInt("SESSION_EXPIRY_MINUTES", 10),
		IdleTimeoutSeconds:        getEnvInt("IDLE_TIMEOUT_SECONDS", 120),
		ReaperPollSeconds:         getEnvInt("REAPER_POLL_SECONDS", 15),
		LeaderboardRefreshSeconds: getEnvInt("LEADERBOARD_REFRESH_SECONDS", 60),

		// Playfield tuning
		PlayfieldWidth:  getEnvFloat("PLAYFIELD_WIDTH", 800),
		PlayfieldHeight: getEnvFloat("PLAYFIELD_HEIGHT", 600),
		GravityY:        getEnvFloat("GRAVITY_Y", 900),
		AirResistance:   getEnvFloat("AIR_RESISTANCE", 0.995),
		BallRadius:      getEnvFloat("BALL_RADIUS", 8),

		// Security
		JWTSecret: getEnv("JWT_SECRET", "change-me-in-production"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
