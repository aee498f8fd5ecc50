package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds server configuration loaded from the environment.
type Config struct {
	Port         string
	GeminiAPIKey string
	JWTSecret    string
	TextModel    string
	TTSModel     string
	TurnDelay    time.Duration
}

// Load reads configuration from a .env file, when present, and the
// process environment. Missing values fall back to defaults; the
// Gemini key may be empty, in which case the server runs with mock
// providers.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:         getenv("PORT", "8080"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		TextModel:    os.Getenv("TEXT_MODEL"),
		TTSModel:     os.Getenv("TTS_MODEL"),
		TurnDelay:    getduration("TURN_DELAY_MS", 3000*time.Millisecond),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
