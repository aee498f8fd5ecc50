package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("TURN_DELAY_MS", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.TurnDelay != 3*time.Second {
		t.Errorf("TurnDelay = %v, want %v", cfg.TurnDelay, 3*time.Second)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("TURN_DELAY_MS", "500")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9090")
	}
	if cfg.GeminiAPIKey != "test-key" {
		t.Errorf("GeminiAPIKey = %q, want %q", cfg.GeminiAPIKey, "test-key")
	}
	if cfg.TurnDelay != 500*time.Millisecond {
		t.Errorf("TurnDelay = %v, want %v", cfg.TurnDelay, 500*time.Millisecond)
	}
}

func TestLoadRejectsBadTurnDelay(t *testing.T) {
	t.Setenv("TURN_DELAY_MS", "not-a-number")

	cfg := Load()
	if cfg.TurnDelay != 3*time.Second {
		t.Errorf("TurnDelay = %v, want fallback %v", cfg.TurnDelay, 3*time.Second)
	}
}
