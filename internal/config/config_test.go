package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %s", cfg.LogLevel)
	}
	if cfg.SessionBackend != "memory" {
		t.Errorf("expected default session backend memory, got %s", cfg.SessionBackend)
	}
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Errorf("unexpected default model %s", cfg.GeminiModel)
	}
	if cfg.LLMMaxTokens != 4096 {
		t.Errorf("expected default max tokens 4096, got %d", cfg.LLMMaxTokens)
	}
	if cfg.ReplyDelay != time.Second {
		t.Errorf("expected default reply delay 1s, got %s", cfg.ReplyDelay)
	}
	if cfg.SessionTTL != 0 {
		t.Errorf("expected no session expiry by default, got %s", cfg.SessionTTL)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_BACKEND", "Redis ")
	t.Setenv("LLM_MAX_TOKENS", "1024")
	t.Setenv("REPLY_DELAY", "250ms")
	t.Setenv("REDIS_TLS", "true")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.SessionBackend != "redis" {
		t.Errorf("expected normalized backend redis, got %q", cfg.SessionBackend)
	}
	if cfg.LLMMaxTokens != 1024 {
		t.Errorf("expected max tokens 1024, got %d", cfg.LLMMaxTokens)
	}
	if cfg.ReplyDelay != 250*time.Millisecond {
		t.Errorf("expected reply delay 250ms, got %s", cfg.ReplyDelay)
	}
	if !cfg.RedisTLS {
		t.Error("expected RedisTLS true")
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("LLM_MAX_TOKENS", "not-a-number")
	t.Setenv("REPLY_DELAY", "soon")

	cfg := Load()

	if cfg.LLMMaxTokens != 4096 {
		t.Errorf("expected fallback max tokens 4096, got %d", cfg.LLMMaxTokens)
	}
	if cfg.ReplyDelay != time.Second {
		t.Errorf("expected fallback reply delay 1s, got %s", cfg.ReplyDelay)
	}
}
