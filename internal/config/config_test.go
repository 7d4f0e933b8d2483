package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "DATA_DIR", "BOOKINGS_FILE", "STORAGE_BACKEND", "SLOT_INTERVAL", "CORS_ALLOWED_ORIGINS", "BEDROCK_MODEL_ID", "GEMINI_API_KEY"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8000" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.StorageBackend != StorageFile {
		t.Fatalf("expected file storage by default, got %s", cfg.StorageBackend)
	}
	if cfg.BookingsFile != "data/bookings.json" {
		t.Fatalf("expected default bookings file, got %s", cfg.BookingsFile)
	}
	if cfg.SlotInterval != 30*time.Minute {
		t.Fatalf("expected 30m slot interval, got %s", cfg.SlotInterval)
	}
	if cfg.ConversationWindow != 10 {
		t.Fatalf("expected window of 10 messages, got %d", cfg.ConversationWindow)
	}
	if cfg.FAQScoreThreshold != 0.5 || cfg.FAQSearchLimit != 2 {
		t.Fatalf("unexpected faq defaults: %v %d", cfg.FAQScoreThreshold, cfg.FAQSearchLimit)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("expected wildcard CORS by default, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.LLMConfigured() {
		t.Fatalf("expected no llm configured by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATA_DIR", "/var/lib/clinic")
	t.Setenv("STORAGE_BACKEND", " Postgres ")
	t.Setenv("SLOT_INTERVAL", "15m")
	t.Setenv("CONVERSATION_TTL", "2h")
	t.Setenv("FAQ_SCORE_THRESHOLD", "0.75")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("GEMINI_API_KEY", "key")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.StorageBackend != StoragePostgres {
		t.Fatalf("expected postgres backend, got %q", cfg.StorageBackend)
	}
	if cfg.ScheduleFile != "/var/lib/clinic/doctor_schedule.json" {
		t.Fatalf("expected schedule file under data dir, got %s", cfg.ScheduleFile)
	}
	if cfg.SlotInterval != 15*time.Minute {
		t.Fatalf("expected slot interval override, got %s", cfg.SlotInterval)
	}
	if cfg.ConversationTTL != 2*time.Hour {
		t.Fatalf("expected ttl override, got %s", cfg.ConversationTTL)
	}
	if cfg.FAQScoreThreshold != 0.75 {
		t.Fatalf("expected threshold override, got %v", cfg.FAQScoreThreshold)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.LLMConfigured() {
		t.Fatalf("expected gemini key to count as configured llm")
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("LLM_MAX_RETRIES", "many")
	t.Setenv("LLM_TIMEOUT", "soon")
	cfg := Load()
	if cfg.LLMMaxRetries != 1 {
		t.Fatalf("expected default retries, got %d", cfg.LLMMaxRetries)
	}
	if cfg.LLMTimeout != 20*time.Second {
		t.Fatalf("expected default timeout, got %s", cfg.LLMTimeout)
	}
}

func TestSessionBackend(t *testing.T) {
	cases := []struct {
		name  string
		store string
		redis string
		want  string
	}{
		{name: "memory without redis", want: SessionStoreMemory},
		{name: "redis when addr set", redis: "localhost:6379", want: SessionStoreRedis},
		{name: "explicit dynamodb", store: "dynamodb", redis: "localhost:6379", want: SessionStoreDynamoDB},
		{name: "explicit memory wins", store: "memory", redis: "localhost:6379", want: SessionStoreMemory},
		{name: "unknown falls back", store: "etcd", want: SessionStoreMemory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{ConversationStore: tc.store, RedisAddr: tc.redis}
			if got := cfg.SessionBackend(); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
