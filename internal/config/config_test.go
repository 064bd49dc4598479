package config

import (
	"testing"
	"time"
)

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"APP_WS_AUTH_TIMEOUT",
		"DATABASE_URL",
		"AUTH_SECRET_KEY",
		"AUTH_ACCESS_TOKEN_TTL",
		"AUTH_REFRESH_TOKEN_TTL",
		"AWS_REGION",
		"AWS_ENDPOINT_URL",
		"S3_BUCKET_NAME",
		"S3_PRESIGN_TTL",
		"AI_PROVIDER",
		"OPENAI_API_KEY",
		"OPENAI_MODEL",
		"OPENAI_WHISPER_MODEL",
		"OPENAI_TTS_MODEL",
		"OPENAI_TTS_VOICE",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
	t.Setenv("AUTH_SECRET_KEY", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.MetricsNamespace != "coach" {
		t.Fatalf("MetricsNamespace = %q, want %q", cfg.MetricsNamespace, "coach")
	}
	if cfg.WSAuthTimeout != 10*time.Second {
		t.Fatalf("WSAuthTimeout = %v, want 10s", cfg.WSAuthTimeout)
	}
	if cfg.AccessTokenTTL != 30*time.Minute {
		t.Fatalf("AccessTokenTTL = %v, want 30m", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 7*24*time.Hour {
		t.Fatalf("RefreshTokenTTL = %v, want 168h", cfg.RefreshTokenTTL)
	}
	if cfg.AIProvider != "auto" {
		t.Fatalf("AIProvider = %q, want %q", cfg.AIProvider, "auto")
	}
	if cfg.OpenAIWhisperModel != "whisper-1" {
		t.Fatalf("OpenAIWhisperModel = %q, want %q", cfg.OpenAIWhisperModel, "whisper-1")
	}
	if cfg.AllowAnyOrigin {
		t.Fatalf("AllowAnyOrigin = true, want false default")
	}
}

func TestLoadRequiresAuthSecret(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("AUTH_SECRET_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want missing secret error")
	}
}

func TestLoadExplicitOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9090")
	t.Setenv("APP_WS_AUTH_TIMEOUT", "5s")
	t.Setenv("AI_PROVIDER", "mock")
	t.Setenv("APP_ALLOW_ANY_ORIGIN", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9090" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":9090")
	}
	if cfg.WSAuthTimeout != 5*time.Second {
		t.Fatalf("WSAuthTimeout = %v, want 5s", cfg.WSAuthTimeout)
	}
	if cfg.AIProvider != "mock" {
		t.Fatalf("AIProvider = %q, want %q", cfg.AIProvider, "mock")
	}
	if !cfg.AllowAnyOrigin {
		t.Fatalf("AllowAnyOrigin = false, want true")
	}
}

func TestLoadTrimsEndpointDollarPrefix(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("AWS_ENDPOINT_URL", "$https://minio.local:9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AWSEndpointURL != "https://minio.local:9000" {
		t.Fatalf("AWSEndpointURL = %q", cfg.AWSEndpointURL)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad duration", "APP_WS_AUTH_TIMEOUT", "soon"},
		{"too short auth window", "APP_WS_AUTH_TIMEOUT", "100ms"},
		{"bad bool", "APP_ALLOW_ANY_ORIGIN", "maybe"},
		{"negative token ttl", "AUTH_ACCESS_TOKEN_TTL", "-5m"},
		{"short presign ttl", "S3_PRESIGN_TTL", "5s"},
		{"unknown provider", "AI_PROVIDER", "gemini"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setCoreEnvEmpty(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() error = nil, want rejection of %s=%q", tc.key, tc.value)
			}
		})
	}
}
