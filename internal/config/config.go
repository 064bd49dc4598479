package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config contains all runtime settings for the interview coach backend.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	// WSAuthTimeout bounds how long a freshly opened realtime connection may
	// sit in the handshake phase before it is closed.
	WSAuthTimeout time.Duration

	DatabaseURL string

	AuthSecretKey   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	AWSRegion      string
	AWSEndpointURL string
	S3Bucket       string
	S3PresignTTL   time.Duration

	AIProvider         string
	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAIWhisperModel string
	OpenAITTSModel     string
	OpenAITTSVoice     string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "coach"),
		AllowAnyOrigin:   false,
		DatabaseURL:      envTrimmed("DATABASE_URL"),
		AuthSecretKey:    envTrimmed("AUTH_SECRET_KEY"),
		AWSRegion:        envOrDefault("AWS_REGION", "us-east-1"),
		// Some managed object stores hand out the endpoint with a stray "$"
		// prefix in their dashboard snippets.
		AWSEndpointURL: strings.TrimPrefix(envTrimmed("AWS_ENDPOINT_URL"), "$"),
		S3Bucket:       envTrimmed("S3_BUCKET_NAME"),
		AIProvider:     envOrDefault("AI_PROVIDER", "auto"),
		OpenAIAPIKey:   envTrimmed("OPENAI_API_KEY"),
		OpenAIModel:    envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		// Whisper handles the m4a recordings the mobile client uploads.
		OpenAIWhisperModel: envOrDefault("OPENAI_WHISPER_MODEL", "whisper-1"),
		OpenAITTSModel:     envOrDefault("OPENAI_TTS_MODEL", "tts-1"),
		OpenAITTSVoice:     envOrDefault("OPENAI_TTS_VOICE", "alloy"),
		ShutdownTimeout:    15 * time.Second,
		WSAuthTimeout:      10 * time.Second,
		AccessTokenTTL:     30 * time.Minute,
		RefreshTokenTTL:    7 * 24 * time.Hour,
		S3PresignTTL:       time.Hour,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.WSAuthTimeout, err = durationFromEnv("APP_WS_AUTH_TIMEOUT", cfg.WSAuthTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AccessTokenTTL, err = durationFromEnv("AUTH_ACCESS_TOKEN_TTL", cfg.AccessTokenTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.RefreshTokenTTL, err = durationFromEnv("AUTH_REFRESH_TOKEN_TTL", cfg.RefreshTokenTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.S3PresignTTL, err = durationFromEnv("S3_PRESIGN_TTL", cfg.S3PresignTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.AuthSecretKey == "" {
		return Config{}, fmt.Errorf("AUTH_SECRET_KEY must be set")
	}
	if cfg.WSAuthTimeout < time.Second {
		return Config{}, fmt.Errorf("APP_WS_AUTH_TIMEOUT must be at least 1s")
	}
	if cfg.AccessTokenTTL <= 0 {
		return Config{}, fmt.Errorf("AUTH_ACCESS_TOKEN_TTL must be positive")
	}
	if cfg.RefreshTokenTTL <= 0 {
		return Config{}, fmt.Errorf("AUTH_REFRESH_TOKEN_TTL must be positive")
	}
	if cfg.S3PresignTTL < time.Minute {
		return Config{}, fmt.Errorf("S3_PRESIGN_TTL must be at least 1m")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.AIProvider)) {
	case "auto", "openai", "mock":
	default:
		return Config{}, fmt.Errorf("invalid AI_PROVIDER: %q (expected auto|openai|mock)", cfg.AIProvider)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(envTrimmed(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
