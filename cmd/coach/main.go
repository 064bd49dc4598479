package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Suraj127-git/genai-coach-backend/internal/ai"
	"github.com/Suraj127-git/genai-coach-backend/internal/auth"
	"github.com/Suraj127-git/genai-coach-backend/internal/config"
	"github.com/Suraj127-git/genai-coach-backend/internal/httpapi"
	"github.com/Suraj127-git/genai-coach-backend/internal/observability"
	"github.com/Suraj127-git/genai-coach-backend/internal/pipeline"
	"github.com/Suraj127-git/genai-coach-backend/internal/realtime"
	"github.com/Suraj127-git/genai-coach-backend/internal/storage"
	"github.com/Suraj127-git/genai-coach-backend/internal/store"
)

// aiProvider is everything a single AI backend must offer: transcription,
// reply generation, speech synthesis, chat, and feedback scoring.
type aiProvider interface {
	pipeline.SpeechToText
	pipeline.ResponseGenerator
	pipeline.SpeechSynthesizer
	httpapi.Assistant
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	records, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("store init failed: %v", err)
	}
	defer records.Close()
	if cfg.DatabaseURL == "" {
		log.Printf("record store: in-memory (DATABASE_URL not set)")
	} else {
		log.Printf("record store: postgres")
	}

	var objects storage.Store
	if cfg.S3Bucket == "" {
		log.Printf("object store: in-memory (S3_BUCKET_NAME not set)")
		objects = storage.NewMemory()
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			log.Fatalf("aws config load failed: %v", err)
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.AWSEndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
				o.UsePathStyle = true
			}
		})
		objects = storage.NewS3(client, s3.NewPresignClient(client), cfg.S3Bucket)
		log.Printf("object store: s3 bucket %s", cfg.S3Bucket)
	}

	var provider aiProvider
	switch strings.ToLower(strings.TrimSpace(cfg.AIProvider)) {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Fatalf("AI_PROVIDER=openai but OPENAI_API_KEY is not set")
		}
		provider = ai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIWhisperModel, cfg.OpenAITTSModel, cfg.OpenAITTSVoice)
		log.Printf("ai provider: openai (%s)", cfg.OpenAIModel)
	case "mock":
		provider = ai.NewMock()
		log.Printf("ai provider: mock")
	default: // auto
		if cfg.OpenAIAPIKey != "" {
			provider = ai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIWhisperModel, cfg.OpenAITTSModel, cfg.OpenAITTSVoice)
			log.Printf("ai provider: openai (%s)", cfg.OpenAIModel)
		} else {
			provider = ai.NewMock()
			log.Printf("ai provider: mock (no openai key)")
		}
	}

	tokens := auth.NewTokens(cfg.AuthSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	registry := realtime.NewRegistry()
	pipe := pipeline.New(provider, provider, provider, objects, cfg.S3PresignTTL, metrics)
	dispatcher := realtime.NewDispatcher(tokens, registry, pipe, records, metrics, cfg.WSAuthTimeout)

	api := httpapi.New(cfg, tokens, records, objects, provider, dispatcher, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
