package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/Suraj127-git/genai-coach-backend/internal/observability"
)

// Stage failure reasons. The dispatcher maps transcription failures to an
// outbound error message and skips the audio push on synthesis failures;
// neither ever closes a connection.
var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrDecodeFailed        = errors.New("audio decode failed")
)

// DefaultResponse is spoken when reply generation fails.
const DefaultResponse = "That's an interesting answer. Could you walk me through your reasoning in a bit more detail?"

// SpeechToText decodes recorded speech to text.
type SpeechToText interface {
	Transcribe(ctx context.Context, audio io.Reader) (string, error)
}

// ResponseGenerator produces the coach's next-turn reply.
type ResponseGenerator interface {
	Respond(ctx context.Context, question, transcript string) (string, error)
}

// SpeechSynthesizer renders text to encoded audio bytes.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// ObjectStore is the slice of object storage the pipeline needs.
type ObjectStore interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, body []byte, contentType string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Pipeline composes the speech-to-text, response, and speech-synthesis
// collaborators into the three stages the dispatcher drives. Stages perform
// no retries; retry policy belongs to the caller.
type Pipeline struct {
	stt       SpeechToText
	responder ResponseGenerator
	tts       SpeechSynthesizer
	store     ObjectStore
	signTTL   time.Duration
	metrics   *observability.Metrics
}

func New(stt SpeechToText, responder ResponseGenerator, tts SpeechSynthesizer, store ObjectStore, signTTL time.Duration, metrics *observability.Metrics) *Pipeline {
	if signTTL <= 0 {
		signTTL = time.Hour
	}
	return &Pipeline{
		stt:       stt,
		responder: responder,
		tts:       tts,
		store:     store,
		signTTL:   signTTL,
		metrics:   metrics,
	}
}

// Transcribe fetches the referenced recording from object storage and
// decodes it to text.
func (p *Pipeline) Transcribe(ctx context.Context, key string) (string, error) {
	start := time.Now()
	body, err := p.store.Get(ctx, key)
	if err != nil {
		p.metrics.PipelineErrors.WithLabelValues("transcribe").Inc()
		return "", fmt.Errorf("fetch %s: %w", key, ErrUpstreamUnavailable)
	}
	defer body.Close()

	text, err := p.stt.Transcribe(ctx, body)
	if err != nil {
		p.metrics.PipelineErrors.WithLabelValues("transcribe").Inc()
		return "", fmt.Errorf("transcribe %s: %w", key, ErrUpstreamUnavailable)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		p.metrics.PipelineErrors.WithLabelValues("transcribe").Inc()
		return "", fmt.Errorf("transcribe %s: %w", key, ErrDecodeFailed)
	}
	p.metrics.ObserveStage("transcribe", time.Since(start))
	return text, nil
}

// Respond generates the next-turn reply. Failures fall back to a fixed
// default text instead of propagating.
func (p *Pipeline) Respond(ctx context.Context, question, transcript string) string {
	start := time.Now()
	reply, err := p.responder.Respond(ctx, question, transcript)
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil {
			log.Printf("reply generation failed, using default: %v", err)
		}
		p.metrics.PipelineErrors.WithLabelValues("respond").Inc()
		return DefaultResponse
	}
	p.metrics.ObserveStage("respond", time.Since(start))
	return reply
}

// Synthesize renders text to speech and uploads the audio, returning the
// storage key. Keys are scoped by session and ordinal so no two interactions
// on the same connection collide.
func (p *Pipeline) Synthesize(ctx context.Context, sessionID string, ordinal int64, text string) (string, error) {
	start := time.Now()
	audio, err := p.tts.Synthesize(ctx, text)
	if err != nil {
		p.metrics.PipelineErrors.WithLabelValues("synthesize").Inc()
		return "", fmt.Errorf("synthesize: %w", ErrUpstreamUnavailable)
	}

	key := fmt.Sprintf("ai-audio/%s/interaction-%d.mp3", sessionID, ordinal)
	if err := p.store.Put(ctx, key, audio, "audio/mpeg"); err != nil {
		p.metrics.PipelineErrors.WithLabelValues("synthesize").Inc()
		return "", fmt.Errorf("upload %s: %w", key, ErrUpstreamUnavailable)
	}
	p.metrics.ObserveStage("synthesize", time.Since(start))
	return key, nil
}

// AudioURL resolves a storage key to a time-limited fetch URL.
func (p *Pipeline) AudioURL(ctx context.Context, key string) (string, error) {
	url, err := p.store.SignedURL(ctx, key, p.signTTL)
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", key, err)
	}
	return url, nil
}
