package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/Suraj127-git/genai-coach-backend/internal/ai"
	"github.com/Suraj127-git/genai-coach-backend/internal/auth"
	"github.com/Suraj127-git/genai-coach-backend/internal/config"
	"github.com/Suraj127-git/genai-coach-backend/internal/observability"
	"github.com/Suraj127-git/genai-coach-backend/internal/realtime"
	"github.com/Suraj127-git/genai-coach-backend/internal/storage"
	"github.com/Suraj127-git/genai-coach-backend/internal/store"
)

// FeedbackGenerator produces the structured assessment attached to a
// completed session.
type FeedbackGenerator interface {
	GenerateFeedback(ctx context.Context, question, transcript string, durationSeconds int) ai.Feedback
}

// ChatResponder answers free-form coaching messages.
type ChatResponder interface {
	Chat(ctx context.Context, message string) (string, error)
}

// Assistant is the AI surface the HTTP API consumes directly.
type Assistant interface {
	FeedbackGenerator
	ChatResponder
}

type Server struct {
	cfg        config.Config
	tokens     *auth.Tokens
	store      store.Store
	objects    storage.Store
	assistant  Assistant
	dispatcher *realtime.Dispatcher
	metrics    *observability.Metrics
	upgrader   websocket.Upgrader
}

func New(
	cfg config.Config,
	tokens *auth.Tokens,
	st store.Store,
	objects storage.Store,
	assistant Assistant,
	dispatcher *realtime.Dispatcher,
	metrics *observability.Metrics,
) *Server {
	return &Server{
		cfg:        cfg,
		tokens:     tokens,
		store:      st,
		objects:    objects,
		assistant:  assistant,
		dispatcher: dispatcher,
		metrics:    metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same
				// origin unless explicitly opened up. Non-browser clients
				// omit Origin and are allowed.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/api/v1/auth/register", s.handleRegister)
	r.Post("/api/v1/auth/login", s.handleLogin)
	r.Post("/api/v1/auth/refresh", s.handleRefresh)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/api/v1/auth/me", s.handleMe)
		r.Post("/api/v1/sessions", s.handleCreateSession)
		r.Get("/api/v1/sessions", s.handleListSessions)
		r.Get("/api/v1/sessions/{id}", s.handleGetSession)
		r.Post("/api/v1/sessions/{id}/complete", s.handleCompleteSession)
		r.Post("/api/v1/uploads/presign", s.handlePresignUpload)
		r.Post("/api/v1/uploads/confirm", s.handleConfirmUpload)
		r.Post("/api/v1/ai/chat", s.handleChat)
	})

	r.Get("/ws/transcribe", s.handleTranscribeWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

// handleTranscribeWS upgrades the realtime transcription channel and hands
// the connection to the dispatcher. Authentication happens in-band via the
// protocol handshake, not via HTTP middleware.
func (s *Server) handleTranscribeWS(w http.ResponseWriter, r *http.Request) {
	if s.dispatcher == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "realtime channel not configured")
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.dispatcher.HandleConn(r.Context(), conn)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
