package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Suraj127-git/genai-coach-backend/internal/store"
)

type createSessionRequest struct {
	Title    string `json:"title"`
	Question string `json:"question"`
}

type completeSessionRequest struct {
	Transcript      string `json:"transcript"`
	AudioKey        string `json:"audio_s3_key"`
	DurationSeconds int    `json:"duration_seconds"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}

	sess, err := s.store.CreateSession(r.Context(), string(identityFrom(r)), req.Title, req.Question)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)

	sessions, err := s.store.ListSessions(r.Context(), string(identityFrom(r)), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	if sessions == nil {
		sessions = []*store.Session{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"sessions": sessions, "count": len(sessions)})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.SessionByID(r.Context(), chi.URLParam(r, "id"), string(identityFrom(r)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "session_not_found", "session not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

// handleCompleteSession attaches the final transcript and recording to a
// session and generates feedback. Feedback generation can fall back to a
// default assessment but never fails the request.
func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := string(identityFrom(r))

	var req completeSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "transcript is required")
		return
	}

	sess, err := s.store.SessionByID(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "session_not_found", "session not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	fb := s.assistant.GenerateFeedback(r.Context(), sess.Question, req.Transcript, req.DurationSeconds)

	updated, err := s.store.CompleteSession(r.Context(), id, userID, store.Completion{
		Transcript:      req.Transcript,
		AudioKey:        req.AudioKey,
		DurationSeconds: req.DurationSeconds,
		Feedback: store.Feedback{
			OverallScore:       fb.OverallScore,
			CommunicationScore: fb.CommunicationScore,
			TechnicalScore:     fb.TechnicalScore,
			ClarityScore:       fb.ClarityScore,
			Strengths:          fb.Strengths,
			Improvements:       fb.Improvements,
			DetailedFeedback:   fb.DetailedFeedback,
		},
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
