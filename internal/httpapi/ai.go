package httpapi

import (
	"net/http"
	"strings"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// handleChat relays a free-form coaching message to the AI assistant.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}

	reply, err := s.assistant.Chat(r.Context(), req.Message)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "chat_failed", "chat service error")
		return
	}
	respondJSON(w, http.StatusOK, chatResponse{Reply: reply})
}
