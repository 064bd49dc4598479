package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Suraj127-git/genai-coach-backend/internal/auth"
	"github.com/Suraj127-git/genai-coach-backend/internal/store"
)

type ctxKey int

const identityKey ctxKey = iota

// requireAuth admits requests carrying a valid bearer access token and
// stashes the authenticated identity in the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		identity, err := s.tokens.VerifyAccess(strings.TrimSpace(token))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
	})
}

func identityFrom(r *http.Request) auth.Identity {
	id, _ := r.Context().Value(identityKey).(auth.Identity)
	return id
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	User         *store.User `json:"user,omitempty"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	TokenType    string      `json:"token_type"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		respondError(w, http.StatusBadRequest, "invalid_email", "a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		respondError(w, http.StatusBadRequest, "weak_password", "password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal", "could not process password")
		return
	}

	user, err := s.store.CreateUser(r.Context(), req.Email, hash, strings.TrimSpace(req.FullName))
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			respondError(w, http.StatusBadRequest, "email_taken", "Email already registered")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	s.respondTokens(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	user, err := s.store.UserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		// Same response for unknown email and wrong password.
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "incorrect email or password")
		return
	}

	s.respondTokens(w, http.StatusOK, user)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	identity, err := s.tokens.VerifyRefresh(strings.TrimSpace(req.RefreshToken))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid_token", "invalid refresh token")
		return
	}

	access, err := s.tokens.MintAccess(string(identity))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, tokenResponse{AccessToken: access, TokenType: "bearer"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.UserByID(r.Context(), string(identityFrom(r)))
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (s *Server) respondTokens(w http.ResponseWriter, status int, user *store.User) {
	access, err := s.tokens.MintAccess(user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	refresh, err := s.tokens.MintRefresh(user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	respondJSON(w, status, tokenResponse{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	})
}
