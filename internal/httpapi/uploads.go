package httpapi

import (
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/Suraj127-git/genai-coach-backend/internal/storage"
)

type presignRequest struct {
	ContentType string `json:"content_type"`
	Extension   string `json:"extension"`
}

type presignResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

type confirmUploadRequest struct {
	Key string `json:"key"`
	// UploadedAt is a client-supplied unix timestamp in milliseconds.
	UploadedAt int64 `json:"uploaded_at"`
}

var contentTypeByExtension = map[string]string{
	"m4a": "audio/m4a",
	"mp3": "audio/mpeg",
	"wav": "audio/wav",
	"mp4": "video/mp4",
}

// handlePresignUpload mints a fresh upload key for the caller and returns a
// presigned PUT URL for it.
func (s *Server) handlePresignUpload(w http.ResponseWriter, r *http.Request) {
	var req presignRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	ext := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(req.Extension)), ".")
	if ext == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "extension is required")
		return
	}

	key := storage.UploadKey(string(identityFrom(r)), ext)
	url, err := s.objects.UploadURL(r.Context(), key, req.ContentType, s.cfg.S3PresignTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "presign_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, presignResponse{URL: url, Key: key})
}

// handleConfirmUpload records a completed upload, reading the stored size
// back from object storage.
func (s *Server) handleConfirmUpload(w http.ResponseWriter, r *http.Request) {
	var req confirmUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Key) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "key is required")
		return
	}

	size, err := s.objects.Head(r.Context(), req.Key)
	if err != nil {
		respondError(w, http.StatusBadRequest, "object_missing", "uploaded object not found")
		return
	}

	ext := strings.TrimPrefix(path.Ext(req.Key), ".")
	contentType, ok := contentTypeByExtension[ext]
	if !ok {
		contentType = "application/octet-stream"
	}

	uploadedAt := time.Now().UTC()
	if req.UploadedAt > 0 {
		uploadedAt = time.UnixMilli(req.UploadedAt).UTC()
	}

	upload, err := s.store.CreateUpload(r.Context(), string(identityFrom(r)), req.Key, contentType, size, uploadedAt)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "upload": upload})
}
