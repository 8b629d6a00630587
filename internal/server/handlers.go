package server

import (
	"encoding/json"
	"errors"
	"net/http"

	errx "github.com/chatrelay/server/internal/core/error"
	logx "github.com/chatrelay/server/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// Query is a pointer so an absent field can be told apart from an
// explicit empty string; an empty query is legal, a missing one is not.
type chatRequest struct {
	Query    *string `json:"query"`
	UserID   string  `json:"userid"`
	ClientID string  `json:"clientid"`
}

type promptRequest struct {
	ClientID     string `json:"clientid"`
	SystemPrompt string `json:"system_prompt"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version":     "1",
		"description": "AI Chatbot Integration",
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.ClientID == "" {
		writeDetail(w, http.StatusBadRequest, "userid and clientid are required")
		return
	}
	if req.Query == nil {
		writeDetail(w, http.StatusBadRequest, "query is required")
		return
	}

	reply, err := s.svc.Converse(r.Context(), req.UserID, req.ClientID, *req.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (s *Server) handleSetPrompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ClientID == "" {
		writeDetail(w, http.StatusBadRequest, "clientid is required")
		return
	}

	if err := s.svc.SetSystemPrompt(r.Context(), req.ClientID, req.SystemPrompt); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"clientid":      req.ClientID,
		"system_prompt": req.SystemPrompt,
	})
}

func (s *Server) handleGetPrompt(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")

	text, ok, err := s.svc.GetSystemPrompt(r.Context(), clientID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeDetail(w, http.StatusNotFound, "client not registered")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"clientid":      clientID,
		"system_prompt": text,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logx.Error().Err(err).Msg("failed to encode response body")
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError maps a service error onto an HTTP response. The unified
// error type carries its own status and safe message; anything else is
// an internal error.
func writeError(w http.ResponseWriter, err error) {
	var appErr *errx.Error
	if errors.As(err, &appErr) {
		writeDetail(w, appErr.Status, appErr.Message)
		return
	}
	logx.Error().Err(err).Msg("unhandled service error")
	writeDetail(w, http.StatusInternalServerError, errx.SystemErrorMessage)
}
