package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/elevated-ai-works/assistant/internal/assistant"
	"github.com/elevated-ai-works/assistant/internal/model"
)

const defaultMaxBody = 64 * 1024

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("server: write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.AssistantResponse{OK: false, Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleQuotes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.Quotes())
}

type configResponse struct {
	AssistantAvailable bool   `json:"assistantAvailable"`
	LeadSource         string `json:"leadSource"`
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, configResponse{
		AssistantAvailable: s.chat.Available(),
		LeadSource:         s.chat.LeadSource(),
	})
}

func (s *Server) handlePreflight(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	if !s.chat.Available() {
		writeError(w, http.StatusInternalServerError, "Missing "+s.missingKey+".")
		return
	}

	limit := s.cfg.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBody
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	var req model.AssistantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large.")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "Messages are required.")
		return
	}

	resp, err := s.chat.Reply(r.Context(), req, assistant.Meta{UserAgent: r.UserAgent()})
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, assistant.ErrNotConfigured):
			writeError(w, http.StatusInternalServerError, "Missing "+s.missingKey+".")
			return
		case errors.Is(err, assistant.ErrTimeout):
			status = http.StatusGatewayTimeout
		}
		msg := assistant.UserMessage(err)
		if s.cfg.Debug {
			msg = err.Error()
		}
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
