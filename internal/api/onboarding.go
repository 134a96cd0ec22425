// Package api exposes the loopback HTTP surface the desktop frontend
// talks to. Handlers are thin: decode, delegate to the onboarding
// service, map errors to the JSON error envelope.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/echonote/internal/onboarding"
)

const maxBodySize = 1 << 20 // 1MB

// AppDeps carries the collaborators the handlers need.
type AppDeps struct {
	Onboarding *onboarding.Service
	Token      string
}

// NewAppHandler mounts the application routes.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(BearerAuth(deps.Token))

	r.Get("/onboarding/status", handleGetStatus(deps))
	r.Put("/onboarding/status", handleSaveStatus(deps))
	r.Delete("/onboarding/status", handleResetStatus(deps))
	r.Post("/onboarding/complete", handleComplete(deps))

	return r
}

// statusResponse wraps the status document so the frontend can tell
// "never initialized" (initialized=false, status=null) apart from a
// stored in-progress wizard.
type statusResponse struct {
	Initialized bool               `json:"initialized"`
	Status      *onboarding.Status `json:"status"`
}

func handleGetStatus(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := deps.Onboarding.GetStatus()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{
			Initialized: status != nil,
			Status:      status,
		})
	}
}

func handleSaveStatus(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		var status onboarding.Status
		if err := json.NewDecoder(r.Body).Decode(&status); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if err := status.Validate(); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid status: %v", err)
			return
		}

		if err := deps.Onboarding.SaveStatus(status); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func handleResetStatus(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Onboarding.ResetStatus(); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

// CompleteRequest is the payload for finishing the wizard. Only the
// summary model is required; providers default to the built-in stack.
type CompleteRequest struct {
	SummaryModel          string  `json:"summary_model"`
	SummaryProvider       string  `json:"summary_provider,omitempty"`
	TranscriptionProvider string  `json:"transcription_provider,omitempty"`
	TranscriptionModel    string  `json:"transcription_model,omitempty"`
	OllamaEndpoint        *string `json:"ollama_endpoint,omitempty"`
}

func (req CompleteRequest) selection() onboarding.Selection {
	sel := onboarding.DefaultSelection(req.SummaryModel)
	if req.SummaryProvider != "" {
		sel.SummaryProvider = req.SummaryProvider
	}
	if req.TranscriptionProvider != "" {
		sel.TranscriptionProvider = req.TranscriptionProvider
	}
	if req.TranscriptionModel != "" {
		sel.TranscriptionModel = req.TranscriptionModel
	}
	sel.OllamaEndpoint = req.OllamaEndpoint
	return sel
}

func handleComplete(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		var req CompleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.SummaryModel == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "summary_model is required")
			return
		}

		if err := deps.Onboarding.Complete(r.Context(), req.selection()); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
