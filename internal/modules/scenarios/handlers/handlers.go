// Package handlers provides HTTP handlers for scenario simulation.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/covenantmonitor/internal/modules/scenarios"
	"github.com/aristath/covenantmonitor/internal/utils"
)

// Handler handles scenario HTTP requests
type Handler struct {
	service *scenarios.Service
	log     zerolog.Logger
}

// NewHandler creates a new scenarios handler
func NewHandler(service *scenarios.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "scenarios").Logger(),
	}
}

// RunRequest is the body of POST /api/deals/{dealId}/scenarios.
// StrictFields rejects adjustments to fields missing from the base.
type RunRequest struct {
	scenarios.ScenarioInput
	StrictFields bool `json:"strictFields"`
}

// HandleRun handles POST /api/deals/{dealId}/scenarios
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	dealID := chi.URLParam(r, "dealId")
	result, err := h.service.Run(r.Context(), dealID, req.ScenarioInput, req.StrictFields)
	if err != nil {
		status := utils.StatusForError(err)
		if status == http.StatusInternalServerError {
			h.log.Error().Err(err).Str("deal_id", dealID).Msg("Failed to run scenario")
			h.writeError(w, status, "Failed to run scenario")
			return
		}
		h.writeError(w, status, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"deal_id":   dealID,
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
