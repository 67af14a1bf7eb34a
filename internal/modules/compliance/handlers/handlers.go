// Package handlers provides HTTP handlers for deal compliance status, history and trends.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/covenantmonitor/internal/modules/compliance"
)

// Handler handles compliance HTTP requests
type Handler struct {
	service *compliance.Service
	log     zerolog.Logger
}

// NewHandler creates a new compliance handler
func NewHandler(service *compliance.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "compliance").Logger(),
	}
}

// HandleGetStatus handles GET /api/deals/{dealId}/compliance/status
func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	dealID := chi.URLParam(r, "dealId")
	status, err := h.service.Status(r.Context(), dealID)
	if err != nil {
		h.log.Error().Err(err).Str("deal_id", dealID).Msg("Failed to get compliance status")
		h.writeError(w, http.StatusInternalServerError, "Failed to get compliance status")
		return
	}
	if status == nil {
		h.writeError(w, http.StatusNotFound, "No evaluated submissions for deal")
		return
	}
	h.writeData(w, status)
}

// HandleGetHistory handles GET /api/deals/{dealId}/compliance/history
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	dealID := chi.URLParam(r, "dealId")
	history, err := h.service.History(r.Context(), dealID)
	if err != nil {
		h.log.Error().Err(err).Str("deal_id", dealID).Msg("Failed to get compliance history")
		h.writeError(w, http.StatusInternalServerError, "Failed to get compliance history")
		return
	}
	h.writeData(w, history)
}

// HandleGetTrends handles GET /api/deals/{dealId}/compliance/trends
func (h *Handler) HandleGetTrends(w http.ResponseWriter, r *http.Request) {
	dealID := chi.URLParam(r, "dealId")
	trends, err := h.service.Trends(r.Context(), dealID)
	if err != nil {
		h.log.Error().Err(err).Str("deal_id", dealID).Msg("Failed to get compliance trends")
		h.writeError(w, http.StatusInternalServerError, "Failed to get compliance trends")
		return
	}
	h.writeData(w, trends)
}

func (h *Handler) writeData(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp":  time.Now().Format(time.RFC3339),
			"thresholds": h.service.Thresholds(),
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
