// Package handlers provides HTTP handlers for covenant definitions.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/covenantmonitor/internal/modules/covenants"
	"github.com/aristath/covenantmonitor/internal/utils"
)

// Handler handles covenant definition HTTP requests
type Handler struct {
	service *covenants.Service
	log     zerolog.Logger
}

// NewHandler creates a new covenants handler
func NewHandler(service *covenants.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "covenants").Logger(),
	}
}

// HandleCreate handles POST /api/deals/{dealId}/covenants
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input covenants.CreateDefinitionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	input.DealID = chi.URLParam(r, "dealId")

	def, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, err, "Failed to create covenant")
		return
	}
	h.writeData(w, http.StatusCreated, def)
}

// HandleList handles GET /api/deals/{dealId}/covenants
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	defs, err := h.service.ListByDeal(r.Context(), chi.URLParam(r, "dealId"))
	if err != nil {
		h.writeServiceError(w, err, "Failed to list covenants")
		return
	}
	h.writeData(w, http.StatusOK, defs)
}

// HandleGet handles GET /api/covenants/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	def, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "Failed to get covenant")
		return
	}
	if def == nil {
		h.writeError(w, http.StatusNotFound, "Covenant not found")
		return
	}
	h.writeData(w, http.StatusOK, def)
}

// HandleUpdate handles PATCH /api/covenants/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch covenants.DefinitionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	def, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeServiceError(w, err, "Failed to update covenant")
		return
	}
	if def == nil {
		h.writeError(w, http.StatusNotFound, "Covenant not found")
		return
	}
	h.writeData(w, http.StatusOK, def)
}

// HandleDelete handles DELETE /api/covenants/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "Failed to delete covenant")
		return
	}
	if !deleted {
		h.writeError(w, http.StatusNotFound, "Covenant not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeData(w http.ResponseWriter, status int, data interface{}) {
	h.writeJSON(w, status, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, message string) {
	status := utils.StatusForError(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg(message)
		h.writeError(w, status, message)
		return
	}
	h.writeError(w, status, err.Error())
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
