// Package handlers provides HTTP handlers for financial submissions.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/covenantmonitor/internal/modules/submissions"
	"github.com/aristath/covenantmonitor/internal/utils"
)

// Handler handles submission HTTP requests
type Handler struct {
	service *submissions.Service
	log     zerolog.Logger
}

// NewHandler creates a new submissions handler
func NewHandler(service *submissions.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "submissions").Logger(),
	}
}

// VerifyRequest is the body of POST /api/submissions/{id}/verify
type VerifyRequest struct {
	VerifiedBy string `json:"verifiedBy"`
}

// DisputeRequest is the body of POST /api/submissions/{id}/dispute
type DisputeRequest struct {
	DisputedBy string `json:"disputedBy"`
	Reason     string `json:"reason"`
}

// HandleCreate handles POST /api/submissions
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input submissions.CreateFinancialSubmissionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sub, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, err, "Failed to create submission")
		return
	}
	h.writeData(w, http.StatusCreated, sub)
}

// HandleListByDeal handles GET /api/deals/{dealId}/submissions
func (h *Handler) HandleListByDeal(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListByDeal(r.Context(), chi.URLParam(r, "dealId"))
	if err != nil {
		h.writeServiceError(w, err, "Failed to list submissions")
		return
	}
	h.writeData(w, http.StatusOK, list)
}

// HandleGet handles GET /api/submissions/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, sub, err, "Failed to get submission")
}

// HandleUpdate handles PATCH /api/submissions/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch submissions.SubmissionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sub, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
	h.respond(w, sub, err, "Failed to update submission")
}

// HandleVerify handles POST /api/submissions/{id}/verify
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sub, err := h.service.Verify(r.Context(), chi.URLParam(r, "id"), req.VerifiedBy)
	h.respond(w, sub, err, "Failed to verify submission")
}

// HandleDispute handles POST /api/submissions/{id}/dispute
func (h *Handler) HandleDispute(w http.ResponseWriter, r *http.Request) {
	var req DisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sub, err := h.service.Dispute(r.Context(), chi.URLParam(r, "id"), req.DisputedBy, req.Reason)
	h.respond(w, sub, err, "Failed to dispute submission")
}

func (h *Handler) respond(w http.ResponseWriter, sub *submissions.FinancialSubmission, err error, message string) {
	if err != nil {
		h.writeServiceError(w, err, message)
		return
	}
	if sub == nil {
		h.writeError(w, http.StatusNotFound, "Submission not found")
		return
	}
	h.writeData(w, http.StatusOK, sub)
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
