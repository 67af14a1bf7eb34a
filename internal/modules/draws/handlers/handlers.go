// Package handlers provides HTTP handlers for draw requests.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/covenantmonitor/internal/modules/draws"
	"github.com/aristath/covenantmonitor/internal/utils"
)

// Handler handles draw HTTP requests
type Handler struct {
	service *draws.Service
	log     zerolog.Logger
}

// NewHandler creates a new draws handler
func NewHandler(service *draws.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "draws").Logger(),
	}
}

// AmountRequest is the body of the approve and fund endpoints.
// Amount accepts a JSON number or a decimal string.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// RejectRequest is the body of POST /api/draws/{id}/reject
type RejectRequest struct {
	Reason string `json:"reason"`
}

// WaiveRequest is the body of POST /api/draws/{id}/conditions/{conditionId}/waive
type WaiveRequest struct {
	Note string `json:"note"`
}

// HandleCreate handles POST /api/draws
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input draws.CreateDrawRequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	d, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, err, "Failed to create draw request")
		return
	}
	h.writeData(w, http.StatusCreated, d)
}

// HandleListByDeal handles GET /api/deals/{dealId}/draws
func (h *Handler) HandleListByDeal(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListByDeal(r.Context(), chi.URLParam(r, "dealId"))
	if err != nil {
		h.writeServiceError(w, err, "Failed to list draw requests")
		return
	}
	h.writeData(w, http.StatusOK, list)
}

// HandleGetTemplates handles GET /api/draws/condition-templates
func (h *Handler) HandleGetTemplates(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, http.StatusOK, h.service.Templates())
}

// HandleGet handles GET /api/draws/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, d, err, "Failed to get draw request")
}

// HandleSubmit handles POST /api/draws/{id}/submit
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Submit(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, d, err, "Failed to submit draw request")
}

// HandleStartReview handles POST /api/draws/{id}/review
func (h *Handler) HandleStartReview(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.StartReview(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, d, err, "Failed to start review")
}

// HandleApprove handles POST /api/draws/{id}/approve
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	d, err := h.service.Approve(r.Context(), chi.URLParam(r, "id"), req.Amount)
	h.respond(w, d, err, "Failed to approve draw request")
}

// HandleReject handles POST /api/draws/{id}/reject
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	var req RejectRequest
	if err := decodeOptional(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	d, err := h.service.Reject(r.Context(), chi.URLParam(r, "id"), req.Reason)
	h.respond(w, d, err, "Failed to reject draw request")
}

// HandleFund handles POST /api/draws/{id}/fund
func (h *Handler) HandleFund(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	d, err := h.service.Fund(r.Context(), chi.URLParam(r, "id"), req.Amount)
	h.respond(w, d, err, "Failed to fund draw request")
}

// HandleSatisfyCondition handles POST /api/draws/{id}/conditions/{conditionId}/satisfy
func (h *Handler) HandleSatisfyCondition(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.SatisfyCondition(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "conditionId"))
	h.respond(w, d, err, "Failed to satisfy condition")
}

// HandleWaiveCondition handles POST /api/draws/{id}/conditions/{conditionId}/waive
func (h *Handler) HandleWaiveCondition(w http.ResponseWriter, r *http.Request) {
	var req WaiveRequest
	if err := decodeOptional(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	d, err := h.service.WaiveCondition(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "conditionId"), req.Note)
	h.respond(w, d, err, "Failed to waive condition")
}

// decodeOptional decodes a body that may be empty
func decodeOptional(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (h *Handler) respond(w http.ResponseWriter, d *draws.DrawRequest, err error, message string) {
	if err != nil {
		h.writeServiceError(w, err, message)
		return
	}
	if d == nil {
		h.writeError(w, http.StatusNotFound, "Draw request not found")
		return
	}
	h.writeData(w, http.StatusOK, d)
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
