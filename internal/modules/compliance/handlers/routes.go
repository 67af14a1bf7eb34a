package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all compliance routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/deals/{dealId}/compliance/status", h.HandleGetStatus)
	r.Get("/deals/{dealId}/compliance/history", h.HandleGetHistory)
	r.Get("/deals/{dealId}/compliance/trends", h.HandleGetTrends)
}
