package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all draw routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/deals/{dealId}/draws", h.HandleListByDeal)

	r.Route("/draws", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/condition-templates", h.HandleGetTemplates)
		r.Get("/{id}", h.HandleGet)
		r.Post("/{id}/submit", h.HandleSubmit)
		r.Post("/{id}/review", h.HandleStartReview)
		r.Post("/{id}/approve", h.HandleApprove)
		r.Post("/{id}/reject", h.HandleReject)
		r.Post("/{id}/fund", h.HandleFund)

		r.Post("/{id}/conditions/{conditionId}/satisfy", h.HandleSatisfyCondition)
		r.Post("/{id}/conditions/{conditionId}/waive", h.HandleWaiveCondition)
	})
}
