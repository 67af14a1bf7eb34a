package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all submission routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/deals/{dealId}/submissions", h.HandleListByDeal)

	r.Route("/submissions", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleGet)
		r.Patch("/{id}", h.HandleUpdate)
		r.Post("/{id}/verify", h.HandleVerify)
		r.Post("/{id}/dispute", h.HandleDispute)
	})
}
