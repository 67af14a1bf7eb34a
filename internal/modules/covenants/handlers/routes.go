package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all covenant routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/deals/{dealId}/covenants", h.HandleCreate)
	r.Get("/deals/{dealId}/covenants", h.HandleList)

	r.Route("/covenants", func(r chi.Router) {
		r.Get("/{id}", h.HandleGet)
		r.Patch("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}
