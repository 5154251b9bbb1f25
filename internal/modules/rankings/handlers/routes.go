package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all ranking routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/rankings", h.HandleRankings)
	r.Get("/stocks/{ticker}", h.HandleStockDetail)
	r.Get("/profiles", h.HandleProfiles)
	r.Post("/refresh", h.HandleRefresh)
}
