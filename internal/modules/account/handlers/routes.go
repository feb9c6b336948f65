package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all account routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/", h.HandleGetPortfolio)      // Positions grouped by type (?type=)
		r.Get("/summary", h.HandleGetSummary) // Equity and cash (?currency=)
	})

	r.Get("/cash-funds", h.HandleGetCashFunds)
	r.Get("/totals", h.HandleGetTotals)
	r.Get("/orders", h.HandleGetOrders)
	r.Get("/cash-movements", h.HandleGetCashMovements) // ?from=&to=
	r.Get("/transactions", h.HandleGetTransactions)    // ?from=&to=
	r.Get("/products", h.HandleGetProducts)            // ?ids=a,b
	r.Post("/snapshot/refresh", h.HandleRefreshSnapshot)

	r.Route("/archive", func(r chi.Router) {
		r.Get("/cash-movements", h.HandleGetArchivedCashMovements)
		r.Get("/batches", h.HandleGetArchiveBatches)
	})
}
