// Package handlers provides HTTP handlers for the DEGIRO account views.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/degiro/internal/archive"
	"github.com/aristath/degiro/internal/domain"
	"github.com/aristath/degiro/internal/utils"
)

// Handler serves the normalized account views as JSON
type Handler struct {
	broker  domain.BrokerClient
	archive *archive.Repository
	log     zerolog.Logger
	now     func() time.Time
}

// NewHandler creates a new account handler. archiveRepo may be nil, in which
// case the archive routes answer 404.
func NewHandler(broker domain.BrokerClient, archiveRepo *archive.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		broker:  broker,
		archive: archiveRepo,
		log:     log.With().Str("handler", "account").Logger(),
		now:     time.Now,
	}
}

// HandleGetPortfolio returns open positions grouped by position type.
// ?type=PRODUCT limits the response to one group.
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	portfolio, err := h.broker.Portfolio(r.Context())
	if err != nil {
		h.writeBrokerError(w, err)
		return
	}

	if positionType := r.URL.Query().Get("type"); positionType != "" {
		filtered := domain.Portfolio{}
		if group, ok := portfolio[strings.ToUpper(positionType)]; ok {
			filtered[strings.ToUpper(positionType)] = group
		}
		portfolio = filtered
	}

	h.writeJSON(w, http.StatusOK, portfolio)
}

// HandleGetSummary returns equity and cash in ?currency= or the reference currency
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.broker.PortfolioSummaryIn(r.Context(), strings.ToUpper(r.URL.Query().Get("currency")))
	if err != nil {
		h.writeBrokerError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// HandleGetCashFunds returns cash balances keyed by currency
func (h *Handler) HandleGetCashFunds(w http.ResponseWriter, r *http.Request) {
	funds, err := h.broker.CashFunds(r.Context())
	if err != nil {
		h.writeBrokerError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, funds)
}

// HandleGetTotals returns the account totals block
func (h *Handler) HandleGetTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.broker.Totals(r.Context())
	if err != nil {
		h.writeBrokerError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, totals)
}

// HandleGetOrders returns open orders
func (h *Handler) HandleGetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.broker.Orders(r.Context())
	if err != nil {
		h.writeBrokerError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, orders)
}

// HandleGetCashMovements returns the cash ledger for ?from=&to= (YYYY-MM-DD)
func (h *Handler) HandleGetCashMovements(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	movements, err := h.broker.CashMovements(r.Context(), from, to)
	if err != nil {
		h.writeBrokerError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, movements)
}

// HandleGetTransactions returns transactions for ?from=&to= (YYYY-MM-DD)
func (h *Handler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	transactions, err := h.broker.Transactions(r.Context(), from, to)
	if err != nil {
		h.writeBrokerError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, transactions)
}

// HandleGetProducts returns product metadata for ?ids=a,b,c
func (h *Handler) HandleGetProducts(w http.ResponseWriter, r *http.Request) {
	ids := utils.ParseCSV(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		h.writeError(w, http.StatusBadRequest, "ids query parameter is required")
		return
	}

	products, err := h.broker.ProductInfo(r.Context(), ids)
	if err != nil {
		h.writeBrokerError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, products)
}

// HandleRefreshSnapshot re-fetches the account snapshot
func (h *Handler) HandleRefreshSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := h.broker.Refresh(r.Context()); err != nil {
		h.writeBrokerError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"refreshed":    true,
		"refreshed_at": h.now().UTC().Format(time.RFC3339),
	})
}

// HandleGetArchivedCashMovements returns archived cash movements for ?from=&to=
func (h *Handler) HandleGetArchivedCashMovements(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		h.writeError(w, http.StatusNotFound, "archive not configured")
		return
	}
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	movements, err := h.archive.ListCashMovements(r.Context(), from, to)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read archive")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, movements)
}

// HandleGetArchiveBatches lists archive runs
func (h *Handler) HandleGetArchiveBatches(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		h.writeError(w, http.StatusNotFound, "archive not configured")
		return
	}

	batches, err := h.archive.ListBatches(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read archive")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, batches)
}

func (h *Handler) parseRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	q := r.URL.Query()
	from, to, err := utils.ParseRange(q.Get("from"), q.Get("to"), h.now())
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// Helper methods

// StatusFor maps broker errors to HTTP status codes
func StatusFor(err error) int {
	var (
		missingCurrency *domain.MissingCurrencyError
		malformed       *domain.MalformedResponseError
		transport       *domain.TransportError
		config          *domain.ConfigError
		auth            *domain.AuthenticationError
	)

	switch {
	case errors.As(err, &missingCurrency):
		return http.StatusNotFound
	case errors.As(err, &auth):
		return http.StatusUnauthorized
	case errors.As(err, &malformed), errors.As(err, &transport), errors.As(err, &config):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrNotAuthenticated), errors.Is(err, domain.ErrAccountNotResolved):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeBrokerError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Int("status", status).Msg("Broker request failed")
	} else {
		h.log.Warn().Err(err).Int("status", status).Msg("Broker request rejected")
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
