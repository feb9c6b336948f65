package domain

import (
	"context"
	"time"
)

// BrokerClient defines the read-only account views exposed by a logged-in
// broker session. The HTTP API and the archive depend on this interface
// instead of the concrete DEGIRO client.
type BrokerClient interface {
	// Snapshot-backed views
	Portfolio(ctx context.Context) (Portfolio, error)
	CashFunds(ctx context.Context) (CashFunds, error)
	PortfolioSummaryIn(ctx context.Context, currency string) (*PortfolioSummary, error)
	Totals(ctx context.Context) (Totals, error)
	Orders(ctx context.Context) ([]Order, error)

	// Refresh re-fetches the snapshot, replacing the cached one
	Refresh(ctx context.Context) error

	// Reporting views
	CashMovements(ctx context.Context, from, to time.Time) ([]CashMovement, error)
	Transactions(ctx context.Context, from, to time.Time) ([]Transaction, error)

	// ProductInfo returns metadata keyed by product id
	ProductInfo(ctx context.Context, ids []string) (map[string]ProductInfo, error)
}

// HistorySource is the subset of BrokerClient needed to archive account history.
type HistorySource interface {
	CashMovements(ctx context.Context, from, to time.Time) ([]CashMovement, error)
	Transactions(ctx context.Context, from, to time.Time) ([]Transaction, error)
}
