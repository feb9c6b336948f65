package domain

import (
	"context"
	"testing"
	"time"
)

// TestBrokerClientInterface tests that BrokerClient interface has all required methods
func TestBrokerClientInterface(t *testing.T) {
	var _ BrokerClient = (*mockBrokerClient)(nil)
}

// TestHistorySourceInterface tests that a BrokerClient is also a HistorySource
func TestHistorySourceInterface(t *testing.T) {
	var _ HistorySource = (*mockBrokerClient)(nil)
}

type mockBrokerClient struct{}

func (m *mockBrokerClient) Portfolio(ctx context.Context) (Portfolio, error) { return nil, nil }
func (m *mockBrokerClient) CashFunds(ctx context.Context) (CashFunds, error) { return nil, nil }
func (m *mockBrokerClient) PortfolioSummaryIn(ctx context.Context, currency string) (*PortfolioSummary, error) {
	return nil, nil
}
func (m *mockBrokerClient) Totals(ctx context.Context) (Totals, error)  { return nil, nil }
func (m *mockBrokerClient) Orders(ctx context.Context) ([]Order, error) { return nil, nil }
func (m *mockBrokerClient) Refresh(ctx context.Context) error           { return nil }
func (m *mockBrokerClient) CashMovements(ctx context.Context, from, to time.Time) ([]CashMovement, error) {
	return nil, nil
}
func (m *mockBrokerClient) Transactions(ctx context.Context, from, to time.Time) ([]Transaction, error) {
	return nil, nil
}
func (m *mockBrokerClient) ProductInfo(ctx context.Context, ids []string) (map[string]ProductInfo, error) {
	return nil, nil
}
