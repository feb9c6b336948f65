package testing

import (
	"context"
	"sync"
	"time"

	"github.com/aristath/degiro/internal/domain"
)

// MockBrokerClient is a mock implementation of domain.BrokerClient for testing.
// Each view returns the configured value, or Err when set.
type MockBrokerClient struct {
	mu sync.Mutex

	PortfolioResult    domain.Portfolio
	CashFundsResult    domain.CashFunds
	SummaryResult      *domain.PortfolioSummary
	TotalsResult       domain.Totals
	OrdersResult       []domain.Order
	MovementsResult    []domain.CashMovement
	TransactionsResult []domain.Transaction
	ProductsResult     map[string]domain.ProductInfo

	Err error

	RefreshCalls    int
	SummaryCurrency string
	LastFrom        time.Time
	LastTo          time.Time
	LastProductIDs  []string
}

// NewMockBrokerClient creates a mock pre-filled with the fixture views
func NewMockBrokerClient() *MockBrokerClient {
	return &MockBrokerClient{
		PortfolioResult:    SamplePortfolio(),
		CashFundsResult:    SampleCashFunds(),
		SummaryResult:      SampleSummary(),
		TotalsResult:       domain.Totals{"portVal": "350", "cash": "50", "total": "400"},
		OrdersResult:       []domain.Order{},
		MovementsResult:    SampleCashMovements(),
		TransactionsResult: []domain.Transaction{},
		ProductsResult:     map[string]domain.ProductInfo{},
	}
}

// SetError makes every call fail with err
func (m *MockBrokerClient) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

func (m *MockBrokerClient) Portfolio(ctx context.Context) (domain.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.PortfolioResult, nil
}

func (m *MockBrokerClient) CashFunds(ctx context.Context) (domain.CashFunds, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.CashFundsResult, nil
}

func (m *MockBrokerClient) PortfolioSummaryIn(ctx context.Context, currency string) (*domain.PortfolioSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummaryCurrency = currency
	if m.Err != nil {
		return nil, m.Err
	}
	return m.SummaryResult, nil
}

func (m *MockBrokerClient) Totals(ctx context.Context) (domain.Totals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.TotalsResult, nil
}

func (m *MockBrokerClient) Orders(ctx context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.OrdersResult, nil
}

func (m *MockBrokerClient) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RefreshCalls++
	return m.Err
}

func (m *MockBrokerClient) CashMovements(ctx context.Context, from, to time.Time) ([]domain.CashMovement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastFrom, m.LastTo = from, to
	if m.Err != nil {
		return nil, m.Err
	}
	return m.MovementsResult, nil
}

func (m *MockBrokerClient) Transactions(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastFrom, m.LastTo = from, to
	if m.Err != nil {
		return nil, m.Err
	}
	return m.TransactionsResult, nil
}

func (m *MockBrokerClient) ProductInfo(ctx context.Context, ids []string) (map[string]domain.ProductInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastProductIDs = ids
	if m.Err != nil {
		return nil, m.Err
	}
	return m.ProductsResult, nil
}
