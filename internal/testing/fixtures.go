package testing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/aristath/degiro/internal/domain"
)

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

// SamplePortfolio returns two products and one cash position
func SamplePortfolio() domain.Portfolio {
	return domain.Portfolio{
		domain.PositionTypeProduct: {
			"331868": {
				ID: "331868", PositionType: domain.PositionTypeProduct,
				Size: nd("10"), Price: nd("10"), Value: nd("100"),
				Name: "Apple Inc", ISIN: "US0378331005", Currency: "USD",
				ContractSize: decimal.NewFromInt(1), Enriched: true,
				Fields: map[string]interface{}{"productType": "STOCK"},
			},
			"4711": {
				ID: "4711", PositionType: domain.PositionTypeProduct,
				Size: nd("2500"), Price: nd("0.1"), Value: nd("250"),
				Name: "Bund 2030", ISIN: "DE0001102507", Currency: "EUR",
				ContractSize: decimal.NewFromInt(100), Enriched: true,
				Fields: map[string]interface{}{"productType": "BOND"},
			},
		},
		"CASH": {
			"FLATEX_EUR": {
				ID: "FLATEX_EUR", PositionType: "CASH",
				Size: nd("50"), Value: nd("50"), ContractSize: decimal.NewFromInt(1),
				Fields: map[string]interface{}{},
			},
		},
	}
}

// SampleCashFunds returns EUR and USD balances
func SampleCashFunds() domain.CashFunds {
	return domain.CashFunds{
		"EUR": {Currency: "EUR", Value: nd("50"), Fields: map[string]interface{}{"id": "2"}},
		"USD": {Currency: "USD", Value: nd("20"), Fields: map[string]interface{}{"id": "3"}},
	}
}

// SampleSummary matches SamplePortfolio and SampleCashFunds in EUR
func SampleSummary() *domain.PortfolioSummary {
	return &domain.PortfolioSummary{
		Equity:   decimal.RequireFromString("350"),
		Cash:     decimal.RequireFromString("50"),
		Total:    decimal.RequireFromString("400"),
		Currency: "EUR",
	}
}

// SampleCashMovements returns a deposit and a purchase
func SampleCashMovements() []domain.CashMovement {
	orderID := "abc-1"
	productID := "331868"
	return []domain.CashMovement{
		{
			Date:        time.Date(2021, 3, 4, 9, 0, 0, 0, time.UTC),
			Change:      decimal.RequireFromString("500"),
			Currency:    "EUR",
			Description: "Deposit",
			Type:        "CASH_TRANSACTION",
		},
		{
			Date:        time.Date(2021, 3, 5, 14, 30, 0, 0, time.UTC),
			Change:      decimal.RequireFromString("-100"),
			Currency:    "EUR",
			Description: "Buy 10 Apple Inc",
			Type:        "TRANSACTION",
			OrderID:     &orderID,
			ProductID:   &productID,
		},
	}
}
