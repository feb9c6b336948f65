package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Broker view types for the DEGIRO web trading API.
// Every view is built fresh from a fetched snapshot or report response.

// PositionTypeProduct is the position type of tradable instruments.
// Other position types (CASH, ...) are cash-like positions.
const PositionTypeProduct = "PRODUCT"

// PortfolioEntry represents one holding of the account.
// ID and PositionType are the keys the entry is indexed under in a Portfolio;
// they are not part of the payload in Fields.
type PortfolioEntry struct {
	ID           string                 `json:"-"`
	PositionType string                 `json:"-"`
	Size         decimal.NullDecimal    `json:"size"`  // Quantity held (multiplied by contract size once enriched), null when unknown
	Price        decimal.NullDecimal    `json:"price"` // Last price, null when unset
	Value        decimal.NullDecimal    `json:"value"` // Position value, null when unset
	Name         string                 `json:"name,omitempty"`
	ISIN         string                 `json:"isin,omitempty"`
	Currency     string                 `json:"currency,omitempty"`
	ContractSize decimal.Decimal        `json:"contractSize"` // 1 unless enriched with a different contract size
	Enriched     bool                   `json:"enriched"`     // Product metadata was merged in
	Fields       map[string]interface{} `json:"fields"`       // Remaining attributes, product fields merged in
}

// Portfolio maps position type -> product id -> entry.
type Portfolio map[string]map[string]*PortfolioEntry

// Products returns the PRODUCT group, or nil when the account holds none.
func (p Portfolio) Products() map[string]*PortfolioEntry {
	return p[PositionTypeProduct]
}

// CashFundEntry represents the cash balance held in one currency.
// The currency code is the key in CashFunds and is not repeated in Fields.
type CashFundEntry struct {
	Currency string                 `json:"-"`
	Value    decimal.NullDecimal    `json:"value"`
	Fields   map[string]interface{} `json:"fields"`
}

// CashFunds maps currency code -> cash fund entry.
type CashFunds map[string]*CashFundEntry

// PortfolioSummary is the aggregate account value in a reference currency.
type PortfolioSummary struct {
	Equity   decimal.Decimal `json:"equity"`   // Sum of PRODUCT entry values
	Cash     decimal.Decimal `json:"cash"`     // Cash balance in Currency
	Total    decimal.Decimal `json:"total"`    // Equity + Cash
	Currency string          `json:"currency"` // Reference currency of Cash
}

// CashMovement is one line of the account cash ledger.
type CashMovement struct {
	ID          *string         `json:"id,omitempty"` // Ledger line id, when the API sends one
	Date        time.Time       `json:"date"`
	Change      decimal.Decimal `json:"change"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	OrderID     *string         `json:"orderId,omitempty"`
	ProductID   *string         `json:"productId,omitempty"`
}

// Transaction is a raw transaction record from the reporting endpoint.
type Transaction map[string]interface{}

// ProductInfo is descriptive metadata for one product id, as returned by the
// product-info endpoint (name, isin, currency, contractSize, ...).
type ProductInfo map[string]interface{}

// Order is one open order row from the snapshot.
type Order map[string]interface{}

// Totals is the flattened totalPortfolio block of the snapshot
// (portVal, cash, total, ...).
type Totals map[string]interface{}
