// Package domain provides core domain models and types.
package domain

// Currency represents an ISO 4217 currency code
type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"
)

// DefaultReferenceCurrency is the currency portfolio summaries are computed in
// unless configured otherwise.
const DefaultReferenceCurrency = CurrencyEUR

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}
