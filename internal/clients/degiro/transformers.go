package degiro

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aristath/degiro/internal/domain"
)

// timestampLayout accepts both "Z" and compact "+0100" offsets
const timestampLayout = "2006-01-02T15:04:05Z0700"

// Attributes promoted to typed PortfolioEntry fields
var entryTypedFields = []string{"size", "price", "value", "name", "isin", "currency", "contractSize"}

// flattenNamedValues converts the API's [{name, value}, ...] encoding into a
// mapping from name to value. A pair without a value maps to nil.
func flattenNamedValues(pairs []interface{}, context string) (map[string]interface{}, error) {
	flat := make(map[string]interface{}, len(pairs))
	for _, item := range pairs {
		pair, ok := item.(map[string]interface{})
		if !ok {
			return nil, &domain.MalformedResponseError{Field: "name", Context: context}
		}
		name, ok := pair["name"].(string)
		if !ok {
			return nil, &domain.MalformedResponseError{Field: "name", Context: context}
		}
		flat[name] = pair["value"]
	}
	return flat, nil
}

// sectionRows returns the rows of a snapshot section ({"value": [...]})
func sectionRows(snapshot map[string]interface{}, section string) ([]interface{}, error) {
	block, ok := snapshot[section].(map[string]interface{})
	if !ok {
		return nil, &domain.MalformedResponseError{Field: section, Context: "update"}
	}
	rows, ok := block["value"].([]interface{})
	if !ok {
		return nil, &domain.MalformedResponseError{Field: "value", Context: section}
	}
	return rows, nil
}

// flattenRows flattens every row of a snapshot section. Each row carries its
// named values under "value".
func flattenRows(rows []interface{}, section string) ([]map[string]interface{}, error) {
	flattened := make([]map[string]interface{}, 0, len(rows))
	for _, item := range rows {
		row, ok := item.(map[string]interface{})
		if !ok {
			return nil, &domain.MalformedResponseError{Field: "value", Context: section}
		}
		pairs, ok := row["value"].([]interface{})
		if !ok {
			return nil, &domain.MalformedResponseError{Field: "value", Context: section}
		}
		flat, err := flattenNamedValues(pairs, section)
		if err != nil {
			return nil, err
		}
		flattened = append(flattened, flat)
	}
	return flattened, nil
}

// transformPortfolio groups open positions by position type and product id.
// Rows with a zero size are closed positions and are dropped.
func transformPortfolio(snapshot map[string]interface{}) (domain.Portfolio, error) {
	rows, err := sectionRows(snapshot, "portfolio")
	if err != nil {
		return nil, err
	}
	flattened, err := flattenRows(rows, "portfolio")
	if err != nil {
		return nil, err
	}

	portfolio := make(domain.Portfolio)
	for _, flat := range flattened {
		size, err := getNullDecimal(flat, "size", "portfolio")
		if err != nil {
			return nil, err
		}
		if size.Valid && size.Decimal.IsZero() {
			continue
		}

		id := idString(flat["id"])
		if id == "" {
			return nil, &domain.MalformedResponseError{Field: "id", Context: "portfolio"}
		}
		positionType, ok := flat["positionType"].(string)
		if !ok || positionType == "" {
			return nil, &domain.MalformedResponseError{Field: "positionType", Context: "portfolio"}
		}

		value, err := getNullDecimal(flat, "value", "portfolio")
		if err != nil {
			return nil, err
		}
		price, err := getNullDecimal(flat, "price", "portfolio")
		if err != nil {
			return nil, err
		}

		delete(flat, "id")
		delete(flat, "positionType")

		entry := &domain.PortfolioEntry{
			ID:           id,
			PositionType: positionType,
			Size:         size,
			Price:        price,
			Value:        value,
			Name:         getString(flat, "name"),
			ISIN:         getString(flat, "isin"),
			Currency:     getString(flat, "currency"),
			ContractSize: decimal.NewFromInt(1),
		}
		entry.Fields = withoutKeys(flat, entryTypedFields)

		group, ok := portfolio[positionType]
		if !ok {
			group = make(map[string]*domain.PortfolioEntry)
			portfolio[positionType] = group
		}
		group[id] = entry
	}

	return portfolio, nil
}

// enrichProducts merges product metadata into the PRODUCT entries.
// The product's id is dropped, size is multiplied by contractSize and the
// remaining fields are merged. Entries without product metadata stay as they are.
func enrichProducts(portfolio domain.Portfolio, products map[string]domain.ProductInfo) error {
	for id, entry := range portfolio.Products() {
		product, ok := products[id]
		if !ok {
			continue
		}

		fields := make(map[string]interface{}, len(product))
		for k, v := range product {
			fields[k] = v
		}
		delete(fields, "id")

		if raw, ok := fields["contractSize"]; ok && raw != nil {
			contractSize, err := toDecimal(raw)
			if err != nil {
				return &domain.MalformedResponseError{Field: "contractSize", Context: "product " + id}
			}
			entry.ContractSize = contractSize
			if entry.Size.Valid {
				entry.Size.Decimal = entry.Size.Decimal.Mul(contractSize)
			}
		}

		if name := getString(fields, "name"); name != "" {
			entry.Name = name
		}
		if isin := getString(fields, "isin"); isin != "" {
			entry.ISIN = isin
		}
		if currency := getString(fields, "currency"); currency != "" {
			entry.Currency = currency
		}

		if entry.Fields == nil {
			entry.Fields = make(map[string]interface{})
		}
		for k, v := range withoutKeys(fields, entryTypedFields) {
			entry.Fields[k] = v
		}
		entry.Enriched = true
	}
	return nil
}

// transformCashFunds keys cash balances by currency code
func transformCashFunds(snapshot map[string]interface{}) (domain.CashFunds, error) {
	rows, err := sectionRows(snapshot, "cashFunds")
	if err != nil {
		return nil, err
	}
	flattened, err := flattenRows(rows, "cashFunds")
	if err != nil {
		return nil, err
	}

	funds := make(domain.CashFunds, len(flattened))
	for _, flat := range flattened {
		currency, ok := flat["currencyCode"].(string)
		if !ok || currency == "" {
			return nil, &domain.MalformedResponseError{Field: "currencyCode", Context: "cashFunds"}
		}
		delete(flat, "currencyCode")

		value, err := getNullDecimal(flat, "value", "cashFunds")
		if err != nil {
			return nil, err
		}

		funds[currency] = &domain.CashFundEntry{
			Currency: currency,
			Value:    value,
			Fields:   withoutKeys(flat, []string{"value"}),
		}
	}
	return funds, nil
}

// summarize computes equity (sum of PRODUCT values) and the cash balance in
// the reference currency.
func summarize(portfolio domain.Portfolio, funds domain.CashFunds, currency string) (*domain.PortfolioSummary, error) {
	equity := decimal.Zero
	for id, entry := range portfolio.Products() {
		if !entry.Value.Valid {
			return nil, &domain.MalformedResponseError{Field: "value", Context: "product " + id}
		}
		equity = equity.Add(entry.Value.Decimal)
	}

	fund, ok := funds[currency]
	if !ok {
		return nil, &domain.MissingCurrencyError{Currency: currency}
	}
	if !fund.Value.Valid {
		return nil, &domain.MalformedResponseError{Field: "value", Context: "cash fund " + currency}
	}

	return &domain.PortfolioSummary{
		Equity:   equity,
		Cash:     fund.Value.Decimal,
		Total:    equity.Add(fund.Value.Decimal),
		Currency: currency,
	}, nil
}

// transformTotals flattens the totalPortfolio block (portVal, cash, total, ...)
func transformTotals(snapshot map[string]interface{}) (domain.Totals, error) {
	pairs, err := sectionRows(snapshot, "totalPortfolio")
	if err != nil {
		return nil, err
	}
	flat, err := flattenNamedValues(pairs, "totalPortfolio")
	if err != nil {
		return nil, err
	}
	return domain.Totals(flat), nil
}

// transformOrders flattens the open order rows. An absent orders section
// means no open orders.
func transformOrders(snapshot map[string]interface{}) ([]domain.Order, error) {
	if _, ok := snapshot["orders"]; !ok {
		return []domain.Order{}, nil
	}
	rows, err := sectionRows(snapshot, "orders")
	if err != nil {
		return nil, err
	}
	flattened, err := flattenRows(rows, "orders")
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(flattened))
	for _, flat := range flattened {
		orders = append(orders, domain.Order(flat))
	}
	return orders, nil
}

// transformCashMovements converts data.cashMovements of the account overview.
// Source order is kept.
func transformCashMovements(response map[string]interface{}) ([]domain.CashMovement, error) {
	data, ok := response["data"].(map[string]interface{})
	if !ok {
		return nil, &domain.MalformedResponseError{Field: "data", Context: "account overview"}
	}

	raw, exists := data["cashMovements"]
	if !exists || raw == nil {
		return []domain.CashMovement{}, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, &domain.MalformedResponseError{Field: "cashMovements", Context: "account overview"}
	}

	movements := make([]domain.CashMovement, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, &domain.MalformedResponseError{Field: "cashMovements", Context: "account overview"}
		}

		date, ok := m["date"].(string)
		if !ok {
			return nil, &domain.MalformedResponseError{Field: "date", Context: "cash movement"}
		}
		at, err := normalizeTimestamp(date)
		if err != nil {
			return nil, &domain.MalformedResponseError{Field: "date", Context: "cash movement"}
		}

		change, err := getNullDecimal(m, "change", "cash movement")
		if err != nil {
			return nil, err
		}
		if !change.Valid {
			return nil, &domain.MalformedResponseError{Field: "change", Context: "cash movement"}
		}

		movement := domain.CashMovement{
			ID:          optionalID(m, "id"),
			Date:        at,
			Change:      change.Decimal,
			Currency:    getString(m, "currency"),
			Description: getString(m, "description"),
			Type:        getString(m, "type"),
			OrderID:     optionalID(m, "orderId"),
			ProductID:   optionalID(m, "productId"),
		}
		movements = append(movements, movement)
	}
	return movements, nil
}

// normalizeTimestamp compacts a "+hh:mm" offset to "+hhmm" by removing the
// last colon, then parses the instant.
func normalizeTimestamp(s string) (time.Time, error) {
	if n := len(s); n >= 6 && (s[n-6] == '+' || s[n-6] == '-') && s[n-3] == ':' {
		s = s[:n-3] + s[n-2:]
	}
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// transformTransactions passes the data list of the transactions response through
func transformTransactions(response map[string]interface{}) ([]domain.Transaction, error) {
	items, ok := response["data"].([]interface{})
	if !ok {
		return nil, &domain.MalformedResponseError{Field: "data", Context: "transactions"}
	}

	transactions := make([]domain.Transaction, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, &domain.MalformedResponseError{Field: "data", Context: "transactions"}
		}
		transactions = append(transactions, domain.Transaction(m))
	}
	return transactions, nil
}

// transformProductInfo passes the data mapping of the product info response through
func transformProductInfo(response map[string]interface{}) (map[string]domain.ProductInfo, error) {
	data, ok := response["data"].(map[string]interface{})
	if !ok {
		return nil, &domain.MalformedResponseError{Field: "data", Context: "product info"}
	}

	products := make(map[string]domain.ProductInfo, len(data))
	for id, item := range data {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, &domain.MalformedResponseError{Field: id, Context: "product info"}
		}
		products[id] = domain.ProductInfo(m)
	}
	return products, nil
}

// Helper functions

// getString safely extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if val, exists := m[key]; exists && val != nil {
		if str, ok := val.(string); ok {
			return str
		}
		return fmt.Sprintf("%v", val)
	}
	return ""
}

// getNullDecimal extracts a numeric value; absent or null values are not Valid
func getNullDecimal(m map[string]interface{}, key, context string) (decimal.NullDecimal, error) {
	val, exists := m[key]
	if !exists || val == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := toDecimal(val)
	if err != nil {
		return decimal.NullDecimal{}, &domain.MalformedResponseError{Field: key, Context: context}
	}
	return decimal.NewNullDecimal(d), nil
}

// toDecimal converts a decoded JSON number to a decimal
func toDecimal(val interface{}) (decimal.Decimal, error) {
	switch v := val.(type) {
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	default:
		return decimal.Decimal{}, fmt.Errorf("not a number: %T", val)
	}
}

// idString renders a product or order id, which the API sends as a string
// or as a number
func idString(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func optionalID(m map[string]interface{}, key string) *string {
	id := idString(m[key])
	if id == "" {
		return nil
	}
	return &id
}

// withoutKeys returns a copy of m without the given keys
func withoutKeys(m map[string]interface{}, keys []string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}
