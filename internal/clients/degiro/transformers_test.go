package degiro

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/degiro/internal/domain"
)

// pairs builds a {name, value} sequence; a nil value drops the value key
func pairs(kv ...interface{}) []interface{} {
	out := make([]interface{}, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		pair := map[string]interface{}{"name": kv[i]}
		if kv[i+1] != nil {
			pair["value"] = kv[i+1]
		}
		out = append(out, pair)
	}
	return out
}

func row(kv ...interface{}) interface{} {
	return map[string]interface{}{"value": pairs(kv...)}
}

func section(rows ...interface{}) map[string]interface{} {
	if rows == nil {
		rows = []interface{}{}
	}
	return map[string]interface{}{"value": rows}
}

func num(s string) json.Number {
	return json.Number(s)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestFlattenNamedValues(t *testing.T) {
	flat, err := flattenNamedValues(pairs("id", "123", "size", num("10"), "name", nil), "test")

	require.NoError(t, err)
	assert.Len(t, flat, 3)
	assert.Equal(t, "123", flat["id"])
	assert.Equal(t, num("10"), flat["size"])

	v, present := flat["name"]
	assert.True(t, present, "pair without value should still be flattened")
	assert.Nil(t, v)
}

func TestFlattenNamedValues_ExplicitNull(t *testing.T) {
	input := []interface{}{map[string]interface{}{"name": "price", "value": nil}}

	flat, err := flattenNamedValues(input, "test")

	require.NoError(t, err)
	assert.Contains(t, flat, "price")
	assert.Nil(t, flat["price"])
}

func TestFlattenNamedValues_MissingName(t *testing.T) {
	input := []interface{}{map[string]interface{}{"value": 1}}

	_, err := flattenNamedValues(input, "portfolio")

	var malformed *domain.MalformedResponseError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "name", malformed.Field)
	assert.Equal(t, "portfolio", malformed.Context)
}

func TestFlattenNamedValues_Empty(t *testing.T) {
	flat, err := flattenNamedValues([]interface{}{}, "test")

	require.NoError(t, err)
	assert.Empty(t, flat)
}

func TestTransformPortfolio_DropsZeroSize(t *testing.T) {
	snapshot := map[string]interface{}{
		"portfolio": section(
			row("id", "1", "positionType", "PRODUCT", "size", num("10"), "value", num("100")),
			row("id", "2", "positionType", "PRODUCT", "size", num("0"), "value", num("0")),
			row("id", "3", "positionType", "PRODUCT", "size", num("0.0"), "value", num("0")),
		),
	}

	portfolio, err := transformPortfolio(snapshot)

	require.NoError(t, err)
	products := portfolio.Products()
	assert.Len(t, products, 1)
	assert.Contains(t, products, "1")
	assert.NotContains(t, products, "2")
	assert.NotContains(t, products, "3")
}

func TestTransformPortfolio_GroupsByPositionType(t *testing.T) {
	snapshot := map[string]interface{}{
		"portfolio": section(
			row("id", "1", "positionType", "PRODUCT", "size", num("10"), "value", num("100")),
			row("id", "2", "positionType", "PRODUCT", "size", num("5"), "value", num("50")),
			row("id", "FLATEX_EUR", "positionType", "CASH", "size", num("12.5"), "value", num("12.5")),
		),
	}

	portfolio, err := transformPortfolio(snapshot)

	require.NoError(t, err)
	assert.Len(t, portfolio, 2)
	assert.ElementsMatch(t, []string{"1", "2"}, keys(portfolio["PRODUCT"]))
	assert.ElementsMatch(t, []string{"FLATEX_EUR"}, keys(portfolio["CASH"]))

	for positionType, group := range portfolio {
		for id, entry := range group {
			assert.Equal(t, positionType, entry.PositionType)
			assert.Equal(t, id, entry.ID)
			assert.NotContains(t, entry.Fields, "id")
			assert.NotContains(t, entry.Fields, "positionType")
		}
	}
}

func TestTransformPortfolio_TypedFields(t *testing.T) {
	snapshot := map[string]interface{}{
		"portfolio": section(
			row("id", num("331868"), "positionType", "PRODUCT", "size", num("10"),
				"price", num("12.34"), "value", num("123.4"), "plBase", map[string]interface{}{"EUR": num("-5")},
				"breakEvenPrice", nil),
		),
	}

	portfolio, err := transformPortfolio(snapshot)

	require.NoError(t, err)
	entry := portfolio["PRODUCT"]["331868"]
	require.NotNil(t, entry)
	assert.True(t, entry.Size.Valid)
	assert.True(t, dec("10").Equal(entry.Size.Decimal))
	assert.True(t, entry.Price.Valid)
	assert.True(t, dec("12.34").Equal(entry.Price.Decimal))
	assert.True(t, dec("123.4").Equal(entry.Value.Decimal))
	assert.True(t, decimal.NewFromInt(1).Equal(entry.ContractSize))
	assert.False(t, entry.Enriched)
	assert.Contains(t, entry.Fields, "plBase")
	assert.Contains(t, entry.Fields, "breakEvenPrice")
	assert.Nil(t, entry.Fields["breakEvenPrice"])
	assert.NotContains(t, entry.Fields, "size")
}

// TestTransformPortfolio_KeepsUnknownSize tests a null size is not treated as a closed position
func TestTransformPortfolio_KeepsUnknownSize(t *testing.T) {
	snapshot := map[string]interface{}{
		"portfolio": section(
			row("id", "1", "positionType", "PRODUCT", "size", nil, "value", num("1")),
		),
	}

	portfolio, err := transformPortfolio(snapshot)

	require.NoError(t, err)
	require.Contains(t, portfolio.Products(), "1")
	assert.False(t, portfolio.Products()["1"].Size.Valid)
}

func TestTransformPortfolio_UnsetPriceStaysNull(t *testing.T) {
	snapshot := map[string]interface{}{
		"portfolio": section(
			row("id", "FLATEX_EUR", "positionType", "CASH", "size", num("50"), "price", nil, "value", num("50")),
		),
	}

	portfolio, err := transformPortfolio(snapshot)

	require.NoError(t, err)
	entry := portfolio["CASH"]["FLATEX_EUR"]
	require.NotNil(t, entry)
	assert.False(t, entry.Price.Valid)

	encoded, err := json.Marshal(entry)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"price":null`)
}

func TestTransformPortfolio_MissingKeys(t *testing.T) {
	tests := []struct {
		name  string
		row   interface{}
		field string
	}{
		{"missing id", row("positionType", "PRODUCT", "size", num("1")), "id"},
		{"missing position type", row("id", "1", "size", num("1")), "positionType"},
		{"non numeric size", row("id", "1", "positionType", "PRODUCT", "size", true), "size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := transformPortfolio(map[string]interface{}{"portfolio": section(tt.row)})

			var malformed *domain.MalformedResponseError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, tt.field, malformed.Field)
		})
	}
}

func TestTransformPortfolio_MissingSection(t *testing.T) {
	_, err := transformPortfolio(map[string]interface{}{})

	var malformed *domain.MalformedResponseError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "portfolio", malformed.Field)
}

func TestEnrichProducts_MultipliesContractSize(t *testing.T) {
	portfolio := domain.Portfolio{
		"PRODUCT": {
			"1": {ID: "1", PositionType: "PRODUCT", Size: decimal.NewNullDecimal(dec("10")), ContractSize: decimal.NewFromInt(1), Fields: map[string]interface{}{}},
		},
	}
	products := map[string]domain.ProductInfo{
		"1": {"id": "1", "name": "Bund 2030", "isin": "DE0001102507", "currency": "EUR", "contractSize": num("100.0"), "productType": "BOND"},
	}

	require.NoError(t, enrichProducts(portfolio, products))

	entry := portfolio["PRODUCT"]["1"]
	assert.True(t, dec("1000").Equal(entry.Size.Decimal))
	assert.True(t, dec("100").Equal(entry.ContractSize))
	assert.True(t, entry.Enriched)
	assert.Equal(t, "Bund 2030", entry.Name)
	assert.Equal(t, "DE0001102507", entry.ISIN)
	assert.Equal(t, "EUR", entry.Currency)
	assert.Equal(t, "BOND", entry.Fields["productType"])
	assert.NotContains(t, entry.Fields, "id")

	// the product-info record itself is left untouched
	assert.Contains(t, products["1"], "id")
}

func TestEnrichProducts_LeavesMissingProductsUnenriched(t *testing.T) {
	portfolio := domain.Portfolio{
		"PRODUCT": {
			"1": {ID: "1", Size: decimal.NewNullDecimal(dec("10")), ContractSize: decimal.NewFromInt(1)},
			"2": {ID: "2", Size: decimal.NewNullDecimal(dec("3")), ContractSize: decimal.NewFromInt(1)},
		},
	}

	require.NoError(t, enrichProducts(portfolio, map[string]domain.ProductInfo{
		"1": {"id": "1", "name": "Known"},
	}))

	assert.True(t, portfolio["PRODUCT"]["1"].Enriched)
	assert.True(t, dec("10").Equal(portfolio["PRODUCT"]["1"].Size.Decimal), "no contractSize leaves size unchanged")
	assert.False(t, portfolio["PRODUCT"]["2"].Enriched)
	assert.True(t, dec("3").Equal(portfolio["PRODUCT"]["2"].Size.Decimal))
}

func TestEnrichProducts_OnlyProductGroup(t *testing.T) {
	portfolio := domain.Portfolio{
		"CASH": {
			"1": {ID: "1", Size: decimal.NewNullDecimal(dec("10")), ContractSize: decimal.NewFromInt(1)},
		},
	}

	require.NoError(t, enrichProducts(portfolio, map[string]domain.ProductInfo{
		"1": {"id": "1", "contractSize": num("100")},
	}))

	assert.True(t, dec("10").Equal(portfolio["CASH"]["1"].Size.Decimal))
	assert.False(t, portfolio["CASH"]["1"].Enriched)
}

func TestTransformCashFunds_KeyedByCurrency(t *testing.T) {
	snapshot := map[string]interface{}{
		"cashFunds": section(
			row("id", num("2"), "currencyCode", "EUR", "value", num("500")),
			row("id", num("3"), "currencyCode", "USD", "value", num("20")),
		),
	}

	funds, err := transformCashFunds(snapshot)

	require.NoError(t, err)
	assert.Len(t, funds, 2)
	assert.True(t, dec("500").Equal(funds["EUR"].Value.Decimal))
	assert.True(t, dec("20").Equal(funds["USD"].Value.Decimal))
	assert.Equal(t, "EUR", funds["EUR"].Currency)
	assert.NotContains(t, funds["EUR"].Fields, "currencyCode")
	assert.NotContains(t, funds["USD"].Fields, "currencyCode")
	assert.Equal(t, num("2"), funds["EUR"].Fields["id"])
}

func TestTransformCashFunds_MissingCurrencyCode(t *testing.T) {
	snapshot := map[string]interface{}{
		"cashFunds": section(row("id", num("2"), "value", num("500"))),
	}

	_, err := transformCashFunds(snapshot)

	var malformed *domain.MalformedResponseError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "currencyCode", malformed.Field)
}

func TestSummarize(t *testing.T) {
	portfolio := domain.Portfolio{
		"PRODUCT": {
			"1": {Value: decimal.NewNullDecimal(dec("100"))},
			"2": {Value: decimal.NewNullDecimal(dec("250"))},
		},
		"CASH": {
			"FLATEX_EUR": {Value: decimal.NewNullDecimal(dec("999"))},
		},
	}
	funds := domain.CashFunds{
		"EUR": {Currency: "EUR", Value: decimal.NewNullDecimal(dec("50"))},
		"USD": {Currency: "USD", Value: decimal.NewNullDecimal(dec("7"))},
	}

	summary, err := summarize(portfolio, funds, "EUR")

	require.NoError(t, err)
	assert.True(t, dec("350").Equal(summary.Equity))
	assert.True(t, dec("50").Equal(summary.Cash))
	assert.True(t, dec("400").Equal(summary.Total))
	assert.Equal(t, "EUR", summary.Currency)

	summary, err = summarize(portfolio, funds, "USD")
	require.NoError(t, err)
	assert.True(t, dec("7").Equal(summary.Cash))
}

func TestSummarize_MissingCurrency(t *testing.T) {
	funds := domain.CashFunds{
		"USD": {Currency: "USD", Value: decimal.NewNullDecimal(dec("7"))},
	}

	summary, err := summarize(domain.Portfolio{}, funds, "EUR")

	assert.Nil(t, summary)
	var missing *domain.MissingCurrencyError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "EUR", missing.Currency)
}

func TestSummarize_NoProducts(t *testing.T) {
	funds := domain.CashFunds{
		"EUR": {Currency: "EUR", Value: decimal.NewNullDecimal(dec("50"))},
	}

	summary, err := summarize(domain.Portfolio{}, funds, "EUR")

	require.NoError(t, err)
	assert.True(t, summary.Equity.IsZero())
	assert.True(t, dec("50").Equal(summary.Total))
}

func TestSummarize_ProductWithoutValue(t *testing.T) {
	portfolio := domain.Portfolio{
		"PRODUCT": {"1": {}},
	}
	funds := domain.CashFunds{
		"EUR": {Currency: "EUR", Value: decimal.NewNullDecimal(dec("50"))},
	}

	_, err := summarize(portfolio, funds, "EUR")

	var malformed *domain.MalformedResponseError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "value", malformed.Field)
}

func TestTransformTotals(t *testing.T) {
	snapshot := map[string]interface{}{
		"totalPortfolio": section(pairs("portVal", num("350"), "cash", num("50"), "total", num("400"))...),
	}

	totals, err := transformTotals(snapshot)

	require.NoError(t, err)
	assert.Equal(t, num("350"), totals["portVal"])
	assert.Equal(t, num("50"), totals["cash"])
	assert.Equal(t, num("400"), totals["total"])
}

func TestTransformOrders(t *testing.T) {
	snapshot := map[string]interface{}{
		"orders": section(
			row("id", "abc-1", "productId", num("331868"), "buysell", "B", "size", num("5"), "price", num("10.5")),
		),
	}

	orders, err := transformOrders(snapshot)

	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "abc-1", orders[0]["id"])
	assert.Equal(t, "B", orders[0]["buysell"])
}

func TestTransformOrders_AbsentSection(t *testing.T) {
	orders, err := transformOrders(map[string]interface{}{})

	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2021-03-04T10:00:00+01:00", time.Date(2021, 3, 4, 9, 0, 0, 0, time.UTC)},
		{"2021-03-04T10:00:00-05:30", time.Date(2021, 3, 4, 15, 30, 0, 0, time.UTC)},
		{"2021-03-04T10:00:00+0100", time.Date(2021, 3, 4, 9, 0, 0, 0, time.UTC)},
		{"2021-03-04T10:00:00Z", time.Date(2021, 3, 4, 10, 0, 0, 0, time.UTC)},
		{"2021-03-04T10:00:00.250+02:00", time.Date(2021, 3, 4, 8, 0, 0, 250000000, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := normalizeTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestNormalizeTimestamp_Invalid(t *testing.T) {
	_, err := normalizeTimestamp("04/03/2021 10:00")
	assert.Error(t, err)

	_, err = normalizeTimestamp("")
	assert.Error(t, err)
}

func TestTransformCashMovements(t *testing.T) {
	response := map[string]interface{}{
		"data": map[string]interface{}{
			"cashMovements": []interface{}{
				map[string]interface{}{
					"id":          num("9001"),
					"date":        "2021-03-04T10:00:00+01:00",
					"change":      num("-12.5"),
					"currency":    "EUR",
					"description": "Koop 10 @ 1,25 EUR",
					"type":        "TRANSACTION",
					"orderId":     "abc-1",
					"productId":   num("331868"),
				},
				map[string]interface{}{
					"date":        "2021-03-05T10:00:00+01:00",
					"change":      num("100"),
					"currency":    "EUR",
					"description": "iDEAL storting",
					"type":        "CASH_TRANSACTION",
				},
			},
		},
	}

	movements, err := transformCashMovements(response)

	require.NoError(t, err)
	require.Len(t, movements, 2)

	first := movements[0]
	assert.True(t, time.Date(2021, 3, 4, 9, 0, 0, 0, time.UTC).Equal(first.Date))
	assert.True(t, dec("-12.5").Equal(first.Change))
	assert.Equal(t, "EUR", first.Currency)
	assert.Equal(t, "TRANSACTION", first.Type)
	require.NotNil(t, first.ID)
	assert.Equal(t, "9001", *first.ID)
	require.NotNil(t, first.OrderID)
	assert.Equal(t, "abc-1", *first.OrderID)
	require.NotNil(t, first.ProductID)
	assert.Equal(t, "331868", *first.ProductID)

	second := movements[1]
	assert.Equal(t, "iDEAL storting", second.Description)
	assert.Nil(t, second.ID)
	assert.Nil(t, second.OrderID)
	assert.Nil(t, second.ProductID)
	assert.True(t, first.Date.Before(second.Date), "source order is kept")
}

func TestTransformCashMovements_NoMovements(t *testing.T) {
	movements, err := transformCashMovements(map[string]interface{}{"data": map[string]interface{}{}})

	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestTransformCashMovements_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		response map[string]interface{}
		field    string
	}{
		{"missing data", map[string]interface{}{}, "data"},
		{"missing date", map[string]interface{}{"data": map[string]interface{}{
			"cashMovements": []interface{}{map[string]interface{}{"change": num("1")}},
		}}, "date"},
		{"bad date", map[string]interface{}{"data": map[string]interface{}{
			"cashMovements": []interface{}{map[string]interface{}{"date": "yesterday"}},
		}}, "date"},
		{"missing change", map[string]interface{}{"data": map[string]interface{}{
			"cashMovements": []interface{}{map[string]interface{}{"date": "2021-03-04T10:00:00+01:00", "currency": "EUR"}},
		}}, "change"},
		{"null change", map[string]interface{}{"data": map[string]interface{}{
			"cashMovements": []interface{}{map[string]interface{}{"date": "2021-03-04T10:00:00+01:00", "change": nil}},
		}}, "change"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := transformCashMovements(tt.response)

			var malformed *domain.MalformedResponseError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, tt.field, malformed.Field)
		})
	}
}

func TestTransformTransactions(t *testing.T) {
	response := map[string]interface{}{
		"data": []interface{}{
			map[string]interface{}{"id": num("1"), "productId": num("331868"), "quantity": num("10")},
		},
	}

	transactions, err := transformTransactions(response)

	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, num("331868"), transactions[0]["productId"])

	_, err = transformTransactions(map[string]interface{}{})
	var malformed *domain.MalformedResponseError
	assert.True(t, errors.As(err, &malformed))
}

func TestTransformProductInfo(t *testing.T) {
	response := map[string]interface{}{
		"data": map[string]interface{}{
			"331868": map[string]interface{}{"id": "331868", "name": "Apple Inc"},
		},
	}

	products, err := transformProductInfo(response)

	require.NoError(t, err)
	assert.Equal(t, "Apple Inc", products["331868"]["name"])

	_, err = transformProductInfo(map[string]interface{}{})
	var malformed *domain.MalformedResponseError
	assert.True(t, errors.As(err, &malformed))
}

func TestIDString(t *testing.T) {
	assert.Equal(t, "", idString(nil))
	assert.Equal(t, "abc", idString("abc"))
	assert.Equal(t, "331868", idString(num("331868")))
	assert.Equal(t, "331868", idString(float64(331868)))
}

func keys(m map[string]*domain.PortfolioEntry) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
