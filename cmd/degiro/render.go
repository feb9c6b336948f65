package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/aristath/degiro/internal/archive"
	"github.com/aristath/degiro/internal/domain"
)

// formatMoney formats an amount with the currency's symbol and minor units.
// Codes unknown to go-money are printed as "<amount> <code>".
func formatMoney(amount decimal.Decimal, code string) string {
	currency := money.GetCurrency(code)
	if currency == nil {
		return strings.TrimSpace(amount.String() + " " + code)
	}
	minor := amount.Shift(int32(currency.Fraction)).Round(0).IntPart()
	return money.New(minor, currency.Code).Display()
}

func formatNullMoney(amount decimal.NullDecimal, code string) string {
	if !amount.Valid {
		return ""
	}
	return formatMoney(amount.Decimal, code)
}

func formatNull(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

// cell renders any value for a markdown table cell
func cell(v interface{}) string {
	var s string
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s = t
	default:
		s = fmt.Sprint(t)
	}
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func tableHeader(b *strings.Builder, columns ...string) {
	b.WriteString("| " + strings.Join(columns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat("---|", len(columns)) + "\n")
}

func tableRow(b *strings.Builder, cells ...string) {
	b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func renderPortfolio(p domain.Portfolio) string {
	var b strings.Builder
	b.WriteString("# Portfolio\n\n")
	if len(p) == 0 {
		b.WriteString("No open positions.\n")
		return b.String()
	}

	for _, positionType := range sortedKeys(p) {
		group := p[positionType]
		fmt.Fprintf(&b, "## %s\n\n", positionType)
		tableHeader(&b, "Id", "Name", "ISIN", "Size", "Price", "Value")
		for _, id := range sortedKeys(group) {
			e := group[id]
			tableRow(&b,
				cell(id),
				cell(e.Name),
				cell(e.ISIN),
				formatNull(e.Size),
				formatNull(e.Price),
				formatNullMoney(e.Value, e.Currency),
			)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderCashFunds(funds domain.CashFunds) string {
	var b strings.Builder
	b.WriteString("# Cash\n\n")
	tableHeader(&b, "Currency", "Balance")
	for _, code := range sortedKeys(funds) {
		tableRow(&b, cell(code), formatNullMoney(funds[code].Value, code))
	}
	return b.String()
}

func renderSummary(s *domain.PortfolioSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Summary (%s)\n\n", s.Currency)
	tableHeader(&b, "Equity", "Cash", "Total")
	tableRow(&b, formatMoney(s.Equity, s.Currency), formatMoney(s.Cash, s.Currency), formatMoney(s.Total, s.Currency))
	return b.String()
}

// renderFields renders a flat mapping as a two column table
func renderFields(title string, fields map[string]interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	tableHeader(&b, "Field", "Value")
	for _, k := range sortedKeys(fields) {
		tableRow(&b, cell(k), cell(fields[k]))
	}
	return b.String()
}

// renderRecords renders rows with heterogeneous keys; columns are the union
// of all keys, sorted
func renderRecords(title string, records []map[string]interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if len(records) == 0 {
		b.WriteString("None.\n")
		return b.String()
	}

	union := map[string]struct{}{}
	for _, r := range records {
		for k := range r {
			union[k] = struct{}{}
		}
	}
	columns := sortedKeys(union)

	tableHeader(&b, columns...)
	for _, r := range records {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = cell(r[c])
		}
		tableRow(&b, cells...)
	}
	return b.String()
}

func renderProducts(products map[string]domain.ProductInfo) string {
	records := make([]map[string]interface{}, 0, len(products))
	for _, id := range sortedKeys(products) {
		records = append(records, products[id])
	}
	return renderRecords("Products", records)
}

func renderCashMovements(movements []domain.CashMovement) string {
	var b strings.Builder
	b.WriteString("# Cash movements\n\n")
	if len(movements) == 0 {
		b.WriteString("None.\n")
		return b.String()
	}

	tableHeader(&b, "Date", "Type", "Description", "Product", "Change")
	for _, m := range movements {
		product := ""
		if m.ProductID != nil {
			product = *m.ProductID
		}
		tableRow(&b,
			m.Date.Format(time.DateTime),
			cell(m.Type),
			cell(m.Description),
			cell(product),
			formatMoney(m.Change, m.Currency),
		)
	}
	return b.String()
}

func renderBatch(batch *archive.Batch) string {
	var b strings.Builder
	b.WriteString("# Archive\n\n")
	tableHeader(&b, "Batch", "From", "To", "New cash movements", "New transactions")
	tableRow(&b,
		batch.ID,
		batch.From.Format(time.DateOnly),
		batch.To.Format(time.DateOnly),
		fmt.Sprint(batch.CashMovements),
		fmt.Sprint(batch.Transactions),
	)
	return b.String()
}
