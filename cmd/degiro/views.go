package main

import (
	"context"
	"errors"
	"flag"
	"strings"

	"github.com/google/subcommands"

	"github.com/aristath/degiro/internal/domain"
)

// portfolioCmd holds the flags for the 'portfolio' subcommand.
type portfolioCmd struct {
	app          *app
	positionType string
}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "display open positions enriched with product data" }
func (*portfolioCmd) Usage() string {
	return `degiro portfolio [-type <PRODUCT|CASH>]

  Displays open positions grouped by position type. Positions with a size of
  zero are not listed.
`
}

func (c *portfolioCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.positionType, "type", "", "Only show positions of this type")
}

func (c *portfolioCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := c.app.connect(ctx)
	if err != nil {
		return c.app.fail("Error connecting to DEGIRO", err)
	}

	portfolio, err := s.Portfolio(ctx)
	if err != nil {
		return c.app.fail("Error fetching portfolio", err)
	}

	if c.positionType != "" {
		key := strings.ToUpper(c.positionType)
		filtered := domain.Portfolio{}
		if group, ok := portfolio[key]; ok {
			filtered[key] = group
		}
		portfolio = filtered
	}

	return c.app.print(portfolio, renderPortfolio(portfolio))
}

// cashCmd prints the cash funds.
type cashCmd struct {
	app *app
}

func (*cashCmd) Name() string             { return "cash" }
func (*cashCmd) Synopsis() string         { return "display cash balances per currency" }
func (*cashCmd) Usage() string            { return "degiro cash\n" }
func (*cashCmd) SetFlags(f *flag.FlagSet) {}

func (c *cashCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := c.app.connect(ctx)
	if err != nil {
		return c.app.fail("Error connecting to DEGIRO", err)
	}

	funds, err := s.CashFunds(ctx)
	if err != nil {
		return c.app.fail("Error fetching cash funds", err)
	}
	return c.app.print(funds, renderCashFunds(funds))
}

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct {
	app      *app
	currency string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display equity, cash and total account value" }
func (*summaryCmd) Usage() string {
	return `degiro summary [-currency <code>]

  Equity is the sum of the product position values. Cash is the balance held
  in the given currency (the configured reference currency by default).
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "currency", "", "Currency of the cash balance (default DEGIRO_REFERENCE_CURRENCY)")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := c.app.connect(ctx)
	if err != nil {
		return c.app.fail("Error connecting to DEGIRO", err)
	}

	summary, err := s.PortfolioSummaryIn(ctx, strings.ToUpper(c.currency))
	if err != nil {
		var missing *domain.MissingCurrencyError
		if errors.As(err, &missing) {
			return c.app.fail("No cash held in "+missing.Currency, err)
		}
		return c.app.fail("Error computing summary", err)
	}
	return c.app.print(summary, renderSummary(summary))
}

// totalsCmd prints the totalPortfolio block.
type totalsCmd struct {
	app *app
}

func (*totalsCmd) Name() string             { return "totals" }
func (*totalsCmd) Synopsis() string         { return "display account totals as reported by DEGIRO" }
func (*totalsCmd) Usage() string            { return "degiro totals\n" }
func (*totalsCmd) SetFlags(f *flag.FlagSet) {}

func (c *totalsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := c.app.connect(ctx)
	if err != nil {
		return c.app.fail("Error connecting to DEGIRO", err)
	}

	totals, err := s.Totals(ctx)
	if err != nil {
		return c.app.fail("Error fetching totals", err)
	}
	return c.app.print(totals, renderFields("Totals", totals))
}

// ordersCmd prints open orders.
type ordersCmd struct {
	app *app
}

func (*ordersCmd) Name() string             { return "orders" }
func (*ordersCmd) Synopsis() string         { return "display open orders" }
func (*ordersCmd) Usage() string            { return "degiro orders\n" }
func (*ordersCmd) SetFlags(f *flag.FlagSet) {}

func (c *ordersCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := c.app.connect(ctx)
	if err != nil {
		return c.app.fail("Error connecting to DEGIRO", err)
	}

	orders, err := s.Orders(ctx)
	if err != nil {
		return c.app.fail("Error fetching orders", err)
	}

	records := make([]map[string]interface{}, len(orders))
	for i, o := range orders {
		records[i] = o
	}
	return c.app.print(orders, renderRecords("Open orders", records))
}

// productsCmd looks up product metadata by id.
type productsCmd struct {
	app *app
}

func (*productsCmd) Name() string     { return "products" }
func (*productsCmd) Synopsis() string { return "display product metadata for product ids" }
func (*productsCmd) Usage() string {
	return `degiro products <id>...

  Looks up name, ISIN, currency and the other product attributes.
`
}
func (*productsCmd) SetFlags(f *flag.FlagSet) {}

func (c *productsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return c.app.usage(errors.New("at least one product id is required"))
	}

	s, err := c.app.connect(ctx)
	if err != nil {
		return c.app.fail("Error connecting to DEGIRO", err)
	}

	products, err := s.ProductInfo(ctx, f.Args())
	if err != nil {
		return c.app.fail("Error fetching products", err)
	}
	return c.app.print(products, renderProducts(products))
}
