// Package degiro provides client functionality for interacting with the DEGIRO web trader API.
package degiro

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/rs/zerolog"

	"github.com/aristath/degiro/internal/clients/degiro/sdk"
	"github.com/aristath/degiro/internal/credentials"
	"github.com/aristath/degiro/internal/domain"
	"github.com/aristath/degiro/pkg/logger"
)

// DefaultProductBatchSize is the number of product ids sent per product-info request
const DefaultProductBatchSize = 50

// accountIDPaths are the known locations of the account id in the client config
// response, in lookup order.
var accountIDPaths = []string{"$.intAccount", "$.data.intAccount"}

// Client is a DEGIRO session.
//
// It moves from unauthenticated to authenticated (Login) to account resolved
// (ResolveAccount). Views need a resolved account; snapshot views fetch the
// update bundle on first use and reuse it until Refresh or Invalidate.
// Session fields are guarded by authMu; mu serializes snapshot fetches.
type Client struct {
	sdkClient         SDKClient
	log               zerolog.Logger
	referenceCurrency string
	productBatchSize  int

	authMu     sync.RWMutex
	sessionID  string
	intAccount int64

	mu       sync.Mutex
	snapshot map[string]interface{}
}

// Option configures a Client
type Option func(*Client)

// WithReferenceCurrency sets the currency PortfolioSummary computes cash in
func WithReferenceCurrency(currency string) Option {
	return func(c *Client) {
		if currency != "" {
			c.referenceCurrency = strings.ToUpper(currency)
		}
	}
}

// WithProductBatchSize sets the number of ids per product-info request
func WithProductBatchSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.productBatchSize = size
		}
	}
}

// NewClient creates a new DEGIRO client talking to baseURL
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger, opts ...Option) (*Client, error) {
	sdkClient, err := sdk.NewClient(baseURL, timeout, log)
	if err != nil {
		return nil, err
	}
	return NewClientWithSDK(sdkClient, log, opts...), nil
}

// NewClientWithSDK creates a new DEGIRO client with a provided SDK client (for testing)
func NewClientWithSDK(sdkClient SDKClient, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		sdkClient:         sdkClient,
		log:               log.With().Str("client", "degiro").Logger(),
		referenceCurrency: domain.DefaultReferenceCurrency.String(),
		productBatchSize:  DefaultProductBatchSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a session. In two-factor mode the
// credentials must carry a one-time password.
func (c *Client) Login(ctx context.Context, creds credentials.Credentials, twoFactor bool) error {
	if err := creds.Validate(); err != nil {
		return &domain.AuthenticationError{Reason: "username and password are required"}
	}

	oneTimePassword := ""
	if twoFactor {
		if creds.OneTimePassword == "" {
			return &domain.AuthenticationError{Reason: "one-time password required for two-factor login"}
		}
		oneTimePassword = creds.OneTimePassword
	}

	sessionID, err := c.sdkClient.Login(ctx, creds.Username, creds.Password, oneTimePassword)
	if err != nil {
		c.log.Error().Err(err).Bool("two_factor", twoFactor).Msg("Login failed")
		return err
	}

	c.authMu.Lock()
	c.sessionID = sessionID
	c.intAccount = 0
	c.authMu.Unlock()
	c.Invalidate()

	c.log.Info().
		Str("session", logger.Mask(sessionID)).
		Bool("two_factor", twoFactor).
		Msg("Logged in")
	return nil
}

// ResolveAccount fetches the client config and stores the account id.
// The id is read from the top level, falling back to the "data" object.
func (c *Client) ResolveAccount(ctx context.Context) error {
	sessionID, _ := c.session()
	if sessionID == "" {
		return domain.ErrNotAuthenticated
	}

	config, err := c.sdkClient.ClientConfig(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to fetch client config: %w", err)
	}

	intAccount, err := extractAccountID(config)
	if err != nil {
		return err
	}

	c.authMu.Lock()
	if c.sessionID == sessionID {
		c.intAccount = intAccount
	}
	c.authMu.Unlock()
	c.log.Info().Int64("int_account", intAccount).Msg("Account resolved")
	return nil
}

// Connect logs in and resolves the account
func (c *Client) Connect(ctx context.Context, creds credentials.Credentials, twoFactor bool) error {
	if err := c.Login(ctx, creds, twoFactor); err != nil {
		return err
	}
	return c.ResolveAccount(ctx)
}

// SessionID returns the session id, empty before Login
func (c *Client) SessionID() string {
	sessionID, _ := c.session()
	return sessionID
}

// Account returns the account id, zero before ResolveAccount
func (c *Client) Account() int64 {
	_, intAccount := c.session()
	return intAccount
}

// ReferenceCurrency returns the currency PortfolioSummary uses
func (c *Client) ReferenceCurrency() string {
	return c.referenceCurrency
}

func extractAccountID(config map[string]interface{}) (int64, error) {
	for _, path := range accountIDPaths {
		val, err := jsonpath.Get(path, config)
		if err != nil || val == nil {
			continue
		}
		if list, ok := val.([]interface{}); ok {
			if len(list) == 0 {
				continue
			}
			val = list[0]
		}

		id, err := parseAccountID(val)
		if err != nil {
			return 0, &domain.ConfigError{Reason: fmt.Sprintf("invalid intAccount at %s: %v", path, err)}
		}
		return id, nil
	}
	return 0, &domain.ConfigError{Reason: "intAccount missing from client config"}
}

func parseAccountID(val interface{}) (int64, error) {
	switch v := val.(type) {
	case json.Number:
		return v.Int64()
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected type %T", val)
	}
}

func (c *Client) session() (string, int64) {
	c.authMu.RLock()
	defer c.authMu.RUnlock()
	return c.sessionID, c.intAccount
}

// requireAccount returns the session id and account of a resolved session
func (c *Client) requireAccount() (string, int64, error) {
	sessionID, intAccount := c.session()
	if sessionID == "" {
		return "", 0, domain.ErrNotAuthenticated
	}
	if intAccount == 0 {
		return "", 0, domain.ErrAccountNotResolved
	}
	return sessionID, intAccount, nil
}

// Snapshot returns the cached update bundle, fetching it when absent
func (c *Client) Snapshot(ctx context.Context) (map[string]interface{}, error) {
	sessionID, intAccount, err := c.requireAccount()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot != nil {
		return c.snapshot, nil
	}

	snapshot, err := c.fetchSnapshot(ctx, sessionID, intAccount)
	if err != nil {
		return nil, err
	}
	c.snapshot = snapshot
	return snapshot, nil
}

// Refresh fetches a new update bundle and replaces the cached one.
// On failure the previous snapshot is kept.
func (c *Client) Refresh(ctx context.Context) error {
	sessionID, intAccount, err := c.requireAccount()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot, err := c.fetchSnapshot(ctx, sessionID, intAccount)
	if err != nil {
		return err
	}
	c.snapshot = snapshot
	return nil
}

// Invalidate drops the cached snapshot; the next view fetches a new one
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.snapshot = nil
	c.mu.Unlock()
}

func (c *Client) fetchSnapshot(ctx context.Context, sessionID string, intAccount int64) (map[string]interface{}, error) {
	start := time.Now()
	snapshot, err := c.sdkClient.Update(ctx, sessionID, intAccount)
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to fetch snapshot")
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	c.log.Debug().Dur("duration", time.Since(start)).Msg("Snapshot fetched")
	return snapshot, nil
}

// Portfolio returns open positions grouped by position type and product id,
// with PRODUCT entries enriched by product metadata.
func (c *Client) Portfolio(ctx context.Context) (domain.Portfolio, error) {
	snapshot, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	portfolio, err := transformPortfolio(snapshot)
	if err != nil {
		return nil, err
	}

	products := portfolio.Products()
	if len(products) == 0 {
		return portfolio, nil
	}

	ids := make([]string, 0, len(products))
	for id := range products {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	info, err := c.ProductInfo(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to enrich portfolio: %w", err)
	}

	if err := enrichProducts(portfolio, info); err != nil {
		return nil, err
	}

	if missing := len(ids) - len(info); missing > 0 {
		c.log.Debug().Int("missing", missing).Msg("Some products returned no metadata")
	}
	return portfolio, nil
}

// CashFunds returns cash balances keyed by currency code
func (c *Client) CashFunds(ctx context.Context) (domain.CashFunds, error) {
	snapshot, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return transformCashFunds(snapshot)
}

// PortfolioSummary returns equity and cash in the configured reference currency
func (c *Client) PortfolioSummary(ctx context.Context) (*domain.PortfolioSummary, error) {
	return c.PortfolioSummaryIn(ctx, c.referenceCurrency)
}

// PortfolioSummaryIn returns equity and the cash balance held in currency.
// An empty currency means the reference currency.
func (c *Client) PortfolioSummaryIn(ctx context.Context, currency string) (*domain.PortfolioSummary, error) {
	if currency == "" {
		currency = c.referenceCurrency
	}
	currency = strings.ToUpper(currency)

	snapshot, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	// Equity only needs PRODUCT values, which enrichment does not change.
	portfolio, err := transformPortfolio(snapshot)
	if err != nil {
		return nil, err
	}
	funds, err := transformCashFunds(snapshot)
	if err != nil {
		return nil, err
	}

	return summarize(portfolio, funds, currency)
}

// Totals returns the flattened totalPortfolio block
func (c *Client) Totals(ctx context.Context) (domain.Totals, error) {
	snapshot, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return transformTotals(snapshot)
}

// Orders returns the open orders
func (c *Client) Orders(ctx context.Context) ([]domain.Order, error) {
	snapshot, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return transformOrders(snapshot)
}

// CashMovements returns the cash ledger lines booked between from and to
func (c *Client) CashMovements(ctx context.Context, from, to time.Time) ([]domain.CashMovement, error) {
	sessionID, intAccount, err := c.requireAccount()
	if err != nil {
		return nil, err
	}
	if err := checkRange(from, to); err != nil {
		return nil, err
	}

	response, err := c.sdkClient.AccountOverview(ctx, sessionID, intAccount, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account overview: %w", err)
	}
	return transformCashMovements(response)
}

// Transactions returns the transactions executed between from and to
func (c *Client) Transactions(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	sessionID, intAccount, err := c.requireAccount()
	if err != nil {
		return nil, err
	}
	if err := checkRange(from, to); err != nil {
		return nil, err
	}

	response, err := c.sdkClient.Transactions(ctx, sessionID, intAccount, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	return transformTransactions(response)
}

// ProductInfo returns product metadata keyed by product id. Ids are sent in
// batches; ids the API does not know are absent from the result.
func (c *Client) ProductInfo(ctx context.Context, ids []string) (map[string]domain.ProductInfo, error) {
	sessionID, intAccount, err := c.requireAccount()
	if err != nil {
		return nil, err
	}

	result := make(map[string]domain.ProductInfo, len(ids))
	for start := 0; start < len(ids); start += c.productBatchSize {
		end := start + c.productBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		response, err := c.sdkClient.ProductsInfo(ctx, sessionID, intAccount, ids[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to fetch product info: %w", err)
		}
		batch, err := transformProductInfo(response)
		if err != nil {
			return nil, err
		}
		for id, info := range batch {
			result[id] = info
		}
	}
	return result, nil
}

func checkRange(from, to time.Time) error {
	if to.Before(from) {
		return fmt.Errorf("invalid date range: %s is after %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	return nil
}
