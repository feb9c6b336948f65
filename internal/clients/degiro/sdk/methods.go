package sdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/degiro/internal/domain"
)

// Login exchanges credentials for a session id.
//
// A non-empty oneTimePassword switches to the two-factor endpoint.
// The session id is read from the first Set-Cookie header of the response:
// the first ';'-delimited segment, value after '='.
//
// Errors:
//   - *domain.AuthenticationError on a non-2xx status or a missing session cookie
func (c *Client) Login(ctx context.Context, username, password, oneTimePassword string) (string, error) {
	path := loginPath
	if oneTimePassword != "" {
		path = loginTOTPPath
	}

	payload := LoginRequest{
		Username:           username,
		Password:           password,
		IsPassCodeReset:    false,
		IsRedirectToMobile: false,
		OneTimePassword:    oneTimePassword,
	}

	data, err := jsonBody(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, data)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, _, err := c.do(req, path)
	if err != nil {
		var transportErr *domain.TransportError
		if errors.As(err, &transportErr) {
			return "", &domain.AuthenticationError{
				StatusCode: transportErr.StatusCode,
				Reason:     "credentials rejected",
			}
		}
		return "", err
	}

	sessionID, ok := sessionFromCookie(resp.Header.Get("Set-Cookie"))
	if !ok {
		return "", &domain.AuthenticationError{
			StatusCode: resp.StatusCode,
			Reason:     "no session cookie in response",
		}
	}

	return sessionID, nil
}

// sessionFromCookie extracts the session id from a Set-Cookie header value
func sessionFromCookie(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	first, _, _ := strings.Cut(header, ";")
	_, value, found := strings.Cut(first, "=")
	value = strings.TrimSpace(value)
	if !found || value == "" {
		return "", false
	}
	return value, true
}

// ClientConfig retrieves the client configuration of the session.
// The account identifier (intAccount) is part of it.
func (c *Client) ClientConfig(ctx context.Context, sessionID string) (map[string]interface{}, error) {
	params := url.Values{}
	params.Set("sessionId", sessionID)
	return c.getJSON(ctx, clientConfigPath, params)
}

// Update retrieves the full update bundle of the account: portfolio,
// totalPortfolio, orders, historicalOrders, transactions, alerts and cashFunds.
func (c *Client) Update(ctx context.Context, sessionID string, intAccount int64) (map[string]interface{}, error) {
	params := accountParams(sessionID, intAccount)
	for _, section := range updateSections {
		params.Set(section, "0")
	}
	path := fmt.Sprintf(updatePath, intAccount, url.PathEscape(sessionID))
	return c.getJSON(ctx, path, params)
}

// ProductsInfo retrieves product metadata for the given product ids.
// The response carries a "data" object keyed by product id.
func (c *Client) ProductsInfo(ctx context.Context, sessionID string, intAccount int64, ids []string) (map[string]interface{}, error) {
	if ids == nil {
		ids = []string{}
	}
	return c.postJSON(ctx, productInfoPath, accountParams(sessionID, intAccount), ids)
}

// AccountOverview retrieves the cash movements booked between from and to (inclusive).
// The response carries "data.cashMovements".
func (c *Client) AccountOverview(ctx context.Context, sessionID string, intAccount int64, from, to time.Time) (map[string]interface{}, error) {
	params := accountParams(sessionID, intAccount)
	params.Set("fromDate", FormatDate(from))
	params.Set("toDate", FormatDate(to))
	return c.getJSON(ctx, overviewPath, params)
}

// Transactions retrieves the transactions executed between from and to (inclusive).
// The response carries a "data" list.
func (c *Client) Transactions(ctx context.Context, sessionID string, intAccount int64, from, to time.Time) (map[string]interface{}, error) {
	params := accountParams(sessionID, intAccount)
	params.Set("fromDate", FormatDate(from))
	params.Set("toDate", FormatDate(to))
	params.Set("groupTransactionsByOrder", "false")
	return c.getJSON(ctx, transactionsPath, params)
}

func accountParams(sessionID string, intAccount int64) url.Values {
	params := url.Values{}
	params.Set("intAccount", strconv.FormatInt(intAccount, 10))
	params.Set("sessionId", sessionID)
	return params
}
