// Package sdk provides the DEGIRO web trader HTTP client.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	"github.com/aristath/degiro/internal/domain"
)

const (
	loginPath        = "/login/secure/login"
	loginTOTPPath    = "/login/secure/login/totp"
	clientConfigPath = "/pa/secure/client"
	updatePath       = "/trading/secure/v5/update/%d;jsessionid=%s"
	productInfoPath  = "/product_search/secure/v5/products/info"
	overviewPath     = "/reporting/secure/v6/accountoverview"
	transactionsPath = "/reporting/secure/v4/transactions"

	// dateLayout is the dd/mm/yyyy format expected by the reporting endpoints
	dateLayout = "02/01/2006"

	maxLoggedBody = 500
)

// Client is a thin transport over the DEGIRO web trader endpoints.
// The cookie jar keeps the session cookie between calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new DEGIRO SDK client
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		log: log.With().Str("component", "degiro-sdk").Logger(),
	}, nil
}

// BaseURL returns the host the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends the request, logs its status and returns the response body.
// Non-2xx responses become a *domain.TransportError.
func (c *Client) do(req *http.Request, endpoint string) (*http.Response, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response from %s: %w", endpoint, err)
	}

	c.log.Info().
		Int("status_code", resp.StatusCode).
		Str("endpoint", endpoint).
		Msg("DEGIRO request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyStr := truncate(string(body))
		c.log.Error().
			Int("status_code", resp.StatusCode).
			Str("status", resp.Status).
			Str("response_body", bodyStr).
			Str("endpoint", endpoint).
			Msg("API returned non-2xx status")
		return resp, body, &domain.TransportError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Endpoint:   endpoint,
			Body:       bodyStr,
		}
	}

	return resp, body, nil
}

// getJSON issues a GET request and decodes the JSON object in the response
func (c *Client) getJSON(ctx context.Context, path string, params url.Values) (map[string]interface{}, error) {
	requestURL := c.baseURL + path
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	_, body, err := c.do(req, endpointName(path))
	if err != nil {
		return nil, err
	}
	return decodeObject(body, endpointName(path))
}

// postJSON issues a POST request with a JSON body and decodes the JSON object in the response
func (c *Client) postJSON(ctx context.Context, path string, params url.Values, payload interface{}) (map[string]interface{}, error) {
	data, err := jsonBody(payload)
	if err != nil {
		return nil, err
	}

	requestURL := c.baseURL + path
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, data)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	_, body, err := c.do(req, endpointName(path))
	if err != nil {
		return nil, err
	}
	return decodeObject(body, endpointName(path))
}

func jsonBody(payload interface{}) (io.Reader, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return bytes.NewReader(data), nil
}

// decodeObject parses a JSON object keeping numbers as json.Number
func decodeObject(body []byte, endpoint string) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var result map[string]interface{}
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response from %s: %w (body: %s)", endpoint, err, truncate(string(body)))
	}
	if result == nil {
		return nil, &domain.MalformedResponseError{Field: "body", Context: endpoint}
	}
	return result, nil
}

// endpointName strips the session part of a path so it can be logged
func endpointName(path string) string {
	if i := strings.IndexByte(path, ';'); i >= 0 {
		return path[:i]
	}
	return path
}

func truncate(s string) string {
	if len(s) > maxLoggedBody {
		return s[:maxLoggedBody] + "..."
	}
	return s
}

// FormatDate formats t the way the reporting endpoints expect (dd/mm/yyyy)
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
