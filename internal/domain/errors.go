package domain

import (
	"errors"
	"fmt"
)

// Client state errors. Views require an authenticated session with a
// resolved account.
var (
	ErrNotAuthenticated   = errors.New("degiro: not authenticated")
	ErrAccountNotResolved = errors.New("degiro: account not resolved")
)

// AuthenticationError is returned when login does not yield a session:
// rejected credentials, a missing session cookie or a missing/invalid
// one-time password.
type AuthenticationError struct {
	StatusCode int
	Reason     string
}

func (e *AuthenticationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("authentication failed: %s (status: %d)", e.Reason, e.StatusCode)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// ConfigError is returned when the client-config response carries no
// account identifier.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("client config error: %s", e.Reason)
}

// TransportError is returned for any non-2xx HTTP response.
type TransportError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("DEGIRO API error: %s (status: %d, endpoint: %s)", e.Status, e.StatusCode, e.Endpoint)
}

// MissingCurrencyError is returned when the reference currency has no cash
// fund entry while computing a portfolio summary.
type MissingCurrencyError struct {
	Currency string
}

func (e *MissingCurrencyError) Error() string {
	return fmt.Sprintf("no cash fund for reference currency %s", e.Currency)
}

// MalformedResponseError is returned when a field required by the
// normalizer is absent or has an unexpected type.
type MalformedResponseError struct {
	Field   string
	Context string
}

func (e *MalformedResponseError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("malformed response: missing or invalid '%s'", e.Field)
	}
	return fmt.Sprintf("malformed response: missing or invalid '%s' in %s", e.Field, e.Context)
}
