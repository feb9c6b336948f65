package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthenticationError_Error(t *testing.T) {
	err := &AuthenticationError{StatusCode: 400, Reason: "no session cookie"}
	assert.Equal(t, "authentication failed: no session cookie (status: 400)", err.Error())

	err = &AuthenticationError{Reason: "one-time password required"}
	assert.Equal(t, "authentication failed: one-time password required", err.Error())
}

func TestTransportError_Error(t *testing.T) {
	err := &TransportError{StatusCode: 503, Status: "503 Service Unavailable", Endpoint: "/pa/secure/client"}
	assert.Contains(t, err.Error(), "status: 503")
	assert.Contains(t, err.Error(), "/pa/secure/client")
}

func TestMalformedResponseError_Error(t *testing.T) {
	err := &MalformedResponseError{Field: "value", Context: "portfolio"}
	assert.Equal(t, "malformed response: missing or invalid 'value' in portfolio", err.Error())

	err = &MalformedResponseError{Field: "data"}
	assert.Equal(t, "malformed response: missing or invalid 'data'", err.Error())
}

func TestErrors_AsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("portfolio summary: %w", &MissingCurrencyError{Currency: "EUR"})

	var missing *MissingCurrencyError
	assert.True(t, errors.As(wrapped, &missing))
	assert.Equal(t, "EUR", missing.Currency)

	var cfgErr *ConfigError
	assert.False(t, errors.As(wrapped, &cfgErr))
}
