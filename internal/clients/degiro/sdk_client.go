package degiro

import (
	"context"
	"time"
)

// SDKClient interface for dependency injection in tests
// This interface matches the SDK client methods we need
type SDKClient interface {
	Login(ctx context.Context, username, password, oneTimePassword string) (string, error)
	ClientConfig(ctx context.Context, sessionID string) (map[string]interface{}, error)
	Update(ctx context.Context, sessionID string, intAccount int64) (map[string]interface{}, error)
	ProductsInfo(ctx context.Context, sessionID string, intAccount int64, ids []string) (map[string]interface{}, error)
	AccountOverview(ctx context.Context, sessionID string, intAccount int64, from, to time.Time) (map[string]interface{}, error)
	Transactions(ctx context.Context, sessionID string, intAccount int64, from, to time.Time) (map[string]interface{}, error)
}
