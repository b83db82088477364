package credstore

import (
	"context"
	"time"
)

// Store is the expiring key-value capability that holds the single
// currently valid refresh token per account. It is injected into the
// session manager so tests can swap the backing service.
type Store interface {
	// Set stores value under key with the given TTL, overwriting any
	// previous value.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Get returns the stored value, or ("", false, nil) when the key is
	// absent or expired.
	Get(ctx context.Context, key string) (string, bool, error)
	// Del removes the key. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error
}

// RefreshTokenKey is the key under which an account's refresh token lives.
func RefreshTokenKey(userID string) string {
	return "refresh_token:" + userID
}
