package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// RevocationStore remembers token strings that must no longer be accepted.
type RevocationStore interface {
	// Revoke blocks token for ttl. A non-positive ttl is a no-op since the
	// token has already expired.
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// RateLimitStore counts hits per key in fixed windows.
type RateLimitStore interface {
	// Hit records one request for key. The window opens on the first hit and
	// lasts for window; it returns the count so far and when the window resets.
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Time, error)
}

// Store is the shared state needed by the HTTP layer.
type Store interface {
	RevocationStore
	RateLimitStore
	Close() error
}

// tokenKey hashes a token so keys have a fixed size and tokens are not kept in clear.
func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
