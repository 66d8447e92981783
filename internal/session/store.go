// Package session tracks the currently trusted refresh token per user.
//
// The cache entry is the source of truth for refresh-token revocation: a
// refresh token whose signature verifies is still rejected unless the cache
// holds that exact value for the user. Writing a new token implicitly
// invalidates the previous one (last write wins, one live session per user).
package session

import (
	"context"
	"time"
)

const keyPrefix = "refresh_token:"

// Key returns the cache key for a user's refresh token record.
func Key(userID string) string {
	return keyPrefix + userID
}

// Store persists the current refresh token per user with a TTL.
type Store interface {
	// Save overwrites the user's refresh token record.
	Save(ctx context.Context, userID, refreshToken string, ttl time.Duration) error
	// Get returns the stored refresh token, or "" if none exists.
	Get(ctx context.Context, userID string) (string, error)
	// Delete removes the user's refresh token record.
	Delete(ctx context.Context, userID string) error
}
