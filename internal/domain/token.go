package domain

import "time"

// TokenPair holds the two credentials minted on signup and login.
// Neither token is persisted as an entity; the refresh token's current
// value is tracked in the session cache.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Claims are the verified contents of a token.
type Claims struct {
	UserID    string
	ExpiresAt time.Time
}
