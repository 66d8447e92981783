// Package token mints and verifies the access/refresh token pair.
//
// The two token classes are signed with distinct secrets so that a leak of
// one secret cannot forge the other class. Issuance is a pure function of
// the user id, the clock, and the configured secrets.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/takrit/auth-sessions/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Config holds signing configuration for the issuer.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// Issuer issues and verifies signed token pairs.
type Issuer struct {
	config Config
}

type userClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// NewIssuer creates an Issuer, applying default validity windows.
func NewIssuer(config Config) *Issuer {
	if config.AccessTTL == 0 {
		config.AccessTTL = 15 * time.Minute
	}
	if config.RefreshTTL == 0 {
		config.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Issuer{config: config}
}

// AccessTTL returns the configured access token validity window.
func (i *Issuer) AccessTTL() time.Duration { return i.config.AccessTTL }

// RefreshTTL returns the configured refresh token validity window.
func (i *Issuer) RefreshTTL() time.Duration { return i.config.RefreshTTL }

// Issue mints a new access/refresh pair for the given user id.
func (i *Issuer) Issue(userID string) (*domain.TokenPair, error) {
	now := time.Now()
	accessExpiry := now.Add(i.config.AccessTTL)
	refreshExpiry := now.Add(i.config.RefreshTTL)

	access, err := i.sign(userID, now, accessExpiry, i.config.AccessSecret)
	if err != nil {
		return nil, err
	}
	refresh, err := i.sign(userID, now, refreshExpiry, i.config.RefreshSecret)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExpiry,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

// ParseAccess verifies an access token and returns its claims.
func (i *Issuer) ParseAccess(tokenString string) (*domain.Claims, error) {
	return i.parse(tokenString, i.config.AccessSecret)
}

// ParseRefresh verifies a refresh token and returns its claims. Signature
// validity alone does not make a refresh token trustworthy; callers must
// also check the session cache still holds this exact value.
func (i *Issuer) ParseRefresh(tokenString string) (*domain.Claims, error) {
	return i.parse(tokenString, i.config.RefreshSecret)
}

func (i *Issuer) sign(userID string, issuedAt, expiresAt time.Time, secret string) (string, error) {
	claims := userClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			// jti makes every mint unique; two pairs issued within the
			// same second must still be distinguishable for rotation.
			ID: uuid.New().String(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (i *Issuer) parse(tokenString, secret string) (*domain.Claims, error) {
	claims := &userClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return &domain.Claims{
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
