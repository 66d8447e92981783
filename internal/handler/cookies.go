package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/takrit/auth-sessions/internal/domain"
)

const (
	// AccessCookieName is the cookie carrying the access token
	AccessCookieName = "accessToken"
	// RefreshCookieName is the cookie carrying the refresh token
	RefreshCookieName = "refreshToken"
)

// CookieOptions defines how session cookies are issued. Set and clear must
// use identical attributes or clients will retain stale cookies.
type CookieOptions struct {
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func (o CookieOptions) normalize() CookieOptions {
	if o.Path == "" {
		o.Path = "/"
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteStrictMode
	}
	return o
}

// setSessionCookies issues both session cookies, each with a max-age
// mirroring its token's validity window.
func setSessionCookies(c *gin.Context, pair *domain.TokenPair, opts CookieOptions) {
	opts = opts.normalize()
	now := time.Now()
	setCookie(c, AccessCookieName, pair.AccessToken, int(pair.AccessExpiresAt.Sub(now).Seconds()), opts)
	setCookie(c, RefreshCookieName, pair.RefreshToken, int(pair.RefreshExpiresAt.Sub(now).Seconds()), opts)
}

// clearSessionCookies removes both session cookies using the same
// attributes used when setting them.
func clearSessionCookies(c *gin.Context, opts CookieOptions) {
	opts = opts.normalize()
	setCookie(c, AccessCookieName, "", -1, opts)
	setCookie(c, RefreshCookieName, "", -1, opts)
}

func setCookie(c *gin.Context, name, value string, maxAge int, opts CookieOptions) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     opts.Path,
		Domain:   opts.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}
