// Package middleware provides the access-token gate for protected routes.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/takrit/auth-sessions/internal/token"
	"github.com/takrit/auth-sessions/pkg/response"
)

const contextKeyUserID = "user_id"

// accessCookieName mirrors the cookie issued by the auth handler.
const accessCookieName = "accessToken"

// RequireAuth validates the access token from the session cookie or a
// Bearer header and stores the user id in the request context.
func RequireAuth(tokens *token.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Envelope{
				Message: "Authentication required",
			})
			return
		}

		claims, err := tokens.ParseAccess(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Envelope{
				Message: "Invalid or expired token",
			})
			return
		}

		c.Set(contextKeyUserID, claims.UserID)
		c.Next()
	}
}

// UserID returns the authenticated user's id from the request context.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(contextKeyUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(accessCookieName); err == nil && cookie != "" {
		return cookie
	}

	const bearerPrefix = "Bearer "
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, bearerPrefix) {
		return header[len(bearerPrefix):]
	}
	return ""
}
