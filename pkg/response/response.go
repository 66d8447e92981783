// Package response standardizes the HTTP response envelope. Expected
// business failures are fixed `{message}` bodies; unexpected failures are
// logged with full detail server-side and surfaced as a generic message
// unless the app runs in debug mode.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/takrit/auth-sessions/pkg/logger"
)

// Envelope is the error/message body shape
type Envelope struct {
	Message string `json:"message"`
}

var debug bool

// SetDebug toggles whether internal error detail is echoed to clients.
// Call once at startup; never enable in production.
func SetDebug(d bool) {
	debug = d
}

// Message writes a fixed-message body with the given status
func Message(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Message: message})
}

// BadRequest writes a 400 with the given message
func BadRequest(c *gin.Context, message string) {
	Message(c, http.StatusBadRequest, message)
}

// Unauthorized writes a 401 with the given message
func Unauthorized(c *gin.Context, message string) {
	Message(c, http.StatusUnauthorized, message)
}

// InternalError logs err with full detail and writes a 500. The raw error
// message reaches the client only in debug mode.
func InternalError(c *gin.Context, err error) {
	logger.Get().Error("internal error",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)

	message := "Internal Server Error"
	if debug && err != nil {
		message = err.Error()
	}
	Message(c, http.StatusInternalServerError, message)
}
