package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/takrit/auth-sessions/internal/domain"
	"github.com/takrit/auth-sessions/internal/dto"
	"github.com/takrit/auth-sessions/internal/middleware"
	"github.com/takrit/auth-sessions/internal/service"
	"github.com/takrit/auth-sessions/pkg/response"
)

// Client-facing messages are fixed strings; business failures never leak
// which internal check rejected the request.
const (
	msgUserExists       = "User already existed"
	msgUserCreated      = "User created Successfully"
	msgWrongCredentials = "Wrong Credentials"
	msgLoggedIn         = "Logged in Successfully"
	msgLoggedOut        = "Logged out Successfully"
	msgInvalidRefresh   = "Invalid refresh token"
)

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	authService service.AuthService
	cookieOpts  CookieOptions
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService service.AuthService, cookieOpts CookieOptions) *AuthHandler {
	return &AuthHandler{authService: authService, cookieOpts: cookieOpts}
}

// Signup handles user registration
// POST /api/v1/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if valid, msg := req.ValidateEmail(); !valid {
		response.BadRequest(c, msg)
		return
	}
	if valid, msg := req.ValidatePassword(); !valid {
		response.BadRequest(c, msg)
		return
	}

	user, pair, err := h.authService.Signup(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			response.BadRequest(c, msgUserExists)
			return
		}
		response.InternalError(c, err)
		return
	}

	// Cookies are set only after every side effect succeeded.
	setSessionCookies(c, pair, h.cookieOpts)
	c.JSON(http.StatusOK, dto.SignupResponse{
		User:    toUserResponse(user),
		Message: msgUserCreated,
	})
}

// Login handles user login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, pair, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.BadRequest(c, msgWrongCredentials)
			return
		}
		response.InternalError(c, err)
		return
	}

	setSessionCookies(c, pair, h.cookieOpts)
	c.JSON(http.StatusOK, dto.LoginResponse{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Role:    string(user.Role),
		Message: msgLoggedIn,
	})
}

// Logout handles user logout
// POST /api/v1/auth/logout
//
// Both cookies are cleared on every path, whether or not a refresh cookie
// was present or valid.
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, err := c.Cookie(RefreshCookieName)
	if err != nil || refreshToken == "" {
		clearSessionCookies(c, h.cookieOpts)
		response.Message(c, http.StatusOK, msgLoggedOut)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), refreshToken); err != nil {
		clearSessionCookies(c, h.cookieOpts)
		response.InternalError(c, err)
		return
	}

	clearSessionCookies(c, h.cookieOpts)
	response.Message(c, http.StatusOK, msgLoggedOut)
}

// Refresh rotates the token pair using the refresh cookie
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(RefreshCookieName)
	if err != nil || refreshToken == "" {
		clearSessionCookies(c, h.cookieOpts)
		response.Unauthorized(c, msgInvalidRefresh)
		return
	}

	user, pair, err := h.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			clearSessionCookies(c, h.cookieOpts)
			response.Unauthorized(c, msgInvalidRefresh)
			return
		}
		response.InternalError(c, err)
		return
	}

	setSessionCookies(c, pair, h.cookieOpts)
	c.JSON(http.StatusOK, dto.LoginResponse{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Role:    string(user.Role),
		Message: msgLoggedIn,
	})
}

// Me returns the authenticated user's profile
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.Message(c, http.StatusNotFound, "User not found")
			return
		}
		response.InternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

func toUserResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	}
}
