package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/takrit/auth-sessions/internal/domain"
	"github.com/takrit/auth-sessions/internal/dto"
	"github.com/takrit/auth-sessions/internal/service"
)

// stubAuthService lets each test script the service layer.
type stubAuthService struct {
	signupFn  func(ctx context.Context, req *dto.SignupRequest) (*domain.User, *domain.TokenPair, error)
	loginFn   func(ctx context.Context, req *dto.LoginRequest) (*domain.User, *domain.TokenPair, error)
	logoutFn  func(ctx context.Context, refreshToken string) error
	refreshFn func(ctx context.Context, refreshToken string) (*domain.User, *domain.TokenPair, error)
	getUserFn func(ctx context.Context, id string) (*domain.User, error)
}

var _ service.AuthService = (*stubAuthService)(nil)

func (s *stubAuthService) Signup(ctx context.Context, req *dto.SignupRequest) (*domain.User, *domain.TokenPair, error) {
	return s.signupFn(ctx, req)
}

func (s *stubAuthService) Login(ctx context.Context, req *dto.LoginRequest) (*domain.User, *domain.TokenPair, error) {
	return s.loginFn(ctx, req)
}

func (s *stubAuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.logoutFn(ctx, refreshToken)
}

func (s *stubAuthService) Refresh(ctx context.Context, refreshToken string) (*domain.User, *domain.TokenPair, error) {
	return s.refreshFn(ctx, refreshToken)
}

func (s *stubAuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.getUserFn(ctx, id)
}

func testUser() *domain.User {
	return &domain.User{
		ID:    "u-1",
		Name:  "Somsak",
		Email: "somsak@example.com",
		Role:  domain.RoleUser,
	}
}

func testPair() *domain.TokenPair {
	now := time.Now()
	return &domain.TokenPair{
		AccessToken:      "access-token",
		RefreshToken:     "refresh-token",
		AccessExpiresAt:  now.Add(15 * time.Minute),
		RefreshExpiresAt: now.Add(7 * 24 * time.Hour),
	}
}

func newRouter(svc service.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(svc, CookieOptions{})

	r := gin.New()
	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	r.POST("/refresh", h.Refresh)
	r.GET("/me", func(c *gin.Context) {
		if id := c.Query("as"); id != "" {
			c.Set("user_id", id)
		}
		h.Me(c)
	})
	return r
}

func doJSON(r *gin.Engine, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func findCookie(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestSignup(t *testing.T) {
	validReq := dto.SignupRequest{Name: "Somsak", Email: "somsak@example.com", Password: "password123"}

	t.Run("success sets both cookies and returns nested user", func(t *testing.T) {
		svc := &stubAuthService{
			signupFn: func(ctx context.Context, req *dto.SignupRequest) (*domain.User, *domain.TokenPair, error) {
				return testUser(), testPair(), nil
			},
		}
		w := doJSON(newRouter(svc), http.MethodPost, "/signup", validReq)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "User created Successfully", body["message"])
		user, ok := body["user"].(map[string]any)
		if assert.True(t, ok, "expected nested user object") {
			assert.Equal(t, "u-1", user["id"])
			assert.Equal(t, "somsak@example.com", user["email"])
			assert.Equal(t, "user", user["role"])
			_, leaked := user["passwordHash"]
			assert.False(t, leaked, "password hash must not appear in responses")
		}

		access := findCookie(t, w, AccessCookieName)
		if assert.NotNil(t, access) {
			assert.Equal(t, "access-token", access.Value)
			assert.True(t, access.HttpOnly)
			assert.Equal(t, "/", access.Path)
			assert.Equal(t, http.SameSiteStrictMode, access.SameSite)
			assert.InDelta(t, 15*60, access.MaxAge, 5)
		}
		refresh := findCookie(t, w, RefreshCookieName)
		if assert.NotNil(t, refresh) {
			assert.Equal(t, "refresh-token", refresh.Value)
			assert.True(t, refresh.HttpOnly)
			assert.InDelta(t, 7*24*60*60, refresh.MaxAge, 5)
		}
	})

	t.Run("duplicate email returns fixed message without cookies", func(t *testing.T) {
		svc := &stubAuthService{
			signupFn: func(ctx context.Context, req *dto.SignupRequest) (*domain.User, *domain.TokenPair, error) {
				return nil, nil, service.ErrUserAlreadyExists
			},
		}
		w := doJSON(newRouter(svc), http.MethodPost, "/signup", validReq)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "User already existed", decodeBody(t, w)["message"])
		assert.Nil(t, findCookie(t, w, AccessCookieName))
		assert.Nil(t, findCookie(t, w, RefreshCookieName))
	})

	t.Run("invalid email rejected before the service runs", func(t *testing.T) {
		svc := &stubAuthService{
			signupFn: func(ctx context.Context, req *dto.SignupRequest) (*domain.User, *domain.TokenPair, error) {
				t.Fatal("service must not be called")
				return nil, nil, nil
			},
		}
		req := validReq
		req.Email = "not-an-email"
		w := doJSON(newRouter(svc), http.MethodPost, "/signup", req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("short password rejected before the service runs", func(t *testing.T) {
		svc := &stubAuthService{
			signupFn: func(ctx context.Context, req *dto.SignupRequest) (*domain.User, *domain.TokenPair, error) {
				t.Fatal("service must not be called")
				return nil, nil, nil
			},
		}
		req := validReq
		req.Password = "short"
		w := doJSON(newRouter(svc), http.MethodPost, "/signup", req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing fields rejected by binding", func(t *testing.T) {
		svc := &stubAuthService{}
		w := doJSON(newRouter(svc), http.MethodPost, "/signup", map[string]string{"email": "a@b.co"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("internal failure returns 500", func(t *testing.T) {
		svc := &stubAuthService{
			signupFn: func(ctx context.Context, req *dto.SignupRequest) (*domain.User, *domain.TokenPair, error) {
				return nil, nil, errors.New("pool exhausted")
			},
		}
		w := doJSON(newRouter(svc), http.MethodPost, "/signup", validReq)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Nil(t, findCookie(t, w, AccessCookieName))
	})
}

func TestLogin(t *testing.T) {
	validReq := dto.LoginRequest{Email: "somsak@example.com", Password: "password123"}

	t.Run("success returns flat profile and cookies", func(t *testing.T) {
		svc := &stubAuthService{
			loginFn: func(ctx context.Context, req *dto.LoginRequest) (*domain.User, *domain.TokenPair, error) {
				return testUser(), testPair(), nil
			},
		}
		w := doJSON(newRouter(svc), http.MethodPost, "/login", validReq)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "u-1", body["id"])
		assert.Equal(t, "Somsak", body["name"])
		assert.Equal(t, "somsak@example.com", body["email"])
		assert.Equal(t, "user", body["role"])
		assert.Equal(t, "Logged in Successfully", body["message"])
		_, nested := body["user"]
		assert.False(t, nested, "login body is flat, not nested")

		assert.NotNil(t, findCookie(t, w, AccessCookieName))
		assert.NotNil(t, findCookie(t, w, RefreshCookieName))
	})

	t.Run("wrong credentials returns fixed message without cookies", func(t *testing.T) {
		svc := &stubAuthService{
			loginFn: func(ctx context.Context, req *dto.LoginRequest) (*domain.User, *domain.TokenPair, error) {
				return nil, nil, service.ErrInvalidCredentials
			},
		}
		w := doJSON(newRouter(svc), http.MethodPost, "/login", validReq)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Wrong Credentials", decodeBody(t, w)["message"])
		assert.Nil(t, findCookie(t, w, AccessCookieName))
		assert.Nil(t, findCookie(t, w, RefreshCookieName))
	})

	t.Run("internal failure returns 500", func(t *testing.T) {
		svc := &stubAuthService{
			loginFn: func(ctx context.Context, req *dto.LoginRequest) (*domain.User, *domain.TokenPair, error) {
				return nil, nil, errors.New("redis down")
			},
		}
		w := doJSON(newRouter(svc), http.MethodPost, "/login", validReq)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func assertCleared(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		ck := findCookie(t, w, name)
		if assert.NotNil(t, ck, "expected %s to be cleared", name) {
			assert.Empty(t, ck.Value)
			assert.Negative(t, ck.MaxAge)
			assert.Equal(t, "/", ck.Path)
		}
	}
}

func TestLogout(t *testing.T) {
	t.Run("with refresh cookie revokes session and clears cookies", func(t *testing.T) {
		var revoked string
		svc := &stubAuthService{
			logoutFn: func(ctx context.Context, refreshToken string) error {
				revoked = refreshToken
				return nil
			},
		}
		w := doJSON(newRouter(svc), http.MethodPost, "/logout", nil,
			&http.Cookie{Name: RefreshCookieName, Value: "refresh-token"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Logged out Successfully", decodeBody(t, w)["message"])
		assert.Equal(t, "refresh-token", revoked)
		assertCleared(t, w)
	})

	t.Run("without refresh cookie still succeeds and clears cookies", func(t *testing.T) {
		svc := &stubAuthService{
			logoutFn: func(ctx context.Context, refreshToken string) error {
				t.Fatal("service must not be called without a cookie")
				return nil
			},
		}
		w := doJSON(newRouter(svc), http.MethodPost, "/logout", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Logged out Successfully", decodeBody(t, w)["message"])
		assertCleared(t, w)
	})

	t.Run("cache failure returns 500 but still clears cookies", func(t *testing.T) {
		svc := &stubAuthService{
			logoutFn: func(ctx context.Context, refreshToken string) error {
				return errors.New("redis down")
			},
		}
		w := doJSON(newRouter(svc), http.MethodPost, "/logout", nil,
			&http.Cookie{Name: RefreshCookieName, Value: "refresh-token"})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assertCleared(t, w)
	})
}

func TestRefresh(t *testing.T) {
	t.Run("rotates cookies on success", func(t *testing.T) {
		svc := &stubAuthService{
			refreshFn: func(ctx context.Context, refreshToken string) (*domain.User, *domain.TokenPair, error) {
				assert.Equal(t, "old-refresh", refreshToken)
				pair := testPair()
				pair.AccessToken = "new-access"
				pair.RefreshToken = "new-refresh"
				return testUser(), pair, nil
			},
		}
		w := doJSON(newRouter(svc), http.MethodPost, "/refresh", nil,
			&http.Cookie{Name: RefreshCookieName, Value: "old-refresh"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "u-1", decodeBody(t, w)["id"])
		access := findCookie(t, w, AccessCookieName)
		if assert.NotNil(t, access) {
			assert.Equal(t, "new-access", access.Value)
		}
		refresh := findCookie(t, w, RefreshCookieName)
		if assert.NotNil(t, refresh) {
			assert.Equal(t, "new-refresh", refresh.Value)
		}
	})

	t.Run("missing cookie returns 401 and clears cookies", func(t *testing.T) {
		svc := &stubAuthService{}
		w := doJSON(newRouter(svc), http.MethodPost, "/refresh", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid refresh token", decodeBody(t, w)["message"])
		assertCleared(t, w)
	})

	t.Run("rejected token returns 401 and clears cookies", func(t *testing.T) {
		svc := &stubAuthService{
			refreshFn: func(ctx context.Context, refreshToken string) (*domain.User, *domain.TokenPair, error) {
				return nil, nil, service.ErrInvalidRefresh
			},
		}
		w := doJSON(newRouter(svc), http.MethodPost, "/refresh", nil,
			&http.Cookie{Name: RefreshCookieName, Value: "stale"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assertCleared(t, w)
	})
}

func TestMe(t *testing.T) {
	t.Run("returns the profile for the authenticated user", func(t *testing.T) {
		svc := &stubAuthService{
			getUserFn: func(ctx context.Context, id string) (*domain.User, error) {
				assert.Equal(t, "u-1", id)
				return testUser(), nil
			},
		}
		w := doJSON(newRouter(svc), http.MethodGet, "/me?as=u-1", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "somsak@example.com", body["email"])
		_, leaked := body["passwordHash"]
		assert.False(t, leaked)
	})

	t.Run("unknown user returns 404", func(t *testing.T) {
		svc := &stubAuthService{
			getUserFn: func(ctx context.Context, id string) (*domain.User, error) {
				return nil, service.ErrUserNotFound
			},
		}
		w := doJSON(newRouter(svc), http.MethodGet, "/me?as=u-404", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("no identity in context returns 401", func(t *testing.T) {
		svc := &stubAuthService{}
		w := doJSON(newRouter(svc), http.MethodGet, "/me", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	okPing := pingFunc(func(ctx context.Context) error { return nil })
	badPing := pingFunc(func(ctx context.Context) error { return errors.New("unreachable") })

	t.Run("health is always ok", func(t *testing.T) {
		h := NewHealthHandler(badPing, badPing)
		r := gin.New()
		r.GET("/health", h.Health)
		w := doJSON(r, http.MethodGet, "/health", nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ready checks database then cache", func(t *testing.T) {
		cases := []struct {
			name      string
			db, cache Pinger
			want      int
			component string
		}{
			{"both up", okPing, okPing, http.StatusOK, ""},
			{"database down", badPing, okPing, http.StatusServiceUnavailable, "database"},
			{"cache down", okPing, badPing, http.StatusServiceUnavailable, "cache"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				h := NewHealthHandler(tc.db, tc.cache)
				r := gin.New()
				r.GET("/ready", h.Ready)
				w := doJSON(r, http.MethodGet, "/ready", nil)

				assert.Equal(t, tc.want, w.Code)
				if tc.component != "" {
					assert.Equal(t, tc.component, decodeBody(t, w)["component"])
				}
			})
		}
	})
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) HealthCheck(ctx context.Context) error { return f(ctx) }
