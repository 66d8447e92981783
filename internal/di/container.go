// Package di wires the application's components together.
package di

import (
	"github.com/takrit/auth-sessions/internal/handler"
	"github.com/takrit/auth-sessions/internal/repository"
	"github.com/takrit/auth-sessions/internal/service"
	"github.com/takrit/auth-sessions/internal/session"
	"github.com/takrit/auth-sessions/internal/token"
)

// ContainerConfig holds the dependencies the container composes.
type ContainerConfig struct {
	UserRepo      repository.UserRepository
	SessionStore  session.Store
	TokenIssuer   *token.Issuer
	ServiceConfig *service.AuthServiceConfig
	CookieOptions handler.CookieOptions
	DB            handler.Pinger
	Cache         handler.Pinger
}

// Container holds the wired application components.
type Container struct {
	AuthService   service.AuthService
	AuthHandler   *handler.AuthHandler
	HealthHandler *handler.HealthHandler
	TokenIssuer   *token.Issuer
}

// NewContainer builds the dependency graph.
func NewContainer(cfg *ContainerConfig) *Container {
	authService := service.NewAuthService(
		cfg.UserRepo,
		cfg.SessionStore,
		cfg.TokenIssuer,
		cfg.ServiceConfig,
	)

	return &Container{
		AuthService:   authService,
		AuthHandler:   handler.NewAuthHandler(authService, cfg.CookieOptions),
		HealthHandler: handler.NewHealthHandler(cfg.DB, cfg.Cache),
		TokenIssuer:   cfg.TokenIssuer,
	}
}
