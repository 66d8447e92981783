package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/takrit/auth-sessions/internal/di"
	"github.com/takrit/auth-sessions/internal/handler"
	"github.com/takrit/auth-sessions/internal/middleware"
	"github.com/takrit/auth-sessions/internal/repository"
	"github.com/takrit/auth-sessions/internal/service"
	"github.com/takrit/auth-sessions/internal/session"
	"github.com/takrit/auth-sessions/internal/token"
	"github.com/takrit/auth-sessions/pkg/config"
	"github.com/takrit/auth-sessions/pkg/database"
	"github.com/takrit/auth-sessions/pkg/logger"
	"github.com/takrit/auth-sessions/pkg/redis"
	"github.com/takrit/auth-sessions/pkg/response"
	"github.com/takrit/auth-sessions/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logCfg := &logger.Config{
		Level:       "info",
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}
	if cfg.App.Debug {
		logCfg.Level = "debug"
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("starting auth-sessions service")

	response.SetDebug(cfg.App.Debug && !cfg.IsProduction())

	ctx := context.Background()

	telemetryCfg := &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}
	if _, err := telemetry.Init(ctx, telemetryCfg); err != nil {
		appLog.Warn("failed to initialize telemetry", zap.Error(err))
	}
	defer telemetry.Shutdown(ctx)

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	})
	if err != nil {
		appLog.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	cache, err := redis.NewClient(ctx, &redis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MinIdleConns:  cfg.Redis.MinIdleConns,
		DialTimeout:   cfg.Redis.DialTimeout,
		ReadTimeout:   cfg.Redis.ReadTimeout,
		WriteTimeout:  cfg.Redis.WriteTimeout,
		MaxRetries:    3,
		RetryInterval: time.Second,
	})
	if err != nil {
		appLog.Fatal("redis connection failed", zap.Error(err))
	}
	defer cache.Close()

	issuer := token.NewIssuer(token.Config{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.JWT.AccessTokenTTL,
		RefreshTTL:    cfg.JWT.RefreshTokenTTL,
		Issuer:        cfg.JWT.Issuer,
	})

	container := di.NewContainer(&di.ContainerConfig{
		UserRepo:     repository.NewPostgresUserRepository(db.Pool()),
		SessionStore: session.NewRedisStore(cache),
		TokenIssuer:  issuer,
		ServiceConfig: &service.AuthServiceConfig{
			BcryptCost: 12,
		},
		CookieOptions: handler.CookieOptions{
			Secure: cfg.IsProduction(),
		},
		DB:    db,
		Cache: cache,
	})

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.OTel.Enabled {
		router.Use(telemetry.TracingMiddleware(cfg.App.Name))
	}

	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", container.AuthHandler.Signup)
			auth.POST("/login", container.AuthHandler.Login)
			auth.POST("/logout", container.AuthHandler.Logout)
			auth.POST("/refresh", container.AuthHandler.Refresh)

			protected := auth.Group("")
			protected.Use(middleware.RequireAuth(issuer))
			{
				protected.GET("/me", container.AuthHandler.Me)
			}
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		appLog.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal("server forced to shutdown", zap.Error(err))
	}

	appLog.Info("server exited gracefully")
}
