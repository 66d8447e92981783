// Package logger provides the process-wide zap logger.
package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration
type Config struct {
	// Level is the minimum log level: debug, info, warn, error
	Level string
	// ServiceName is attached to every entry
	ServiceName string
	// Development enables the console encoder and debug defaults
	Development bool
}

var (
	mu     sync.Mutex
	global *zap.Logger = zap.NewNop()
)

// Init builds the global logger from cfg.
func Init(cfg *Config) error {
	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "ts"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	log, err := zapCfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	if cfg.ServiceName != "" {
		log = log.With(zap.String("service", cfg.ServiceName))
	}

	mu.Lock()
	global = log
	mu.Unlock()
	return nil
}

// Get returns the global logger. Safe to call before Init; returns a no-op
// logger in that case.
func Get() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return global
}

// Sync flushes buffered entries. Call on shutdown.
func Sync() {
	_ = Get().Sync()
}
