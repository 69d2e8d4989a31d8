package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is read from the environment. Command line flags override it.
type Config struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	CartEndpoint   string        `env:"CART_ENDPOINT" envDefault:"localhost:50202"`
	CartID         string        `env:"CART_ID"`
	RequestTimeout time.Duration `env:"CART_REQUEST_TIMEOUT" envDefault:"5s"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("CART_REQUEST_TIMEOUT must be positive, got %s", cfg.RequestTimeout)
	}
	return cfg, nil
}

// ensureCartID assigns a fresh cart id when none was configured. It reports
// whether one was generated.
func (c *Config) ensureCartID() bool {
	if c.CartID != "" {
		return false
	}
	c.CartID = uuid.NewString()
	return true
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
