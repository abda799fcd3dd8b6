// Package config loads hosting-process settings from the environment.
// The engine itself takes no configuration.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds the demo host's settings.
type Config struct {
	RenderDepth   int           `validate:"gt=0"`
	DemoOrders    int           `validate:"gt=0"`
	Seed          int64
	QuoteInterval time.Duration `validate:"gt=0"`
}

// Load reads an optional .env file, then the process environment,
// falling back to defaults for anything unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		RenderDepth:   envInt("RENDER_DEPTH", 5),
		DemoOrders:    envInt("DEMO_ORDERS", 1000),
		Seed:          int64(envInt("DEMO_SEED", 42)),
		QuoteInterval: envDuration("QUOTE_INTERVAL", 2*time.Second),
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
