package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string `env:"COTERI_HTTP_ADDR" envDefault:":8080"`

	// DB
	Env    string `env:"COTERI_ENV" envDefault:"dev"` // "dev" | "prod"
	DBPath string `env:"COTERI_DB_PATH" envDefault:"./data/coteri.db"`

	// Token signing. Keys are "kid:hexkey" pairs, comma-separated; the
	// active key signs new tokens, every listed key verifies.
	TokenKeys        map[string]string `env:"COTERI_TOKEN_KEYS" envKeyValSeparator:":"`
	TokenActiveKeyID string            `env:"COTERI_TOKEN_ACTIVE_KEY" envDefault:"k1"`
	TokenTTL         time.Duration     `env:"COTERI_TOKEN_TTL" envDefault:"1h"`

	// Verification tuning.
	ReplayWindow  time.Duration `env:"COTERI_REPLAY_WINDOW" envDefault:"1s"`
	LookupTimeout time.Duration `env:"COTERI_LOOKUP_TIMEOUT" envDefault:"3s"`

	// Replay-session janitor.
	SessionRetention time.Duration `env:"COTERI_SESSION_RETENTION" envDefault:"1m"`
	JanitorInterval  time.Duration `env:"COTERI_JANITOR_INTERVAL" envDefault:"1m"`
}

func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env != "dev" && cfg.Env != "prod" {
		// fail-soft: treat unknown as dev
		cfg.Env = "dev"
	}

	return cfg, nil
}

// HMACKeys decodes the configured hex keys into raw key material.
func (c Config) HMACKeys() (map[string][]byte, error) {
	keys := make(map[string][]byte, len(c.TokenKeys))
	for kid, hexKey := range c.TokenKeys {
		kid = strings.TrimSpace(kid)
		raw, err := hex.DecodeString(strings.TrimSpace(hexKey))
		if err != nil {
			return nil, fmt.Errorf("token key %q: %w", kid, err)
		}
		if len(raw) < 16 {
			return nil, fmt.Errorf("token key %q: too short (%d bytes)", kid, len(raw))
		}
		keys[kid] = raw
	}
	return keys, nil
}
