// Package config loads the wallet's runtime configuration from the
// environment, optionally seeded from a .env file.
package config

import (
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"text"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"kapital"`
}

type DB struct {
	Url string `envconfig:"URL"`
}

type Redis struct {
	URL string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

// Wallet holds the signing identity. The seed is hex-encoded; custody and
// encryption-at-rest are the deployment's responsibility.
type Wallet struct {
	SeedHex string `envconfig:"SEED"`
}

// Seed decodes the hex-encoded Ed25519 seed; empty config yields nil.
func (w Wallet) Seed() ([]byte, error) {
	if w.SeedHex == "" {
		return nil, nil
	}
	return hex.DecodeString(w.SeedHex)
}

// Directory points at an external PFI allowlist file. Empty means the
// embedded default allowlist.
type Directory struct {
	Path string `envconfig:"PATH"`
}

type Polling struct {
	MaxAttempts int           `envconfig:"MAX_ATTEMPTS" default:"30"`
	Interval    time.Duration `envconfig:"INTERVAL" default:"2s"`
	Deadline    time.Duration `envconfig:"DEADLINE" default:"90s"`
}

type Routing struct {
	MaxHops    int `envconfig:"MAX_HOPS" default:"4"`
	MaxResults int `envconfig:"MAX_RESULTS" default:"32"`
}

type OfferingCache struct {
	TTL    time.Duration `envconfig:"TTL" default:"5m"`
	Prefix string        `envconfig:"PREFIX" default:"kapital:offerings:"`
}

type Tbdex struct {
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
}

type App struct {
	Env           string        `envconfig:"APP_ENV" default:"development"`
	Server        Server        `envconfig:"APP"`
	Log           Log           `envconfig:"LOG"`
	DB            DB            `envconfig:"DATABASE"`
	Redis         Redis         `envconfig:"REDIS"`
	RateLimit     RateLimit     `envconfig:"RATE_LIMIT"`
	Wallet        Wallet        `envconfig:"WALLET"`
	Directory     Directory     `envconfig:"DIRECTORY"`
	Polling       Polling       `envconfig:"POLLING"`
	Routing       Routing       `envconfig:"ROUTING"`
	OfferingCache OfferingCache `envconfig:"OFFERING_CACHE"`
	Tbdex         Tbdex         `envconfig:"TBDEX"`
}

// Load reads configuration from the environment, first loading the given
// .env file (or ./.env) when present.
func Load(logger *slog.Logger, envFilePath ...string) (*App, error) {
	var err error
	if len(envFilePath) > 0 && envFilePath[0] != "" {
		err = godotenv.Load(envFilePath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		logger.Warn("No .env file found, using system environment variables")
	} else {
		logger.Info("Environment variables loaded from .env file")
	}

	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	logger.Info("App config loaded",
		"env", cfg.Env,
		"poll_max_attempts", cfg.Polling.MaxAttempts,
		"poll_interval", cfg.Polling.Interval,
		"routing_max_hops", cfg.Routing.MaxHops,
		"offering_cache_ttl", cfg.OfferingCache.TTL,
		"rate_limit_max_requests", cfg.RateLimit.MaxRequests,
	)
	return &cfg, nil
}
