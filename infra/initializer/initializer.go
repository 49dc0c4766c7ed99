// Package initializer builds the wallet's dependency graph: identity,
// provider directory, persistence, protocol client, caching, bus, metrics,
// and the services on top of them.
package initializer

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/amirasaad/kapital/config"
	"github.com/amirasaad/kapital/infra"
	"github.com/amirasaad/kapital/infra/caching"
	infra_eventbus "github.com/amirasaad/kapital/infra/eventbus"
	"github.com/amirasaad/kapital/infra/metrics"
	exchange_repository "github.com/amirasaad/kapital/infra/repository/exchange"
	infra_tbdex "github.com/amirasaad/kapital/infra/tbdex"
	providerfixtures "github.com/amirasaad/kapital/internal/fixtures/providers"
	"github.com/amirasaad/kapital/pkg/eventbus"
	"github.com/amirasaad/kapital/pkg/exchange"
	"github.com/amirasaad/kapital/pkg/offering"
	"github.com/amirasaad/kapital/pkg/provider"
	"github.com/amirasaad/kapital/pkg/route"
	"github.com/amirasaad/kapital/pkg/routing"
	"github.com/amirasaad/kapital/pkg/service/discovery"
	"github.com/amirasaad/kapital/pkg/service/trading"
	"github.com/amirasaad/kapital/pkg/wallet"
)

// Deps contains all the dependencies needed by the application
type Deps struct {
	Config    *config.App
	Logger    *slog.Logger
	Wallet    *wallet.Wallet
	Directory *provider.Directory
	EventBus  eventbus.Bus
	Records   exchange.RecordStore
	Metrics   *metrics.Collector

	DiscoveryService *discovery.Service
	TradingService   *trading.Service
}

// InitializeDependencies initializes all the application dependencies
func InitializeDependencies(cfg *config.App) (deps *Deps, err error) {
	deps = &Deps{Config: cfg}
	logger := setupLogger(cfg.Log)
	deps.Logger = logger

	// Signing identity: from the configured seed, or ephemeral when unset.
	deps.Wallet, err = setupWallet(cfg.Wallet, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize wallet identity: %w", err)
	}

	// Provider allowlist: external file or the embedded default set.
	deps.Directory, err = setupDirectory(cfg.Directory, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize provider directory: %w", err)
	}

	// Initialize database and the exchange record store
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, err
	}
	deps.Records = exchange_repository.New(db)

	// Protocol client, optionally fronted by the redis offering cache
	client := infra_tbdex.NewClient(cfg.Tbdex, infra_tbdex.PassthroughResolver, logger)
	var source offering.CatalogSource = client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		source = caching.NewOfferingCache(client, redis.NewClient(opts), cfg.OfferingCache, logger)
		logger.Info("Offering catalog caching enabled", "ttl", cfg.OfferingCache.TTL)
	}

	// Event bus plus metrics fed from lifecycle events
	bus := infra_eventbus.NewWithMemory(logger)
	deps.EventBus = bus
	deps.Metrics = metrics.NewCollector(prometheus.DefaultRegisterer)
	deps.Metrics.Observe(bus)

	engine := exchange.NewEngine(client, deps.Records, deps.Wallet, bus, logger).
		WithPolicy(exchange.PollPolicy{
			MaxAttempts: cfg.Polling.MaxAttempts,
			Interval:    cfg.Polling.Interval,
			Deadline:    cfg.Polling.Deadline,
		})
	orchestrator := route.NewOrchestrator(engine, logger)

	resolver := offering.NewResolver(source, deps.Directory, logger)
	deps.DiscoveryService = discovery.NewService(
		deps.Directory,
		source,
		resolver,
		routing.Options{MaxHops: cfg.Routing.MaxHops, MaxResults: cfg.Routing.MaxResults},
		logger,
	)
	deps.TradingService = trading.NewService(
		deps.DiscoveryService,
		engine,
		orchestrator,
		deps.Records,
		deps.Wallet,
		logger,
	)

	return deps, nil
}

func setupWallet(cfg config.Wallet, logger *slog.Logger) (*wallet.Wallet, error) {
	seed, err := cfg.Seed()
	if err != nil {
		return nil, fmt.Errorf("invalid wallet seed: %w", err)
	}
	if len(seed) == 0 {
		logger.Warn("No wallet seed configured, generating an ephemeral identity")
		return wallet.Generate()
	}
	w, err := wallet.FromSeed(seed)
	if err != nil {
		return nil, err
	}
	logger.Info("Wallet identity loaded", "did", w.DID())
	return w, nil
}

func setupDirectory(cfg config.Directory, logger *slog.Logger) (*provider.Directory, error) {
	if cfg.Path == "" {
		logger.Info("Loading embedded provider allowlist")
		return providerfixtures.LoadDefaultDirectory()
	}
	data, err := os.ReadFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider directory %s: %w", cfg.Path, err)
	}
	dir, err := provider.FromJSON(data)
	if err != nil {
		return nil, err
	}
	logger.Info("Provider allowlist loaded", "path", cfg.Path, "providers", dir.Count())
	return dir, nil
}
