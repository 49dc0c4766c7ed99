// Package app assembles the HTTP application: event handler registration,
// Fiber setup, and route wiring for every webapi feature package.
package app

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amirasaad/kapital/infra/initializer"
	"github.com/amirasaad/kapital/pkg/domain"
	"github.com/amirasaad/kapital/pkg/exchange"
	"github.com/amirasaad/kapital/webapi/common"
	currencyweb "github.com/amirasaad/kapital/webapi/currency"
	exchangesweb "github.com/amirasaad/kapital/webapi/exchanges"
	offeringsweb "github.com/amirasaad/kapital/webapi/offerings"
	routesweb "github.com/amirasaad/kapital/webapi/routes"

	_ "github.com/amirasaad/kapital/cmd/server/swagger"
)

// New registers event handlers, builds the Fiber app, and wires all routes.
func New(deps *initializer.Deps) *fiber.App {
	logger := deps.Logger

	// Exchange lifecycle audit trail. The metrics collector subscribes to
	// the same events during initialization.
	deps.EventBus.Subscribe("ExchangeQuotedEvent", func(ctx context.Context, event domain.Event) {
		if e, ok := event.(exchange.QuoteReceivedEvent); ok {
			logger.Info("exchange quoted",
				"exchange_id", e.ExchangeID,
				"provider", e.ProviderURI,
				"payin", e.PayinAmount,
				"payout", e.PayoutAmount,
				"expires_at", e.ExpiresAt,
			)
		}
	})
	deps.EventBus.Subscribe("ExchangeCompletedEvent", func(ctx context.Context, event domain.Event) {
		if e, ok := event.(exchange.CompletedEvent); ok {
			logger.Info("exchange completed",
				"exchange_id", e.ExchangeID,
				"provider", e.ProviderURI,
				"payout", e.PayoutAmount,
			)
		}
	})
	deps.EventBus.Subscribe("ExchangeFailedEvent", func(ctx context.Context, event domain.Event) {
		if e, ok := event.(exchange.FailedEvent); ok {
			logger.Warn("exchange failed",
				"exchange_id", e.ExchangeID,
				"provider", e.ProviderURI,
				"reason", e.Reason,
			)
		}
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return common.ProblemDetailsJSON(c, "Internal Server Error", err, e.Code)
			}
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})
	app.Get("/swagger/*", swagger.New(swagger.Config{
		TryItOutEnabled:      true,
		WithCredentials:      true,
		PersistAuthorization: true,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        deps.Config.RateLimit.MaxRequests,
		Expiration: deps.Config.RateLimit.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			// Use X-Forwarded-For header if available (for load balancers/proxies)
			// Fall back to X-Real-IP, then to direct IP
			if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
				// Take the first IP in the chain
				if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
					return strings.TrimSpace(forwardedFor[:commaIndex])
				}
				return strings.TrimSpace(forwardedFor)
			}
			if realIP := c.Get("X-Real-IP"); realIP != "" {
				return realIP
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(c, "Too Many Requests", errors.New("rate limit exceeded"), fiber.StatusTooManyRequests)
		},
	}))
	app.Use(recover.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Kapital wallet API is running! 🚀")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	currencyweb.Routes(app, deps.DiscoveryService)
	offeringsweb.Routes(app, deps.DiscoveryService)
	exchangesweb.Routes(app, deps.TradingService)
	routesweb.Routes(app, deps.TradingService)
	return app
}
