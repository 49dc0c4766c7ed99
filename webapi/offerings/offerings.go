// Package offerings exposes route discovery over HTTP: which provider chains
// can convert one currency into another, and at what advertised rates.
package offerings

import (
	"github.com/gofiber/fiber/v2"

	"github.com/amirasaad/kapital/pkg/currency"
	"github.com/amirasaad/kapital/pkg/service/discovery"
	"github.com/amirasaad/kapital/webapi/common"
)

// Routes registers HTTP routes for offering and route discovery.
func Routes(app *fiber.App, discoverySvc *discovery.Service) {
	offeringGroup := app.Group("/api/offerings")

	offeringGroup.Get("/routes", DiscoverRoutes(discoverySvc))
}

// DiscoverRoutes returns every viable conversion route between two
// currencies, shortest first.
// @Summary Discover conversion routes
// @Description Find viable provider chains converting one currency into another
// @Tags offerings
// @Accept json
// @Produce json
// @Param from query string true "Source currency code (e.g., GHS)"
// @Param to query string true "Target currency code (e.g., KES)"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Failure 500 {object} common.ProblemDetails
// @Router /api/offerings/routes [get]
func DiscoverRoutes(discoverySvc *discovery.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from := currency.Code(c.Query("from"))
		to := currency.Code(c.Query("to"))
		if from == "" || to == "" {
			return common.ProblemDetailsJSON(c, "Missing currency pair", nil,
				"Both from and to query parameters are required", fiber.StatusBadRequest)
		}

		resolved, err := discoverySvc.DiscoverRoutes(c.Context(), from, to)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to discover routes", err)
		}

		routes := make([]RouteResponse, 0, len(resolved))
		for _, rp := range resolved {
			routes = append(routes, toRouteResponse(rp))
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Routes discovered successfully", routes)
	}
}
