// Package currency exposes the supported-currency catalog over HTTP.
package currency

import (
	"github.com/gofiber/fiber/v2"

	"github.com/amirasaad/kapital/pkg/currency"
	"github.com/amirasaad/kapital/pkg/service/discovery"
	"github.com/amirasaad/kapital/webapi/common"
)

// Routes registers HTTP routes for currency-related operations.
func Routes(app *fiber.App, discoverySvc *discovery.Service) {
	currencyGroup := app.Group("/api/currencies")

	currencyGroup.Get("/", ListCurrencies(discoverySvc))
	currencyGroup.Get("/:code", GetCurrency())
}

// ListCurrencies returns a Fiber handler listing every currency the provider
// network trades, with symbols and trade directions.
// @Summary List supported currencies
// @Description Get every currency tradeable through the provider network
// @Tags currencies
// @Accept json
// @Produce json
// @Success 200 {object} common.Response
// @Failure 429 {object} common.ProblemDetails
// @Failure 500 {object} common.ProblemDetails
// @Router /api/currencies [get]
func ListCurrencies(discoverySvc *discovery.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		listings := discoverySvc.SupportedCurrencies(c.Context())
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Currencies fetched successfully", listings)
	}
}

// GetCurrency returns display metadata for one currency code.
// @Summary Get currency by code
// @Description Get display metadata for a currency code
// @Tags currencies
// @Accept json
// @Produce json
// @Param code path string true "Currency code (e.g., USD, KES)"
// @Success 200 {object} common.Response
// @Failure 422 {object} common.ProblemDetails
// @Router /api/currencies/{code} [get]
func GetCurrency() fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := currency.Code(c.Params("code"))
		if !code.IsValid() {
			return common.ProblemDetailsJSON(c, "Invalid currency code", discovery.ErrInvalidCurrencyCode)
		}
		meta := currency.Get(code)
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Currency fetched successfully", fiber.Map{
			"code":     code,
			"symbol":   meta.Symbol,
			"decimals": meta.Decimals,
		})
	}
}
