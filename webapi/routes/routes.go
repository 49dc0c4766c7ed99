// Package routes exposes end-to-end multi-hop conversion over HTTP.
package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/amirasaad/kapital/pkg/service/trading"
	"github.com/amirasaad/kapital/webapi/common"
)

// Routes registers HTTP routes for multi-hop execution.
func Routes(app *fiber.App, tradingSvc *trading.Service) {
	routeGroup := app.Group("/api/routes")

	routeGroup.Post("/execute", ExecuteRoute(tradingSvc))
}

// ExecuteRoute runs every hop of the best viable route for a currency pair.
// @Summary Execute a conversion route
// @Description Discover the best viable route for a pair and run every hop
// @Tags routes
// @Accept json
// @Produce json
// @Param execution body ExecuteRequest true "Conversion to execute"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Failure 502 {object} common.ProblemDetails
// @Failure 504 {object} common.ProblemDetails
// @Router /api/routes/execute [post]
func ExecuteRoute(tradingSvc *trading.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[ExecuteRequest](c)
		if err != nil {
			return nil // Error already written by BindAndValidate
		}

		result, err := tradingSvc.ExecuteRoute(c.Context(), trading.ExecuteParams{
			From:   input.From,
			To:     input.To,
			Amount: input.Amount,
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to execute route", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Route executed successfully", toExecuteResponse(result))
	}
}
