// Package exchanges exposes the exchange lifecycle over HTTP: quoting,
// ordering, history, and rating.
package exchanges

import (
	"github.com/gofiber/fiber/v2"

	"github.com/amirasaad/kapital/pkg/exchange"
	"github.com/amirasaad/kapital/pkg/service/trading"
	"github.com/amirasaad/kapital/webapi/common"
)

// Routes registers HTTP routes for exchange operations.
func Routes(app *fiber.App, tradingSvc *trading.Service) {
	exchangeGroup := app.Group("/api/exchanges")

	exchangeGroup.Post("/quote", RequestQuote(tradingSvc))
	exchangeGroup.Get("/", ListExchanges(tradingSvc))
	exchangeGroup.Get("/:exchangeId", GetExchange(tradingSvc))
	exchangeGroup.Post("/:exchangeId/order", PlaceOrder(tradingSvc))
	exchangeGroup.Put("/:exchangeId/rating", RateExchange(tradingSvc))
}

// RequestQuote starts an exchange with a provider and waits for its quote.
// @Summary Request a quote
// @Description Submit an RFQ to a provider and wait for the resulting quote
// @Tags exchanges
// @Accept json
// @Produce json
// @Param quote body QuoteRequest true "Quote request"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Failure 502 {object} common.ProblemDetails
// @Failure 504 {object} common.ProblemDetails
// @Router /api/exchanges/quote [post]
func RequestQuote(tradingSvc *trading.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[QuoteRequest](c)
		if err != nil {
			return nil // Error already written by BindAndValidate
		}

		neg, err := tradingSvc.RequestQuote(c.Context(), trading.QuoteParams{
			ProviderURI:   input.ProviderURI,
			Base:          input.Base,
			Pair:          input.Pair,
			Amount:        input.Amount,
			PayinKind:     input.PayinKind,
			PayoutKind:    input.PayoutKind,
			PayinDetails:  input.PayinDetails,
			PayoutDetails: input.PayoutDetails,
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get quote", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Quote received successfully", toQuoteResponse(neg))
	}
}

// PlaceOrder confirms a quoted exchange and waits for the provider to close it.
// @Summary Place an order
// @Description Confirm a previously quoted exchange and wait for its outcome
// @Tags exchanges
// @Accept json
// @Produce json
// @Param exchangeId path string true "Exchange ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Failure 504 {object} common.ProblemDetails
// @Router /api/exchanges/{exchangeId}/order [post]
func PlaceOrder(tradingSvc *trading.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		exchangeID := c.Params("exchangeId")

		result, err := tradingSvc.PlaceOrder(c.Context(), exchangeID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to place order", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Order placed successfully", OrderResponse{
			ExchangeID:   exchangeID,
			Success:      result.Success,
			Reason:       result.Reason,
			PayoutAmount: result.PayoutAmount,
		})
	}
}

// ListExchanges returns exchange history, optionally filtered by status.
// @Summary List exchanges
// @Description Get exchange history, optionally narrowed by status
// @Tags exchanges
// @Accept json
// @Produce json
// @Param status query string false "Status filter (requested, quoted, ordered, completed, failed, expired)"
// @Success 200 {object} common.Response
// @Failure 500 {object} common.ProblemDetails
// @Router /api/exchanges [get]
func ListExchanges(tradingSvc *trading.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := exchange.Status(c.Query("status"))

		records, err := tradingSvc.ListExchanges(c.Context(), status)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list exchanges", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Exchanges fetched successfully", records)
	}
}

// GetExchange returns the full record for one exchange.
// @Summary Get exchange by ID
// @Description Get the full record of a single exchange
// @Tags exchanges
// @Accept json
// @Produce json
// @Param exchangeId path string true "Exchange ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /api/exchanges/{exchangeId} [get]
func GetExchange(tradingSvc *trading.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		record, err := tradingSvc.GetExchange(c.Context(), c.Params("exchangeId"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Exchange not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Exchange fetched successfully", record)
	}
}

// RateExchange records a 1-5 provider rating for an exchange.
// @Summary Rate an exchange
// @Description Record the user's 1-5 provider rating for an exchange
// @Tags exchanges
// @Accept json
// @Produce json
// @Param exchangeId path string true "Exchange ID"
// @Param rating body RateRequest true "Rating"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /api/exchanges/{exchangeId}/rating [put]
func RateExchange(tradingSvc *trading.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[RateRequest](c)
		if err != nil {
			return nil // Error already written by BindAndValidate
		}

		exchangeID := c.Params("exchangeId")
		if err := tradingSvc.RateExchange(c.Context(), exchangeID, input.Rating); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to rate exchange", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Exchange rated successfully", fiber.Map{
			"exchangeId": exchangeID,
			"rating":     input.Rating,
		})
	}
}
