// Package common holds the response envelope, RFC 9457 problem details, and
// request binding helpers shared by the webapi feature packages.
package common

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/amirasaad/kapital/pkg/exchange"
	"github.com/amirasaad/kapital/pkg/provider"
	"github.com/amirasaad/kapital/pkg/service/discovery"
	"github.com/amirasaad/kapital/pkg/service/trading"
	"github.com/amirasaad/kapital/pkg/tbdex"
)

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`         // HTTP status code
	Message string `json:"message"`        // Human-readable explanation
	Data    any    `json:"data,omitempty"` // Response data
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`     // A URI reference that identifies the problem type
	Title    string `json:"title"`              // Short, human-readable summary
	Status   int    `json:"status"`             // HTTP status code
	Detail   string `json:"detail,omitempty"`   // Human-readable explanation
	Instance string `json:"instance,omitempty"` // URI reference that identifies the specific occurrence
	Errors   any    `json:"errors,omitempty"`   // Optional: additional error details
}

// SuccessResponseJSON writes the standard success envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// ProblemDetailsJSON writes an RFC 9457 problem response. The status defaults
// to ErrorToStatusCode(err); pass extra string/int arguments to override the
// detail text or status code.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, extras ...any) error {
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   ErrorToStatusCode(err),
		Instance: c.OriginalURL(),
	}
	if err != nil {
		pd.Detail = err.Error()
	}
	for _, extra := range extras {
		switch v := extra.(type) {
		case string:
			pd.Detail = v
		case int:
			pd.Status = v
		default:
			pd.Errors = v
		}
	}
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(pd.Status).JSON(pd)
}

// ErrorToStatusCode maps domain errors to appropriate HTTP status codes.
func ErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return fiber.StatusInternalServerError
	case errors.Is(err, trading.ErrExchangeNotFound),
		errors.Is(err, provider.ErrProviderNotFound),
		errors.Is(err, discovery.ErrNoOffering):
		return fiber.StatusNotFound
	case errors.Is(err, discovery.ErrInvalidCurrencyCode),
		errors.Is(err, trading.ErrNoViableRoute),
		errors.Is(err, tbdex.ErrRequirementsNotMet):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, discovery.ErrSamePair),
		errors.Is(err, trading.ErrInvalidRating):
		return fiber.StatusBadRequest
	case errors.Is(err, exchange.ErrNotQuoted),
		errors.Is(err, exchange.ErrQuoteExpired):
		return fiber.StatusConflict
	case errors.Is(err, exchange.ErrQuoteTimeout),
		errors.Is(err, exchange.ErrCloseTimeout):
		return fiber.StatusGatewayTimeout
	case errors.Is(err, exchange.ErrClosedBeforeQuote):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// BindAndValidate parses the request body and validates it using go-playground/validator.
// Returns a pointer to the struct (populated), or writes an error response and returns nil.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		_ = ProblemDetailsJSON(c, "Invalid request body", err, fiber.StatusBadRequest)
		return nil, err
	}
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		_ = ProblemDetailsJSON(c, "Validation failed", err, fiber.StatusBadRequest)
		return nil, err
	}
	return &input, nil
}
