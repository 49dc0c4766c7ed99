package exchange

import "errors"

var (
	// ErrQuoteTimeout is returned when no quote arrives within the polling
	// budget.
	ErrQuoteTimeout = errors.New("timed out waiting for quote")

	// ErrCloseTimeout is returned when no close arrives within the polling
	// budget after order submission. Distinct from a received close that
	// carries failure semantics.
	ErrCloseTimeout = errors.New("timed out waiting for close")

	// ErrClosedBeforeQuote is returned when the provider closes the exchange
	// before ever quoting it.
	ErrClosedBeforeQuote = errors.New("exchange closed by provider before quote")

	// ErrQuoteExpired is returned when an order is attempted against a quote
	// whose expiry has passed. The order is never submitted.
	ErrQuoteExpired = errors.New("quote has expired")

	// ErrNotQuoted is returned when an order is attempted on a negotiation
	// that is not in the quoted state.
	ErrNotQuoted = errors.New("negotiation is not in quoted state")
)
