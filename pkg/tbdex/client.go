package tbdex

import (
	"context"

	"github.com/amirasaad/kapital/pkg/offering"
)

// GetExchangeRequest identifies an exchange to poll.
type GetExchangeRequest struct {
	ExchangeID   string
	ProviderURI  string
	RequesterDID string
}

// Client is the port to the provider-side protocol endpoints. The HTTP
// implementation lives under infra/tbdex; tests use fakes.
type Client interface {
	// GetOfferings fetches a provider's full offering catalog.
	GetOfferings(ctx context.Context, providerURI string) ([]offering.Offering, error)

	// CreateExchange submits a signed RFQ, registering a new exchange under
	// the RFQ's exchange id.
	CreateExchange(ctx context.Context, rfq *Rfq) error

	// GetExchange returns all messages recorded so far on an exchange.
	GetExchange(ctx context.Context, req GetExchangeRequest) ([]Message, error)

	// SubmitOrder submits a signed order against a quoted exchange.
	SubmitOrder(ctx context.Context, order *Order) error
}
