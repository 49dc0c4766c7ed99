package exchanges

import (
	"time"

	"github.com/amirasaad/kapital/pkg/currency"
	"github.com/amirasaad/kapital/pkg/exchange"
)

// QuoteRequest asks a provider to price one conversion hop.
type QuoteRequest struct {
	ProviderURI   string            `json:"providerUri" validate:"required"`
	Base          currency.Code     `json:"base" validate:"required"`
	Pair          currency.Code     `json:"pair" validate:"required"`
	Amount        string            `json:"amount" validate:"required"`
	PayinKind     string            `json:"payinKind,omitempty"`
	PayoutKind    string            `json:"payoutKind,omitempty"`
	PayinDetails  map[string]string `json:"payinDetails,omitempty"`
	PayoutDetails map[string]string `json:"payoutDetails,omitempty"`
}

// RateRequest carries the user's provider rating for a finished exchange.
type RateRequest struct {
	Rating int `json:"rating" validate:"required,min=1,max=5"`
}

// QuoteResponse summarizes a received quote for the caller.
type QuoteResponse struct {
	ExchangeID   string          `json:"exchangeId"`
	ProviderURI  string          `json:"providerUri"`
	Status       exchange.Status `json:"status"`
	PayinAmount  string          `json:"payinAmount"`
	PayinCode    currency.Code   `json:"payinCurrency"`
	PayoutAmount string          `json:"payoutAmount"`
	PayoutCode   currency.Code   `json:"payoutCurrency"`
	ExpiresAt    time.Time       `json:"expiresAt"`
}

func toQuoteResponse(neg *exchange.Negotiation) QuoteResponse {
	resp := QuoteResponse{
		ExchangeID:  neg.ExchangeID,
		ProviderURI: neg.ProviderURI,
		Status:      neg.Status,
	}
	if neg.Quote != nil {
		resp.PayinAmount = neg.Quote.Data.Payin.Amount
		resp.PayinCode = neg.Quote.Data.Payin.CurrencyCode
		resp.PayoutAmount = neg.Quote.Data.Payout.Amount
		resp.PayoutCode = neg.Quote.Data.Payout.CurrencyCode
		resp.ExpiresAt = neg.Quote.Data.ExpiresAt
	}
	return resp
}

// OrderResponse is the terminal outcome of a confirmed exchange.
type OrderResponse struct {
	ExchangeID   string `json:"exchangeId"`
	Success      bool   `json:"success"`
	Reason       string `json:"reason,omitempty"`
	PayoutAmount string `json:"payoutAmount,omitempty"`
}
