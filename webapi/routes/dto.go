package routes

import (
	"github.com/amirasaad/kapital/pkg/currency"
	"github.com/amirasaad/kapital/pkg/route"
)

// ExecuteRequest asks for a full multi-hop conversion.
type ExecuteRequest struct {
	From   currency.Code `json:"from" validate:"required"`
	To     currency.Code `json:"to" validate:"required"`
	Amount string        `json:"amount" validate:"required"`
}

// HopOutcomeResponse is the settled outcome of one hop.
type HopOutcomeResponse struct {
	ExchangeID   string `json:"exchangeId"`
	ProviderURI  string `json:"providerUri"`
	PayinAmount  string `json:"payinAmount"`
	PayoutAmount string `json:"payoutAmount"`
}

// ExecuteResponse is a completed multi-hop conversion.
type ExecuteResponse struct {
	FinalAmount string               `json:"finalAmount"`
	Hops        []HopOutcomeResponse `json:"hops"`
}

func toExecuteResponse(result *route.Result) ExecuteResponse {
	resp := ExecuteResponse{
		FinalAmount: result.FinalAmount,
		Hops:        make([]HopOutcomeResponse, 0, len(result.Hops)),
	}
	for _, hop := range result.Hops {
		resp.Hops = append(resp.Hops, HopOutcomeResponse{
			ExchangeID:   hop.ExchangeID,
			ProviderURI:  hop.ProviderURI,
			PayinAmount:  hop.PayinAmount,
			PayoutAmount: hop.PayoutAmount,
		})
	}
	return resp
}
