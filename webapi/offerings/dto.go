package offerings

import (
	"github.com/amirasaad/kapital/pkg/currency"
	"github.com/amirasaad/kapital/pkg/offering"
)

// HopResponse is one hop of a discovered route.
type HopResponse struct {
	Base       currency.Code `json:"base"`
	Pair       currency.Code `json:"pair"`
	Provider   string        `json:"provider"`
	OfferingID string        `json:"offeringId"`
	Rate       string        `json:"rate"`
}

// RouteResponse is one viable conversion route.
type RouteResponse struct {
	Currencies    []currency.Code `json:"currencies"`
	Hops          []HopResponse   `json:"hops"`
	EstimatedRate float64         `json:"estimatedRate,omitempty"`
}

func toRouteResponse(rp offering.ResolvedPath) RouteResponse {
	resp := RouteResponse{
		Currencies: rp.Currencies,
		Hops:       make([]HopResponse, 0, rp.Hops()),
	}
	for hop, off := range rp.HopOffers {
		resp.Hops = append(resp.Hops, HopResponse{
			Base:       rp.Currencies[hop],
			Pair:       rp.Currencies[hop+1],
			Provider:   rp.Providers[hop],
			OfferingID: off.ID(),
			Rate:       off.Data.PayoutUnitsPerPayinUnit,
		})
	}
	if rate, ok := rp.EstimatedRate(); ok {
		resp.EstimatedRate = rate
	}
	return resp
}
