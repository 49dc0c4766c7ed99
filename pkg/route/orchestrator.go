// Package route executes multi-hop conversion plans: each hop runs the full
// RFQ negotiation, and the quoted payout of one hop funds the next.
package route

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amirasaad/kapital/pkg/currency"
	"github.com/amirasaad/kapital/pkg/exchange"
	"github.com/amirasaad/kapital/pkg/offering"
	"github.com/amirasaad/kapital/pkg/tbdex"
)

var (
	// ErrPlanNotViable is returned when the plan's path is missing an
	// offering on any hop.
	ErrPlanNotViable = errors.New("plan path is not viable")

	// ErrInputsMismatch is returned when the plan does not carry exactly one
	// input set per hop.
	ErrInputsMismatch = errors.New("plan inputs do not align with path hops")
)

// Quoter is the per-hop negotiation engine the orchestrator drives.
type Quoter interface {
	RequestQuote(ctx context.Context, req exchange.QuoteRequest) (*exchange.Negotiation, error)
	PlaceOrder(ctx context.Context, neg *exchange.Negotiation) (*exchange.CloseResult, error)
}

// HopInputs is the caller's payment selections for one hop. The amount is
// not here: the first hop uses the plan's initial amount and every later hop
// uses the previous hop's quoted payout.
type HopInputs struct {
	PayinKind     string
	PayoutKind    string
	PayinDetails  map[string]string
	PayoutDetails map[string]string
	Claims        []tbdex.Claim
}

// Plan is an executable route: a fully resolved path, the opening amount,
// and one input set per hop.
type Plan struct {
	Path          offering.ResolvedPath
	InitialAmount string
	Inputs        []HopInputs
}

// HopOutcome records one completed hop.
type HopOutcome struct {
	ExchangeID   string
	ProviderURI  string
	PayinAmount  string
	PayoutAmount string
}

// Result is a fully executed plan. FinalAmount is the last hop's quoted
// payout amount, verbatim.
type Result struct {
	Hops        []HopOutcome
	FinalAmount string
}

// HopError reports the hop a plan failed on. Completed holds the hops that
// settled before the failure; their exchange records are untouched.
type HopError struct {
	Hop       int
	Base      currency.Code
	Pair      currency.Code
	Provider  string
	Reason    string
	Completed []HopOutcome
	Err       error
}

func (e *HopError) Error() string {
	return fmt.Sprintf("route failed at hop %d (%s->%s via %s): %s",
		e.Hop+1, e.Base, e.Pair, e.Provider, e.Reason)
}

func (e *HopError) Unwrap() error { return e.Err }

// Orchestrator drives a plan hop-by-hop through the negotiation engine.
type Orchestrator struct {
	engine Quoter
	logger *slog.Logger
}

// NewOrchestrator builds an orchestrator over the given engine.
func NewOrchestrator(engine Quoter, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		engine: engine,
		logger: logger.With("component", "route.orchestrator"),
	}
}

// Execute runs every hop of the plan in order. The payin amount of hop n+1
// is the quoted payout amount string of hop n, carried without rounding or
// reformatting. A failed hop halts the route: earlier hops stay settled and
// their records intact, and the returned *HopError names the hop and cause.
func (o *Orchestrator) Execute(ctx context.Context, plan Plan) (*Result, error) {
	if !plan.Path.Viable() {
		return nil, ErrPlanNotViable
	}
	hops := plan.Path.Hops()
	if len(plan.Inputs) != hops {
		return nil, fmt.Errorf("%w: %d inputs for %d hops", ErrInputsMismatch, len(plan.Inputs), hops)
	}

	amount := plan.InitialAmount
	completed := make([]HopOutcome, 0, hops)

	for hop := 0; hop < hops; hop++ {
		off := *plan.Path.HopOffers[hop]
		in := plan.Inputs[hop]
		base := plan.Path.Currencies[hop]
		pair := plan.Path.Currencies[hop+1]

		o.logger.Info("executing hop",
			"hop", hop+1, "of", hops, "base", base, "pair", pair,
			"provider", plan.Path.Providers[hop], "amount", amount)

		neg, err := o.engine.RequestQuote(ctx, exchange.QuoteRequest{
			Offering: off,
			Input: tbdex.RfqInput{
				Amount:        amount,
				PayinKind:     in.PayinKind,
				PayoutKind:    in.PayoutKind,
				PayinDetails:  in.PayinDetails,
				PayoutDetails: in.PayoutDetails,
				Claims:        in.Claims,
			},
		})
		if err != nil {
			return nil, o.fail(hop, base, pair, off.ProviderURI(), completed, err, "quote request failed")
		}

		outcome, err := o.engine.PlaceOrder(ctx, neg)
		if err != nil {
			return nil, o.fail(hop, base, pair, off.ProviderURI(), completed, err, "order failed")
		}
		if !outcome.Success {
			reason := outcome.Reason
			if reason == "" {
				reason = "provider closed exchange without success"
			}
			return nil, o.fail(hop, base, pair, off.ProviderURI(), completed, nil, reason)
		}

		completed = append(completed, HopOutcome{
			ExchangeID:   neg.ExchangeID,
			ProviderURI:  off.ProviderURI(),
			PayinAmount:  amount,
			PayoutAmount: outcome.PayoutAmount,
		})
		amount = outcome.PayoutAmount
	}

	o.logger.Info("route completed", "hops", hops, "final_amount", amount)
	return &Result{Hops: completed, FinalAmount: amount}, nil
}

func (o *Orchestrator) fail(
	hop int,
	base, pair currency.Code,
	providerURI string,
	completed []HopOutcome,
	err error,
	reason string,
) *HopError {
	if err != nil {
		reason = fmt.Sprintf("%s: %v", reason, err)
	}
	o.logger.Error("route halted",
		"hop", hop+1, "base", base, "pair", pair, "provider", providerURI, "reason", reason)
	return &HopError{
		Hop:       hop,
		Base:      base,
		Pair:      pair,
		Provider:  providerURI,
		Reason:    reason,
		Completed: completed,
		Err:       err,
	}
}
