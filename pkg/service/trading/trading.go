// Package trading is the stateless application surface over the negotiation
// engine: quotes, orders, multi-hop execution, and exchange history. State
// between calls lives in the record store, not in the service.
package trading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amirasaad/kapital/pkg/currency"
	"github.com/amirasaad/kapital/pkg/exchange"
	"github.com/amirasaad/kapital/pkg/offering"
	"github.com/amirasaad/kapital/pkg/route"
	"github.com/amirasaad/kapital/pkg/service/discovery"
	"github.com/amirasaad/kapital/pkg/tbdex"
	"github.com/amirasaad/kapital/pkg/wallet"
)

var (
	// ErrExchangeNotFound is returned when no record exists for an exchange id.
	ErrExchangeNotFound = errors.New("exchange not found")

	// ErrInvalidRating is returned for ratings outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrNoViableRoute is returned when no resolvable path connects a pair.
	ErrNoViableRoute = errors.New("no viable route for currency pair")
)

// Negotiator is the per-hop engine the service drives.
type Negotiator interface {
	RequestQuote(ctx context.Context, req exchange.QuoteRequest) (*exchange.Negotiation, error)
	PlaceOrder(ctx context.Context, neg *exchange.Negotiation) (*exchange.CloseResult, error)
}

// Executor runs a multi-hop plan.
type Executor interface {
	Execute(ctx context.Context, plan route.Plan) (*route.Result, error)
}

// QuoteParams identifies the hop to quote and the caller's selections.
type QuoteParams struct {
	ProviderURI   string
	Base          currency.Code
	Pair          currency.Code
	Amount        string
	PayinKind     string
	PayoutKind    string
	PayinDetails  map[string]string
	PayoutDetails map[string]string
}

// ExecuteParams describes a full multi-hop conversion.
type ExecuteParams struct {
	From   currency.Code
	To     currency.Code
	Amount string
}

// Service exposes the exchange operations to the transport layer.
type Service struct {
	discovery    *discovery.Service
	engine       Negotiator
	orchestrator Executor
	records      exchange.RecordStore
	wallet       *wallet.Wallet
	logger       *slog.Logger
}

// NewService creates a trading service.
func NewService(
	disc *discovery.Service,
	engine Negotiator,
	orchestrator Executor,
	records exchange.RecordStore,
	w *wallet.Wallet,
	logger *slog.Logger,
) *Service {
	return &Service{
		discovery:    disc,
		engine:       engine,
		orchestrator: orchestrator,
		records:      records,
		wallet:       w,
		logger:       logger.With("service", "trading"),
	}
}

// RequestQuote resolves the provider's offering for the pair and runs the
// quote phase of the negotiation.
func (s *Service) RequestQuote(ctx context.Context, params QuoteParams) (*exchange.Negotiation, error) {
	off, err := s.discovery.ResolveOffering(ctx, params.ProviderURI, params.Base, params.Pair)
	if err != nil {
		return nil, err
	}

	input := tbdex.RfqInput{
		Amount:        params.Amount,
		PayinKind:     params.PayinKind,
		PayoutKind:    params.PayoutKind,
		PayinDetails:  params.PayinDetails,
		PayoutDetails: params.PayoutDetails,
		Claims:        s.heldClaims(),
	}
	applyMethodDefaults(&input, *off)

	return s.engine.RequestQuote(ctx, exchange.QuoteRequest{Offering: *off, Input: input})
}

// PlaceOrder confirms a previously quoted exchange by id, rebuilding the
// negotiation from its persisted record.
func (s *Service) PlaceOrder(ctx context.Context, exchangeID string) (*exchange.CloseResult, error) {
	record, err := s.getRecord(ctx, exchangeID)
	if err != nil {
		return nil, err
	}

	neg := &exchange.Negotiation{
		ExchangeID:  record.ExchangeID,
		ProviderURI: record.ProviderURI,
		RecordID:    record.ID,
		Offering:    record.Offering,
		Rfq:         record.Rfq,
		Quote:       record.Quote,
		Status:      record.Status,
	}
	return s.engine.PlaceOrder(ctx, neg)
}

// ExecuteRoute discovers the best viable route for the pair and runs every
// hop. The first (shortest, deterministic) viable route is taken; per-hop
// method selections default to each offering's first advertised method.
func (s *Service) ExecuteRoute(ctx context.Context, params ExecuteParams) (*route.Result, error) {
	resolved, err := s.discovery.DiscoverRoutes(ctx, params.From, params.To)
	if err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		return nil, fmt.Errorf("%w: %s->%s", ErrNoViableRoute, params.From, params.To)
	}

	chosen := resolved[0]
	plan := route.Plan{
		Path:          chosen,
		InitialAmount: params.Amount,
		Inputs:        s.defaultInputs(chosen),
	}
	return s.orchestrator.Execute(ctx, plan)
}

// ListExchanges returns exchange history, optionally narrowed by status.
func (s *Service) ListExchanges(ctx context.Context, status exchange.Status) ([]exchange.Record, error) {
	return s.records.Query(ctx, exchange.Filter{Status: status})
}

// GetExchange returns the record for one exchange id.
func (s *Service) GetExchange(ctx context.Context, exchangeID string) (*exchange.Record, error) {
	return s.getRecord(ctx, exchangeID)
}

// RateExchange records the user's 1-5 provider rating for an exchange.
func (s *Service) RateExchange(ctx context.Context, exchangeID string, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: %d", ErrInvalidRating, rating)
	}
	record, err := s.getRecord(ctx, exchangeID)
	if err != nil {
		return err
	}
	record.Rating = rating
	if err := s.records.Update(ctx, record.ID, *record); err != nil {
		return fmt.Errorf("failed to store rating: %w", err)
	}
	s.logger.Info("exchange rated", "exchange_id", exchangeID, "rating", rating)
	return nil
}

func (s *Service) getRecord(ctx context.Context, exchangeID string) (*exchange.Record, error) {
	records, err := s.records.Query(ctx, exchange.Filter{ExchangeID: exchangeID})
	if err != nil {
		return nil, fmt.Errorf("failed to query exchange %s: %w", exchangeID, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrExchangeNotFound, exchangeID)
	}
	return &records[0], nil
}

func (s *Service) heldClaims() []tbdex.Claim {
	creds := s.wallet.Credentials()
	claims := make([]tbdex.Claim, 0, len(creds))
	for _, cred := range creds {
		claims = append(claims, tbdex.Claim{ID: cred.ID, JWT: cred.JWT})
	}
	return claims
}

func (s *Service) defaultInputs(rp offering.ResolvedPath) []route.HopInputs {
	inputs := make([]route.HopInputs, rp.Hops())
	claims := s.heldClaims()
	for hop, off := range rp.HopOffers {
		in := route.HopInputs{Claims: claims}
		if len(off.Data.Payin.Methods) > 0 {
			in.PayinKind = off.Data.Payin.Methods[0].Kind
		}
		if len(off.Data.Payout.Methods) > 0 {
			in.PayoutKind = off.Data.Payout.Methods[0].Kind
		}
		inputs[hop] = in
	}
	return inputs
}

// applyMethodDefaults fills unset method kinds from the offering so callers
// only need to choose when an offering advertises more than one method.
func applyMethodDefaults(input *tbdex.RfqInput, off offering.Offering) {
	if input.PayinKind == "" && len(off.Data.Payin.Methods) > 0 {
		input.PayinKind = off.Data.Payin.Methods[0].Kind
	}
	if input.PayoutKind == "" && len(off.Data.Payout.Methods) > 0 {
		input.PayoutKind = off.Data.Payout.Methods[0].Kind
	}
}
