// Package discovery answers the "what can I convert, and how" questions:
// supported currencies, conversion routes between a pair, and the concrete
// offering backing a single hop.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/amirasaad/kapital/pkg/currency"
	"github.com/amirasaad/kapital/pkg/offering"
	"github.com/amirasaad/kapital/pkg/provider"
	"github.com/amirasaad/kapital/pkg/routing"
)

var (
	// ErrInvalidCurrencyCode is returned for malformed currency codes.
	ErrInvalidCurrencyCode = errors.New("invalid currency code")

	// ErrSamePair is returned when source and target are the same currency.
	ErrSamePair = errors.New("source and target currency are the same")

	// ErrNoOffering is returned when a provider has no offering for a pair.
	ErrNoOffering = errors.New("no offering for currency pair")
)

// CurrencyListing is one supported currency with its display metadata and
// the directions the provider network trades it in.
type CurrencyListing struct {
	Code     currency.Code `json:"code"`
	Symbol   string        `json:"symbol"`
	Decimals int           `json:"decimals"`
	Payin    bool          `json:"payin"`
	Payout   bool          `json:"payout"`
}

// Service builds the currency graph from the provider directory and answers
// discovery queries over it.
type Service struct {
	directory *provider.Directory
	source    offering.CatalogSource
	resolver  *offering.Resolver
	opts      routing.Options
	logger    *slog.Logger
}

// NewService creates a discovery service.
func NewService(
	directory *provider.Directory,
	source offering.CatalogSource,
	resolver *offering.Resolver,
	opts routing.Options,
	logger *slog.Logger,
) *Service {
	return &Service{
		directory: directory,
		source:    source,
		resolver:  resolver,
		opts:      opts,
		logger:    logger.With("service", "discovery"),
	}
}

// SupportedCurrencies lists every currency the provider network trades,
// annotated with symbol, decimals, and trade direction.
func (s *Service) SupportedCurrencies(ctx context.Context) []CurrencyListing {
	base, pair := routing.SupportedCurrencies(s.directory)

	baseSet := make(map[currency.Code]struct{}, len(base))
	for _, code := range base {
		baseSet[code] = struct{}{}
	}
	pairSet := make(map[currency.Code]struct{}, len(pair))
	for _, code := range pair {
		pairSet[code] = struct{}{}
	}

	union := make(map[currency.Code]struct{}, len(base)+len(pair))
	for code := range baseSet {
		union[code] = struct{}{}
	}
	for code := range pairSet {
		union[code] = struct{}{}
	}

	listings := make([]CurrencyListing, 0, len(union))
	for _, code := range sortedUnion(union) {
		meta := currency.Get(code)
		_, payin := baseSet[code]
		_, payout := pairSet[code]
		listings = append(listings, CurrencyListing{
			Code:     code,
			Symbol:   meta.Symbol,
			Decimals: meta.Decimals,
			Payin:    payin,
			Payout:   payout,
		})
	}
	return listings
}

// DiscoverRoutes finds every viable conversion route from one currency to
// another, each hop annotated with a concrete offering.
func (s *Service) DiscoverRoutes(ctx context.Context, from, to currency.Code) ([]offering.ResolvedPath, error) {
	if !from.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCurrencyCode, from)
	}
	if !to.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCurrencyCode, to)
	}
	if from == to {
		return nil, ErrSamePair
	}

	graph, _ := routing.BuildGraph(s.directory)
	paths := routing.FindPaths(graph, from, to, s.opts)
	if len(paths) == 0 {
		return []offering.ResolvedPath{}, nil
	}

	resolved := s.resolver.ResolveOffers(ctx, paths)
	viable := offering.Viable(resolved)
	s.logger.Info("routes discovered",
		"from", from, "to", to, "paths", len(paths), "viable", len(viable))
	return viable, nil
}

// ResolveOffering returns the offering an allowlisted provider advertises
// for a pair, straight from its (possibly cached) catalog.
func (s *Service) ResolveOffering(ctx context.Context, providerURI string, base, pair currency.Code) (*offering.Offering, error) {
	if _, err := s.directory.GetByURI(providerURI); err != nil {
		return nil, err
	}

	catalog, err := s.source.GetOfferings(ctx, providerURI)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog for %s: %w", providerURI, err)
	}

	off := offering.PickApplicable(catalog, base, pair)
	if off == nil {
		return nil, fmt.Errorf("%w: %s->%s at %s", ErrNoOffering, base, pair, providerURI)
	}
	return off, nil
}

func sortedUnion(set map[currency.Code]struct{}) []currency.Code {
	codes := make([]currency.Code, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
