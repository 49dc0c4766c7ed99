package discovery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirasaad/kapital/pkg/currency"
	"github.com/amirasaad/kapital/pkg/offering"
	"github.com/amirasaad/kapital/pkg/provider"
	"github.com/amirasaad/kapital/pkg/routing"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type scriptedSource struct {
	catalogs map[string][]offering.Offering
	err      error
	calls    int
}

func (s *scriptedSource) GetOfferings(ctx context.Context, providerURI string) ([]offering.Offering, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.catalogs[providerURI], nil
}

func makeOffering(id, from string, base, pair currency.Code, rate string) offering.Offering {
	return offering.Offering{
		Metadata: offering.Metadata{ID: id, From: from},
		Data: offering.Data{
			PayoutUnitsPerPayinUnit: rate,
			Payin: offering.PaymentSpec{
				CurrencyCode: base,
				Methods:      []offering.PaymentMethod{{Kind: string(base) + "_WALLET"}},
			},
			Payout: offering.PaymentSpec{
				CurrencyCode: pair,
				Methods:      []offering.PaymentMethod{{Kind: string(pair) + "_WALLET"}},
			},
		},
	}
}

func testDirectory() *provider.Directory {
	dir := provider.NewDirectory()
	dir.Register("alpha_fx", provider.Info{
		URI: "did:dht:alpha",
		SupportedCurrencies: map[currency.Code][]currency.Code{
			"GHS": {"USDC"},
		},
	})
	dir.Register("beta_fx", provider.Info{
		URI: "did:dht:beta",
		SupportedCurrencies: map[currency.Code][]currency.Code{
			"USDC": {"KES"},
		},
	})
	return dir
}

func newTestService(source offering.CatalogSource, dir *provider.Directory) *Service {
	resolver := offering.NewResolver(source, dir, testLogger)
	return NewService(dir, source, resolver, routing.Options{}, testLogger)
}

func TestSupportedCurrencies(t *testing.T) {
	svc := newTestService(&scriptedSource{}, testDirectory())

	listings := svc.SupportedCurrencies(context.Background())
	require.Len(t, listings, 3)

	// Sorted by code; direction flags reflect which side of a pair the
	// currency appears on.
	assert.Equal(t, currency.Code("GHS"), listings[0].Code)
	assert.True(t, listings[0].Payin)
	assert.False(t, listings[0].Payout)

	assert.Equal(t, currency.Code("KES"), listings[1].Code)
	assert.False(t, listings[1].Payin)
	assert.True(t, listings[1].Payout)
	assert.Equal(t, "KSh", listings[1].Symbol)

	assert.Equal(t, currency.Code("USDC"), listings[2].Code)
	assert.True(t, listings[2].Payin)
	assert.True(t, listings[2].Payout)
}

func TestDiscoverRoutes(t *testing.T) {
	source := &scriptedSource{catalogs: map[string][]offering.Offering{
		"did:dht:alpha": {makeOffering("off_ghs_usdc", "did:dht:alpha", "GHS", "USDC", "0.10")},
		"did:dht:beta":  {makeOffering("off_usdc_kes", "did:dht:beta", "USDC", "KES", "130.00")},
	}}
	svc := newTestService(source, testDirectory())

	routes, err := svc.DiscoverRoutes(context.Background(), "GHS", "KES")
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, 2, routes[0].Hops())
	assert.Equal(t, "off_ghs_usdc", routes[0].HopOffers[0].ID())
	assert.Equal(t, "off_usdc_kes", routes[0].HopOffers[1].ID())
}

func TestDiscoverRoutes_NoPathIsNotAnError(t *testing.T) {
	svc := newTestService(&scriptedSource{}, testDirectory())

	routes, err := svc.DiscoverRoutes(context.Background(), "KES", "GHS")
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestDiscoverRoutes_ValidatesInput(t *testing.T) {
	svc := newTestService(&scriptedSource{}, testDirectory())

	_, err := svc.DiscoverRoutes(context.Background(), "gh", "KES")
	require.ErrorIs(t, err, ErrInvalidCurrencyCode)

	_, err = svc.DiscoverRoutes(context.Background(), "KES", "KES")
	require.ErrorIs(t, err, ErrSamePair)
}

func TestResolveOffering(t *testing.T) {
	source := &scriptedSource{catalogs: map[string][]offering.Offering{
		"did:dht:alpha": {
			makeOffering("off_other", "did:dht:alpha", "USDC", "GHS", "10.00"),
			makeOffering("off_ghs_usdc", "did:dht:alpha", "GHS", "USDC", "0.10"),
		},
	}}
	svc := newTestService(source, testDirectory())

	off, err := svc.ResolveOffering(context.Background(), "did:dht:alpha", "GHS", "USDC")
	require.NoError(t, err)
	assert.Equal(t, "off_ghs_usdc", off.ID())
}

func TestResolveOffering_UnknownProvider(t *testing.T) {
	svc := newTestService(&scriptedSource{}, testDirectory())

	_, err := svc.ResolveOffering(context.Background(), "did:dht:nobody", "GHS", "USDC")
	require.ErrorIs(t, err, provider.ErrProviderNotFound)
}

func TestResolveOffering_NoMatchingPair(t *testing.T) {
	source := &scriptedSource{catalogs: map[string][]offering.Offering{
		"did:dht:alpha": {makeOffering("off_ghs_usdc", "did:dht:alpha", "GHS", "USDC", "0.10")},
	}}
	svc := newTestService(source, testDirectory())

	_, err := svc.ResolveOffering(context.Background(), "did:dht:alpha", "USDC", "GHS")
	require.ErrorIs(t, err, ErrNoOffering)
}

func TestResolveOffering_SourceFailureSurfaces(t *testing.T) {
	source := &scriptedSource{err: errors.New("connection refused")}
	svc := newTestService(source, testDirectory())

	_, err := svc.ResolveOffering(context.Background(), "did:dht:alpha", "GHS", "USDC")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
