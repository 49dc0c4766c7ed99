package currency

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirasaad/kapital/pkg/currency"
	"github.com/amirasaad/kapital/pkg/offering"
	"github.com/amirasaad/kapital/pkg/provider"
	"github.com/amirasaad/kapital/pkg/routing"
	"github.com/amirasaad/kapital/pkg/service/discovery"
)

type emptySource struct{}

func (emptySource) GetOfferings(ctx context.Context, providerURI string) ([]offering.Offering, error) {
	return nil, nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	dir := provider.NewDirectory()
	dir.Register("alpha_fx", provider.Info{
		URI: "did:dht:alpha",
		SupportedCurrencies: map[currency.Code][]currency.Code{
			"GHS": {"USDC"},
		},
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := offering.NewResolver(emptySource{}, dir, logger)
	svc := discovery.NewService(dir, emptySource{}, resolver, routing.Options{}, logger)

	app := fiber.New()
	Routes(app, svc)
	return app
}

func TestListCurrencies(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/currencies/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []discovery.CurrencyListing `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, currency.Code("GHS"), body.Data[0].Code)
	assert.Equal(t, "₵", body.Data[0].Symbol)
}

func TestGetCurrency(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/currencies/KES", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "KSh", body.Data["symbol"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/currencies/bad", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}
