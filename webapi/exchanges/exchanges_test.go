package exchanges

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirasaad/kapital/pkg/currency"
	"github.com/amirasaad/kapital/pkg/exchange"
	"github.com/amirasaad/kapital/pkg/offering"
	"github.com/amirasaad/kapital/pkg/provider"
	"github.com/amirasaad/kapital/pkg/routing"
	"github.com/amirasaad/kapital/pkg/service/discovery"
	"github.com/amirasaad/kapital/pkg/service/trading"
	"github.com/amirasaad/kapital/pkg/wallet"
)

type memStore struct {
	records []exchange.Record
	updated map[string]exchange.Record
}

func (s *memStore) Query(ctx context.Context, filter exchange.Filter) ([]exchange.Record, error) {
	var out []exchange.Record
	for _, r := range s.records {
		if filter.ExchangeID != "" && r.ExchangeID != filter.ExchangeID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *memStore) Create(ctx context.Context, record exchange.Record) (string, error) {
	s.records = append(s.records, record)
	return record.ID, nil
}

func (s *memStore) Update(ctx context.Context, recordID string, record exchange.Record) error {
	if s.updated == nil {
		s.updated = make(map[string]exchange.Record)
	}
	s.updated[recordID] = record
	return nil
}

type emptySource struct{}

func (emptySource) GetOfferings(ctx context.Context, providerURI string) ([]offering.Offering, error) {
	return nil, nil
}

func newTestApp(t *testing.T, store *memStore) *fiber.App {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := provider.NewDirectory()
	resolver := offering.NewResolver(emptySource{}, dir, logger)
	disc := discovery.NewService(dir, emptySource{}, resolver, routing.Options{}, logger)

	w, err := wallet.Generate()
	require.NoError(t, err)
	svc := trading.NewService(disc, nil, nil, store, w, logger)

	app := fiber.New()
	Routes(app, svc)
	return app
}

func TestListExchanges(t *testing.T) {
	store := &memStore{records: []exchange.Record{
		{ID: "record-1", ExchangeID: "exchange_1", Status: exchange.StatusCompleted},
		{ID: "record-2", ExchangeID: "exchange_2", Status: exchange.StatusFailed},
	}}
	app := newTestApp(t, store)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/exchanges/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []exchange.Record `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Data, 2)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/exchanges/?status=completed", nil))
	require.NoError(t, err)
	body.Data = nil
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "exchange_1", body.Data[0].ExchangeID)
}

func TestGetExchange_NotFound(t *testing.T) {
	app := newTestApp(t, &memStore{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/exchanges/exchange_missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestRateExchange(t *testing.T) {
	store := &memStore{records: []exchange.Record{
		{ID: "record-1", ExchangeID: "exchange_1", Status: exchange.StatusCompleted},
	}}
	app := newTestApp(t, store)

	req := httptest.NewRequest(http.MethodPut, "/api/exchanges/exchange_1/rating", strings.NewReader(`{"rating":5}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, store.updated["record-1"].Rating)
}

func TestRateExchange_InvalidRating(t *testing.T) {
	app := newTestApp(t, &memStore{})

	req := httptest.NewRequest(http.MethodPut, "/api/exchanges/exchange_1/rating", strings.NewReader(`{"rating":9}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestQuoteResponseMapping(t *testing.T) {
	neg := &exchange.Negotiation{
		ExchangeID:  "exchange_1",
		ProviderURI: "did:dht:alpha",
		Status:      exchange.StatusQuoted,
	}
	resp := toQuoteResponse(neg)
	assert.Equal(t, "exchange_1", resp.ExchangeID)
	assert.Equal(t, exchange.StatusQuoted, resp.Status)
	assert.Empty(t, resp.PayoutAmount, "no quote yet")
	assert.Equal(t, currency.Code(""), resp.PayoutCode)
}
