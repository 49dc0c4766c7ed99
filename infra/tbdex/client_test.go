package tbdex

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirasaad/kapital/config"
	"github.com/amirasaad/kapital/pkg/tbdex"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestClient() *Client {
	return NewClient(config.Tbdex{HTTPTimeout: 5 * time.Second}, PassthroughResolver, testLogger)
}

func TestPassthroughResolver(t *testing.T) {
	base, err := PassthroughResolver("https://pfi.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://pfi.example.com", base)

	_, err = PassthroughResolver("did:dht:abc123")
	require.Error(t, err)
}

func TestGetOfferings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/offerings", r.URL.Path)
		w.Write([]byte(`{"data":[{"metadata":{"id":"offering_1","from":"did:dht:pfi"},"data":{"payoutUnitsPerPayinUnit":"140.00","payin":{"currencyCode":"USD"},"payout":{"currencyCode":"KES"}}}]}`))
	}))
	defer server.Close()

	offerings, err := newTestClient().GetOfferings(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, offerings, 1)
	assert.Equal(t, "offering_1", offerings[0].ID())
	assert.Equal(t, "140.00", offerings[0].Data.PayoutUnitsPerPayinUnit)
}

func TestGetOfferings_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient().GetOfferings(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestCreateExchange(t *testing.T) {
	var got struct {
		Message tbdex.Rfq `json:"message"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/exchanges", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	rfq := &tbdex.Rfq{Metadata: tbdex.Metadata{
		ID:         "rfq_1",
		ExchangeID: "exchange_1",
		To:         server.URL,
		Kind:       tbdex.KindRfq,
	}}
	require.NoError(t, newTestClient().CreateExchange(context.Background(), rfq))
	assert.Equal(t, "rfq_1", got.Message.Metadata.ID)
}

func TestGetExchange_DecodesTaggedMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/exchanges/exchange_1", r.URL.Path)
		w.Write([]byte(`{"data":[
			{"metadata":{"id":"rfq_1","kind":"rfq"},"data":{"offeringId":"offering_1","payin":{"kind":"USD_WALLET","amount":"1.00"},"payout":{"kind":"KES_WALLET"}}},
			{"metadata":{"id":"quote_1","kind":"quote"},"data":{"expiresAt":"2030-01-01T00:00:00Z","payin":{"currencyCode":"USD","amount":"1.00"},"payout":{"currencyCode":"KES","amount":"140.00"}}},
			{"metadata":{"id":"bogus_1","kind":"ping"},"data":{}}
		]}`))
	}))
	defer server.Close()

	messages, err := newTestClient().GetExchange(context.Background(), tbdex.GetExchangeRequest{
		ExchangeID:  "exchange_1",
		ProviderURI: server.URL,
	})
	require.NoError(t, err)
	require.Len(t, messages, 2, "unknown kinds are skipped, not fatal")

	assert.Equal(t, tbdex.KindRfq, messages[0].Kind)
	quote := tbdex.FindQuote(messages)
	require.NotNil(t, quote)
	assert.Equal(t, "140.00", quote.Data.Payout.Amount)
}

func TestSubmitOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/exchanges/exchange_1", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	order := &tbdex.Order{Metadata: tbdex.Metadata{
		ID:         "order_1",
		ExchangeID: "exchange_1",
		To:         server.URL,
		Kind:       tbdex.KindOrder,
	}}
	require.NoError(t, newTestClient().SubmitOrder(context.Background(), order))
}
