package exchange

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirasaad/kapital/pkg/domain"
	"github.com/amirasaad/kapital/pkg/offering"
	"github.com/amirasaad/kapital/pkg/tbdex"
)

type fakeSigner struct{}

func (fakeSigner) DID() string                 { return "did:key:ztest" }
func (fakeSigner) Sign([]byte) (string, error) { return "test-signature", nil }

type fakeClient struct {
	createExchangeErr error
	submitOrderErr    error

	createCalls int
	submitCalls int
	getCalls    int

	// respond maps the 1-based GetExchange call number to its result.
	respond func(call int) ([]tbdex.Message, error)
}

func (c *fakeClient) GetOfferings(ctx context.Context, providerURI string) ([]offering.Offering, error) {
	return nil, nil
}

func (c *fakeClient) CreateExchange(ctx context.Context, rfq *tbdex.Rfq) error {
	c.createCalls++
	return c.createExchangeErr
}

func (c *fakeClient) GetExchange(ctx context.Context, req tbdex.GetExchangeRequest) ([]tbdex.Message, error) {
	c.getCalls++
	if c.respond == nil {
		return nil, nil
	}
	return c.respond(c.getCalls)
}

func (c *fakeClient) SubmitOrder(ctx context.Context, order *tbdex.Order) error {
	c.submitCalls++
	return c.submitOrderErr
}

type fakeStore struct {
	createErr   error
	updateErr   error
	createCalls int
	updateCalls int
	records     []Record
	lastUpdated Record
}

func (s *fakeStore) Query(ctx context.Context, filter Filter) ([]Record, error) {
	var out []Record
	for _, r := range s.records {
		if filter.ExchangeID != "" && r.ExchangeID != filter.ExchangeID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *fakeStore) Create(ctx context.Context, record Record) (string, error) {
	s.createCalls++
	if s.createErr != nil {
		return "", s.createErr
	}
	record.ID = "record-1"
	s.records = append(s.records, record)
	return record.ID, nil
}

func (s *fakeStore) Update(ctx context.Context, recordID string, record Record) error {
	s.updateCalls++
	if s.updateErr != nil {
		return s.updateErr
	}
	s.lastUpdated = record
	return nil
}

type fakeBus struct {
	events []domain.Event
}

func (b *fakeBus) Publish(ctx context.Context, event domain.Event) error {
	b.events = append(b.events, event)
	return nil
}

func (b *fakeBus) Subscribe(eventType string, handler func(context.Context, domain.Event)) {}

func (b *fakeBus) eventTypes() []string {
	types := make([]string, len(b.events))
	for i, e := range b.events {
		types[i] = e.Type()
	}
	return types
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

type fakeSleeper struct{ sleeps int }

func (s *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.sleeps++
	return nil
}

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testOffering() offering.Offering {
	return offering.Offering{
		Metadata: offering.Metadata{
			ID:       "offering_usd_kes_01",
			From:     "did:dht:qewzcx3fj8uuq7y551deqdfd1wbe6ymicmet2n5cr7ionp5ktyno",
			Kind:     "offering",
			Protocol: "1.0",
		},
		Data: offering.Data{
			Description:             "Exchange your US Dollars for Kenyan Shilling",
			PayoutUnitsPerPayinUnit: "140.00",
			Payin: offering.PaymentSpec{
				CurrencyCode: "USD",
				Methods:      []offering.PaymentMethod{{Kind: "USD_WALLET"}},
			},
			Payout: offering.PaymentSpec{
				CurrencyCode: "KES",
				Methods:      []offering.PaymentMethod{{Kind: "KES_WALLET"}},
			},
		},
	}
}

func testInput() tbdex.RfqInput {
	return tbdex.RfqInput{
		Amount:     "1.00",
		PayinKind:  "USD_WALLET",
		PayoutKind: "KES_WALLET",
	}
}

func quoteMessage(expiresAt time.Time) tbdex.Message {
	return tbdex.Message{
		Kind: tbdex.KindQuote,
		Quote: &tbdex.Quote{
			Metadata: tbdex.Metadata{Kind: tbdex.KindQuote},
			Data: tbdex.QuoteData{
				ExpiresAt: expiresAt,
				Payin:     tbdex.QuoteDetails{CurrencyCode: "USD", Amount: "1.00"},
				Payout:    tbdex.QuoteDetails{CurrencyCode: "KES", Amount: "140.00"},
			},
		},
	}
}

func closeMessage(success bool, reason string) tbdex.Message {
	return tbdex.Message{
		Kind: tbdex.KindClose,
		Close: &tbdex.Close{
			Metadata: tbdex.Metadata{Kind: tbdex.KindClose},
			Data:     tbdex.CloseData{Success: success, Reason: reason},
		},
	}
}

func newTestEngine(client *fakeClient, store *fakeStore, bus *fakeBus, clock *fakeClock) (*Engine, *fakeSleeper) {
	sleeper := &fakeSleeper{}
	engine := NewEngine(client, store, fakeSigner{}, bus, testLogger).
		WithClock(clock).
		WithSleeper(sleeper).
		WithPolicy(PollPolicy{MaxAttempts: 30, Interval: 2 * time.Second})
	return engine, sleeper
}

func TestRequestQuote_QuoteReceived(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	expiry := now.Add(time.Hour)
	client := &fakeClient{
		respond: func(call int) ([]tbdex.Message, error) {
			if call < 3 {
				return nil, nil
			}
			return []tbdex.Message{quoteMessage(expiry)}, nil
		},
	}
	store := &fakeStore{}
	bus := &fakeBus{}
	engine, sleeper := newTestEngine(client, store, bus, &fakeClock{now: now})

	neg, err := engine.RequestQuote(context.Background(), QuoteRequest{
		Offering: testOffering(),
		Input:    testInput(),
	})
	require.NoError(t, err)
	require.NotNil(t, neg.Quote)
	assert.Equal(t, StatusQuoted, neg.Status)
	assert.Equal(t, "140.00", neg.Quote.Data.Payout.Amount)
	assert.Equal(t, 1, client.createCalls)
	assert.Equal(t, 3, client.getCalls)
	assert.Equal(t, 2, sleeper.sleeps, "sleeps happen between attempts, not after the last")
	assert.Equal(t, 1, store.createCalls)
	assert.Equal(t, "record-1", neg.RecordID)
	assert.Equal(t, []string{"ExchangeQuotedEvent"}, bus.eventTypes())
}

func TestRequestQuote_TimeoutAfterExactAttemptBudget(t *testing.T) {
	client := &fakeClient{} // never quotes
	store := &fakeStore{}
	bus := &fakeBus{}
	engine, sleeper := newTestEngine(client, store, bus, &fakeClock{now: time.Now()})

	neg, err := engine.RequestQuote(context.Background(), QuoteRequest{
		Offering: testOffering(),
		Input:    testInput(),
	})
	require.ErrorIs(t, err, ErrQuoteTimeout)
	assert.Equal(t, 30, client.getCalls, "budget is exactly MaxAttempts polls")
	assert.Equal(t, 29, sleeper.sleeps)
	assert.Equal(t, 0, store.createCalls, "no record without a quote")
	assert.Equal(t, StatusRequested, neg.Status)
	assert.Equal(t, []string{"ExchangeFailedEvent"}, bus.eventTypes())
}

func TestRequestQuote_ClosedBeforeQuote(t *testing.T) {
	client := &fakeClient{
		respond: func(call int) ([]tbdex.Message, error) {
			return []tbdex.Message{closeMessage(false, "pair no longer supported")}, nil
		},
	}
	store := &fakeStore{}
	bus := &fakeBus{}
	engine, _ := newTestEngine(client, store, bus, &fakeClock{now: time.Now()})

	neg, err := engine.RequestQuote(context.Background(), QuoteRequest{
		Offering: testOffering(),
		Input:    testInput(),
	})
	require.ErrorIs(t, err, ErrClosedBeforeQuote)
	assert.Contains(t, err.Error(), "pair no longer supported")
	assert.Equal(t, StatusFailed, neg.Status)
	assert.Equal(t, 1, client.getCalls)
	assert.Equal(t, 0, store.createCalls)
	assert.Equal(t, []string{"ExchangeFailedEvent"}, bus.eventTypes())
}

func TestRequestQuote_RequirementFailureNeverReachesNetwork(t *testing.T) {
	client := &fakeClient{}
	engine, _ := newTestEngine(client, &fakeStore{}, &fakeBus{}, &fakeClock{now: time.Now()})

	input := testInput()
	input.PayinKind = "BANK_TRANSFER" // not offered

	_, err := engine.RequestQuote(context.Background(), QuoteRequest{
		Offering: testOffering(),
		Input:    input,
	})
	require.ErrorIs(t, err, tbdex.ErrRequirementsNotMet)
	assert.Equal(t, 0, client.createCalls)
	assert.Equal(t, 0, client.getCalls)
}

func TestRequestQuote_PersistenceFailureIsNotFatal(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	client := &fakeClient{
		respond: func(call int) ([]tbdex.Message, error) {
			return []tbdex.Message{quoteMessage(expiry)}, nil
		},
	}
	store := &fakeStore{createErr: errors.New("store unavailable")}
	engine, _ := newTestEngine(client, store, &fakeBus{}, &fakeClock{now: time.Now()})

	neg, err := engine.RequestQuote(context.Background(), QuoteRequest{
		Offering: testOffering(),
		Input:    testInput(),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusQuoted, neg.Status)
	assert.Empty(t, neg.RecordID)
}

func TestRequestQuote_TransientPollErrorsConsumeAttempts(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	client := &fakeClient{
		respond: func(call int) ([]tbdex.Message, error) {
			if call <= 2 {
				return nil, errors.New("connection reset")
			}
			return []tbdex.Message{quoteMessage(expiry)}, nil
		},
	}
	engine, _ := newTestEngine(client, &fakeStore{}, &fakeBus{}, &fakeClock{now: time.Now()})

	neg, err := engine.RequestQuote(context.Background(), QuoteRequest{
		Offering: testOffering(),
		Input:    testInput(),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusQuoted, neg.Status)
	assert.Equal(t, 3, client.getCalls)
}

func quotedNegotiation(t *testing.T, expiresAt time.Time) (*Negotiation, *fakeStore) {
	t.Helper()
	off := testOffering()
	quote := quoteMessage(expiresAt).Quote
	quote.Metadata.ExchangeID = "exchange_test"
	neg := &Negotiation{
		ExchangeID:  "exchange_test",
		ProviderURI: off.ProviderURI(),
		RecordID:    "record-1",
		Offering:    off,
		Quote:       quote,
		Status:      StatusQuoted,
	}
	store := &fakeStore{records: []Record{{
		ID:          "record-1",
		ExchangeID:  "exchange_test",
		ProviderURI: off.ProviderURI(),
		Offering:    off,
		Quote:       quote,
		Status:      StatusQuoted,
	}}}
	return neg, store
}

func TestPlaceOrder_Completed(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	neg, store := quotedNegotiation(t, now.Add(time.Hour))
	client := &fakeClient{
		respond: func(call int) ([]tbdex.Message, error) {
			if call < 2 {
				return []tbdex.Message{quoteMessage(now.Add(time.Hour))}, nil
			}
			return []tbdex.Message{
				quoteMessage(now.Add(time.Hour)),
				closeMessage(true, "SUCCESS"),
			}, nil
		},
	}
	bus := &fakeBus{}
	engine, _ := newTestEngine(client, store, bus, &fakeClock{now: now})

	result, err := engine.PlaceOrder(context.Background(), neg)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "140.00", result.PayoutAmount, "payout amount is carried from the quote")
	assert.Equal(t, 1, client.submitCalls)
	assert.Equal(t, StatusCompleted, neg.Status)
	assert.Equal(t, StatusCompleted, store.lastUpdated.Status)
	assert.NotNil(t, store.lastUpdated.Close)
	assert.Equal(t, []string{"ExchangeCompletedEvent"}, bus.eventTypes())
}

func TestPlaceOrder_ProviderReportsFailure(t *testing.T) {
	now := time.Now()
	neg, store := quotedNegotiation(t, now.Add(time.Hour))
	client := &fakeClient{
		respond: func(call int) ([]tbdex.Message, error) {
			return []tbdex.Message{closeMessage(false, "insufficient liquidity")}, nil
		},
	}
	bus := &fakeBus{}
	engine, _ := newTestEngine(client, store, bus, &fakeClock{now: now})

	result, err := engine.PlaceOrder(context.Background(), neg)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "insufficient liquidity", result.Reason)
	assert.Equal(t, StatusFailed, neg.Status)
	assert.Equal(t, StatusFailed, store.lastUpdated.Status)
	assert.Equal(t, []string{"ExchangeFailedEvent"}, bus.eventTypes())
}

func TestPlaceOrder_ExpiredQuoteNeverSubmits(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	neg, store := quotedNegotiation(t, now.Add(-time.Minute))
	client := &fakeClient{}
	engine, _ := newTestEngine(client, store, &fakeBus{}, &fakeClock{now: now})

	_, err := engine.PlaceOrder(context.Background(), neg)
	require.ErrorIs(t, err, ErrQuoteExpired)
	assert.Equal(t, 0, client.submitCalls, "expired quote must not reach the provider")
	assert.Equal(t, 0, client.getCalls)
	assert.Equal(t, StatusExpired, neg.Status)
	assert.Equal(t, StatusExpired, store.lastUpdated.Status)
}

func TestPlaceOrder_RequiresQuotedState(t *testing.T) {
	engine, _ := newTestEngine(&fakeClient{}, &fakeStore{}, &fakeBus{}, &fakeClock{now: time.Now()})

	_, err := engine.PlaceOrder(context.Background(), &Negotiation{Status: StatusRequested})
	require.ErrorIs(t, err, ErrNotQuoted)
}

func TestPlaceOrder_CloseTimeout(t *testing.T) {
	now := time.Now()
	neg, store := quotedNegotiation(t, now.Add(time.Hour))
	client := &fakeClient{
		respond: func(call int) ([]tbdex.Message, error) {
			return []tbdex.Message{quoteMessage(now.Add(time.Hour))}, nil
		},
	}
	bus := &fakeBus{}
	engine, _ := newTestEngine(client, store, bus, &fakeClock{now: now})

	_, err := engine.PlaceOrder(context.Background(), neg)
	require.ErrorIs(t, err, ErrCloseTimeout)
	assert.Equal(t, 30, client.getCalls)
	assert.Equal(t, []string{"ExchangeFailedEvent"}, bus.eventTypes())
}

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusRequested, false},
		{StatusQuoted, false},
		{StatusOrdered, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusExpired, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.Terminal())
		})
	}
}
