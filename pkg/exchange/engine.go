package exchange

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/kapital/pkg/domain"
	"github.com/amirasaad/kapital/pkg/eventbus"
	"github.com/amirasaad/kapital/pkg/offering"
	"github.com/amirasaad/kapital/pkg/tbdex"
)

// QuoteRequest opens a negotiation: the chosen offering plus the caller's
// amount, method selections, payment details, and credential proofs.
type QuoteRequest struct {
	Offering offering.Offering
	Input    tbdex.RfqInput
}

// Negotiation is the engine's view of one in-flight exchange. It is a plain
// value passed between transitions; the engine keeps no per-exchange state.
type Negotiation struct {
	ExchangeID  string
	ProviderURI string
	RecordID    string
	Offering    offering.Offering
	Rfq         *tbdex.Rfq
	Quote       *tbdex.Quote
	Status      Status
}

// CloseResult is the terminal outcome of a hop.
type CloseResult struct {
	Success bool
	Reason  string
	// PayoutAmount is the quoted payout amount, carried forward verbatim as
	// the next hop's payin amount on multi-hop routes.
	PayoutAmount string
}

// Engine drives a single hop through request -> quote -> order -> close.
// One engine instance may serve many exchanges, but never the same exchange
// concurrently.
type Engine struct {
	client  tbdex.Client
	records RecordStore
	signer  tbdex.Signer
	bus     eventbus.Bus
	clock   Clock
	sleeper Sleeper
	policy  PollPolicy
	logger  *slog.Logger
}

// NewEngine builds an engine with the default clock, sleeper, and polling
// policy.
func NewEngine(
	client tbdex.Client,
	records RecordStore,
	signer tbdex.Signer,
	bus eventbus.Bus,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		client:  client,
		records: records,
		signer:  signer,
		bus:     bus,
		clock:   SystemClock,
		sleeper: SystemSleeper,
		policy:  DefaultPollPolicy,
		logger:  logger.With("component", "exchange.engine"),
	}
}

// WithPolicy overrides the polling policy.
func (e *Engine) WithPolicy(policy PollPolicy) *Engine {
	e.policy = policy
	return e
}

// WithClock overrides the wall clock. Intended for tests.
func (e *Engine) WithClock(clock Clock) *Engine {
	e.clock = clock
	return e
}

// WithSleeper overrides the inter-poll delay. Intended for tests.
func (e *Engine) WithSleeper(sleeper Sleeper) *Engine {
	e.sleeper = sleeper
	return e
}

// RequestQuote builds and signs an RFQ against the chosen offering, submits
// it, and polls until the provider quotes or closes the exchange.
//
// A requirement-verification failure aborts before any network call. On a
// received quote the exchange record is persisted with status "quoted";
// persistence failure is a logged warning, never fatal to the negotiation.
func (e *Engine) RequestQuote(ctx context.Context, req QuoteRequest) (*Negotiation, error) {
	rfq, err := tbdex.CreateRfq(req.Offering, req.Input, e.signer)
	if err != nil {
		return nil, err
	}

	if err := e.client.CreateExchange(ctx, rfq); err != nil {
		return nil, fmt.Errorf("failed to create exchange: %w", err)
	}

	neg := &Negotiation{
		ExchangeID:  rfq.Metadata.ExchangeID,
		ProviderURI: req.Offering.ProviderURI(),
		Offering:    req.Offering,
		Rfq:         rfq,
		Status:      StatusRequested,
	}
	e.logger.Info("exchange registered",
		"exchange_id", neg.ExchangeID, "provider", neg.ProviderURI)

	quote, closeMsg, err := e.poll(ctx, neg, tbdex.KindQuote)
	if err != nil {
		return neg, err
	}
	if closeMsg != nil {
		neg.Status = StatusFailed
		e.publish(ctx, FailedEvent{
			ExchangeID:  neg.ExchangeID,
			ProviderURI: neg.ProviderURI,
			Reason:      closeMsg.Data.Reason,
		})
		return neg, fmt.Errorf("%w: %s", ErrClosedBeforeQuote, closeMsg.Data.Reason)
	}
	if quote == nil {
		e.publish(ctx, FailedEvent{
			ExchangeID:  neg.ExchangeID,
			ProviderURI: neg.ProviderURI,
			Reason:      ErrQuoteTimeout.Error(),
		})
		return neg, ErrQuoteTimeout
	}

	neg.Quote = quote
	neg.Status = StatusQuoted

	now := e.clock.Now()
	recordID, err := e.records.Create(ctx, Record{
		ExchangeID:  neg.ExchangeID,
		ProviderURI: neg.ProviderURI,
		Offering:    neg.Offering,
		Rfq:         neg.Rfq,
		Quote:       neg.Quote,
		Status:      StatusQuoted,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		// Persistence affects history, not fund movement.
		e.logger.Warn("failed to persist exchange record",
			"exchange_id", neg.ExchangeID, "error", err)
	} else {
		neg.RecordID = recordID
	}

	e.publish(ctx, QuoteReceivedEvent{
		ExchangeID:   neg.ExchangeID,
		ProviderURI:  neg.ProviderURI,
		PayinAmount:  quote.Data.Payin.Amount,
		PayoutAmount: quote.Data.Payout.Amount,
		ExpiresAt:    quote.Data.ExpiresAt,
	})
	return neg, nil
}

// PlaceOrder confirms a quoted negotiation: it gates on quote expiry, signs
// and submits the order, then polls for the provider's close. The persisted
// record ends up "completed" or "failed" per the close message.
func (e *Engine) PlaceOrder(ctx context.Context, neg *Negotiation) (*CloseResult, error) {
	if neg.Status != StatusQuoted || neg.Quote == nil {
		return nil, ErrNotQuoted
	}

	// Expiry gate: a stale quote must never turn into an order.
	if neg.Quote.Expired(e.clock.Now()) {
		neg.Status = StatusExpired
		e.updateRecord(ctx, neg, func(rec *Record) {
			rec.Status = StatusExpired
		})
		return nil, fmt.Errorf("%w: expired at %s",
			ErrQuoteExpired, neg.Quote.Data.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
	}

	order, err := tbdex.CreateOrder(neg.ExchangeID, neg.ProviderURI, e.signer)
	if err != nil {
		return nil, err
	}
	if err := e.client.SubmitOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to submit order: %w", err)
	}

	neg.Status = StatusOrdered
	e.updateRecord(ctx, neg, func(rec *Record) {
		rec.Order = order
		rec.Status = StatusOrdered
	})
	e.logger.Info("order placed", "exchange_id", neg.ExchangeID)

	_, closeMsg, err := e.poll(ctx, neg, tbdex.KindClose)
	if err != nil {
		return nil, err
	}
	if closeMsg == nil {
		e.publish(ctx, FailedEvent{
			ExchangeID:  neg.ExchangeID,
			ProviderURI: neg.ProviderURI,
			Reason:      ErrCloseTimeout.Error(),
		})
		return nil, ErrCloseTimeout
	}

	status := StatusFailed
	if closeMsg.Data.Success {
		status = StatusCompleted
	}
	neg.Status = status
	e.updateRecord(ctx, neg, func(rec *Record) {
		rec.Close = closeMsg
		rec.Status = status
	})

	result := &CloseResult{
		Success:      closeMsg.Data.Success,
		Reason:       closeMsg.Data.Reason,
		PayoutAmount: neg.Quote.Data.Payout.Amount,
	}
	if result.Success {
		e.publish(ctx, CompletedEvent{
			ExchangeID:   neg.ExchangeID,
			ProviderURI:  neg.ProviderURI,
			PayoutAmount: result.PayoutAmount,
		})
	} else {
		e.publish(ctx, FailedEvent{
			ExchangeID:  neg.ExchangeID,
			ProviderURI: neg.ProviderURI,
			Reason:      result.Reason,
		})
	}
	return result, nil
}

// poll repeatedly fetches the exchange until a close arrives, the wanted
// kind arrives, the attempt budget runs out, or the deadline passes. A
// transient fetch error consumes an attempt; retries always re-poll rather
// than resubmit. Returns (nil, nil, nil) on exhaustion.
func (e *Engine) poll(ctx context.Context, neg *Negotiation, want tbdex.Kind) (*tbdex.Quote, *tbdex.Close, error) {
	req := tbdex.GetExchangeRequest{
		ExchangeID:   neg.ExchangeID,
		ProviderURI:  neg.ProviderURI,
		RequesterDID: e.signer.DID(),
	}

	start := e.clock.Now()
	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		if e.policy.Deadline > 0 && e.clock.Now().Sub(start) > e.policy.Deadline {
			e.logger.Warn("poll deadline exceeded",
				"exchange_id", neg.ExchangeID, "attempts", attempt-1)
			return nil, nil, nil
		}

		messages, err := e.client.GetExchange(ctx, req)
		if err != nil {
			e.logger.Warn("exchange poll failed",
				"exchange_id", neg.ExchangeID, "attempt", attempt, "error", err)
		} else {
			if closeMsg := tbdex.FindClose(messages); closeMsg != nil {
				return nil, closeMsg, nil
			}
			if want == tbdex.KindQuote {
				if quote := tbdex.FindQuote(messages); quote != nil {
					return quote, nil, nil
				}
			}
		}

		if attempt == e.policy.MaxAttempts {
			break
		}
		if err := e.sleeper.Sleep(ctx, e.policy.Interval); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

// updateRecord looks up the persisted record for neg by exchange id and
// applies a mutation. Store failures are logged, never propagated:
// persistence affects audit history only.
func (e *Engine) updateRecord(ctx context.Context, neg *Negotiation, mutate func(*Record)) {
	found, err := e.records.Query(ctx, Filter{ExchangeID: neg.ExchangeID})
	if err != nil || len(found) == 0 {
		e.logger.Warn("exchange record not found for update",
			"exchange_id", neg.ExchangeID, "error", err)
		return
	}
	rec := found[0]
	recordID := rec.ID
	if recordID == "" {
		recordID = neg.RecordID
	}

	mutate(&rec)
	rec.UpdatedAt = e.clock.Now()
	if err := e.records.Update(ctx, recordID, rec); err != nil {
		e.logger.Warn("failed to update exchange record",
			"exchange_id", neg.ExchangeID, "record_id", recordID, "error", err)
	}
}

func (e *Engine) publish(ctx context.Context, event domain.Event) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(ctx, event); err != nil {
		e.logger.Warn("failed to publish event", "event_type", event.Type(), "error", err)
	}
}
