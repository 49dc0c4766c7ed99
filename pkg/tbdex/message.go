// Package tbdex models the RFQ protocol messages the wallet exchanges with
// providers and defines the client port for submitting and polling them.
// Wire formats and signature validation are owned by the provider side; the
// wallet orchestrates the calling sequence.
package tbdex

import (
	"fmt"
	"time"

	"github.com/amirasaad/kapital/pkg/currency"
)

// Kind discriminates the protocol message variants.
type Kind string

const (
	KindRfq   Kind = "rfq"
	KindQuote Kind = "quote"
	KindOrder Kind = "order"
	KindClose Kind = "close"
)

// ProtocolVersion is the tbDEX protocol version spoken by the wallet.
const ProtocolVersion = "1.0"

// Metadata is common to all protocol messages.
type Metadata struct {
	ID         string    `json:"id"`
	ExchangeID string    `json:"exchangeId"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Kind       Kind      `json:"kind"`
	Protocol   string    `json:"protocol"`
	CreatedAt  time.Time `json:"createdAt"`
}

// QuoteDetails is one side of a quote.
type QuoteDetails struct {
	CurrencyCode currency.Code `json:"currencyCode"`
	Amount       string        `json:"amount"`
	Fee          string        `json:"fee,omitempty"`
}

// QuoteData is the provider's time-bounded price commitment.
type QuoteData struct {
	ExpiresAt time.Time    `json:"expiresAt"`
	Payin     QuoteDetails `json:"payin"`
	Payout    QuoteDetails `json:"payout"`
}

// Quote is the provider's signed response to an RFQ.
type Quote struct {
	Metadata  Metadata  `json:"metadata"`
	Data      QuoteData `json:"data"`
	Signature string    `json:"signature"`
}

// Expired reports whether the quote's expiry has passed at the given time.
func (q *Quote) Expired(now time.Time) bool {
	return now.After(q.Data.ExpiresAt)
}

// OrderData is empty on the wire; an order is identified by its exchange id.
type OrderData struct{}

// Order is the caller's signed confirmation to execute against a quote.
type Order struct {
	Metadata  Metadata  `json:"metadata"`
	Data      OrderData `json:"data"`
	Signature string    `json:"signature"`
}

// CloseData carries the terminal outcome of an exchange.
type CloseData struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// Close is the provider's signed terminal message for an exchange.
type Close struct {
	Metadata  Metadata  `json:"metadata"`
	Data      CloseData `json:"data"`
	Signature string    `json:"signature"`
}

// Message is the tagged union over protocol message variants. Exactly the
// field matching Kind is set.
type Message struct {
	Kind  Kind   `json:"kind"`
	Rfq   *Rfq   `json:"rfq,omitempty"`
	Quote *Quote `json:"quote,omitempty"`
	Order *Order `json:"order,omitempty"`
	Close *Close `json:"close,omitempty"`
}

// Validate checks that the tagged variant is consistent.
func (m Message) Validate() error {
	switch m.Kind {
	case KindRfq:
		if m.Rfq == nil {
			return fmt.Errorf("message kind %q carries no rfq", m.Kind)
		}
	case KindQuote:
		if m.Quote == nil {
			return fmt.Errorf("message kind %q carries no quote", m.Kind)
		}
	case KindOrder:
		if m.Order == nil {
			return fmt.Errorf("message kind %q carries no order", m.Kind)
		}
	case KindClose:
		if m.Close == nil {
			return fmt.Errorf("message kind %q carries no close", m.Kind)
		}
	default:
		return fmt.Errorf("unknown message kind %q", m.Kind)
	}
	return nil
}

// FindQuote returns the first quote in an exchange message list, or nil.
func FindQuote(messages []Message) *Quote {
	for _, m := range messages {
		if m.Kind == KindQuote && m.Quote != nil {
			return m.Quote
		}
	}
	return nil
}

// FindClose returns the first close in an exchange message list, or nil.
func FindClose(messages []Message) *Close {
	for _, m := range messages {
		if m.Kind == KindClose && m.Close != nil {
			return m.Close
		}
	}
	return nil
}
