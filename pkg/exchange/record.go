// Package exchange drives a single conversion hop through the RFQ protocol:
// request, quote, order, close. It owns the evolving exchange record and the
// polling discipline; the wire protocol itself is behind pkg/tbdex.
package exchange

import (
	"context"
	"time"

	"github.com/amirasaad/kapital/pkg/offering"
	"github.com/amirasaad/kapital/pkg/tbdex"
)

// SchemaURI tags exchange-tracking records in the external document store.
const SchemaURI = "https://example.com/exchangeData"

// Status is the lifecycle state of an exchange record.
type Status string

const (
	StatusRequested Status = "requested"
	StatusQuoted    Status = "quoted"
	StatusOrdered   Status = "ordered"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusExpired   Status = "expired"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusExpired:
		return true
	}
	return false
}

// Record is the persisted state of one exchange, keyed by exchange id and
// stored as a JSON document under SchemaURI.
type Record struct {
	ID          string            `json:"-"`
	ExchangeID  string            `json:"exchangeId"`
	ProviderURI string            `json:"providerUri"`
	Offering    offering.Offering `json:"offering"`
	Rfq         *tbdex.Rfq        `json:"rfq,omitempty"`
	Quote       *tbdex.Quote      `json:"quote,omitempty"`
	Order       *tbdex.Order      `json:"order,omitempty"`
	Close       *tbdex.Close      `json:"close,omitempty"`
	Status      Status            `json:"status"`
	// Rating is the user's 1-5 rating of the provider for this exchange;
	// zero means unrated.
	Rating    int       `json:"rating,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Filter narrows record queries. Zero fields match everything.
type Filter struct {
	ExchangeID string
	Status     Status
}

// RecordStore is the port to the external document store holding exchange
// records. The gorm-backed implementation lives under infra/repository.
type RecordStore interface {
	Query(ctx context.Context, filter Filter) ([]Record, error)
	Create(ctx context.Context, record Record) (string, error)
	Update(ctx context.Context, recordID string, record Record) error
}
