package exchange

import "time"

// QuoteReceivedEvent is published when a provider quotes an exchange.
type QuoteReceivedEvent struct {
	ExchangeID   string
	ProviderURI  string
	PayinAmount  string
	PayoutAmount string
	ExpiresAt    time.Time
}

// Type implements domain.Event.
func (QuoteReceivedEvent) Type() string { return "ExchangeQuotedEvent" }

// CompletedEvent is published when a provider closes an exchange with
// success.
type CompletedEvent struct {
	ExchangeID   string
	ProviderURI  string
	PayoutAmount string
}

// Type implements domain.Event.
func (CompletedEvent) Type() string { return "ExchangeCompletedEvent" }

// FailedEvent is published when an exchange terminates without success:
// provider close with failure, close before quote, or polling timeout.
type FailedEvent struct {
	ExchangeID  string
	ProviderURI string
	Reason      string
}

// Type implements domain.Event.
func (FailedEvent) Type() string { return "ExchangeFailedEvent" }
