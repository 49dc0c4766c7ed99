// Package offering models provider offerings (the catalog entries a PFI
// advertises for a currency pair) and resolves concrete offerings for each
// hop of a conversion path.
package offering

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/amirasaad/kapital/pkg/currency"
)

var (
	// ErrInvalidRate is returned when an offering carries an unparseable
	// payout-units-per-payin-unit value.
	ErrInvalidRate = errors.New("invalid exchange rate on offering")
)

// Metadata identifies an offering and the provider that signed it.
type Metadata struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	Kind      string    `json:"kind"`
	Protocol  string    `json:"protocol"`
	CreatedAt time.Time `json:"createdAt"`
}

// DetailProperty describes one field a payment method requires.
type DetailProperty struct {
	Title       string `json:"title"`
	Type        string `json:"type"`
	Pattern     string `json:"pattern,omitempty"`
	Description string `json:"description"`
}

// DetailSchema declares the payment details a method requires, mirroring the
// JSON-schema shape providers publish.
type DetailSchema struct {
	Title      string                    `json:"title,omitempty"`
	Required   []string                  `json:"required,omitempty"`
	Properties map[string]DetailProperty `json:"properties,omitempty"`
}

// PaymentMethod is one way to pay in or receive a payout.
type PaymentMethod struct {
	Kind string `json:"kind"`
	// EstimatedSettlementTime is in seconds; zero when not advertised.
	EstimatedSettlementTime int64        `json:"estimatedSettlementTime,omitempty"`
	RequiredPaymentDetails  DetailSchema `json:"requiredPaymentDetails"`
}

// PaymentSpec describes one side (payin or payout) of an offering.
type PaymentSpec struct {
	CurrencyCode currency.Code   `json:"currencyCode"`
	Min          string          `json:"min,omitempty"`
	Max          string          `json:"max,omitempty"`
	Methods      []PaymentMethod `json:"methods,omitempty"`
}

// Method returns the payment method with the given kind, if present.
func (s PaymentSpec) Method(kind string) (PaymentMethod, bool) {
	for _, m := range s.Methods {
		if m.Kind == kind {
			return m, true
		}
	}
	return PaymentMethod{}, false
}

// InputDescriptor identifies one credential requirement. Constraints are
// opaque to the wallet core; matching is by descriptor id.
type InputDescriptor struct {
	ID          string          `json:"id"`
	Constraints json.RawMessage `json:"constraints,omitempty"`
}

// RequiredClaims lists the verifiable credentials an offering demands.
type RequiredClaims struct {
	ID               string            `json:"id"`
	InputDescriptors []InputDescriptor `json:"input_descriptors"`
}

// Data is the payload of an offering.
type Data struct {
	Description string `json:"description"`
	// PayoutUnitsPerPayinUnit is the advertised exchange rate as a decimal
	// string: payout units received per one payin unit.
	PayoutUnitsPerPayinUnit string          `json:"payoutUnitsPerPayinUnit"`
	Payin                   PaymentSpec     `json:"payin"`
	Payout                  PaymentSpec     `json:"payout"`
	RequiredClaims          *RequiredClaims `json:"requiredClaims,omitempty"`
}

// Offering is an immutable snapshot of a provider's advertised conversion
// for one currency pair.
type Offering struct {
	Metadata  Metadata `json:"metadata"`
	Data      Data     `json:"data"`
	Signature string   `json:"signature"`
}

// ID returns the offering identifier.
func (o Offering) ID() string {
	return o.Metadata.ID
}

// ProviderURI returns the URI of the provider that signed the offering.
func (o Offering) ProviderURI() string {
	return o.Metadata.From
}

// Rate parses the advertised payout-units-per-payin-unit value.
func (o Offering) Rate() (float64, error) {
	rate, err := strconv.ParseFloat(o.Data.PayoutUnitsPerPayinUnit, 64)
	if err != nil || rate <= 0 {
		return 0, ErrInvalidRate
	}
	return rate, nil
}

// Matches reports whether the offering converts exactly base into pair.
func (o Offering) Matches(base, pair currency.Code) bool {
	return o.Data.Payin.CurrencyCode == base && o.Data.Payout.CurrencyCode == pair
}

// PickApplicable returns the first offering in the catalog whose payin and
// payout currency codes exactly match the hop pair, or nil when none match.
func PickApplicable(offerings []Offering, base, pair currency.Code) *Offering {
	for i := range offerings {
		if offerings[i].Matches(base, pair) {
			return &offerings[i]
		}
	}
	return nil
}
