package tbdex

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/amirasaad/kapital/pkg/offering"
)

var (
	// ErrRequirementsNotMet is returned when an RFQ fails the offering's
	// requirement verification. This is a local validation failure; the
	// request never reaches the network.
	ErrRequirementsNotMet = errors.New("rfq does not satisfy offering requirements")
)

// Signer signs protocol messages on behalf of the wallet identity.
type Signer interface {
	DID() string
	Sign(payload []byte) (string, error)
}

// Claim is a credential proof offered with an RFQ: the descriptor id it
// satisfies plus the signed JWT.
type Claim struct {
	ID  string `json:"id"`
	JWT string `json:"jwt"`
}

// RfqPayin is the payin side of an RFQ.
type RfqPayin struct {
	Kind           string            `json:"kind"`
	Amount         string            `json:"amount"`
	PaymentDetails map[string]string `json:"paymentDetails,omitempty"`
}

// RfqPayout is the payout side of an RFQ.
type RfqPayout struct {
	Kind           string            `json:"kind"`
	PaymentDetails map[string]string `json:"paymentDetails,omitempty"`
}

// RfqData references the offering being negotiated plus the caller's chosen
// methods, details, and credential proofs.
type RfqData struct {
	OfferingID string    `json:"offeringId"`
	Payin      RfqPayin  `json:"payin"`
	Payout     RfqPayout `json:"payout"`
	Claims     []string  `json:"claims,omitempty"`
}

// Rfq is the caller's signed request for a quote against an offering.
type Rfq struct {
	Metadata  Metadata `json:"metadata"`
	Data      RfqData  `json:"data"`
	Signature string   `json:"signature"`
}

// RfqInput is everything the caller supplies to open a negotiation.
type RfqInput struct {
	Amount        string
	PayinKind     string
	PayoutKind    string
	PayinDetails  map[string]string
	PayoutDetails map[string]string
	Claims        []Claim
}

// CreateRfq builds a signed RFQ against an offering. Only claims whose id
// matches one of the offering's required input descriptors are attached.
// The RFQ must pass the offering's requirement verification before signing;
// a failure aborts locally without touching the network.
func CreateRfq(off offering.Offering, in RfqInput, signer Signer) (*Rfq, error) {
	rfq := &Rfq{
		Metadata: Metadata{
			ID:         "rfq_" + uuid.NewString(),
			ExchangeID: "exchange_" + uuid.NewString(),
			From:       signer.DID(),
			To:         off.ProviderURI(),
			Kind:       KindRfq,
			Protocol:   ProtocolVersion,
			CreatedAt:  time.Now().UTC(),
		},
		Data: RfqData{
			OfferingID: off.ID(),
			Payin: RfqPayin{
				Kind:           in.PayinKind,
				Amount:         in.Amount,
				PaymentDetails: in.PayinDetails,
			},
			Payout: RfqPayout{
				Kind:           in.PayoutKind,
				PaymentDetails: in.PayoutDetails,
			},
			Claims: matchingClaims(off, in.Claims),
		},
	}

	if err := rfq.VerifyOfferingRequirements(off, in.Claims); err != nil {
		return nil, err
	}

	if err := rfq.sign(signer); err != nil {
		return nil, fmt.Errorf("failed to sign rfq: %w", err)
	}
	return rfq, nil
}

// VerifyOfferingRequirements checks the RFQ against the offering it
// references: amount bounds, payment method kinds, required payment-detail
// fields, and required credential claims. All failures wrap
// ErrRequirementsNotMet.
func (r *Rfq) VerifyOfferingRequirements(off offering.Offering, held []Claim) error {
	if r.Data.OfferingID != off.ID() {
		return fmt.Errorf("%w: rfq references offering %s, not %s",
			ErrRequirementsNotMet, r.Data.OfferingID, off.ID())
	}

	amount, err := strconv.ParseFloat(r.Data.Payin.Amount, 64)
	if err != nil || amount <= 0 {
		return fmt.Errorf("%w: invalid payin amount %q", ErrRequirementsNotMet, r.Data.Payin.Amount)
	}
	if err := checkBounds(amount, off.Data.Payin.Min, off.Data.Payin.Max); err != nil {
		return fmt.Errorf("%w: %v", ErrRequirementsNotMet, err)
	}

	payinMethod, ok := off.Data.Payin.Method(r.Data.Payin.Kind)
	if !ok {
		return fmt.Errorf("%w: offering does not accept payin kind %q",
			ErrRequirementsNotMet, r.Data.Payin.Kind)
	}
	if err := checkRequiredDetails(payinMethod, r.Data.Payin.PaymentDetails); err != nil {
		return fmt.Errorf("%w: payin %v", ErrRequirementsNotMet, err)
	}

	payoutMethod, ok := off.Data.Payout.Method(r.Data.Payout.Kind)
	if !ok {
		return fmt.Errorf("%w: offering does not accept payout kind %q",
			ErrRequirementsNotMet, r.Data.Payout.Kind)
	}
	if err := checkRequiredDetails(payoutMethod, r.Data.Payout.PaymentDetails); err != nil {
		return fmt.Errorf("%w: payout %v", ErrRequirementsNotMet, err)
	}

	if off.Data.RequiredClaims != nil {
		heldIDs := make(map[string]struct{}, len(held))
		for _, c := range held {
			heldIDs[c.ID] = struct{}{}
		}
		for _, desc := range off.Data.RequiredClaims.InputDescriptors {
			if _, ok := heldIDs[desc.ID]; !ok {
				return fmt.Errorf("%w: missing credential for descriptor %s",
					ErrRequirementsNotMet, desc.ID)
			}
		}
	}

	return nil
}

func (r *Rfq) sign(signer Signer) error {
	payload, err := json.Marshal(struct {
		Metadata Metadata `json:"metadata"`
		Data     RfqData  `json:"data"`
	}{r.Metadata, r.Data})
	if err != nil {
		return err
	}
	sig, err := signer.Sign(payload)
	if err != nil {
		return err
	}
	r.Signature = sig
	return nil
}

// CreateOrder builds a signed order confirming execution of the exchange.
func CreateOrder(exchangeID, providerURI string, signer Signer) (*Order, error) {
	order := &Order{
		Metadata: Metadata{
			ID:         "order_" + uuid.NewString(),
			ExchangeID: exchangeID,
			From:       signer.DID(),
			To:         providerURI,
			Kind:       KindOrder,
			Protocol:   ProtocolVersion,
			CreatedAt:  time.Now().UTC(),
		},
	}

	payload, err := json.Marshal(order.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order: %w", err)
	}
	sig, err := signer.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to sign order: %w", err)
	}
	order.Signature = sig
	return order, nil
}

func matchingClaims(off offering.Offering, held []Claim) []string {
	if off.Data.RequiredClaims == nil {
		return nil
	}
	var jwts []string
	for _, c := range held {
		for _, desc := range off.Data.RequiredClaims.InputDescriptors {
			if desc.ID == c.ID {
				jwts = append(jwts, c.JWT)
				break
			}
		}
	}
	return jwts
}

func checkBounds(amount float64, minStr, maxStr string) error {
	if minStr != "" {
		if min, err := strconv.ParseFloat(minStr, 64); err == nil && amount < min {
			return fmt.Errorf("amount %v below offering minimum %v", amount, min)
		}
	}
	if maxStr != "" {
		if max, err := strconv.ParseFloat(maxStr, 64); err == nil && amount > max {
			return fmt.Errorf("amount %v above offering maximum %v", amount, max)
		}
	}
	return nil
}

func checkRequiredDetails(method offering.PaymentMethod, details map[string]string) error {
	for _, field := range method.RequiredPaymentDetails.Required {
		if details[field] == "" {
			return fmt.Errorf("missing required payment detail %q for kind %s", field, method.Kind)
		}
	}
	return nil
}
