package wallet

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformedCredential is returned when a credential JWT cannot be
	// decoded or carries no vc claim.
	ErrMalformedCredential = errors.New("malformed credential JWT")
)

// RenderedCredential is the display form of a verifiable credential,
// decoded from its JWT without signature verification (verification is the
// issuer ecosystem's job, not the wallet's).
type RenderedCredential struct {
	Title          string         `json:"title"`
	Issuer         string         `json:"issuer"`
	IssuanceDate   string         `json:"issuanceDate"`
	ExpirationDate string         `json:"expirationDate,omitempty"`
	Claims         map[string]any `json:"claims,omitempty"`
}

// RenderCredential decodes a credential JWT into its display form. The
// title is derived from the last entry of the vc type array with camel-case
// words split out ("KnownCustomerCredential" -> "Known Customer Credential").
func RenderCredential(credentialJWT string) (*RenderedCredential, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(credentialJWT, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
	}

	vc, ok := claims["vc"].(map[string]any)
	if !ok {
		return nil, ErrMalformedCredential
	}

	rendered := &RenderedCredential{}

	if types, ok := vc["type"].([]any); ok && len(types) > 0 {
		if last, ok := types[len(types)-1].(string); ok {
			rendered.Title = splitCamelCase(last)
		}
	}
	if issuer, ok := vc["issuer"].(string); ok {
		rendered.Issuer = issuer
	}
	if issued, ok := vc["issuanceDate"].(string); ok {
		rendered.IssuanceDate = issued
	}
	if expires, ok := vc["expirationDate"].(string); ok {
		rendered.ExpirationDate = expires
	}
	if subject, ok := vc["credentialSubject"].(map[string]any); ok {
		rendered.Claims = subject
	}

	return rendered, nil
}

// Expired reports whether the credential's expiration date, if any, has
// passed.
func (rc *RenderedCredential) Expired(now time.Time) bool {
	if rc.ExpirationDate == "" {
		return false
	}
	expires, err := time.Parse(time.RFC3339, rc.ExpirationDate)
	if err != nil {
		return false
	}
	return now.After(expires)
}

func splitCamelCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
