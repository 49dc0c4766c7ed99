// Package currency holds the wallet's currency reference data: the codes the
// provider network trades in, their display symbols and decimal places, and
// formatting helpers for amounts and exchange rates.
package currency

import (
	"fmt"
	"strconv"

	"github.com/amirasaad/kapital/pkg/registry"
)

const (
	// DefaultCurrency is the fallback currency code (USD).
	DefaultCurrency = "USD"
	// DefaultDecimals is the default number of decimal places for currencies.
	DefaultDecimals = 2
)

// Code is a currency code as used on provider offerings, e.g. "KES" or "USDC".
// Codes are 3 or 4 uppercase characters; stablecoin codes like USDC use 4.
type Code string

// IsValid checks if the currency code is well formed.
func (c Code) IsValid() bool {
	if len(c) < 3 || len(c) > 4 {
		return false
	}
	for i := 0; i < len(c); i++ {
		if c[i] < 'A' || c[i] > 'Z' {
			return false
		}
	}
	return true
}

// String returns the string representation of the currency code.
func (c Code) String() string {
	return string(c)
}

// Meta holds currency-specific metadata.
type Meta struct {
	Decimals int
	Symbol   string
}

// Registry wraps the generic registry for currency-specific operations.
type Registry struct {
	registry *registry.Registry
}

// NewRegistry creates a new currency registry preloaded with the currencies
// the provider network is known to trade in.
func NewRegistry() *Registry {
	cr := &Registry{
		registry: registry.New(),
	}

	defaultCurrencies := map[Code]Meta{
		"NGN":  {Decimals: 2, Symbol: "₦"},
		"GHS":  {Decimals: 2, Symbol: "₵"},
		"KES":  {Decimals: 2, Symbol: "KSh"},
		"ZAR":  {Decimals: 2, Symbol: "R"},
		"MAD":  {Decimals: 2, Symbol: "د.م."},
		"EGP":  {Decimals: 2, Symbol: "E£"},
		"USD":  {Decimals: 2, Symbol: "$"},
		"EUR":  {Decimals: 2, Symbol: "€"},
		"CAD":  {Decimals: 2, Symbol: "C$"},
		"GBP":  {Decimals: 2, Symbol: "£"},
		"JPY":  {Decimals: 0, Symbol: "¥"},
		"USDC": {Decimals: 2, Symbol: "USDC"},
		"BTC":  {Decimals: 8, Symbol: "₿"},
		"AUD":  {Decimals: 2, Symbol: "A$"},
		"MXN":  {Decimals: 2, Symbol: "$"},
	}

	for code, meta := range defaultCurrencies {
		cr.Register(code, meta)
	}

	return cr
}

// Register adds or updates a currency in the registry.
func (cr *Registry) Register(code Code, meta Meta) {
	registryMeta := registry.Meta{
		ID:     code.String(),
		Name:   code.String(),
		Active: true,
		Metadata: map[string]string{
			"decimals": fmt.Sprintf("%d", meta.Decimals),
			"symbol":   meta.Symbol,
		},
	}
	cr.registry.Register(code.String(), registryMeta)
}

// Get returns currency metadata for the given code. Unknown codes fall back
// to the code itself as symbol and the default decimal places.
func (cr *Registry) Get(code Code) Meta {
	registryMeta := cr.registry.Get(code.String())

	decimals := DefaultDecimals
	if decStr, found := registryMeta.Metadata["decimals"]; found {
		if dec, err := strconv.Atoi(decStr); err == nil {
			decimals = dec
		}
	}

	symbol := code.String()
	if sym, found := registryMeta.Metadata["symbol"]; found {
		symbol = sym
	}

	return Meta{
		Decimals: decimals,
		Symbol:   symbol,
	}
}

// IsSupported checks if a currency code is registered.
func (cr *Registry) IsSupported(code Code) bool {
	return cr.registry.IsRegistered(code.String())
}

// ListSupported returns a list of all supported currency codes.
func (cr *Registry) ListSupported() []Code {
	ids := cr.registry.ListRegistered()
	codes := make([]Code, 0, len(ids))
	for _, id := range ids {
		codes = append(codes, Code(id))
	}
	return codes
}

// Count returns the total number of registered currencies.
func (cr *Registry) Count() int {
	return cr.registry.Count()
}

// Global currency registry instance.
var globalRegistry = NewRegistry()

// Get returns currency metadata from the global registry.
func Get(code Code) Meta {
	return globalRegistry.Get(code)
}

// Symbol returns the display symbol for a currency code, or "?" when the
// code is unknown.
func Symbol(code Code) string {
	if !globalRegistry.IsSupported(code) {
		return "?"
	}
	return globalRegistry.Get(code).Symbol
}

// IsSupported checks the global registry for a currency code.
func IsSupported(code Code) bool {
	return globalRegistry.IsSupported(code)
}

// ListSupported lists all codes in the global registry.
func ListSupported() []Code {
	return globalRegistry.ListSupported()
}
