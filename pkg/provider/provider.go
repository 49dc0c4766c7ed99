// Package provider models the PFI (participating financial institution)
// directory: the liquidity providers the wallet is allowed to negotiate
// with, and the currency pairs each one advertises.
//
// Directory data is reference data: loaded once at startup from the
// embedded allowlist (or an external registry) and read-only afterwards.
package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/amirasaad/kapital/pkg/currency"
)

var (
	// ErrProviderNotFound is returned when a directory lookup misses.
	ErrProviderNotFound = errors.New("provider not found in directory")
)

// Info describes a single liquidity provider.
type Info struct {
	// URI is the provider's unique endpoint identifier (a DID for tbDEX PFIs).
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// SupportedCurrencies maps a base currency to the payout currencies this
	// provider can convert it into.
	SupportedCurrencies map[currency.Code][]currency.Code `json:"supportedCurrencies"`
}

// Directory is the set of allowlisted providers, keyed by a short registry
// key (e.g. "aquafinance_capital").
type Directory struct {
	providers map[string]Info
	mu        sync.RWMutex
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{providers: make(map[string]Info)}
}

// FromJSON builds a directory from a JSON document mapping provider keys to
// provider info, the shape served by the wallet-maker registry.
func FromJSON(data []byte) (*Directory, error) {
	var entries map[string]Info
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse provider directory: %w", err)
	}
	d := NewDirectory()
	for key, info := range entries {
		d.Register(key, info)
	}
	return d, nil
}

// Register adds or replaces a provider under the given key.
func (d *Directory) Register(key string, info Info) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.providers[key] = info
}

// Get returns the provider registered under key.
func (d *Directory) Get(key string) (Info, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	info, ok := d.providers[key]
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrProviderNotFound, key)
	}
	return info, nil
}

// GetByURI returns the provider whose endpoint URI matches.
func (d *Directory) GetByURI(uri string) (Info, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, info := range d.providers {
		if info.URI == uri {
			return info, nil
		}
	}
	return Info{}, fmt.Errorf("%w: %s", ErrProviderNotFound, uri)
}

// Keys returns all provider keys in lexicographic order. Deterministic
// ordering keeps graph construction reproducible.
func (d *Directory) Keys() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	keys := make([]string, 0, len(d.providers))
	for key := range d.providers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// List returns all providers in key order.
func (d *Directory) List() []Info {
	keys := d.Keys()
	d.mu.RLock()
	defer d.mu.RUnlock()
	infos := make([]Info, 0, len(keys))
	for _, key := range keys {
		infos = append(infos, d.providers[key])
	}
	return infos
}

// Count returns the number of registered providers.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.providers)
}
