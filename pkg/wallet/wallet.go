// Package wallet holds the user's signing identity and verifiable
// credentials. Key custody and encryption-at-rest belong to the host
// environment; this package only works with an already-unlocked key.
package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNoIdentity is returned when signing is attempted before a key is set.
	ErrNoIdentity = errors.New("wallet identity not initialized")
)

// Credential is a held verifiable-credential proof: the descriptor id it
// satisfies plus the signed JWT.
type Credential struct {
	ID  string `json:"id"`
	JWT string `json:"jwt"`
}

// Wallet is the user's identity: a did-style URI derived from an Ed25519
// key, the signing key itself, and the credential set.
type Wallet struct {
	did   string
	key   ed25519.PrivateKey
	mu    sync.RWMutex
	creds []Credential
}

// Generate creates a wallet with a fresh Ed25519 key.
func Generate() (*Wallet, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate wallet key: %w", err)
	}
	return FromKey(priv), nil
}

// FromKey builds a wallet around an existing private key, e.g. one loaded by
// the host's custody layer.
func FromKey(priv ed25519.PrivateKey) *Wallet {
	pub := priv.Public().(ed25519.PublicKey)
	return &Wallet{
		did: "did:key:z" + base64.RawURLEncoding.EncodeToString(pub),
		key: priv,
	}
}

// FromSeed builds a wallet from a 32-byte Ed25519 seed, the form keys take
// in configuration.
func FromSeed(seed []byte) (*Wallet, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("wallet seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return FromKey(ed25519.NewKeyFromSeed(seed)), nil
}

// DID returns the wallet's identity URI.
func (w *Wallet) DID() string {
	return w.did
}

// Sign signs a payload with the wallet key, returning the signature in
// base64url without padding.
func (w *Wallet) Sign(payload []byte) (string, error) {
	if w.key == nil {
		return "", ErrNoIdentity
	}
	sig := ed25519.Sign(w.key, payload)
	return base64.RawURLEncoding.EncodeToString(sig), nil
}

// AddCredential stores a credential proof.
func (w *Wallet) AddCredential(cred Credential) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.creds = append(w.creds, cred)
}

// Credentials returns a copy of the held credential set.
func (w *Wallet) Credentials() []Credential {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Credential, len(w.creds))
	copy(out, w.creds)
	return out
}
