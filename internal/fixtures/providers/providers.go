// Package providers embeds the default PFI allowlist the wallet ships with.
// The allowlist should eventually come from a central registry controlled by
// the wallet-maker identity; until then it is baked into the binary.
package providers

import (
	_ "embed"

	"github.com/amirasaad/kapital/pkg/provider"
)

//go:embed providers.json
var allowlistJSON []byte

// LoadDefaultDirectory builds the provider directory from the embedded
// allowlist fixture.
func LoadDefaultDirectory() (*provider.Directory, error) {
	return provider.FromJSON(allowlistJSON)
}
