package offering

import (
	_ "embed"
	"encoding/json"
)

//go:embed sample.json
var sampleJSON []byte

// SampleCatalog returns the static fallback offering set used when a
// provider's catalog cannot be fetched. It is resolver-level degradation
// only, never authoritative data.
func SampleCatalog() []Offering {
	var offerings []Offering
	// The embedded fixture is validated by tests; a parse failure here
	// means a broken build, not a runtime condition.
	if err := json.Unmarshal(sampleJSON, &offerings); err != nil {
		panic("offering: invalid embedded sample catalog: " + err.Error())
	}
	return offerings
}
