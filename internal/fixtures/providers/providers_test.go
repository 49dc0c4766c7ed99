package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultDirectory(t *testing.T) {
	d, err := LoadDefaultDirectory()
	require.NoError(t, err)
	assert.Equal(t, 5, d.Count())

	info, err := d.Get("titanium_trust")
	require.NoError(t, err)
	assert.NotEmpty(t, info.URI)
	assert.NotEmpty(t, info.SupportedCurrencies)

	for _, key := range d.Keys() {
		info, err := d.Get(key)
		require.NoError(t, err)
		assert.NotEmpty(t, info.URI, "provider %s has no DID", key)
	}
}
