package keys_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"grimm.is/wgfleet/internal/keys"
)

func TestKeypairIsValidAndPaired(t *testing.T) {
	priv, pub, err := keys.WGSource{}.Keypair()
	require.NoError(t, err)

	parsed, err := wgtypes.ParseKey(priv)
	require.NoError(t, err)
	assert.Equal(t, parsed.PublicKey().String(), pub,
		"public key must derive from the private key")
}

func TestKeypairsAreUnique(t *testing.T) {
	a, _, err := keys.WGSource{}.Keypair()
	require.NoError(t, err)
	b, _, err := keys.WGSource{}.Keypair()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPresharedKeyParses(t *testing.T) {
	psk, err := keys.WGSource{}.PresharedKey()
	require.NoError(t, err)

	_, err = wgtypes.ParseKey(psk)
	assert.NoError(t, err)
}

func TestFakeIsDeterministic(t *testing.T) {
	f := &keys.Fake{}
	priv, pub, err := f.Keypair()
	require.NoError(t, err)
	assert.Equal(t, "PRIV001=", priv)
	assert.Equal(t, "PUB001=", pub)

	psk, err := f.PresharedKey()
	require.NoError(t, err)
	assert.Equal(t, "PSK002=", psk)
}
