// Package keys binds the key-generation capability to the WireGuard key
// primitives. The fleet core only ever sees opaque single-line strings.
package keys

import (
	"fmt"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"grimm.is/wgfleet/internal/fleet"
)

// WGSource generates Curve25519 keypairs and preshared keys natively.
// No wg binary required.
type WGSource struct{}

// Keypair returns a new private key and its derived public key, base64
// encoded the way wg(8) prints them.
func (WGSource) Keypair() (string, string, error) {
	key, err := wgtypes.GeneratePrivateKey()
	if err != nil {
		return "", "", fmt.Errorf("%w: generate keypair: %v", fleet.ErrExternalTool, err)
	}
	return key.String(), key.PublicKey().String(), nil
}

// PresharedKey returns a fresh random preshared key.
func (WGSource) PresharedKey() (string, error) {
	key, err := wgtypes.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("%w: generate preshared key: %v", fleet.ErrExternalTool, err)
	}
	return key.String(), nil
}
