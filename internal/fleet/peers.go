package fleet

import (
	"fmt"
	"strings"
)

// KeySource is the key-generation collaborator. Production binds to the
// WireGuard key primitives, tests to a deterministic fake.
type KeySource interface {
	Keypair() (private, public string, err error)
	PresharedKey() (string, error)
}

// pathTokens must never appear in a peer name: names derive filesystem and
// export paths.
var pathTokens = []string{"/", "\\", ".."}

// CheckPeerName rejects names that are empty or could escape the export
// directory.
func CheckPeerName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("peer name must not be empty")
	}
	for _, tok := range pathTokens {
		if strings.Contains(name, tok) {
			return fmt.Errorf("peer name %q must not contain %q", name, tok)
		}
	}
	return nil
}

// AddPeer allocates the lowest free address, generates the peer's key
// material, and records the peer. AllowedIPs defaults to the whole VPN
// network so the client routes the subnet through the tunnel.
func (s *State) AddPeer(name string, src KeySource, withPSK bool) (*Peer, error) {
	if err := CheckPeerName(name); err != nil {
		return nil, err
	}
	if _, ok := s.Peers[name]; ok {
		return nil, fmt.Errorf("peer %q: %w", name, ErrDuplicate)
	}

	ip, err := s.Allocate()
	if err != nil {
		return nil, err
	}
	priv, pub, err := src.Keypair()
	if err != nil {
		return nil, err
	}

	psk := ""
	if withPSK {
		psk, err = src.PresharedKey()
		if err != nil {
			return nil, err
		}
	}

	p := &Peer{
		Name:         name,
		PrivateKey:   priv,
		PublicKey:    pub,
		IP:           ip,
		AllowedIPs:   []string{s.NetworkCIDR},
		PresharedKey: psk,
	}
	if s.Peers == nil {
		s.Peers = make(map[string]*Peer)
	}
	s.Peers[name] = p
	return p, nil
}

// RemovePeer deletes a peer wholesale. Its address becomes free for reuse.
func (s *State) RemovePeer(name string) error {
	if _, ok := s.Peers[name]; !ok {
		return fmt.Errorf("peer %q: %w", name, ErrNotFound)
	}
	delete(s.Peers, name)
	return nil
}
