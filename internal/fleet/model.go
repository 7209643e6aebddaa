// Package fleet holds the declarative state of a WireGuard deployment: one
// server, its peers, and the address plan. The types here carry no behavior
// beyond invariants; allocation, rendering and validation live in sibling
// files so each stays a pure function of the state.
package fleet

import (
	"net/netip"
	"sort"
)

// Peer is one VPN client identity. Peers are created whole by AddPeer and
// removed whole by RemovePeer; they are never edited in place.
type Peer struct {
	Name         string   `json:"name"`
	PrivateKey   string   `json:"private_key"`
	PublicKey    string   `json:"public_key"`
	IP           string   `json:"ip"` // single host address, e.g. "10.8.0.2/32"
	AllowedIPs   []string `json:"allowed_ips"`
	PresharedKey string   `json:"preshared_key,omitempty"`
}

// Server is the single VPN endpoint.
type Server struct {
	Interface  string   `json:"interface"`
	ListenPort int      `json:"listen_port"`
	PrivateKey string   `json:"private_key"`
	PublicKey  string   `json:"public_key"`
	Address    string   `json:"address"` // host-with-prefix, e.g. "10.8.0.1/24"
	Endpoint   string   `json:"endpoint,omitempty"`
	DNS        []string `json:"dns,omitempty"`
}

// State is the aggregate root: the whole fleet as one consistent record.
// It is loaded fully into memory, mutated, and saved back; there is no
// partial update path.
type State struct {
	NetworkCIDR string           `json:"network_cidr"`
	Server      Server           `json:"server"`
	Peers       map[string]*Peer `json:"peers"`
}

// NewState builds an initial state with no peers.
func NewState(networkCIDR string, server Server) *State {
	return &State{
		NetworkCIDR: networkCIDR,
		Server:      server,
		Peers:       make(map[string]*Peer),
	}
}

// PeerNames returns peer names in sorted order. Every iteration over peers
// goes through this so renders and listings are byte-stable.
func (s *State) PeerNames() []string {
	names := make([]string, 0, len(s.Peers))
	for name := range s.Peers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FirstHost returns the first usable host of the network, formatted with the
// network's prefix length (the conventional server address).
func FirstHost(networkCIDR string) (string, error) {
	prefix, err := netip.ParsePrefix(networkCIDR)
	if err != nil {
		return "", err
	}
	first := prefix.Masked().Addr().Next()
	return netip.PrefixFrom(first, prefix.Bits()).String(), nil
}

// hostAddr extracts the bare address from a host-with-prefix string like
// "10.8.0.2/32". The bool reports whether parsing succeeded.
func hostAddr(s string) (netip.Addr, bool) {
	prefix, err := netip.ParsePrefix(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return prefix.Addr(), true
}
