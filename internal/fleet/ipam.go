package fleet

import (
	"fmt"
	"net/netip"
)

// usedAddrs collects every address already spoken for: the server, all
// peers, and the network/broadcast addresses reserved by convention.
func usedAddrs(s *State) (map[netip.Addr]struct{}, netip.Prefix, error) {
	prefix, err := netip.ParsePrefix(s.NetworkCIDR)
	if err != nil {
		return nil, netip.Prefix{}, fmt.Errorf("invalid network %q: %w", s.NetworkCIDR, err)
	}
	prefix = prefix.Masked()

	used := make(map[netip.Addr]struct{})

	if a, ok := hostAddr(s.Server.Address); ok {
		used[a] = struct{}{}
	}
	for _, p := range s.Peers {
		if a, ok := hostAddr(p.IP); ok {
			used[a] = struct{}{}
		}
	}

	used[prefix.Addr()] = struct{}{}
	used[lastAddr(prefix)] = struct{}{}

	return used, prefix, nil
}

// Allocate returns the lowest free host address in the VPN network as a
// single-host CIDR. Scanning always starts from the bottom of the subnet so
// an identical state yields an identical answer, and addresses freed by peer
// removal are reused.
func (s *State) Allocate() (string, error) {
	used, prefix, err := usedAddrs(s)
	if err != nil {
		return "", err
	}

	for a := prefix.Addr(); prefix.Contains(a); a = a.Next() {
		if _, taken := used[a]; taken {
			continue
		}
		return netip.PrefixFrom(a, a.BitLen()).String(), nil
	}
	return "", fmt.Errorf("%w: %s", ErrExhausted, s.NetworkCIDR)
}

// lastAddr computes the highest address of a prefix (the IPv4 broadcast).
func lastAddr(p netip.Prefix) netip.Addr {
	raw := p.Masked().Addr().AsSlice()
	for i := p.Bits(); i < len(raw)*8; i++ {
		raw[i/8] |= 1 << (7 - i%8)
	}
	a, _ := netip.AddrFromSlice(raw)
	return a
}
