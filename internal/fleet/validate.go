package fleet

import (
	"fmt"
	"net/netip"
	"strings"
)

// Validate checks the whole state and returns every problem found; an empty
// slice means the state is safe to persist or apply. Problems are collected,
// not short-circuited, so one pass surfaces everything. This is the sole
// gate in front of any operation that touches the live system.
func Validate(s *State) []string {
	var problems []string

	srv := s.Server

	if strings.TrimSpace(srv.Interface) == "" {
		problems = append(problems, "server.interface missing/empty")
	}
	if strings.TrimSpace(srv.PrivateKey) == "" {
		problems = append(problems, "server.private_key missing/empty")
	}
	if strings.TrimSpace(srv.PublicKey) == "" {
		problems = append(problems, "server.public_key missing/empty")
	}
	if strings.TrimSpace(srv.Address) == "" {
		problems = append(problems, "server.address missing/empty")
	}
	if srv.ListenPort < 1 || srv.ListenPort > 65535 {
		problems = append(problems, fmt.Sprintf("server.listen_port invalid: %d (must be 1..65535)", srv.ListenPort))
	}

	network, err := netip.ParsePrefix(s.NetworkCIDR)
	haveNetwork := err == nil
	if !haveNetwork {
		problems = append(problems, fmt.Sprintf("network_cidr invalid: %q", s.NetworkCIDR))
	} else {
		network = network.Masked()
	}

	serverAddr, serverAddrOK := hostAddr(srv.Address)
	if srv.Address != "" && !serverAddrOK {
		problems = append(problems, fmt.Sprintf("server.address invalid: %q", srv.Address))
	}

	seen := make(map[netip.Addr]string)
	for _, name := range s.PeerNames() {
		p := s.Peers[name]

		if err := CheckPeerName(name); err != nil {
			problems = append(problems, err.Error())
		}

		addr, ok := hostAddr(p.IP)
		if !ok {
			problems = append(problems, fmt.Sprintf("peer %s: ip invalid: %q", name, p.IP))
		} else {
			if other, dup := seen[addr]; dup {
				problems = append(problems, fmt.Sprintf("peer %s: duplicate ip %s (also used by peer %s)", name, p.IP, other))
			}
			seen[addr] = name

			if serverAddrOK && addr == serverAddr {
				problems = append(problems, fmt.Sprintf("peer %s: ip %s collides with server address", name, p.IP))
			}
			if haveNetwork && !network.Contains(addr) {
				problems = append(problems, fmt.Sprintf("peer %s: ip %s outside network %s", name, p.IP, s.NetworkCIDR))
			}
		}

		if strings.TrimSpace(p.PublicKey) == "" {
			problems = append(problems, fmt.Sprintf("peer %s: public_key missing/empty", name))
		}
		if strings.TrimSpace(p.PrivateKey) == "" {
			problems = append(problems, fmt.Sprintf("peer %s: private_key missing/empty", name))
		}
		if len(p.AllowedIPs) == 0 {
			problems = append(problems, fmt.Sprintf("peer %s: allowed_ips empty", name))
		}
	}

	return problems
}
