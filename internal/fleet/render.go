package fleet

import (
	"fmt"
	"strings"
)

// persistentKeepalive keeps NAT bindings alive for roaming clients.
const persistentKeepalive = 25

// RenderServerConfig renders the server-side config: one [Interface] block
// followed by a [Peer] block per peer. On the server side each peer's
// AllowedIPs is its own address only, never the whole subnet. Output is a
// pure function of the state, so re-rendering an unchanged state is
// byte-identical.
func RenderServerConfig(s *State) string {
	srv := s.Server

	lines := []string{
		"[Interface]",
		"Address = " + srv.Address,
		fmt.Sprintf("ListenPort = %d", srv.ListenPort),
		"PrivateKey = " + srv.PrivateKey,
		"",
	}

	for _, name := range s.PeerNames() {
		p := s.Peers[name]
		lines = append(lines, "[Peer]")
		lines = append(lines, "PublicKey = "+p.PublicKey)
		if p.PresharedKey != "" {
			lines = append(lines, "PresharedKey = "+p.PresharedKey)
		}
		lines = append(lines, "AllowedIPs = "+p.IP)
		lines = append(lines, "")
	}

	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
}

// RenderClientConfig renders the config a peer imports on its own device:
// its identity as the [Interface], the server as the sole [Peer].
func RenderClientConfig(s *State, peerName string) (string, error) {
	p, ok := s.Peers[peerName]
	if !ok {
		return "", fmt.Errorf("peer %q: %w", peerName, ErrNotFound)
	}
	srv := s.Server

	lines := []string{
		"[Interface]",
		"Address = " + p.IP,
		"PrivateKey = " + p.PrivateKey,
	}
	if len(srv.DNS) > 0 {
		lines = append(lines, "DNS = "+strings.Join(srv.DNS, ", "))
	}

	lines = append(lines,
		"",
		"[Peer]",
		"PublicKey = "+srv.PublicKey,
	)
	if p.PresharedKey != "" {
		lines = append(lines, "PresharedKey = "+p.PresharedKey)
	}
	lines = append(lines, "AllowedIPs = "+strings.Join(p.AllowedIPs, ", "))
	if srv.Endpoint != "" {
		lines = append(lines, "Endpoint = "+srv.Endpoint)
	}
	lines = append(lines, fmt.Sprintf("PersistentKeepalive = %d", persistentKeepalive))

	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n", nil
}
