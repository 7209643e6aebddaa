// Package firewall makes the host's packet-filter and NAT posture reflect
// "VPN enabled" or "VPN disabled" without disturbing rules owned by other
// tooling. It never writes into the shared built-in chains directly: it owns
// three private chains and links each into the corresponding built-in chain
// with exactly one jump at position 1. Rebuilds flush-then-repopulate the
// private chains, so enable is idempotent.
package firewall

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"grimm.is/wgfleet/internal/fleet"
	"grimm.is/wgfleet/internal/logging"
)

// The private chains this manager owns.
const (
	ChainInput   = "VPNWG_IN"
	ChainForward = "VPNWG_FWD"
	ChainNAT     = "VPNWG_NAT"
)

// Manager drives the iptables rule engine through a Runner.
type Manager struct {
	runner Runner
	log    *logging.Logger

	// Euid and DetectWAN are overridable for tests; defaults bind to the
	// real process uid and the kernel routing table.
	Euid      func() int
	DetectWAN func() (string, error)
}

// NewManager returns a manager bound to the given runner.
func NewManager(r Runner) *Manager {
	return &Manager{
		runner:    r,
		log:       logging.WithComponent("firewall"),
		Euid:      os.Geteuid,
		DetectWAN: DetectWANInterface,
	}
}

// EnableResult reports which sub-steps took effect; non-fatal degradations
// land in Notes rather than failing the whole operation.
type EnableResult struct {
	WANInterface       string
	InputUDP           bool
	ForwardEstablished bool
	ForwardWGToWAN     bool
	NATMasquerade      bool
	Notes              []string
}

// DisableResult reports what was actually torn down; zero values mean the
// host was already clean.
type DisableResult struct {
	JumpsRemoved  int
	ChainsRemoved []string
}

// Status is a read-only summary of the current posture.
type Status struct {
	// Enabled means the private chains exist and at least one jump into
	// a built-in chain is present. Chain existence alone is not enough:
	// an operator may have half-torn-down state.
	Enabled       bool
	ChainsPresent bool
	NATAvailable  bool
	WANInterface  string
	Ruleset       string
}

// Enable (re)builds the VPN ruleset. Calling it twice with the same
// arguments leaves the same effective ruleset as calling it once.
func (m *Manager) Enable(wgIface string, listenPort int, wanIface string) (*EnableResult, error) {
	if m.Euid() != 0 {
		return nil, fmt.Errorf("firewall enable: %w (run with sudo)", fleet.ErrPermission)
	}
	if _, err := m.runner.LookPath("iptables"); err != nil {
		return nil, fmt.Errorf("%w: iptables not found in PATH", fleet.ErrExternalTool)
	}

	if wanIface == "" {
		detected, err := m.DetectWAN()
		if err != nil {
			return nil, err
		}
		wanIface = detected
	}

	res := &EnableResult{WANInterface: wanIface}

	// Filter table: private chains rebuilt from scratch each time.
	if err := m.ensureChain("", ChainInput); err != nil {
		return nil, err
	}
	if err := m.ensureChain("", ChainForward); err != nil {
		return nil, err
	}
	m.flushChain("", ChainInput)
	m.flushChain("", ChainForward)

	if err := m.run("", "-A", ChainInput, "-p", "udp", "--dport", strconv.Itoa(listenPort), "-j", "ACCEPT"); err != nil {
		return nil, err
	}
	res.InputUDP = true

	// Connection tracking may be unavailable (minimal kernels); degrade
	// instead of failing.
	if err := m.run("", "-A", ChainForward, "-m", "conntrack", "--ctstate", "RELATED,ESTABLISHED", "-j", "ACCEPT"); err != nil {
		res.ForwardEstablished = false
		res.Notes = append(res.Notes, "conntrack unavailable; skipped ESTABLISHED,RELATED rule")
		m.log.Warn("conntrack unavailable, skipping established/related rule", "error", err)
	} else {
		res.ForwardEstablished = true
	}

	if err := m.run("", "-A", ChainForward, "-i", wgIface, "-o", wanIface, "-j", "ACCEPT"); err != nil {
		return nil, err
	}
	res.ForwardWGToWAN = true

	if err := m.ensureJumpFirst("", "INPUT", ChainInput); err != nil {
		return nil, err
	}
	if err := m.ensureJumpFirst("", "FORWARD", ChainForward); err != nil {
		return nil, err
	}

	// NAT table is optional (iptable_nat/nf_nat may be missing).
	if m.hasNATTable() {
		if err := m.ensureChain("nat", ChainNAT); err != nil {
			return nil, err
		}
		m.flushChain("nat", ChainNAT)

		if err := m.run("nat", "-A", ChainNAT, "-o", wanIface, "-j", "MASQUERADE"); err != nil {
			return nil, err
		}
		res.NATMasquerade = true

		if err := m.ensureJumpFirst("nat", "POSTROUTING", ChainNAT); err != nil {
			return nil, err
		}
	} else {
		res.Notes = append(res.Notes, "nat table unavailable (missing iptable_nat/nf_nat); no internet for VPN clients")
		m.log.Warn("nat table unavailable, skipping masquerade")
	}

	m.log.Info("firewall enabled", "wg", wgIface, "wan", wanIface, "port", listenPort)
	return res, nil
}

// Disable removes the jumps and the private chains. Every step treats
// "already absent" as satisfied, so disable is safe to repeat and safe on a
// host that was never enabled.
func (m *Manager) Disable() (*DisableResult, error) {
	if m.Euid() != 0 {
		return nil, fmt.Errorf("firewall disable: %w (run with sudo)", fleet.ErrPermission)
	}
	if _, err := m.runner.LookPath("iptables"); err != nil {
		return nil, fmt.Errorf("%w: iptables not found in PATH", fleet.ErrExternalTool)
	}

	res := &DisableResult{}

	// Jumps first so the private chains have no referrers left.
	res.JumpsRemoved += m.deleteJumps("", "INPUT", ChainInput)
	res.JumpsRemoved += m.deleteJumps("", "FORWARD", ChainForward)

	for _, chain := range []string{ChainInput, ChainForward} {
		if m.removeChain("", chain) {
			res.ChainsRemoved = append(res.ChainsRemoved, chain)
		}
	}

	if m.hasNATTable() {
		res.JumpsRemoved += m.deleteJumps("nat", "POSTROUTING", ChainNAT)
		if m.removeChain("nat", ChainNAT) {
			res.ChainsRemoved = append(res.ChainsRemoved, "nat/"+ChainNAT)
		}
	}

	m.log.Info("firewall disabled", "jumps_removed", res.JumpsRemoved, "chains_removed", len(res.ChainsRemoved))
	return res, nil
}

// CurrentStatus summarizes the posture without mutating anything. It never
// requires privilege; an unreadable ruleset reads as disabled.
func (m *Manager) CurrentStatus() (*Status, error) {
	if _, err := m.runner.LookPath("iptables"); err != nil {
		return nil, fmt.Errorf("%w: iptables not found in PATH", fleet.ErrExternalTool)
	}

	st := &Status{}

	filterRules, err := m.runner.Run("-S")
	if err != nil {
		return st, nil
	}

	st.NATAvailable = m.hasNATTable()
	natRules := "(nat table unavailable)\n"
	if st.NATAvailable {
		if out, err := m.runner.Run("-t", "nat", "-S"); err == nil {
			natRules = out
		} else {
			st.NATAvailable = false
		}
	}
	st.Ruleset = filterRules + "\n" + natRules

	chains := m.listChains("")
	st.ChainsPresent = contains(chains, ChainInput) && contains(chains, ChainForward)

	hasJump := strings.Contains(filterRules, "-A INPUT -j "+ChainInput) ||
		strings.Contains(filterRules, "-A FORWARD -j "+ChainForward)
	if st.NATAvailable {
		hasJump = hasJump || strings.Contains(natRules, "-A POSTROUTING -j "+ChainNAT)
	}
	st.Enabled = st.ChainsPresent && hasJump

	if wan, err := m.DetectWAN(); err == nil {
		st.WANInterface = wan
	}

	return st, nil
}

// run executes a mutating iptables command; failures are external-tool
// errors.
func (m *Manager) run(table string, args ...string) error {
	full := tableArgs(table, args...)
	if _, err := m.runner.Run(full...); err != nil {
		return fmt.Errorf("%w: iptables %s: %v", fleet.ErrExternalTool, strings.Join(full, " "), err)
	}
	return nil
}

func tableArgs(table string, args ...string) []string {
	if table == "" {
		return args
	}
	return append([]string{"-t", table}, args...)
}

// listChains parses chain definitions ("-N NAME") out of a ruleset listing.
func (m *Manager) listChains(table string) []string {
	out, err := m.runner.Run(tableArgs(table, "-S")...)
	if err != nil {
		return nil
	}
	var chains []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "-N ") {
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				chains = append(chains, fields[1])
			}
		}
	}
	return chains
}

func (m *Manager) ensureChain(table, chain string) error {
	if contains(m.listChains(table), chain) {
		return nil
	}
	return m.run(table, "-N", chain)
}

// flushChain empties a private chain; a missing chain counts as flushed.
func (m *Manager) flushChain(table, chain string) {
	_, _ = m.runner.Run(tableArgs(table, "-F", chain)...)
}

// removeChain flushes and deletes a chain, reporting whether anything was
// actually removed.
func (m *Manager) removeChain(table, chain string) bool {
	if !contains(m.listChains(table), chain) {
		return false
	}
	_, _ = m.runner.Run(tableArgs(table, "-F", chain)...)
	_, err := m.runner.Run(tableArgs(table, "-X", chain)...)
	return err == nil
}

// ensureJumpFirst makes the built-in parent chain jump to our private chain
// as its first rule, inserting only when the jump is not already present.
func (m *Manager) ensureJumpFirst(table, parent, chain string) error {
	out, _ := m.runner.Run(tableArgs(table, "-S", parent)...)
	if strings.Contains(out, fmt.Sprintf("-A %s -j %s", parent, chain)) {
		return nil
	}
	return m.run(table, "-I", parent, "1", "-j", chain)
}

// deleteJumps removes every rule in parent whose target is chain, deleting
// by line number in descending order so earlier deletions don't shift the
// numbers of later ones. Returns how many rules were removed.
func (m *Manager) deleteJumps(table, parent, chain string) int {
	out, err := m.runner.Run(tableArgs(table, "-L", parent, "--line-numbers")...)
	if err != nil {
		return 0
	}

	var lineNums []int
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		num, err := strconv.Atoi(fields[0])
		if err != nil {
			continue // header line
		}
		if len(fields) >= 2 && fields[1] == chain {
			lineNums = append(lineNums, num)
		}
	}

	removed := 0
	for i := len(lineNums) - 1; i >= 0; i-- {
		if _, err := m.runner.Run(tableArgs(table, "-D", parent, strconv.Itoa(lineNums[i]))...); err == nil {
			removed++
		}
	}
	return removed
}

// hasNATTable probes whether the kernel exposes a usable NAT table.
func (m *Manager) hasNATTable() bool {
	_, err := m.runner.Run("-t", "nat", "-S")
	return err == nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
