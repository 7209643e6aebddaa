package cmd

import (
	"fmt"

	"grimm.is/wgfleet/internal/firewall"
	"grimm.is/wgfleet/internal/state"
)

// RunFirewallEnable builds the VPN ruleset: accept the listen port, forward
// tunnel traffic to the WAN, and masquerade it. Safe to re-run.
func RunFirewallEnable(statePath, wanIface string) error {
	st, err := state.Load(statePath)
	if err != nil {
		return err
	}

	mgr := firewall.NewManager(firewall.ExecRunner{})
	res, err := mgr.Enable(st.Server.Interface, st.Server.ListenPort, wanIface)
	if err != nil {
		return err
	}

	fmt.Printf("Firewall enabled (WAN %s)\n", res.WANInterface)
	fmt.Printf("  UDP %d accepted on INPUT\n", st.Server.ListenPort)
	if res.NATMasquerade {
		fmt.Printf("  masquerading %s -> %s\n", st.Server.Interface, res.WANInterface)
	}
	for _, note := range res.Notes {
		fmt.Printf("  note: %s\n", note)
	}
	return nil
}

// RunFirewallDisable removes the VPN chains and their jumps.
func RunFirewallDisable() error {
	mgr := firewall.NewManager(firewall.ExecRunner{})
	res, err := mgr.Disable()
	if err != nil {
		return err
	}
	if res.JumpsRemoved == 0 && len(res.ChainsRemoved) == 0 {
		fmt.Println("Firewall already disabled; nothing to remove.")
		return nil
	}
	fmt.Printf("Firewall disabled (%d jumps, %d chains removed)\n",
		res.JumpsRemoved, len(res.ChainsRemoved))
	return nil
}

// RunFirewallStatus prints the current posture without changing anything.
func RunFirewallStatus(verbose bool) error {
	mgr := firewall.NewManager(firewall.ExecRunner{})
	status, err := mgr.CurrentStatus()
	if err != nil {
		return err
	}

	if status.Enabled {
		fmt.Println("Firewall: enabled")
	} else if status.ChainsPresent {
		fmt.Println("Firewall: chains present but not linked (partial teardown?)")
	} else {
		fmt.Println("Firewall: disabled")
	}
	if status.WANInterface != "" {
		fmt.Printf("WAN interface: %s\n", status.WANInterface)
	}
	if !status.NATAvailable {
		fmt.Println("NAT table unavailable on this host")
	}
	if verbose && status.Ruleset != "" {
		fmt.Println()
		fmt.Print(status.Ruleset)
	}
	return nil
}
