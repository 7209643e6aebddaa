package cmd

import (
	"fmt"
	"strings"

	"grimm.is/wgfleet/internal/fleet"
	"grimm.is/wgfleet/internal/keys"
	"grimm.is/wgfleet/internal/state"
)

// RunInit creates a new fleet state file. The server takes the first host
// address of the network and a fresh keypair.
func RunInit(statePath, networkCIDR, iface string, port int, endpoint, dns string, force bool) error {
	if state.Exists(statePath) && !force {
		return fmt.Errorf("state already exists at %s (use --force to overwrite)", statePath)
	}

	address, err := fleet.FirstHost(networkCIDR)
	if err != nil {
		return fmt.Errorf("invalid network %q: %w", networkCIDR, err)
	}

	priv, pub, err := keys.WGSource{}.Keypair()
	if err != nil {
		return err
	}

	server := fleet.Server{
		Interface:  iface,
		ListenPort: port,
		PrivateKey: priv,
		PublicKey:  pub,
		Address:    address,
		Endpoint:   endpoint,
	}
	if dns != "" {
		for _, d := range strings.Split(dns, ",") {
			if d = strings.TrimSpace(d); d != "" {
				server.DNS = append(server.DNS, d)
			}
		}
	}

	st := fleet.NewState(networkCIDR, server)
	if problems := fleet.Validate(st); len(problems) > 0 {
		return &fleet.ValidationError{Problems: problems}
	}
	if err := state.Save(st, statePath); err != nil {
		return err
	}

	fmt.Printf("Initialized fleet %s on %s\n", networkCIDR, iface)
	fmt.Printf("  server address: %s\n", address)
	fmt.Printf("  public key:     %s\n", pub)
	fmt.Printf("  state:          %s\n", statePath)
	return nil
}
