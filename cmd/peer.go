package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"grimm.is/wgfleet/internal/fleet"
	"grimm.is/wgfleet/internal/keys"
	"grimm.is/wgfleet/internal/state"
)

// RunPeerAdd allocates the lowest free address, generates keys, and persists
// the new peer. A preshared key is generated unless disabled.
func RunPeerAdd(statePath, name string, noPSK bool) error {
	st, err := state.Load(statePath)
	if err != nil {
		return err
	}

	peer, err := st.AddPeer(name, keys.WGSource{}, !noPSK)
	if err != nil {
		return err
	}
	if err := state.Save(st, statePath); err != nil {
		return err
	}

	fmt.Printf("Added peer %s\n", name)
	fmt.Printf("  address:    %s\n", peer.IP)
	fmt.Printf("  public key: %s\n", peer.PublicKey)
	fmt.Printf("Run 'export --peer %s' to produce its client config.\n", name)
	return nil
}

// RunPeerRemove deletes a peer; its address becomes reusable.
func RunPeerRemove(statePath, name string) error {
	st, err := state.Load(statePath)
	if err != nil {
		return err
	}
	if err := st.RemovePeer(name); err != nil {
		return err
	}
	if err := state.Save(st, statePath); err != nil {
		return err
	}
	fmt.Printf("Removed peer %s\n", name)
	return nil
}

// RunPeerList prints a table of peers in name order.
func RunPeerList(statePath string) error {
	st, err := state.Load(statePath)
	if err != nil {
		return err
	}

	names := st.PeerNames()
	if len(names) == 0 {
		fmt.Println("No peers. Add one with 'peer add <name>'.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADDRESS\tPSK\tPUBLIC KEY")
	for _, name := range names {
		p := st.Peers[name]
		psk := "no"
		if p.PresharedKey != "" {
			psk = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, p.IP, psk, p.PublicKey)
	}
	return w.Flush()
}

// RunPeerShow prints one peer's details. Private material stays out of the
// listing; use export for a usable client config.
func RunPeerShow(statePath, name string) error {
	st, err := state.Load(statePath)
	if err != nil {
		return err
	}
	p, ok := st.Peers[name]
	if !ok {
		return fmt.Errorf("peer %q: %w", name, fleet.ErrNotFound)
	}

	fmt.Printf("Name:        %s\n", p.Name)
	fmt.Printf("Address:     %s\n", p.IP)
	fmt.Printf("Public key:  %s\n", p.PublicKey)
	fmt.Printf("AllowedIPs:  %v\n", p.AllowedIPs)
	if p.PresharedKey != "" {
		fmt.Println("Preshared:   yes")
	} else {
		fmt.Println("Preshared:   no")
	}
	return nil
}
