package cmd

import (
	"fmt"

	"grimm.is/wgfleet/internal/deploy"
	"grimm.is/wgfleet/internal/state"
)

// RunExport renders configs into a local directory. With a peer name it
// exports that one client config; otherwise the server plus every peer.
// Export never touches the system config directory and needs no privilege.
func RunExport(statePath, dir, peerName string) error {
	st, err := state.Load(statePath)
	if err != nil {
		return err
	}

	if peerName != "" {
		path, err := deploy.ExportClient(st, peerName, dir)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	}

	paths, err := deploy.ExportAll(st, dir)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Printf("Wrote %s\n", p)
	}
	return nil
}
