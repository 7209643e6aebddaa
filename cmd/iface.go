package cmd

import (
	"fmt"

	"grimm.is/wgfleet/internal/state"
	"grimm.is/wgfleet/internal/wgctl"
)

// RunEnable brings the WireGuard interface up from current state.
func RunEnable(statePath string) error {
	st, err := state.Load(statePath)
	if err != nil {
		return err
	}
	if err := wgctl.New().Up(st); err != nil {
		return err
	}
	fmt.Printf("%s is up\n", st.Server.Interface)
	return nil
}

// RunDisable tears the interface down. Already-down is success.
func RunDisable(statePath string) error {
	st, err := state.Load(statePath)
	if err != nil {
		return err
	}
	if err := wgctl.New().Down(st.Server.Interface); err != nil {
		return err
	}
	fmt.Printf("%s is down\n", st.Server.Interface)
	return nil
}

// RunStatus reports whether the interface is up and, when it is, the device
// summary with peer handshake info.
func RunStatus(statePath string) error {
	st, err := state.Load(statePath)
	if err != nil {
		return err
	}

	link := wgctl.New()
	up, err := link.Exists(st.Server.Interface)
	if err != nil {
		return err
	}
	if !up {
		fmt.Printf("%s: down\n", st.Server.Interface)
		return nil
	}

	fmt.Printf("%s: up\n", st.Server.Interface)
	if show, err := link.Show(st.Server.Interface); err == nil && show != "" {
		fmt.Print(show)
	}
	return nil
}
