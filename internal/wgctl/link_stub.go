//go:build !linux

package wgctl

import (
	"fmt"
	"runtime"

	"grimm.is/wgfleet/internal/fleet"
)

type stubController struct{}

// New returns a controller that rejects every operation; WireGuard link
// management is Linux-only.
func New() Controller {
	return stubController{}
}

func (stubController) Exists(iface string) (bool, error) {
	return false, fmt.Errorf("link control not supported on %s", runtime.GOOS)
}

func (stubController) Up(st *fleet.State) error {
	return fmt.Errorf("link control not supported on %s", runtime.GOOS)
}

func (stubController) Down(iface string) error {
	return fmt.Errorf("link control not supported on %s", runtime.GOOS)
}

func (stubController) Show(iface string) (string, error) {
	return "", fmt.Errorf("link control not supported on %s", runtime.GOOS)
}
