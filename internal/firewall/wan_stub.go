//go:build !linux

package firewall

import (
	"fmt"
	"runtime"

	"grimm.is/wgfleet/internal/fleet"
)

// DetectWANInterface requires the Linux routing table.
func DetectWANInterface() (string, error) {
	return "", fmt.Errorf("%w: WAN detection not supported on %s", fleet.ErrDetection, runtime.GOOS)
}
