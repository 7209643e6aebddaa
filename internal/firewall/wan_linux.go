//go:build linux

package firewall

import (
	"fmt"

	"github.com/vishvananda/netlink"

	"grimm.is/wgfleet/internal/fleet"
)

// DetectWANInterface derives the egress interface from the kernel's default
// route (nil destination). Used when the operator does not name the WAN
// interface explicitly.
func DetectWANInterface() (string, error) {
	routes, err := netlink.RouteList(nil, netlink.FAMILY_V4)
	if err != nil {
		return "", fmt.Errorf("%w: list routes: %v", fleet.ErrDetection, err)
	}

	for _, route := range routes {
		if route.Dst != nil || route.Gw == nil {
			continue
		}
		link, err := netlink.LinkByIndex(route.LinkIndex)
		if err != nil {
			return "", fmt.Errorf("%w: resolve default route link: %v", fleet.ErrDetection, err)
		}
		return link.Attrs().Name, nil
	}
	return "", fmt.Errorf("%w: no default route", fleet.ErrDetection)
}
