// Package wgctl is the interface-control capability: existence checks and
// up/down/show for the WireGuard link. The production implementation drives
// netlink and wgctrl directly instead of shelling out to wg-quick; tests
// bind to the in-memory Fake.
package wgctl

import "grimm.is/wgfleet/internal/fleet"

// Controller manages the WireGuard network interface.
type Controller interface {
	// Exists reports whether the link is present at the link layer.
	// Never requires privilege.
	Exists(iface string) (bool, error)

	// Up creates the link if needed, assigns the server address, loads
	// keys/port/peers into the device, and brings the link up.
	// Requires privilege.
	Up(st *fleet.State) error

	// Down deletes the link. Already-absent is success. Requires
	// privilege.
	Down(iface string) error

	// Show returns a human-readable device summary, or an empty string
	// if the link is absent.
	Show(iface string) (string, error)
}
