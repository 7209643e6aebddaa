// Package brand centralizes product naming and default filesystem paths so
// forks only need to touch one file.
package brand

const (
	Name        = "wgfleet"
	Description = "declarative WireGuard fleet manager"
	Version     = "0.4.1"

	BinaryName = "wgfleet"

	// DefaultStatePath is where the fleet state document lives.
	DefaultStateDir  = "/var/lib/wgfleet"
	StateFileName    = "state.json"
	DefaultStatePath = DefaultStateDir + "/" + StateFileName

	// SystemConfigDir is the system-managed WireGuard directory apply
	// installs into.
	SystemConfigDir = "/etc/wireguard"

	// DefaultExportDir receives rendered configs for the export command.
	DefaultExportDir = "configs"
)
