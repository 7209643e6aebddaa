package main

import (
	"flag"
	"fmt"
	"os"

	"grimm.is/wgfleet/cmd"
	"grimm.is/wgfleet/internal/brand"
	"grimm.is/wgfleet/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	if os.Getenv("WGFLEET_DEBUG") == "1" {
		logging.Default().SetLevel(logging.LevelDebug)
	}

	var err error

	switch os.Args[1] {
	case "init":
		initFlags := flag.NewFlagSet("init", flag.ExitOnError)
		statePath := initFlags.String("state", brand.DefaultStatePath, "State file path")
		network := initFlags.String("network", "10.8.0.0/24", "VPN network CIDR")
		iface := initFlags.String("interface", "wg0", "WireGuard interface name")
		port := initFlags.Int("port", 51820, "UDP listen port")
		endpoint := initFlags.String("endpoint", "", "Public endpoint (host:port) for client configs")
		dns := initFlags.String("dns", "", "DNS servers for clients (comma-separated)")
		force := initFlags.Bool("force", false, "Overwrite an existing state file")
		initFlags.Parse(os.Args[2:])

		err = cmd.RunInit(*statePath, *network, *iface, *port, *endpoint, *dns, *force)

	case "peer":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "usage: %s peer <add|remove|list|show> [args]\n", brand.BinaryName)
			os.Exit(1)
		}
		err = runPeer(os.Args[2], os.Args[3:])

	case "export":
		exportFlags := flag.NewFlagSet("export", flag.ExitOnError)
		statePath := exportFlags.String("state", brand.DefaultStatePath, "State file path")
		dir := exportFlags.String("dir", brand.DefaultExportDir, "Output directory")
		peer := exportFlags.String("peer", "", "Export only this peer's client config")
		exportFlags.Parse(os.Args[2:])

		err = cmd.RunExport(*statePath, *dir, *peer)

	case "apply":
		applyFlags := flag.NewFlagSet("apply", flag.ExitOnError)
		statePath := applyFlags.String("state", brand.DefaultStatePath, "State file path")
		configDir := applyFlags.String("config-dir", brand.SystemConfigDir, "System WireGuard config directory")
		noRestart := applyFlags.Bool("no-restart", false, "Install the config without bouncing the interface")
		applyFlags.Parse(os.Args[2:])

		err = cmd.RunApply(*statePath, *configDir, !*noRestart)

	case "enable":
		enableFlags := flag.NewFlagSet("enable", flag.ExitOnError)
		statePath := enableFlags.String("state", brand.DefaultStatePath, "State file path")
		enableFlags.Parse(os.Args[2:])

		err = cmd.RunEnable(*statePath)

	case "disable":
		disableFlags := flag.NewFlagSet("disable", flag.ExitOnError)
		statePath := disableFlags.String("state", brand.DefaultStatePath, "State file path")
		disableFlags.Parse(os.Args[2:])

		err = cmd.RunDisable(*statePath)

	case "status":
		statusFlags := flag.NewFlagSet("status", flag.ExitOnError)
		statePath := statusFlags.String("state", brand.DefaultStatePath, "State file path")
		statusFlags.Parse(os.Args[2:])

		err = cmd.RunStatus(*statePath)

	case "firewall":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "usage: %s firewall <enable|disable|status> [args]\n", brand.BinaryName)
			os.Exit(1)
		}
		err = runFirewall(os.Args[2], os.Args[3:])

	case "doctor":
		doctorFlags := flag.NewFlagSet("doctor", flag.ExitOnError)
		statePath := doctorFlags.String("state", brand.DefaultStatePath, "State file path")
		configDir := doctorFlags.String("config-dir", brand.SystemConfigDir, "System WireGuard config directory")
		doctorFlags.Parse(os.Args[2:])

		err = cmd.RunDoctor(*statePath, *configDir)

	case "version", "--version", "-v":
		fmt.Printf("%s %s\n", brand.BinaryName, brand.Version)

	case "help", "--help", "-h":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runPeer(sub string, args []string) error {
	switch sub {
	case "add":
		addFlags := flag.NewFlagSet("peer add", flag.ExitOnError)
		statePath := addFlags.String("state", brand.DefaultStatePath, "State file path")
		noPSK := addFlags.Bool("no-psk", false, "Skip preshared key generation")
		addFlags.Parse(args)
		if addFlags.NArg() != 1 {
			return fmt.Errorf("usage: %s peer add [--no-psk] <name>", brand.BinaryName)
		}
		return cmd.RunPeerAdd(*statePath, addFlags.Arg(0), *noPSK)

	case "remove", "rm":
		rmFlags := flag.NewFlagSet("peer remove", flag.ExitOnError)
		statePath := rmFlags.String("state", brand.DefaultStatePath, "State file path")
		rmFlags.Parse(args)
		if rmFlags.NArg() != 1 {
			return fmt.Errorf("usage: %s peer remove <name>", brand.BinaryName)
		}
		return cmd.RunPeerRemove(*statePath, rmFlags.Arg(0))

	case "list", "ls":
		listFlags := flag.NewFlagSet("peer list", flag.ExitOnError)
		statePath := listFlags.String("state", brand.DefaultStatePath, "State file path")
		listFlags.Parse(args)
		return cmd.RunPeerList(*statePath)

	case "show":
		showFlags := flag.NewFlagSet("peer show", flag.ExitOnError)
		statePath := showFlags.String("state", brand.DefaultStatePath, "State file path")
		showFlags.Parse(args)
		if showFlags.NArg() != 1 {
			return fmt.Errorf("usage: %s peer show <name>", brand.BinaryName)
		}
		return cmd.RunPeerShow(*statePath, showFlags.Arg(0))

	default:
		return fmt.Errorf("unknown peer command: %s", sub)
	}
}

func runFirewall(sub string, args []string) error {
	switch sub {
	case "enable":
		enableFlags := flag.NewFlagSet("firewall enable", flag.ExitOnError)
		statePath := enableFlags.String("state", brand.DefaultStatePath, "State file path")
		wan := enableFlags.String("wan", "", "WAN interface (default: auto-detect from default route)")
		enableFlags.Parse(args)
		return cmd.RunFirewallEnable(*statePath, *wan)

	case "disable":
		disableFlags := flag.NewFlagSet("firewall disable", flag.ExitOnError)
		disableFlags.Parse(args)
		return cmd.RunFirewallDisable()

	case "status":
		statusFlags := flag.NewFlagSet("firewall status", flag.ExitOnError)
		verbose := statusFlags.Bool("v", false, "Print the full VPN ruleset")
		statusFlags.Parse(args)
		return cmd.RunFirewallStatus(*verbose)

	default:
		return fmt.Errorf("unknown firewall command: %s", sub)
	}
}

func printUsage() {
	fmt.Printf("%s %s - %s\n\n", brand.Name, brand.Version, brand.Description)
	fmt.Printf("Usage: %s <command> [options]\n\n", brand.BinaryName)
	fmt.Println("Fleet:")
	fmt.Println("  init                  Create a new fleet state file")
	fmt.Println("  peer add <name>       Add a peer (allocates IP, generates keys)")
	fmt.Println("  peer remove <name>    Remove a peer")
	fmt.Println("  peer list             List peers")
	fmt.Println("  peer show <name>      Show one peer's details")
	fmt.Println()
	fmt.Println("Configs:")
	fmt.Println("  export                Write server and client configs to a directory")
	fmt.Println("  apply                 Validate, back up, and install the server config")
	fmt.Println()
	fmt.Println("Interface:")
	fmt.Println("  enable                Bring the WireGuard interface up")
	fmt.Println("  disable               Tear the interface down")
	fmt.Println("  status                Show interface and peer status")
	fmt.Println()
	fmt.Println("Firewall:")
	fmt.Println("  firewall enable       Install VPN iptables chains and jumps")
	fmt.Println("  firewall disable      Remove VPN chains and jumps")
	fmt.Println("  firewall status       Show current firewall posture")
	fmt.Println()
	fmt.Println("Diagnostics:")
	fmt.Println("  doctor                Run host readiness checks")
	fmt.Println("  version               Print version")
	fmt.Println()
	fmt.Printf("State defaults to %s; override with --state.\n", brand.DefaultStatePath)
}
