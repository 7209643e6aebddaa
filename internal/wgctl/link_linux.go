//go:build linux

package wgctl

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/vishvananda/netlink"
	"golang.zx2c4.com/wireguard/wgctrl"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"grimm.is/wgfleet/internal/fleet"
	"grimm.is/wgfleet/internal/logging"
)

// LinkController is the netlink+wgctrl implementation of Controller.
type LinkController struct {
	log *logging.Logger

	// Euid is overridable so privileged paths are testable without root.
	Euid func() int
}

// New returns the platform controller.
func New() Controller {
	return &LinkController{
		log:  logging.WithComponent("wgctl"),
		Euid: os.Geteuid,
	}
}

func (c *LinkController) Exists(iface string) (bool, error) {
	if _, err := netlink.LinkByName(iface); err != nil {
		if _, ok := err.(netlink.LinkNotFoundError); ok {
			return false, nil
		}
		return false, fmt.Errorf("query link %s: %w", iface, err)
	}
	return true, nil
}

func (c *LinkController) Up(st *fleet.State) error {
	if c.Euid() != 0 {
		return fmt.Errorf("bring up %s: %w (run with sudo)", st.Server.Interface, fleet.ErrPermission)
	}

	iface := st.Server.Interface

	link, err := c.ensureLink(iface)
	if err != nil {
		return err
	}
	if err := c.configureDevice(st); err != nil {
		return err
	}
	if err := c.ensureAddress(link, st.Server.Address); err != nil {
		return err
	}
	if err := netlink.LinkSetUp(link); err != nil {
		return fmt.Errorf("set %s up: %w", iface, err)
	}

	c.log.Info("interface up", "interface", iface, "peers", len(st.Peers))
	return nil
}

func (c *LinkController) Down(iface string) error {
	if c.Euid() != 0 {
		return fmt.Errorf("bring down %s: %w (run with sudo)", iface, fleet.ErrPermission)
	}

	link, err := netlink.LinkByName(iface)
	if err != nil {
		if _, ok := err.(netlink.LinkNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("query link %s: %w", iface, err)
	}
	if err := netlink.LinkDel(link); err != nil {
		return fmt.Errorf("delete link %s: %w", iface, err)
	}

	c.log.Info("interface down", "interface", iface)
	return nil
}

func (c *LinkController) Show(iface string) (string, error) {
	client, err := wgctrl.New()
	if err != nil {
		return "", fmt.Errorf("%w: open wgctrl: %v", fleet.ErrExternalTool, err)
	}
	defer client.Close()

	dev, err := client.Device(iface)
	if err != nil {
		if strings.Contains(err.Error(), "no such device") || os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("query device %s: %w", iface, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "interface: %s\n", dev.Name)
	fmt.Fprintf(&b, "  public key: %s\n", dev.PublicKey)
	fmt.Fprintf(&b, "  listening port: %d\n", dev.ListenPort)
	for _, p := range dev.Peers {
		fmt.Fprintf(&b, "\npeer: %s\n", p.PublicKey)
		if p.Endpoint != nil {
			fmt.Fprintf(&b, "  endpoint: %s\n", p.Endpoint)
		}
		allowed := make([]string, len(p.AllowedIPs))
		for i, ipn := range p.AllowedIPs {
			allowed[i] = ipn.String()
		}
		fmt.Fprintf(&b, "  allowed ips: %s\n", strings.Join(allowed, ", "))
		if !p.LastHandshakeTime.IsZero() {
			fmt.Fprintf(&b, "  latest handshake: %s ago\n",
				time.Since(p.LastHandshakeTime).Round(time.Second))
		}
		fmt.Fprintf(&b, "  transfer: %d B received, %d B sent\n",
			p.ReceiveBytes, p.TransmitBytes)
	}
	return b.String(), nil
}

// ensureLink returns the wireguard link, creating it when absent. An
// existing link of a different type is an error, not something to adopt.
func (c *LinkController) ensureLink(iface string) (netlink.Link, error) {
	if existing, err := netlink.LinkByName(iface); err == nil {
		if existing.Type() != "wireguard" {
			return nil, fmt.Errorf("interface %s exists but is %s, not wireguard", iface, existing.Type())
		}
		return existing, nil
	}

	attrs := netlink.NewLinkAttrs()
	attrs.Name = iface
	if err := netlink.LinkAdd(&netlink.Wireguard{LinkAttrs: attrs}); err != nil {
		return nil, fmt.Errorf("create link %s: %w", iface, err)
	}
	link, err := netlink.LinkByName(iface)
	if err != nil {
		return nil, fmt.Errorf("query link %s after create: %w", iface, err)
	}
	return link, nil
}

// configureDevice loads the full fleet state into the kernel device,
// replacing any previous peer set.
func (c *LinkController) configureDevice(st *fleet.State) error {
	client, err := wgctrl.New()
	if err != nil {
		return fmt.Errorf("%w: open wgctrl: %v", fleet.ErrExternalTool, err)
	}
	defer client.Close()

	priv, err := wgtypes.ParseKey(st.Server.PrivateKey)
	if err != nil {
		return fmt.Errorf("server private key: %w", err)
	}
	port := st.Server.ListenPort

	conf := wgtypes.Config{
		PrivateKey:   &priv,
		ListenPort:   &port,
		ReplacePeers: true,
	}

	for _, name := range st.PeerNames() {
		p := st.Peers[name]

		pub, err := wgtypes.ParseKey(p.PublicKey)
		if err != nil {
			c.log.Warn("skipping peer with invalid public key", "peer", name, "error", err)
			continue
		}
		_, ipnet, err := net.ParseCIDR(p.IP)
		if err != nil {
			c.log.Warn("skipping peer with invalid ip", "peer", name, "ip", p.IP)
			continue
		}

		pc := wgtypes.PeerConfig{
			PublicKey:         pub,
			ReplaceAllowedIPs: true,
			AllowedIPs:        []net.IPNet{*ipnet},
		}
		if p.PresharedKey != "" {
			psk, err := wgtypes.ParseKey(p.PresharedKey)
			if err != nil {
				c.log.Warn("ignoring invalid preshared key", "peer", name, "error", err)
			} else {
				pc.PresharedKey = &psk
			}
		}
		conf.Peers = append(conf.Peers, pc)
	}

	if err := client.ConfigureDevice(st.Server.Interface, conf); err != nil {
		return fmt.Errorf("configure device %s: %w", st.Server.Interface, err)
	}
	return nil
}

// ensureAddress adds the server address if the link does not carry it yet.
func (c *LinkController) ensureAddress(link netlink.Link, address string) error {
	addr, err := netlink.ParseAddr(address)
	if err != nil {
		return fmt.Errorf("server address %q: %w", address, err)
	}

	current, err := netlink.AddrList(link, netlink.FAMILY_ALL)
	if err != nil {
		return fmt.Errorf("list addresses: %w", err)
	}
	for _, cur := range current {
		if cur.Equal(*addr) {
			return nil
		}
	}
	if err := netlink.AddrAdd(link, addr); err != nil {
		if strings.Contains(err.Error(), "file exists") {
			return nil
		}
		return fmt.Errorf("add address %s: %w", address, err)
	}
	return nil
}
