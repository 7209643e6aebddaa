// Package doctor runs read-only host diagnostics. Every check reports a
// result instead of failing fast, so one broken prerequisite does not hide
// the others.
package doctor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"grimm.is/wgfleet/internal/fleet"
	"grimm.is/wgfleet/internal/wgctl"
)

// Check is one diagnostic outcome. Fix is a suggested remediation, empty
// when the check passed.
type Check struct {
	Name    string
	OK      bool
	Details string
	Fix     string
}

// Env is the host surface the doctor inspects. Every external touchpoint is
// a field so tests can point checks at fixtures.
type Env struct {
	StatePath     string
	ConfigDir     string
	Link          wgctl.Controller
	LookPath      func(string) (string, error)
	IPForwardPath string
	Euid          func() int
}

// NewEnv returns an Env bound to the real host.
func NewEnv(statePath, configDir string, link wgctl.Controller) *Env {
	return &Env{
		StatePath:     statePath,
		ConfigDir:     configDir,
		Link:          link,
		LookPath:      exec.LookPath,
		IPForwardPath: "/proc/sys/net/ipv4/ip_forward",
		Euid:          os.Geteuid,
	}
}

var (
	privateKeyLine = regexp.MustCompile(`(?m)^PrivateKey\s*=\s*\S+`)
	addressLine    = regexp.MustCompile(`(?m)^Address\s*=\s*\S+`)
)

// Run executes every check against the host. A nil state skips the checks
// that need one; the rest still run.
func (e *Env) Run(st *fleet.State) []Check {
	var checks []Check

	checks = append(checks, e.checkBinary("iptables"))
	checks = append(checks, e.checkStateFile())
	checks = append(checks, e.checkConfigDir())

	if st != nil {
		checks = append(checks, e.checkRenderSanity(st))
		checks = append(checks, e.checkInstalledConfig(st))
		checks = append(checks, e.checkLink(st))
	}

	checks = append(checks, e.checkIPForward())
	checks = append(checks, e.checkRoot())
	return checks
}

func (e *Env) checkBinary(name string) Check {
	path, err := e.LookPath(name)
	if err != nil {
		return Check{
			Name:    "binary:" + name,
			Details: name + " not found in PATH",
			Fix:     "install " + name + " with your distribution's package manager",
		}
	}
	return Check{Name: "binary:" + name, OK: true, Details: path}
}

func (e *Env) checkStateFile() Check {
	info, err := os.Stat(e.StatePath)
	if err != nil {
		return Check{
			Name:    "state:file",
			Details: fmt.Sprintf("no state at %s", e.StatePath),
			Fix:     "run init to create a fleet",
		}
	}
	return Check{
		Name:    "state:file",
		OK:      true,
		Details: fmt.Sprintf("%s (%d bytes)", e.StatePath, info.Size()),
	}
}

func (e *Env) checkConfigDir() Check {
	info, err := os.Stat(e.ConfigDir)
	if err != nil {
		return Check{
			Name:    "fs:config_dir",
			Details: fmt.Sprintf("%s does not exist", e.ConfigDir),
			Fix:     "apply will create it, or mkdir it manually",
		}
	}
	if !info.IsDir() {
		return Check{
			Name:    "fs:config_dir",
			Details: fmt.Sprintf("%s exists but is not a directory", e.ConfigDir),
			Fix:     fmt.Sprintf("remove %s and re-run apply", e.ConfigDir),
		}
	}
	return Check{Name: "fs:config_dir", OK: true, Details: e.ConfigDir}
}

// checkRenderSanity renders the server config in memory and looks for the
// structural lines WireGuard itself insists on.
func (e *Env) checkRenderSanity(st *fleet.State) Check {
	conf := fleet.RenderServerConfig(st)
	var missing []string
	if !strings.Contains(conf, "[Interface]") {
		missing = append(missing, "[Interface] section")
	}
	if !privateKeyLine.MatchString(conf) {
		missing = append(missing, "PrivateKey line")
	}
	if !addressLine.MatchString(conf) {
		missing = append(missing, "Address line")
	}
	if len(missing) > 0 {
		return Check{
			Name:    "conf:sanity",
			Details: "rendered config is missing: " + strings.Join(missing, ", "),
			Fix:     "inspect the state file; the server block is incomplete",
		}
	}
	return Check{Name: "conf:sanity", OK: true, Details: "rendered config is well-formed"}
}

func (e *Env) checkInstalledConfig(st *fleet.State) Check {
	path := filepath.Join(e.ConfigDir, st.Server.Interface+".conf")
	if _, err := os.Stat(path); err != nil {
		return Check{
			Name:    "fs:server_conf",
			Details: fmt.Sprintf("%s not installed", path),
			Fix:     "run apply to install the server config",
		}
	}
	return Check{Name: "fs:server_conf", OK: true, Details: path}
}

func (e *Env) checkLink(st *fleet.State) Check {
	up, err := e.Link.Exists(st.Server.Interface)
	if err != nil {
		return Check{
			Name:    "link:interface",
			Details: fmt.Sprintf("cannot query %s: %v", st.Server.Interface, err),
			Fix:     "run as root, or check that the kernel supports WireGuard",
		}
	}
	if !up {
		return Check{
			Name:    "link:interface",
			Details: st.Server.Interface + " is not up",
			Fix:     "run enable, or apply --restart",
		}
	}
	return Check{Name: "link:interface", OK: true, Details: st.Server.Interface + " is up"}
}

func (e *Env) checkIPForward() Check {
	data, err := os.ReadFile(e.IPForwardPath)
	if err != nil {
		return Check{
			Name:    "sysctl:ip_forward",
			Details: fmt.Sprintf("cannot read %s: %v", e.IPForwardPath, err),
			Fix:     "check that /proc is mounted",
		}
	}
	if strings.TrimSpace(string(data)) != "1" {
		return Check{
			Name:    "sysctl:ip_forward",
			Details: "IPv4 forwarding is disabled; peers cannot reach beyond the server",
			Fix:     "sysctl -w net.ipv4.ip_forward=1 (persist in /etc/sysctl.d)",
		}
	}
	return Check{Name: "sysctl:ip_forward", OK: true, Details: "IPv4 forwarding enabled"}
}

func (e *Env) checkRoot() Check {
	if e.Euid() != 0 {
		return Check{
			Name:    "hint:root",
			Details: "not running as root; apply, enable and firewall commands will refuse",
			Fix:     "re-run with sudo for commands that change the system",
		}
	}
	return Check{Name: "hint:root", OK: true, Details: "running as root"}
}

// Summarize returns pass and fail counts.
func Summarize(checks []Check) (passed, failed int) {
	for _, c := range checks {
		if c.OK {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}
