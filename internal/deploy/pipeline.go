// Package deploy installs rendered configuration into the system-managed
// WireGuard directory and optionally bounces the interface. The pipeline is
// a straight line: validate, check privilege, back up the installed config,
// install atomically, restart. Nothing after validation is retried; the
// backup exists so an operator can restore by hand if a later step fails.
package deploy

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"grimm.is/wgfleet/internal/fleet"
	"grimm.is/wgfleet/internal/logging"
	"grimm.is/wgfleet/internal/wgctl"
)

const backupTimeFormat = "20060102-150405"

// Pipeline applies fleet state to the live system.
type Pipeline struct {
	ConfigDir string
	Link      wgctl.Controller

	log *logging.Logger

	// Euid and Now are overridable for tests.
	Euid func() int
	Now  func() time.Time

	// rename commits the temp file; fault-injectable so interruption of
	// the install step is testable.
	rename func(oldpath, newpath string) error
}

// NewPipeline returns a pipeline targeting the given system directory.
func NewPipeline(configDir string, link wgctl.Controller) *Pipeline {
	return &Pipeline{
		ConfigDir: configDir,
		Link:      link,
		log:       logging.WithComponent("deploy"),
		Euid:      os.Geteuid,
		Now:       time.Now,
		rename:    os.Rename,
	}
}

// Report describes what an apply actually did.
type Report struct {
	Path       string // installed config path
	BackupPath string // "" when there was nothing to back up
	Restarted  bool
	Previous   string // previously installed contents, for diffing
	Rendered   string
}

// Apply runs the full pipeline. A non-empty validation problem list rejects
// the apply before anything on the system is touched.
func (p *Pipeline) Apply(st *fleet.State, restart bool) (*Report, error) {
	if problems := fleet.Validate(st); len(problems) > 0 {
		return nil, &fleet.ValidationError{Problems: problems}
	}

	if p.Euid() != 0 {
		return nil, fmt.Errorf("apply: %w (run with sudo)", fleet.ErrPermission)
	}
	if err := os.MkdirAll(p.ConfigDir, 0o755); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("apply: create %s: %w", p.ConfigDir, fleet.ErrPermission)
		}
		return nil, fmt.Errorf("apply: create %s: %w", p.ConfigDir, err)
	}
	if err := unix.Access(p.ConfigDir, unix.W_OK); err != nil {
		return nil, fmt.Errorf("apply: %s not writable: %w", p.ConfigDir, fleet.ErrPermission)
	}

	iface := st.Server.Interface
	target := filepath.Join(p.ConfigDir, iface+".conf")

	report := &Report{
		Path:     target,
		Rendered: fleet.RenderServerConfig(st),
	}

	// Backup is advisory: its failure must not block the install.
	if prev, err := os.ReadFile(target); err == nil {
		report.Previous = string(prev)
		backup := target + ".bak-" + p.Now().Format(backupTimeFormat)
		if err := os.WriteFile(backup, prev, 0o600); err != nil {
			p.log.Warn("backup failed, continuing", "path", backup, "error", err)
		} else {
			report.BackupPath = backup
		}
	}

	if err := p.install(target, report.Rendered); err != nil {
		return nil, err
	}

	if restart {
		if err := p.bounce(st); err != nil {
			return nil, err
		}
		report.Restarted = true
	}

	p.log.Info("config applied", "path", target, "restarted", report.Restarted)
	return report, nil
}

// install writes the config next to its destination and renames it into
// place, so no reader ever observes a partial file.
func (p *Pipeline) install(target, content string) error {
	tmp, err := os.CreateTemp(p.ConfigDir, filepath.Base(target)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := p.rename(tmpPath, target); err != nil {
		return fmt.Errorf("install config: %w", err)
	}
	return nil
}

// bounce restarts the interface: down first when it is already up, since a
// nominally-active interface can refuse re-up, then up with the new config.
func (p *Pipeline) bounce(st *fleet.State) error {
	iface := st.Server.Interface

	up, err := p.Link.Exists(iface)
	if err != nil {
		return fmt.Errorf("restart %s: %w", iface, err)
	}
	if up {
		if err := p.Link.Down(iface); err != nil {
			return fmt.Errorf("restart %s: %w", iface, err)
		}
	}
	if err := p.Link.Up(st); err != nil {
		return fmt.Errorf("restart %s: %w", iface, err)
	}
	return nil
}
