package doctor_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/wgfleet/internal/doctor"
	"grimm.is/wgfleet/internal/fleet"
	"grimm.is/wgfleet/internal/state"
	"grimm.is/wgfleet/internal/wgctl"
)

func doctorState() *fleet.State {
	st := fleet.NewState("10.8.0.0/24", fleet.Server{
		Interface:  "wg0",
		ListenPort: 51820,
		PrivateKey: "SRVPRIV=",
		PublicKey:  "SRVPUB=",
		Address:    "10.8.0.1/24",
	})
	return st
}

// healthyEnv builds an Env where every check should pass.
func healthyEnv(t *testing.T, st *fleet.State) *doctor.Env {
	t.Helper()
	dir := t.TempDir()

	statePath := filepath.Join(dir, "state.json")
	require.NoError(t, state.Save(st, statePath))

	configDir := filepath.Join(dir, "wireguard")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	conf := fleet.RenderServerConfig(st)
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "wg0.conf"), []byte(conf), 0o600))

	ipForward := filepath.Join(dir, "ip_forward")
	require.NoError(t, os.WriteFile(ipForward, []byte("1\n"), 0o644))

	return &doctor.Env{
		StatePath:     statePath,
		ConfigDir:     configDir,
		Link:          &wgctl.Fake{Present: true},
		LookPath:      func(name string) (string, error) { return "/usr/sbin/" + name, nil },
		IPForwardPath: ipForward,
		Euid:          func() int { return 0 },
	}
}

func byName(checks []doctor.Check, name string) doctor.Check {
	for _, c := range checks {
		if c.Name == name {
			return c
		}
	}
	return doctor.Check{Name: name + " (missing)"}
}

func TestRunHealthyHost(t *testing.T) {
	st := doctorState()
	env := healthyEnv(t, st)

	checks := env.Run(st)
	passed, failed := doctor.Summarize(checks)
	assert.Equal(t, len(checks), passed)
	assert.Zero(t, failed, "checks: %+v", checks)
}

func TestRunWithoutState(t *testing.T) {
	env := healthyEnv(t, doctorState())
	env.StatePath = filepath.Join(t.TempDir(), "absent.json")

	checks := env.Run(nil)

	c := byName(checks, "state:file")
	assert.False(t, c.OK)
	assert.Contains(t, c.Fix, "init")

	// State-dependent checks are skipped, not failed.
	for _, name := range []string{"conf:sanity", "fs:server_conf", "link:interface"} {
		for _, check := range checks {
			assert.NotEqual(t, name, check.Name)
		}
	}
}

func TestCheckMissingBinary(t *testing.T) {
	st := doctorState()
	env := healthyEnv(t, st)
	env.LookPath = func(string) (string, error) { return "", errors.New("not found") }

	c := byName(env.Run(st), "binary:iptables")
	assert.False(t, c.OK)
	assert.Contains(t, c.Fix, "install")
}

func TestCheckConfigNotInstalled(t *testing.T) {
	st := doctorState()
	env := healthyEnv(t, st)
	require.NoError(t, os.Remove(filepath.Join(env.ConfigDir, "wg0.conf")))

	c := byName(env.Run(st), "fs:server_conf")
	assert.False(t, c.OK)
	assert.Contains(t, c.Fix, "apply")
}

func TestCheckInterfaceDown(t *testing.T) {
	st := doctorState()
	env := healthyEnv(t, st)
	env.Link = &wgctl.Fake{Present: false}

	c := byName(env.Run(st), "link:interface")
	assert.False(t, c.OK)
	assert.Contains(t, c.Details, "not up")
}

func TestCheckIPForwardDisabled(t *testing.T) {
	st := doctorState()
	env := healthyEnv(t, st)
	require.NoError(t, os.WriteFile(env.IPForwardPath, []byte("0\n"), 0o644))

	c := byName(env.Run(st), "sysctl:ip_forward")
	assert.False(t, c.OK)
	assert.Contains(t, c.Fix, "ip_forward=1")
}

func TestCheckRenderSanityCatchesBrokenServer(t *testing.T) {
	st := doctorState()
	st.Server.PrivateKey = ""
	env := healthyEnv(t, st)

	c := byName(env.Run(st), "conf:sanity")
	assert.False(t, c.OK)
	assert.Contains(t, c.Details, "PrivateKey")
}

func TestCheckRootHint(t *testing.T) {
	st := doctorState()
	env := healthyEnv(t, st)
	env.Euid = func() int { return 1000 }

	c := byName(env.Run(st), "hint:root")
	assert.False(t, c.OK)
	assert.Contains(t, c.Fix, "sudo")
}

func TestSummarize(t *testing.T) {
	checks := []doctor.Check{
		{Name: "a", OK: true},
		{Name: "b", OK: false},
		{Name: "c", OK: true},
	}
	passed, failed := doctor.Summarize(checks)
	assert.Equal(t, 2, passed)
	assert.Equal(t, 1, failed)
}
