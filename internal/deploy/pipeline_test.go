package deploy_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/wgfleet/internal/deploy"
	"grimm.is/wgfleet/internal/fleet"
	"grimm.is/wgfleet/internal/wgctl"
)

func applyState() *fleet.State {
	st := fleet.NewState("10.8.0.0/24", fleet.Server{
		Interface:  "wg0",
		ListenPort: 51820,
		PrivateKey: "SRVPRIV=",
		PublicKey:  "SRVPUB=",
		Address:    "10.8.0.1/24",
	})
	st.Peers["phone"] = &fleet.Peer{
		Name:       "phone",
		PrivateKey: "PHONEPRIV=",
		PublicKey:  "PHONEPUB=",
		IP:         "10.8.0.2/32",
		AllowedIPs: []string{"10.8.0.0/24"},
	}
	return st
}

func newTestPipeline(t *testing.T) (*deploy.Pipeline, *wgctl.Fake, string) {
	t.Helper()
	dir := t.TempDir()
	link := &wgctl.Fake{}
	p := deploy.NewPipeline(dir, link)
	p.Euid = func() int { return 0 }
	p.Now = func() time.Time {
		return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	}
	return p, link, dir
}

func TestApplyInstalls(t *testing.T) {
	p, _, dir := newTestPipeline(t)

	report, err := p.Apply(applyState(), false)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "wg0.conf"), report.Path)
	assert.Empty(t, report.BackupPath)
	assert.False(t, report.Restarted)

	data, err := os.ReadFile(report.Path)
	require.NoError(t, err)
	assert.Equal(t, report.Rendered, string(data))
	assert.Contains(t, string(data), "[Interface]")

	info, err := os.Stat(report.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestApplyLeavesNoTempFile(t *testing.T) {
	p, _, dir := newTestPipeline(t)

	_, err := p.Apply(applyState(), false)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "wg0.conf", entries[0].Name())
}

func TestApplyInvalidStateTouchesNothing(t *testing.T) {
	p, link, dir := newTestPipeline(t)

	st := applyState()
	st.Server.ListenPort = 0
	st.Peers["clone"] = &fleet.Peer{
		Name:       "clone",
		PrivateKey: "X=",
		PublicKey:  "Y=",
		IP:         "10.8.0.2/32",
		AllowedIPs: []string{"10.8.0.0/24"},
	}

	_, err := p.Apply(st, true)

	var verr *fleet.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 2, "every problem is reported in one pass")

	entries, rerr := os.ReadDir(dir)
	require.NoError(t, rerr)
	assert.Empty(t, entries, "a rejected apply must not write")
	assert.Empty(t, link.Ops, "a rejected apply must not touch the interface")
}

func TestApplyNotRoot(t *testing.T) {
	p, _, dir := newTestPipeline(t)
	p.Euid = func() int { return 1000 }

	_, err := p.Apply(applyState(), false)
	assert.ErrorIs(t, err, fleet.ErrPermission)

	entries, rerr := os.ReadDir(dir)
	require.NoError(t, rerr)
	assert.Empty(t, entries)
}

func TestApplyBacksUpExistingConfig(t *testing.T) {
	p, _, dir := newTestPipeline(t)

	target := filepath.Join(dir, "wg0.conf")
	require.NoError(t, os.WriteFile(target, []byte("old contents\n"), 0o600))

	report, err := p.Apply(applyState(), false)
	require.NoError(t, err)

	assert.Equal(t, target+".bak-20260825-120000", report.BackupPath)
	assert.Equal(t, "old contents\n", report.Previous)

	backup, err := os.ReadFile(report.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, "old contents\n", string(backup))

	installed, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, report.Rendered, string(installed))
}

func TestApplyRestartBouncesDownThenUp(t *testing.T) {
	p, link, _ := newTestPipeline(t)
	link.Present = true

	report, err := p.Apply(applyState(), true)
	require.NoError(t, err)
	assert.True(t, report.Restarted)
	assert.Equal(t, []string{"exists wg0", "down wg0", "up wg0"}, link.Ops)
}

func TestApplyRestartFreshInterface(t *testing.T) {
	p, link, _ := newTestPipeline(t)
	link.Present = false

	_, err := p.Apply(applyState(), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"exists wg0", "up wg0"}, link.Ops,
		"an interface that is not up is not brought down first")
}

func TestApplyWithoutRestartLeavesInterfaceAlone(t *testing.T) {
	p, link, _ := newTestPipeline(t)

	_, err := p.Apply(applyState(), false)
	require.NoError(t, err)
	assert.Empty(t, link.Ops)
}

func TestExportAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	st := applyState()
	st.Peers["laptop"] = &fleet.Peer{
		Name:       "laptop",
		PrivateKey: "LAPPRIV=",
		PublicKey:  "LAPPUB=",
		IP:         "10.8.0.3/32",
		AllowedIPs: []string{"10.8.0.0/24"},
	}

	paths, err := deploy.ExportAll(st, dir)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "wg0.conf"), paths[0])
	assert.Equal(t, filepath.Join(dir, "laptop.conf"), paths[1])
	assert.Equal(t, filepath.Join(dir, "phone.conf"), paths[2])

	for _, path := range paths {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), path)
	}

	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())

	client, err := os.ReadFile(filepath.Join(dir, "phone.conf"))
	require.NoError(t, err)
	assert.Contains(t, string(client), "PrivateKey = PHONEPRIV=")
	assert.Contains(t, string(client), "PublicKey = SRVPUB=")
}

func TestExportClientUnknownPeer(t *testing.T) {
	_, err := deploy.ExportClient(applyState(), "ghost", t.TempDir())
	assert.ErrorIs(t, err, fleet.ErrNotFound)
}

func TestExportClientRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	_, err := deploy.ExportClient(applyState(), "../phone", dir)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), ".."))
}
