package state_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/wgfleet/internal/fleet"
	"grimm.is/wgfleet/internal/state"
)

func sampleState() *fleet.State {
	st := fleet.NewState("10.8.0.0/24", fleet.Server{
		Interface:  "wg0",
		ListenPort: 51820,
		PrivateKey: "SRVPRIV=",
		PublicKey:  "SRVPUB=",
		Address:    "10.8.0.1/24",
		Endpoint:   "vpn.example.com:51820",
		DNS:        []string{"1.1.1.1"},
	})
	st.Peers["phone"] = &fleet.Peer{
		Name:         "phone",
		PrivateKey:   "PHONEPRIV=",
		PublicKey:    "PHONEPUB=",
		IP:           "10.8.0.2/32",
		AllowedIPs:   []string{"10.8.0.0/24"},
		PresharedKey: "PHONEPSK=",
	}
	return st
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	st := sampleState()

	require.NoError(t, state.Save(st, path))

	loaded, err := state.Load(path)
	require.NoError(t, err)
	assert.Equal(t, st, loaded)
}

func TestSaveModeOwnerOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, state.Save(sampleState(), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")
	require.NoError(t, state.Save(sampleState(), path))
	assert.True(t, state.Exists(path))
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, state.Save(sampleState(), filepath.Join(dir, "state.json")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	doc := `{
  "network_cidr": "10.8.0.0/24",
  "server": {"interface": "wg0", "listen_port": 51820, "private_key": "a", "public_key": "b", "address": "10.8.0.1/24"},
  "peers": {},
  "extra_field": true
}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	_, err := state.Load(path)
	assert.Error(t, err, "a typo in a hand-edited file must not be silently dropped")
}

func TestLoadRejectsMissingNetwork(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	doc := `{"server": {"interface": "wg0", "listen_port": 51820, "private_key": "a", "public_key": "b", "address": "10.8.0.1/24"}, "peers": {}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	_, err := state.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network_cidr")
}

func TestLoadRejectsPeerKeyMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	doc := `{
  "network_cidr": "10.8.0.0/24",
  "server": {"interface": "wg0", "listen_port": 51820, "private_key": "a", "public_key": "b", "address": "10.8.0.1/24"},
  "peers": {"phone": {"name": "laptop", "private_key": "c", "public_key": "d", "ip": "10.8.0.2/32", "allowed_ips": ["10.8.0.0/24"]}}
}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	_, err := state.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match key")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := state.Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := state.Load(path)
	assert.Error(t, err)
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, state.Exists(filepath.Join(dir, "state.json")))
	assert.False(t, state.Exists(dir), "a directory is not a state file")

	require.NoError(t, state.Save(sampleState(), filepath.Join(dir, "state.json")))
	assert.True(t, state.Exists(filepath.Join(dir, "state.json")))
}
