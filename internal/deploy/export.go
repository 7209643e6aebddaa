package deploy

import (
	"fmt"
	"os"
	"path/filepath"

	"grimm.is/wgfleet/internal/fleet"
)

// ExportServer writes the rendered server config into a local directory,
// without touching the system install path or requiring privilege.
func ExportServer(st *fleet.State, dir string) (string, error) {
	path := filepath.Join(dir, st.Server.Interface+".conf")
	if err := writeConfig(path, fleet.RenderServerConfig(st)); err != nil {
		return "", err
	}
	return path, nil
}

// ExportClient writes one peer's client config as <dir>/<name>.conf.
func ExportClient(st *fleet.State, peerName, dir string) (string, error) {
	if err := fleet.CheckPeerName(peerName); err != nil {
		return "", err
	}
	conf, err := fleet.RenderClientConfig(st, peerName)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, peerName+".conf")
	if err := writeConfig(path, conf); err != nil {
		return "", err
	}
	return path, nil
}

// ExportAll writes the server config plus every peer config.
func ExportAll(st *fleet.State, dir string) ([]string, error) {
	var paths []string

	path, err := ExportServer(st, dir)
	if err != nil {
		return nil, err
	}
	paths = append(paths, path)

	for _, name := range st.PeerNames() {
		path, err := ExportClient(st, name, dir)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// writeConfig creates the export directory owner-only (configs embed
// private keys) and writes the file 0600.
func writeConfig(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
