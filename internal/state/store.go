// Package state persists the fleet document as JSON. The file is the single
// durable record: it is loaded whole at the start of an operation and saved
// whole at the end, with an atomic rename so a crash never leaves a partial
// document behind.
package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"grimm.is/wgfleet/internal/fleet"
)

// Load reads and decodes a state file. Unknown fields are rejected rather
// than silently dropped, so a hand-edited document with a typo fails loudly
// instead of losing data on the next save.
func Load(path string) (*fleet.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var st fleet.State
	if err := dec.Decode(&st); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", path, err)
	}

	if err := checkShape(&st); err != nil {
		return nil, fmt.Errorf("state %s: %w", path, err)
	}
	if st.Peers == nil {
		st.Peers = make(map[string]*fleet.Peer)
	}
	return &st, nil
}

// checkShape rejects documents that decode but are structurally unusable.
func checkShape(st *fleet.State) error {
	if st.NetworkCIDR == "" {
		return fmt.Errorf("missing network_cidr")
	}
	if st.Server.Interface == "" && st.Server.Address == "" && st.Server.PrivateKey == "" {
		return fmt.Errorf("missing server block")
	}
	for key, p := range st.Peers {
		if p == nil {
			return fmt.Errorf("peer %q: empty record", key)
		}
		if p.Name == "" {
			return fmt.Errorf("peer %q: missing name field", key)
		}
		if p.Name != key {
			return fmt.Errorf("peer %q: name field %q does not match key", key, p.Name)
		}
	}
	return nil
}

// Save writes the state document atomically: marshal, write a temp file in
// the target directory, then rename over the destination. Mode 0600 since
// the document holds private keys.
func Save(st *fleet.State, path string) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("install state: %w", err)
	}
	return nil
}

// Exists reports whether a state file is present.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
