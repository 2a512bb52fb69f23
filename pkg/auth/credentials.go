// Package auth persists the key a host was issued when an operator approved it.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Credentials bind a hostname to its issued key.
type Credentials struct {
	Hostname string `json:"hostname,omitempty"`
	Key      string `json:"key"`
}

// Save stores the credentials to disk with 0600 permissions. The file is
// replaced atomically so a crash never leaves a truncated key behind.
func (c *Credentials) Save(path string) error {
	if strings.TrimSpace(c.Key) == "" {
		return errors.New("refusing to save empty key")
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".darkan-key-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadCredentials reads credentials from disk. A missing file yields
// os.ErrNotExist.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse key file %s: %w", path, err)
	}
	if creds.Key == "" {
		return nil, fmt.Errorf("key file %s holds no key", path)
	}
	return &creds, nil
}

// ResolveKey returns the explicitly configured key, else the key stored in
// path. No key at all means the host submits anonymously.
func ResolveKey(key, path, hostname string) (string, error) {
	if key != "" {
		return key, nil
	}
	if path == "" {
		return "", nil
	}
	creds, err := LoadCredentials(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if creds.Hostname != "" && hostname != "" && creds.Hostname != hostname {
		return "", fmt.Errorf("key file %s belongs to %s, not %s", path, creds.Hostname, hostname)
	}
	return creds.Key, nil
}
