// Package auth manages the bearer credential attached to backend requests.
//
// The credential is a single opaque token stored in a file under the user
// config dir. There is no token acquisition flow here; the user supplies the
// token (copilot login) and a rejected credential is cleared so the next run
// asks for a fresh one.
package auth

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Store reads and writes the credential file.
type Store struct {
	path string
}

// NewStore creates a credential store at path. An empty path selects
// DefaultPath.
func NewStore(path string) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &Store{path: path}, nil
}

// DefaultPath returns the per-user credential file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "copilot", "token"), nil
}

// Load returns the held token, or "" when no credential is stored.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Save stores the token, creating the parent directory if needed.
func (s *Store) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(token+"\n"), 0o600)
}

// Clear discards the stored credential. Clearing an absent credential is not
// an error.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
