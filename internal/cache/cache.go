// Package cache persists the session snapshot as a single JSON blob.
//
// The blob is a cache, not a source of truth: the backend remains
// authoritative for the existence and metadata of conversations and folders.
// Writes overwrite the whole blob; when several processes share one cache
// file the last writer wins, with no merge and no versioning. The design
// assumes a single active client per session.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sentinelops/copilot/internal/types"
)

// Error reports a failed snapshot read or write. Callers recover locally: a
// read failure yields an empty snapshot, a write failure is dropped. It is
// never surfaced to the user.
type Error struct {
	Op  string // "load" or "save"
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("session cache %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Store reads and writes the snapshot file.
type Store struct {
	path string
}

// New creates a snapshot store at path.
func New(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the per-user snapshot location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "copilot", "session.json"), nil
}

// Load reads the persisted snapshot. A missing or unreadable file returns an
// empty snapshot along with the *Error describing why; the snapshot is always
// usable.
func (s *Store) Load() (*types.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return types.EmptySnapshot(), &Error{Op: "load", Err: err}
	}

	var snap types.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return types.EmptySnapshot(), &Error{Op: "load", Err: err}
	}

	// Old or hand-edited blobs may omit collections.
	if snap.Conversations == nil {
		snap.Conversations = map[string]*types.Conversation{}
	}
	if snap.Folders == nil {
		snap.Folders = map[string]*types.Folder{}
	}
	return &snap, nil
}

// Save overwrites the snapshot wholesale. The write goes through a temp file
// and rename so a crash never leaves a half-written blob.
func (s *Store) Save(snap *types.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return &Error{Op: "save", Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return &Error{Op: "save", Err: err}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return &Error{Op: "save", Err: err}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return &Error{Op: "save", Err: err}
	}
	return nil
}
