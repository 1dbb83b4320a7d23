package osasdk

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// SessionStore persists the authenticated session between runs. Load returns
// nil when no usable session exists; implementations must never return a
// partially populated record, so callers can treat nil as "logged out" without
// further checks.
type SessionStore interface {
	Load() *StoredSession
	Store(session StoredSession) error
	Clear() error
}

// shapeOK reports whether a decoded session carries every field the SDK
// relies on. Records written by older builds or edited by hand are dropped
// rather than trusted.
func shapeOK(s *StoredSession) bool {
	return s != nil &&
		s.User.ID != "" &&
		s.User.ExternalID != "" &&
		s.Tokens.AccessToken != "" &&
		s.Tokens.RefreshToken != "" &&
		!s.Tokens.ExpiresAt.IsZero()
}

// ============================================================
// File-backed store
// ============================================================

// FileSessionStore keeps the session as a JSON document on disk, by default
// under the user's configuration directory. Writes go through a temp file and
// rename so a crash mid-write never leaves a truncated session behind.
type FileSessionStore struct {
	mu   sync.Mutex
	path string
}

// NewFileSessionStore returns a store writing to the given path. An empty
// path selects <user config dir>/osa/session.json.
func NewFileSessionStore(path string) (*FileSessionStore, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "osa", "session.json")
	}
	return &FileSessionStore{path: path}, nil
}

// Load reads and validates the session file. Any read, decode, or shape
// failure yields nil: a session we cannot fully trust is no session.
func (f *FileSessionStore) Load() *StoredSession {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil
	}

	var session StoredSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil
	}
	if !shapeOK(&session) {
		return nil
	}
	return &session
}

// Store writes the session atomically with owner-only permissions.
func (f *FileSessionStore) Store(session StoredSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "session-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, f.path)
}

// Clear removes the session file. A file that is already gone is not an
// error.
func (f *FileSessionStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Path returns the file the store reads and writes.
func (f *FileSessionStore) Path() string {
	return f.path
}

// ============================================================
// In-memory store
// ============================================================

// MemorySessionStore holds the session in process memory only. Useful for
// tests and for callers that manage persistence themselves.
type MemorySessionStore struct {
	mu      sync.Mutex
	session *StoredSession
}

// NewMemorySessionStore returns an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

// Load returns a copy of the held session, or nil when empty or malformed.
func (m *MemorySessionStore) Load() *StoredSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !shapeOK(m.session) {
		return nil
	}
	copied := *m.session
	return &copied
}

// Store replaces the held session.
func (m *MemorySessionStore) Store(session StoredSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &session
	return nil
}

// Clear drops the held session.
func (m *MemorySessionStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}
