// Package session holds the signed-in user's identity and id token and hands them to
// the editors, which never read credentials from anywhere else.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrUnauthenticated means there is no usable session. Callers send the user to log in;
// nothing in the core retries it.
var ErrUnauthenticated = errors.New("unauthenticated")

// Session is the identity issued at login.
type Session struct {
	UID         string    `json:"uid"`
	IDToken     string    `json:"id_token"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	IssuedAt    time.Time `json:"issued_at"`
}

// Valid reports whether s carries both a uid and a token.
func (s *Session) Valid() bool {
	return s != nil && s.UID != "" && s.IDToken != ""
}

// Accessor returns the current session or ErrUnauthenticated.
type Accessor interface {
	Current(ctx context.Context) (*Session, error)
}

// Static is an Accessor over a fixed session.
type Static struct {
	Session *Session
}

// Current implements Accessor.
func (s Static) Current(context.Context) (*Session, error) {
	if !s.Session.Valid() {
		return nil, ErrUnauthenticated
	}
	out := *s.Session
	return &out, nil
}

// FileStore persists the session as JSON on disk.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store at path. The file is created on first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath is ~/.config/fittrack/session.json (or the OS equivalent).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "fittrack", "session.json"), nil
}

// Path returns the file location.
func (f *FileStore) Path() string {
	return f.path
}

// Current implements Accessor. A missing or unreadable file is ErrUnauthenticated.
func (f *FileStore) Current(context.Context) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("%w: failed to read session file: %v", ErrUnauthenticated, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: corrupt session file: %v", ErrUnauthenticated, err)
	}
	if !s.Valid() {
		return nil, ErrUnauthenticated
	}
	return &s, nil
}

// Save writes s with owner-only permissions.
func (f *FileStore) Save(s *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Clear removes the session file. Clearing an absent session is not an error.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
