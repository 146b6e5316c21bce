package client

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// tokenFileName is the fixed name the token is persisted under, the
// equivalent of the web client's localStorage key.
const tokenFileName = "token"

// TokenStore persists the bearer token across sessions. An empty string from
// Load means unauthenticated.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileTokenStore keeps the token in a file under the user config directory
// (or an explicit directory). It is the default store, giving the Go client
// the same persistence the browser gets from localStorage.
type FileTokenStore struct {
	dir string
}

// NewFileTokenStore stores the token under dir, defaulting to
// <user config dir>/ticket-marketplace.
func NewFileTokenStore(dir string) *FileTokenStore {
	if dir == "" {
		if base, err := os.UserConfigDir(); err == nil {
			dir = filepath.Join(base, "ticket-marketplace")
		} else {
			dir = ".ticket-marketplace"
		}
	}
	return &FileTokenStore{dir: dir}
}

func (s *FileTokenStore) path() string { return filepath.Join(s.dir, tokenFileName) }

func (s *FileTokenStore) Load() (string, error) {
	raw, err := os.ReadFile(s.path())
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func (s *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path(), []byte(token), 0o600)
}

func (s *FileTokenStore) Clear() error {
	err := os.Remove(s.path())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryTokenStore holds the token in memory only; useful in tests and for
// callers that manage persistence themselves.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryTokenStore() *MemoryTokenStore { return &MemoryTokenStore{} }

func (s *MemoryTokenStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	return s.Save("")
}
