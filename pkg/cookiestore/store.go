// Package cookiestore persists browser session cookies between runs as a
// JSON file.
package cookiestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/entrhq/kagisearch/pkg/config"
	"github.com/entrhq/kagisearch/pkg/engine"
)

// Store provides persistence for session cookies.
type Store interface {
	// Exists reports whether a cookie file has been saved
	Exists() bool

	// Load reads the saved cookies
	Load() ([]engine.Cookie, error)

	// Save replaces the saved cookies
	Save(cookies []engine.Cookie) error
}

// FileStore implements Store using a JSON file holding an array of cookies.
type FileStore struct {
	path string
	mu   sync.RWMutex
}

// NewFileStore creates a new file-based cookie store.
// If path is empty, defaults to ~/.kagisearch/cookies.json
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}
	return &FileStore{path: path}, nil
}

// DefaultPath returns ~/.kagisearch/cookies.json.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".kagisearch", "cookies.json"), nil
}

// Exists reports whether the cookie file is present.
func (s *FileStore) Exists() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the cookies from disk. A missing file is os.ErrNotExist.
func (s *FileStore) Load() ([]engine.Cookie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to open cookie file: %w", err)
	}
	defer file.Close()

	var cookies []engine.Cookie
	if err := json.NewDecoder(file).Decode(&cookies); err != nil {
		return nil, fmt.Errorf("failed to decode cookie file: %w", err)
	}
	return cookies, nil
}

// Save writes the cookies to disk, readable by the owner only.
func (s *FileStore) Save(cookies []engine.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cookies == nil {
		cookies = []engine.Cookie{}
	}
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}
	return config.WriteFileAtomic(s.path, append(data, '\n'), 0600)
}

// Path returns the file path of the store.
func (s *FileStore) Path() string {
	return s.path
}
