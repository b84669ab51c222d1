package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"tilefx/internal/lights"
)

// Store persists the latest discovery sweep as a single JSON snapshot.
// The snapshot is replaced whole; a file that does not parse is an error,
// never a cache miss.
type Store struct {
	mu       sync.Mutex
	filePath string
}

func New(filePath string) *Store {
	return &Store{filePath: filePath}
}

// DefaultPath is the cache location under the user's cache directory.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tilefx", "devices.json"), nil
}

func (s *Store) Path() string {
	return s.filePath
}

// Load returns the cached devices. ok is false when no snapshot exists.
func (s *Store) Load() (devices []lights.DiscoveredDevice, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache %s: %w", s.filePath, err)
	}
	if err := json.Unmarshal(data, &devices); err != nil {
		return nil, false, fmt.Errorf("parse cache %s: %w", s.filePath, err)
	}
	return devices, true, nil
}

// Save replaces the snapshot with devices.
func (s *Store) Save(devices []lights.DiscoveredDevice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if devices == nil {
		devices = []lights.DiscoveredDevice{}
	}
	data, err := json.MarshalIndent(devices, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.filePath)
}

// Invalidate deletes the snapshot. A missing snapshot is not an error.
func (s *Store) Invalidate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
