// Package settings persists small boolean preferences to a YAML file.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// ShowDockBadgeKey controls whether the unread count appears on the dock badge.
const ShowDockBadgeKey = "showDockBadge"

// defaults apply when a key has never been written.
var defaults = map[string]bool{
	ShowDockBadgeKey: true,
}

// Store is a key/value store of booleans backed by a YAML file.
type Store struct {
	mu     sync.RWMutex
	path   string
	values map[string]bool
}

// Open loads the settings file at path. A missing file yields an empty store;
// a corrupt one is logged and replaced on the next write.
func Open(path string) (*Store, error) {
	s := &Store{path: path, values: make(map[string]bool)}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the backing file.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.mu.Lock()
			s.values = make(map[string]bool)
			s.mu.Unlock()
			return nil
		}
		return fmt.Errorf("reading settings: %w", err)
	}

	values := make(map[string]bool)
	if err := yaml.Unmarshal(data, &values); err != nil {
		slog.Warn("corrupt settings file, starting fresh", "path", s.path, "error", err)
		values = make(map[string]bool)
	}

	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

// Bool returns the value for key, falling back to the key's default.
func (s *Store) Bool(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	return defaults[key]
}

// SetBool records value for key and persists the file.
func (s *Store) SetBool(key string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.save()
}

// Delete removes key so it reads as its default again.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return s.save()
}

func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(s.values)
	if err != nil {
		return err
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}
