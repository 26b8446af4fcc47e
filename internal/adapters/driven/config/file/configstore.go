// Package file stores settings in a TOML document on disk.
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/KKaradi/syfhack10year/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

const (
	// ConfigFileName is the document inside the config directory.
	ConfigFileName = "config.toml"

	defaultDirName = ".syfhack"
)

// ErrKeyConflict is returned when a key would need a table where a value
// sits, or the reverse: "index" and "index.backend" cannot both be set.
var ErrKeyConflict = errors.New("config key conflict")

// ConfigStore maps dotted keys onto nested TOML tables: "embedding.model"
// is the model entry of the [embedding] table. Every Set or Unset rewrites
// the file.
type ConfigStore struct {
	mu   sync.RWMutex
	path string
	tree map[string]any
}

// DefaultConfigDir returns ~/.syfhack.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, defaultDirName), nil
}

// NewConfigStore opens dir/config.toml, creating dir when needed. An empty
// dir selects DefaultConfigDir. A missing file is an empty configuration.
func NewConfigStore(dir string) (*ConfigStore, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultConfigDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	s := &ConfigStore{path: filepath.Join(dir, ConfigFileName)}
	tree, err := readTree(s.path)
	if err != nil {
		return nil, err
	}
	s.tree = tree
	return s, nil
}

func readTree(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	tree := map[string]any{}
	if err := toml.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return tree, nil
}

func (s *ConfigStore) lookup(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	parts := strings.Split(key, ".")
	table := s.tree
	for _, part := range parts[:len(parts)-1] {
		next, ok := table[part].(map[string]any)
		if !ok {
			return nil
		}
		table = next
	}
	return table[parts[len(parts)-1]]
}

// String returns key when it holds a TOML string.
func (s *ConfigStore) String(key string) string {
	str, _ := s.lookup(key).(string)
	return str
}

// Int returns key when it holds a TOML integer.
func (s *ConfigStore) Int(key string) int {
	switch v := s.lookup(key).(type) {
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// Set stores value under key, creating intermediate tables.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := strings.Split(key, ".")
	table := s.tree
	for i, part := range parts[:len(parts)-1] {
		child, exists := table[part]
		if !exists {
			next := map[string]any{}
			table[part] = next
			table = next
			continue
		}
		next, ok := child.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %q is a value, not a table", ErrKeyConflict, strings.Join(parts[:i+1], "."))
		}
		table = next
	}

	leaf := parts[len(parts)-1]
	if _, isTable := table[leaf].(map[string]any); isTable {
		return fmt.Errorf("%w: %q is a table", ErrKeyConflict, key)
	}
	previous, had := table[leaf]
	table[leaf] = value

	if err := s.write(); err != nil {
		if had {
			table[leaf] = previous
		} else {
			delete(table, leaf)
		}
		return err
	}
	return nil
}

// Unset removes key and any tables it leaves empty.
func (s *ConfigStore) Unset(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !prune(s.tree, strings.Split(key, ".")) {
		return nil
	}
	return s.write()
}

// prune deletes the path from table and reports whether anything changed.
func prune(table map[string]any, parts []string) bool {
	head := parts[0]
	if len(parts) == 1 {
		if _, ok := table[head]; !ok {
			return false
		}
		delete(table, head)
		return true
	}

	child, ok := table[head].(map[string]any)
	if !ok || !prune(child, parts[1:]) {
		return false
	}
	if len(child) == 0 {
		delete(table, head)
	}
	return true
}

// write replaces the file through a temporary sibling so a failed encode
// never truncates the existing document. Callers hold the write lock.
func (s *ConfigStore) write() error {
	raw, err := toml.Marshal(s.tree)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ConfigFileName+".*")
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (s *ConfigStore) Path() string { return s.path }
