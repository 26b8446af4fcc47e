package memory

import (
	"strconv"
	"strings"
	"sync"

	"github.com/KKaradi/syfhack10year/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// MemoryConfigPath is what an in-memory store reports as its path.
const MemoryConfigPath = ":memory:"

// ConfigStore keeps settings in a map. Tests and throwaway runs use it in
// place of the TOML file.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore copies seed into a new store.
func NewConfigStore(seed map[string]any) *ConfigStore {
	s := &ConfigStore{values: make(map[string]any, len(seed))}
	for k, v := range seed {
		s.values[k] = v
	}
	return s
}

func (s *ConfigStore) lookup(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

// String returns key when it holds a string.
func (s *ConfigStore) String(key string) string {
	str, _ := s.lookup(key).(string)
	return str
}

// Int returns key as an int. Seeds may carry int64, float64 or numeric
// strings; fractions are truncated.
func (s *ConfigStore) Int(key string) int {
	switch v := s.lookup(key).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	}
	return 0
}

func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

func (s *ConfigStore) Unset(key string) error {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}

func (s *ConfigStore) Path() string { return MemoryConfigPath }
