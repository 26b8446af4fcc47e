package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SeedIsCopied(t *testing.T) {
	seed := map[string]any{"embedding.provider": "hash"}
	store := NewConfigStore(seed)
	seed["embedding.provider"] = "changed"

	assert.Equal(t, "hash", store.String("embedding.provider"))
	assert.Equal(t, MemoryConfigPath, store.Path())
}

func TestConfigStore_Int(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"int":     42,
		"int64":   int64(7),
		"float":   3.9,
		"int_str": " 12 ",
		"bad_str": "twelve",
		"bool":    true,
	})

	tests := map[string]int{
		"int":     42,
		"int64":   7,
		"float":   3,
		"int_str": 12,
		"bad_str": 0,
		"bool":    0,
		"missing": 0,
	}
	for key, want := range tests {
		assert.Equal(t, want, store.Int(key), key)
	}
}

func TestConfigStore_StringIgnoresOtherTypes(t *testing.T) {
	store := NewConfigStore(map[string]any{"timeout": 5})

	assert.Empty(t, store.String("timeout"))
	assert.Empty(t, store.String("missing"))
}

func TestConfigStore_SetUnset(t *testing.T) {
	store := NewConfigStore(nil)

	require.NoError(t, store.Set("index.backend", "sqlite"))
	assert.Equal(t, "sqlite", store.String("index.backend"))

	require.NoError(t, store.Unset("index.backend"))
	assert.Empty(t, store.String("index.backend"))
	assert.NoError(t, store.Unset("index.backend"))
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("embedding.model", fmt.Sprint(n))
		}(i)
		go func() {
			defer wg.Done()
			_ = store.String("embedding.model")
		}()
		go func() {
			defer wg.Done()
			_ = store.Unset("embedding.model")
		}()
	}
	wg.Wait()
}
