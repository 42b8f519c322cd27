package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LavishGent/linernotes/internal/config"
	"github.com/LavishGent/linernotes/internal/types"
)

func testMemoryConfig() config.MemoryConfig {
	return config.MemoryConfig{
		MaxSizeMB:    16,
		Shards:       8,
		MaxEntrySize: 1024,
	}
}

func sampleEntry(id string, ct types.ContentType, payload string) types.CacheEntry {
	return types.CacheEntry{
		Key:      types.CacheKey{EntityID: id, Type: ct},
		Payload:  payload,
		StoredAt: time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC),
		TTL:      90 * time.Minute,
	}
}

// testStoreContract exercises the behavior every retaining substrate shares.
func testStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	bio := sampleEntry("42", types.Bio(), "British rock band formed in London in 1970.")
	lore := sampleEntry("42", types.FunFact(types.FunFactLore), "Named after a word they liked.")

	t.Run("get missing", func(t *testing.T) {
		_, err := store.Get(ctx, "nope|bio")
		assert.True(t, errors.Is(err, types.ErrCacheMiss), "Get() error = %v, want ErrCacheMiss", err)
	})

	t.Run("put then get", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, bio))
		got, err := store.Get(ctx, bio.Key.String())
		require.NoError(t, err)
		assert.Equal(t, bio.Key, got.Key)
		assert.Equal(t, bio.Payload, got.Payload)
		assert.True(t, bio.StoredAt.Equal(got.StoredAt), "StoredAt = %v, want %v", got.StoredAt, bio.StoredAt)
		assert.Equal(t, bio.TTL, got.TTL)
	})

	t.Run("put replaces", func(t *testing.T) {
		replaced := bio
		replaced.Payload = "updated"
		require.NoError(t, store.Put(ctx, replaced))
		got, err := store.Get(ctx, bio.Key.String())
		require.NoError(t, err)
		assert.Equal(t, "updated", got.Payload)
	})

	t.Run("scan visits all", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, lore))
		seen := map[string]bool{}
		require.NoError(t, store.Scan(ctx, func(e types.CacheEntry) bool {
			seen[e.Key.String()] = true
			return true
		}))
		assert.True(t, seen[bio.Key.String()])
		assert.True(t, seen[lore.Key.String()])
	})

	t.Run("scan stops early", func(t *testing.T) {
		visited := 0
		require.NoError(t, store.Scan(ctx, func(types.CacheEntry) bool {
			visited++
			return false
		}))
		assert.Equal(t, 1, visited)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, lore.Key.String()))
		_, err := store.Get(ctx, lore.Key.String())
		assert.True(t, errors.Is(err, types.ErrCacheMiss))
		assert.NoError(t, store.Delete(ctx, lore.Key.String()), "deleting absent key")
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx))
		_, err := store.Get(ctx, bio.Key.String())
		assert.True(t, errors.Is(err, types.ErrCacheMiss))
	})
}

func TestMemoryStoreContract(t *testing.T) {
	store, err := NewMemoryStore(testMemoryConfig(), 100, nil)
	require.NoError(t, err)
	defer store.Close()

	testStoreContract(t, store)
}

func TestMemoryStoreClosed(t *testing.T) {
	store, err := NewMemoryStore(testMemoryConfig(), 100, nil)
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	if name := store.Name(); name != "memory" {
		t.Errorf("Name() = %s, want memory", name)
	}
	if !store.IsAvailable() {
		t.Error("IsAvailable() = false, want true")
	}

	store.Close()

	if store.IsAvailable() {
		t.Error("IsAvailable() = true, want false after close")
	}
	if err := store.Put(context.Background(), sampleEntry("a", types.Bio(), "v")); !errors.Is(err, types.ErrClosed) {
		t.Errorf("Put() error = %v, want ErrClosed", err)
	}
	if _, err := store.Get(context.Background(), "a|bio"); !errors.Is(err, types.ErrClosed) {
		t.Errorf("Get() error = %v, want ErrClosed", err)
	}
}

func TestMemoryStoreDefaults(t *testing.T) {
	store, err := NewMemoryStore(config.MemoryConfig{}, 0, nil)
	if err != nil {
		t.Fatalf("NewMemoryStore() with zero config error = %v", err)
	}
	defer store.Close()

	if store.config.LifeWindow != defaultLifeWindow {
		t.Errorf("LifeWindow = %v, want %v", store.config.LifeWindow, defaultLifeWindow)
	}
	if store.config.Shards != defaultShards {
		t.Errorf("Shards = %d, want %d", store.config.Shards, defaultShards)
	}
}

func TestDisabledStore(t *testing.T) {
	ctx := context.Background()
	store := NewDisabledStore()

	if err := store.Put(ctx, sampleEntry("a", types.Bio(), "v")); err != nil {
		t.Errorf("Put() error = %v, want nil", err)
	}
	if _, err := store.Get(ctx, "a|bio"); !errors.Is(err, types.ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
	visited := 0
	_ = store.Scan(ctx, func(types.CacheEntry) bool { visited++; return true })
	if visited != 0 {
		t.Errorf("Scan() visited %d, want 0", visited)
	}
	if store.IsAvailable() {
		t.Error("IsAvailable() = true, want false")
	}
}

func TestEntryCodec(t *testing.T) {
	entry := sampleEntry("42", types.FunFact(types.FunFactBehindTheScenes), "Recorded in a barn.")

	data, err := EncodeEntry(entry)
	require.NoError(t, err)

	got, err := DecodeEntry(data)
	require.NoError(t, err)
	assert.Equal(t, entry.Key, got.Key)
	assert.Equal(t, entry.Payload, got.Payload)
	assert.True(t, entry.StoredAt.Equal(got.StoredAt))
	assert.Equal(t, entry.TTL, got.TTL)

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := DecodeEntry([]byte("{not json"))
		assert.True(t, errors.Is(err, types.ErrSerializationFailed))
	})

	t.Run("rejects bad key", func(t *testing.T) {
		_, err := DecodeEntry([]byte(`{"key":"no-separator","payload":"x"}`))
		assert.True(t, errors.Is(err, types.ErrSerializationFailed))
	})
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		substrate string
		wantName  string
	}{
		{"memory", "memory"},
		{"", "memory"},
		{"disabled", "disabled"},
		{"sqlite3", "sqlite3"},
	}
	for _, tt := range tests {
		t.Run(tt.substrate, func(t *testing.T) {
			cfg := config.ForTesting().Cache
			cfg.Substrate = tt.substrate
			store, err := OpenStore(ctx, cfg, nil)
			require.NoError(t, err)
			defer store.Close()
			assert.Equal(t, tt.wantName, store.Name())
		})
	}

	t.Run("unknown", func(t *testing.T) {
		cfg := config.ForTesting().Cache
		cfg.Substrate = "floppy"
		_, err := OpenStore(ctx, cfg, nil)
		assert.Error(t, err)
	})
}
