// SPDX-License-Identifier: MIT

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetSet(t *testing.T) {
	store := NewMemoryStore(8)

	store.Set("key1", []byte("value1"), 5*time.Minute)

	val, ok := store.Get("key1")
	require.True(t, ok, "expected to find key1")
	assert.Equal(t, []byte("value1"), val)

	_, ok = store.Get("nonexistent")
	assert.False(t, ok)
}

func TestMemoryStoreLRUEviction(t *testing.T) {
	store := NewMemoryStore(2)

	store.Set("a", []byte("1"), 0)
	store.Set("b", []byte("2"), 0)

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := store.Get("a")
	require.True(t, ok)

	store.Set("c", []byte("3"), 0)

	_, ok = store.Get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = store.Get("a")
	assert.True(t, ok)
	_, ok = store.Get("c")
	assert.True(t, ok)

	assert.Equal(t, int64(1), store.Stats().Evictions)
}

func TestMemoryStoreExpiration(t *testing.T) {
	store := NewMemoryStore(8)

	store.Set("shortlived", []byte("v"), 30*time.Millisecond)

	_, ok := store.Get("shortlived")
	require.True(t, ok)

	time.Sleep(60 * time.Millisecond)

	_, ok = store.Get("shortlived")
	assert.False(t, ok, "expected key to be expired")
}

func TestMemoryStoreZeroTTLNeverExpires(t *testing.T) {
	store := NewMemoryStore(8)
	store.Set("forever", []byte("v"), 0)

	time.Sleep(20 * time.Millisecond)

	_, ok := store.Get("forever")
	assert.True(t, ok)
}

func TestMemoryStoreOverwrite(t *testing.T) {
	store := NewMemoryStore(2)

	store.Set("k", []byte("old"), 0)
	store.Set("k", []byte("new"), 0)

	val, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), val)
	assert.Equal(t, 1, store.Stats().CurrentSize)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore(8)
	store.Set("k", []byte("v"), 0)

	store.Delete("k")

	_, ok := store.Get("k")
	assert.False(t, ok)
}

func TestMemoryStoreStats(t *testing.T) {
	store := NewMemoryStore(8)

	store.Set("k", []byte("v"), 0)
	store.Get("k")
	store.Get("k")
	store.Get("missing")

	stats := store.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, 1, stats.CurrentSize)
}
