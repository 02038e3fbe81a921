// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"testing"

	"github.com/dhsavell/beat-func/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()

	store, err := NewBadgerStore(t.TempDir(), log.WithComponent("test"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBadgerStoreGetSet(t *testing.T) {
	store := newTestBadgerStore(t)

	store.Set("k", []byte(`{"bpm":98}`), 0)

	val, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"bpm":98}`), val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestBadgerStoreDelete(t *testing.T) {
	store := newTestBadgerStore(t)

	store.Set("k", []byte("v"), 0)
	store.Delete("k")

	_, ok := store.Get("k")
	assert.False(t, ok)
}

func TestBadgerStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	logger := log.WithComponent("test")

	store, err := NewBadgerStore(dir, logger)
	require.NoError(t, err)
	store.Set("k", []byte("v"), 0)
	require.NoError(t, store.Close())

	reopened, err := NewBadgerStore(dir, logger)
	require.NoError(t, err)
	defer reopened.Close()

	val, ok := reopened.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), val)
}

func TestBadgerStoreHealthCheck(t *testing.T) {
	store := newTestBadgerStore(t)
	require.NoError(t, store.HealthCheck(context.Background()))

	require.NoError(t, store.Close())
	assert.Error(t, store.HealthCheck(context.Background()))
}
