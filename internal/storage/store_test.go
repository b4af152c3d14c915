package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	assert.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", "v1"))
	require.NoError(t, store.Set(ctx, "k", "v2"))

	value, ok, err := store.Get(ctx, "k")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", value)
	assert.Equal(t, 2, store.SetCalls["k"])

	require.NoError(t, store.Remove(ctx, "k"))
	_, ok, _ = store.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryStore_Unavailable(t *testing.T) {
	store := NewMemoryStore()
	store.Unavailable = true
	ctx := context.Background()

	_, _, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, store.Set(ctx, "k", "v"), ErrUnavailable)
	assert.ErrorIs(t, store.Remove(ctx, "k"), ErrUnavailable)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "test.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	assert.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "datosPresupuesto", `{"ingresoMensual":10000}`))
	require.NoError(t, store.Set(ctx, "datosPresupuesto", `{"ingresoMensual":12000}`))

	value, ok, err := store.Get(ctx, "datosPresupuesto")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"ingresoMensual":12000}`, value)

	require.NoError(t, store.Remove(ctx, "datosPresupuesto"))
	_, ok, _ = store.Get(ctx, "datosPresupuesto")
	assert.False(t, ok)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "k", "v"))
	require.NoError(t, store.Close())

	// Reopening runs the migrations again; they must be idempotent.
	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	value, ok, err := store.Get(ctx, "k")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)
}
