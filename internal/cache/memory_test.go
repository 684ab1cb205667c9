package cache

import (
	"context"
	"testing"

	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/menu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySnapshotStore(t *testing.T) {
	store := NewMemorySnapshotStore()
	ctx := context.Background()

	_, err := store.Get(ctx, 1)
	assert.ErrorIs(t, err, menu.ErrSnapshotNotFound)

	older, _ := store.NextGeneration(ctx, 1)
	newer, _ := store.NextGeneration(ctx, 1)
	assert.Greater(t, newer, older)

	ok, err := store.Put(ctx, 1, newer, snapshotWith(1, "Fresh"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Put(ctx, 1, older, snapshotWith(1, "Stale"))
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fresh"}, got.Categories)
}

func TestMemorySnapshotStore_SatisfiesLoader(t *testing.T) {
	var _ menu.SnapshotStore = NewMemorySnapshotStore()
	var _ menu.SnapshotStore = (*RedisSnapshotStore)(nil)
}
