package redis

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/gradebook/internal/models"
	"github.com/mmynk/gradebook/internal/storage"
)

// newTestStore connects to REDIS_ADDR under a throwaway key.
func newTestStore(t *testing.T) *RedisStore {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	store, err := New(ctx, Config{Addr: addr, Key: "gradebook:test:" + uuid.NewString()})
	require.NoError(t, err)

	t.Cleanup(func() {
		store.client.Del(ctx, store.key)
		store.Close()
	})
	return store
}

func TestRedisStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrSnapshotNotFound)

	snap := &models.Snapshot{
		Students: []models.StudentRecord{
			{ID: "S001", Name: "Ana", Class: "10A", Grades: map[string]float64{"Math": 80}},
		},
		ClassNames:   []string{"10A"},
		SubjectNames: []string{"Math"},
	}
	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)

	require.NoError(t, store.client.Set(ctx, store.key, "{broken", 0).Err())
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrCorruptSnapshot)
}
