package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playforge/spawnpool/pkg/asset"
	"github.com/playforge/spawnpool/pkg/config"
	"github.com/playforge/spawnpool/pkg/poolerrors"
)

func newTestStore(t *testing.T) (*Backend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := NewWithClient(rdb, "asset:")
	t.Cleanup(func() { _ = b.Close() })
	return b, mr
}

func TestLoadReturnsStoredPayload(t *testing.T) {
	b, mr := newTestStore(t)
	require.NoError(t, mr.Set("asset:enemy", "enemy-prefab"))

	data, err := b.Load(context.Background(), "enemy")
	require.NoError(t, err)
	assert.Equal(t, []byte("enemy-prefab"), data)
}

func TestLoadMissingKeyIsBackendError(t *testing.T) {
	b, _ := newTestStore(t)

	data, err := b.Load(context.Background(), "missing")
	assert.Nil(t, data)
	require.Error(t, err)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeBackend))
}

func TestInstantiateRequiresPayload(t *testing.T) {
	b, mr := newTestStore(t)
	require.NoError(t, mr.Set("asset:enemy", "enemy-prefab"))

	inst, err := b.Instantiate(context.Background(), "enemy")
	require.NoError(t, err)
	assert.Equal(t, "enemy", inst.Key())
	assert.True(t, inst.Active())

	missing, err := b.Instantiate(context.Background(), "ghost")
	assert.Nil(t, missing)
	require.Error(t, err)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeBackend))
}

func TestReleasesAreLocalNoOps(t *testing.T) {
	b, mr := newTestStore(t)
	require.NoError(t, mr.Set("asset:enemy", "enemy-prefab"))

	inst, err := b.Instantiate(context.Background(), "enemy")
	require.NoError(t, err)

	assert.NoError(t, b.ReleaseInstance(inst))
	assert.NoError(t, b.Release("enemy"))
	assert.True(t, mr.Exists("asset:enemy"), "shared payloads survive a local release")
}

func TestBackendSelfRegisters(t *testing.T) {
	cfg := config.NewBaseConfig("test", "redis")
	backend, err := asset.CreateBackend("redis", &cfg.Resolver)
	require.NoError(t, err)
	assert.Equal(t, "redis", backend.Name())
	assert.NoError(t, backend.Close())
}
