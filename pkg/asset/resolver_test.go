package asset_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playforge/spawnpool/pkg/asset"
	"github.com/playforge/spawnpool/pkg/asset/backend/memory"
	"github.com/playforge/spawnpool/pkg/poolerrors"
	"github.com/playforge/spawnpool/pkg/testutil"
)

func newResolver(t *testing.T) (*asset.Resolver, *memory.Backend) {
	t.Helper()
	backend := memory.New(memory.Options{})
	backend.Seed("enemy", []byte("enemy-prefab"))
	backend.Seed("coin", []byte("coin-prefab"))
	return asset.NewResolver(backend, testutil.TestLogger(t)), backend
}

func TestLoadAssetCachesAndRefCounts(t *testing.T) {
	r, backend := newResolver(t)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	first, err := r.LoadAsset(ctx, "enemy")
	require.NoError(t, err)
	second, err := r.LoadAsset(ctx, "enemy")
	require.NoError(t, err)

	assert.Same(t, first, second, "repeated loads should return the cached asset")
	assert.Equal(t, 1, backend.Loads(), "backend should be hit once")
	assert.Equal(t, 2, r.Refs("enemy"))
	assert.Equal(t, 1, r.CachedAssets())
}

func TestLoadAssetFailureReturnsTypedError(t *testing.T) {
	r, backend := newResolver(t)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	backend.FailKey("enemy", errors.New("disk on fire"))

	a, err := r.LoadAsset(ctx, "enemy")
	assert.Nil(t, a)
	require.Error(t, err)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeLoad))
	assert.Equal(t, 0, r.CachedAssets(), "failed load must not pollute the cache")
}

func TestReleaseAssetDropsAtZeroRefs(t *testing.T) {
	r, backend := newResolver(t)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	_, err := r.LoadAsset(ctx, "enemy")
	require.NoError(t, err)
	_, err = r.LoadAsset(ctx, "enemy")
	require.NoError(t, err)

	r.ReleaseAsset("enemy")
	assert.Equal(t, 1, r.Refs("enemy"), "one reference should remain")
	assert.Equal(t, 0, backend.ReleasedAssets())

	r.ReleaseAsset("enemy")
	assert.Equal(t, 0, r.Refs("enemy"))
	assert.Equal(t, 1, backend.ReleasedAssets(), "zero refs should release to the backend")

	// Releasing a key that is no longer cached is a warning, not a failure.
	r.ReleaseAsset("enemy")
	assert.Equal(t, 1, backend.ReleasedAssets())
}

func TestReleaseAllAssets(t *testing.T) {
	r, backend := newResolver(t)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	_, err := r.LoadAsset(ctx, "enemy")
	require.NoError(t, err)
	_, err = r.LoadAsset(ctx, "coin")
	require.NoError(t, err)

	r.ReleaseAllAssets()
	assert.Equal(t, 0, r.CachedAssets())
	assert.Equal(t, 2, backend.ReleasedAssets())
}

func TestInstantiateAsync(t *testing.T) {
	r, backend := newResolver(t)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	transform := asset.Transform{
		Position: asset.Vec3{X: 1, Y: 2, Z: 3},
		Parent:   "battlefield",
	}
	inst, err := r.InstantiateAsync(ctx, "enemy", transform)
	require.NoError(t, err)
	require.NotNil(t, inst)

	assert.Equal(t, "enemy", inst.Key())
	assert.True(t, inst.Active())
	assert.Equal(t, transform, inst.Transform())
	assert.Equal(t, 1, backend.LiveInstances())
}

func TestInstantiateAsyncFailure(t *testing.T) {
	r, _ := newResolver(t)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	inst, err := r.InstantiateAsync(ctx, "no-such-key", asset.Transform{})
	assert.Nil(t, inst)
	require.Error(t, err)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeInstantiate))
}

func TestReleaseInstance(t *testing.T) {
	r, backend := newResolver(t)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	inst, err := r.InstantiateAsync(ctx, "enemy", asset.Transform{})
	require.NoError(t, err)

	r.ReleaseInstance(inst)
	assert.Equal(t, 0, backend.LiveInstances())

	// Idempotent on nil and on already-released instances.
	r.ReleaseInstance(nil)
	r.ReleaseInstance(inst)
	assert.Equal(t, 0, backend.LiveInstances())
}

func TestResolverClosedRejectsOperations(t *testing.T) {
	r, _ := newResolver(t)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	require.NoError(t, r.Close())
	require.NoError(t, r.Close(), "close should be idempotent")

	_, err := r.LoadAsset(ctx, "enemy")
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeClosed))

	_, err = r.InstantiateAsync(ctx, "enemy", asset.Transform{})
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeClosed))
}
