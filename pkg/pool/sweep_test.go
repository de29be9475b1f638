package pool

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playforge/spawnpool/pkg/asset"
	"github.com/playforge/spawnpool/pkg/asset/backend/memory"
	"github.com/playforge/spawnpool/pkg/config"
	"github.com/playforge/spawnpool/pkg/testutil"
)

func TestBackgroundSweepEnforcesCapacity(t *testing.T) {
	backend := memory.New(memory.Options{})
	backend.Seed("enemy", []byte("enemy-prefab"))
	resolver := asset.NewResolver(backend, testutil.TestLogger(t))

	cfg := config.PoolConfig{
		SweepInterval:       20 * time.Millisecond,
		DefaultInitialCount: 0,
		DefaultMaxCount:     50,
		DefaultMaxLifetime:  30 * time.Second,
		HoldingParent:       "pool_holding",
	}
	p := New(cfg, resolver, testutil.TestLogger(t))
	defer p.Close()

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	require.NoError(t, p.Register("enemy", 0, 2, time.Hour))

	spawned := make([]*asset.Instance, 0, 5)
	for i := 0; i < 5; i++ {
		inst, err := p.Spawn(ctx, "enemy", asset.Transform{})
		require.NoError(t, err)
		spawned = append(spawned, inst)
	}
	for _, inst := range spawned {
		require.NoError(t, p.Despawn(inst))
	}

	testutil.AssertEventually(t, func() bool {
		return p.PoolInfo()["enemy"] == 2
	}, 5*time.Second, "periodic sweep should trim the queue to capacity")
}

func TestSweepMixedCapacityAndLifetime(t *testing.T) {
	p, _, _ := newTestPool(t)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	const lifetime = time.Minute
	require.NoError(t, p.Register("enemy", 0, 3, lifetime))

	// Mint four distinct instances, then return them in two batches: three
	// backdated past their lifetime, one fresh.
	spawned := make([]*asset.Instance, 0, 4)
	for i := 0; i < 4; i++ {
		inst, err := p.Spawn(ctx, "enemy", asset.Transform{})
		require.NoError(t, err)
		spawned = append(spawned, inst)
	}
	for _, inst := range spawned[:3] {
		require.NoError(t, p.Despawn(inst))
	}
	backdate(p, "enemy", lifetime)

	fresh, err := p.Spawn(ctx, "coin", asset.Transform{})
	require.NoError(t, err)
	require.NoError(t, p.Despawn(fresh))

	younger := spawned[3]
	require.NoError(t, p.Despawn(younger))

	p.Sweep()

	// Of the four "enemy" entries: one evicted for capacity (oldest
	// enqueued), two more for lifetime; only the fresh return survives.
	// The "coin" pool is untouched.
	assert.Equal(t, 1, p.PoolInfo()["enemy"])
	assert.Equal(t, 1, p.PoolInfo()["coin"])

	next, err := p.Spawn(ctx, "enemy", asset.Transform{})
	require.NoError(t, err)
	assert.Same(t, younger, next)
}

func TestConcurrentSpawnDespawnNoDoubleIssue(t *testing.T) {
	p, _, _ := newTestPool(t)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	require.NoError(t, p.Register("enemy", 0, 100, time.Hour))

	var (
		mu     sync.Mutex
		held   = make(map[string]bool)
		issues []string
	)

	const workers = 8
	const iterations = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				inst, err := p.Spawn(ctx, "enemy", asset.Transform{})
				if err != nil {
					continue
				}

				mu.Lock()
				if held[inst.ID()] {
					issues = append(issues, inst.ID())
				}
				held[inst.ID()] = true
				mu.Unlock()

				if i%3 == 0 {
					p.Sweep()
				}

				mu.Lock()
				held[inst.ID()] = false
				mu.Unlock()
				_ = p.Despawn(inst)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, issues, "an instance was handed to two holders at once")
}
