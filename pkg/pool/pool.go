// Package pool provides an asynchronous keyed object pool for spawned
// asset instances. Each key owns a FIFO queue of inactive instances, a
// per-instance last-returned timestamp, and a capacity/lifetime policy; a
// background sweep enforces policy by releasing expired or overflowing
// instances to the asset resolver.
//
// The pool is the sole owner of every inactive instance. An instance is
// owned by exactly one of {caller, pool, released} at any time: it is never
// handed out twice without an intervening despawn, and never left neither
// active nor queued. The pool lock is never held across a resolver call, so
// sweeps and other spawns are free to run while an instantiate is in
// flight.
//
// Example:
//
//	p := pool.New(cfg.Pool, resolver, logger.Get())
//	defer p.Close()
//
//	_ = p.Register("enemy", 2, 5, 30*time.Second)
//
//	inst, err := p.Spawn(ctx, "enemy", asset.Transform{Parent: "battlefield"})
//	if err != nil {
//	    return err
//	}
//	// ... use inst ...
//	_ = p.Despawn(inst)
package pool

import (
	"context"
	"sync"
	"time"

	"github.com/eapache/queue"
	"go.uber.org/zap"

	"github.com/playforge/spawnpool/pkg/asset"
	"github.com/playforge/spawnpool/pkg/config"
	"github.com/playforge/spawnpool/pkg/metrics"
	"github.com/playforge/spawnpool/pkg/observability"
	"github.com/playforge/spawnpool/pkg/poolerrors"
)

// Policy is the per-key pool configuration.
type Policy struct {
	// Key names the asset and its pool.
	Key string
	// InitialCount is how many instances to preload after registration.
	InitialCount uint
	// MaxCount caps how many inactive instances may stay queued.
	MaxCount uint
	// MaxLifetime bounds how long an instance may sit queued before the
	// sweep releases it. Zero disables lifetime eviction: instances stay
	// queued until capacity pressure or an explicit clear removes them.
	MaxLifetime time.Duration
}

// keyPool is one key's queue, timestamps, and policy. Every instance in
// queue is inactive and has an entry in lastReturned; the sweep and the
// spawn/despawn paths maintain that duality.
type keyPool struct {
	policy       Policy
	queue        *queue.Queue
	lastReturned map[string]time.Time
}

// Pool coordinates spawn/despawn traffic, preloading, and the background
// sweep across all keys. Create with New, tear down with Close.
type Pool struct {
	cfg      config.PoolConfig
	resolver *asset.Resolver
	logger   *zap.Logger
	tracer   *observability.PoolTracer

	mu     sync.Mutex
	pools  map[string]*keyPool
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a pool and starts its background sweep loop.
func New(cfg config.PoolConfig, resolver *asset.Resolver, log *zap.Logger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	p := &Pool{
		cfg:      cfg,
		resolver: resolver,
		logger:   log.With(zap.String("component", "object_pool")),
		tracer:   observability.NewPoolTracer("pool"),
		pools:    make(map[string]*keyPool),
		ctx:      ctx,
		cancel:   cancel,
	}

	p.wg.Add(1)
	go p.sweepLoop()

	return p
}

// Register creates the policy and empty queue for a key and preloads
// InitialCount instances asynchronously. Registering an existing key is a
// logged no-op returning a duplicate_key error; use UpdatePolicy to change
// settings.
func (p *Pool) Register(key string, initialCount, maxCount uint, maxLifetime time.Duration) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return poolerrors.New(poolerrors.ErrorTypeClosed, "pool is closed")
	}
	if _, exists := p.pools[key]; exists {
		p.mu.Unlock()
		p.logger.Warn("pool already registered", zap.String("key", key))
		return poolerrors.New(poolerrors.ErrorTypeDuplicateKey, "pool already registered").
			WithDetail("key", key)
	}

	p.pools[key] = &keyPool{
		policy: Policy{
			Key:          key,
			InitialCount: initialCount,
			MaxCount:     maxCount,
			MaxLifetime:  maxLifetime,
		},
		queue:        queue.New(),
		lastReturned: make(map[string]time.Time),
	}
	p.mu.Unlock()

	p.logger.Info("pool registered",
		zap.String("key", key),
		zap.Uint("initial_count", initialCount),
		zap.Uint("max_count", maxCount),
		zap.Duration("max_lifetime", maxLifetime))

	if initialCount > 0 {
		p.wg.Add(1)
		go p.preload(key, initialCount)
	}

	return nil
}

// UpdatePolicy mutates an existing policy's capacity and lifetime, then
// runs an immediate sweep so stricter limits take effect without waiting
// for the periodic timer.
func (p *Pool) UpdatePolicy(key string, maxCount uint, maxLifetime time.Duration) error {
	p.mu.Lock()
	kp, exists := p.pools[key]
	if !exists {
		p.mu.Unlock()
		p.logger.Warn("policy update for unknown key", zap.String("key", key))
		return poolerrors.New(poolerrors.ErrorTypeUnknownKey, "no pool registered").
			WithDetail("key", key)
	}
	kp.policy.MaxCount = maxCount
	kp.policy.MaxLifetime = maxLifetime
	p.mu.Unlock()

	p.logger.Info("pool policy updated",
		zap.String("key", key),
		zap.Uint("max_count", maxCount),
		zap.Duration("max_lifetime", maxLifetime))

	p.Sweep()
	return nil
}

// Spawn returns an instance for key: a queued one when available (FIFO,
// oldest-returned first), otherwise a freshly instantiated one from the
// resolver. Keys never registered are implicitly registered with default
// policy. The pool lock is released before the resolver call, so the
// queue-miss decision is only valid synchronously; an instance despawned
// while the instantiate is in flight simply waits for the next spawn.
func (p *Pool) Spawn(ctx context.Context, key string, t asset.Transform) (*asset.Instance, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, poolerrors.New(poolerrors.ErrorTypeClosed, "pool is closed")
	}

	kp, exists := p.pools[key]
	if !exists {
		kp = &keyPool{
			policy: Policy{
				Key:          key,
				InitialCount: p.cfg.DefaultInitialCount,
				MaxCount:     p.cfg.DefaultMaxCount,
				MaxLifetime:  p.cfg.DefaultMaxLifetime,
			},
			queue:        queue.New(),
			lastReturned: make(map[string]time.Time),
		}
		p.pools[key] = kp
		p.logger.Debug("implicit pool registration", zap.String("key", key))
	}

	if kp.queue.Length() > 0 {
		inst := kp.queue.Remove().(*asset.Instance)
		delete(kp.lastReturned, inst.ID())
		depth := kp.queue.Length()
		p.mu.Unlock()

		inst.SetTransform(t)
		inst.SetActive(true)

		metrics.SpawnsTotal.WithLabelValues(key, metrics.SourceReuse).Inc()
		metrics.QueueDepth.WithLabelValues(key).Set(float64(depth))
		p.logger.Debug("instance reused",
			zap.String("key", key),
			zap.String("instance_id", inst.ID()),
			zap.Int("queued", depth))
		return inst, nil
	}
	p.mu.Unlock()

	var inst *asset.Instance
	err := p.tracer.TraceOp(ctx, "spawn", key, func(ctx context.Context) error {
		var err error
		inst, err = p.resolver.InstantiateAsync(ctx, key, t)
		return err
	})
	if err != nil {
		metrics.SpawnFailures.WithLabelValues(key).Inc()
		return nil, poolerrors.Wrap(err, poolerrors.ErrorTypeSpawn, "spawn failed").
			WithDetail("key", key)
	}

	metrics.SpawnsTotal.WithLabelValues(key, metrics.SourceNew).Inc()
	return inst, nil
}

// Despawn returns an instance to its key's pool: deactivated, reparented
// under the holding node, enqueued at the back, timestamped. The key comes
// from the instance itself. An instance for a key with no registered pool
// is destroyed immediately rather than queued; a nil instance is a logged
// no-op.
func (p *Pool) Despawn(inst *asset.Instance) error {
	if inst == nil {
		p.logger.Warn("despawn of nil instance")
		return nil
	}

	key := inst.Key()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		inst.SetActive(false)
		p.resolver.ReleaseInstance(inst)
		return poolerrors.New(poolerrors.ErrorTypeClosed, "pool is closed")
	}

	kp, exists := p.pools[key]
	if !exists {
		p.mu.Unlock()
		inst.SetActive(false)
		p.resolver.ReleaseInstance(inst)
		p.logger.Warn("despawn for unregistered key, destroying instance",
			zap.String("key", key),
			zap.String("instance_id", inst.ID()))
		return poolerrors.New(poolerrors.ErrorTypeUnknownKey, "no pool registered, instance destroyed").
			WithDetail("key", key)
	}

	if _, queued := kp.lastReturned[inst.ID()]; queued {
		p.mu.Unlock()
		p.logger.Warn("despawn of already pooled instance",
			zap.String("key", key),
			zap.String("instance_id", inst.ID()))
		return nil
	}

	inst.SetActive(false)
	inst.SetTransform(asset.Transform{Parent: p.cfg.HoldingParent})
	kp.queue.Add(inst)
	kp.lastReturned[inst.ID()] = time.Now()
	depth := kp.queue.Length()
	p.mu.Unlock()

	metrics.DespawnsTotal.WithLabelValues(key).Inc()
	metrics.QueueDepth.WithLabelValues(key).Set(float64(depth))
	p.logger.Debug("instance despawned",
		zap.String("key", key),
		zap.String("instance_id", inst.ID()),
		zap.Int("queued", depth))
	return nil
}

// DespawnAfter schedules a despawn without blocking the caller. At fire
// time the despawn silently skips if the instance is no longer active,
// which is how a delayed return that raced a manual despawn avoids a
// double-enqueue. Pending timers are cancelled when the pool closes;
// scheduling on an already closed pool destroys the instance immediately.
func (p *Pool) DespawnAfter(inst *asset.Instance, delay time.Duration) {
	if inst == nil {
		p.logger.Warn("delayed despawn of nil instance")
		return
	}

	// The closed check and the Add share the lock with Close, so the Add
	// can never race Close's Wait.
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		inst.SetActive(false)
		p.resolver.ReleaseInstance(inst)
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
			if !inst.Active() {
				return
			}
			_ = p.Despawn(inst)
		case <-p.ctx.Done():
		}
	}()
}

// ClearPool drains and releases every queued instance for key. The policy
// is retained, so the key needs no re-registration afterward. Clearing an
// empty or unregistered key is a no-op.
func (p *Pool) ClearPool(key string) {
	p.mu.Lock()
	kp, exists := p.pools[key]
	if !exists {
		p.mu.Unlock()
		return
	}
	drained := drainLocked(kp)
	p.mu.Unlock()

	p.releaseDrained(key, drained)
}

// ClearAll drains and releases every queued instance in every pool,
// retaining all policies.
func (p *Pool) ClearAll() {
	p.mu.Lock()
	drainedByKey := make(map[string][]*asset.Instance, len(p.pools))
	for key, kp := range p.pools {
		drainedByKey[key] = drainLocked(kp)
	}
	p.mu.Unlock()

	for key, drained := range drainedByKey {
		p.releaseDrained(key, drained)
	}
}

// Close stops the sweep loop and all pending preloads and delayed
// despawns, then drains and releases everything. Idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	p.mu.Lock()
	drainedByKey := make(map[string][]*asset.Instance, len(p.pools))
	for key, kp := range p.pools {
		drainedByKey[key] = drainLocked(kp)
	}
	p.mu.Unlock()

	for key, drained := range drainedByKey {
		p.releaseDrained(key, drained)
	}

	p.logger.Info("pool closed")
}

// preload instantiates and immediately despawns initialCount instances so
// they land queued, ready for reuse.
func (p *Pool) preload(key string, initialCount uint) {
	defer p.wg.Done()

	for i := uint(0); i < initialCount; i++ {
		inst, err := p.resolver.InstantiateAsync(p.ctx, key, asset.Transform{Parent: p.cfg.HoldingParent})
		if err != nil {
			p.logger.Warn("preload instantiate failed",
				zap.String("key", key),
				zap.Uint("created", i),
				zap.Error(err))
			return
		}
		if err := p.Despawn(inst); err != nil {
			// Pool closed or key cleared mid-preload; the instance was
			// already destroyed by Despawn's fallback.
			return
		}
	}

	p.logger.Debug("preload complete",
		zap.String("key", key),
		zap.Uint("count", initialCount))
}

// drainLocked empties a key's queue and timestamps, returning the drained
// instances. Caller holds p.mu.
func drainLocked(kp *keyPool) []*asset.Instance {
	if kp.queue.Length() == 0 {
		return nil
	}

	drained := make([]*asset.Instance, 0, kp.queue.Length())
	for kp.queue.Length() > 0 {
		inst := kp.queue.Remove().(*asset.Instance)
		delete(kp.lastReturned, inst.ID())
		drained = append(drained, inst)
	}
	return drained
}

// releaseDrained hands drained instances back to the resolver, outside the
// pool lock.
func (p *Pool) releaseDrained(key string, drained []*asset.Instance) {
	if len(drained) == 0 {
		metrics.QueueDepth.WithLabelValues(key).Set(0)
		return
	}

	for _, inst := range drained {
		p.resolver.ReleaseInstance(inst)
		metrics.EvictionsTotal.WithLabelValues(key, metrics.ReasonClear).Inc()
	}
	metrics.QueueDepth.WithLabelValues(key).Set(0)

	p.logger.Info("pool cleared",
		zap.String("key", key),
		zap.Int("released", len(drained)))
}
