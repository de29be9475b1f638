package asset

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/playforge/spawnpool/pkg/metrics"
	"github.com/playforge/spawnpool/pkg/observability"
	"github.com/playforge/spawnpool/pkg/poolerrors"
)

// Resolver resolves keys to loaded assets and live instances through a
// Backend, caching loaded assets with reference counting so repeated loads
// of one key hit the backend once. Backend failures are logged and surfaced
// as typed errors; they never panic and never corrupt resolver state.
type Resolver struct {
	backend Backend
	logger  *zap.Logger
	tracer  *observability.PoolTracer

	mu     sync.Mutex
	cache  map[string]*cachedAsset
	closed bool
}

// cachedAsset pairs a loaded asset with its reference count.
type cachedAsset struct {
	asset *Asset
	refs  int
}

// NewResolver creates a resolver over the given backend.
func NewResolver(backend Backend, log *zap.Logger) *Resolver {
	return &Resolver{
		backend: backend,
		logger:  log.With(zap.String("component", "asset_resolver"), zap.String("backend", backend.Name())),
		tracer:  observability.NewPoolTracer("resolver"),
		cache:   make(map[string]*cachedAsset),
	}
}

// BackendName returns the underlying backend's type name.
func (r *Resolver) BackendName() string {
	return r.backend.Name()
}

// LoadAsset resolves a key to a loaded asset. A cached asset is returned
// with its reference count bumped; a miss delegates to the backend. The
// lock is not held across the backend call, so concurrent first loads of
// one key may both reach the backend; the loser's payload is discarded in
// favor of the cached one.
func (r *Resolver) LoadAsset(ctx context.Context, key string) (*Asset, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, poolerrors.New(poolerrors.ErrorTypeClosed, "resolver is closed")
	}
	if entry, ok := r.cache[key]; ok {
		entry.refs++
		r.mu.Unlock()
		return entry.asset, nil
	}
	r.mu.Unlock()

	ctx, span := r.tracer.StartSpan(ctx, "load", key)
	data, err := r.backend.Load(ctx, key)
	span.End()
	if err != nil {
		wrapped := poolerrors.Wrap(err, poolerrors.ErrorTypeLoad, "asset load failed").
			WithDetail("key", key)
		r.logger.Error("asset load failed", zap.String("key", key), zap.Error(err))
		return nil, wrapped
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.cache[key]; ok {
		entry.refs++
		return entry.asset, nil
	}
	a := NewAsset(key, data)
	r.cache[key] = &cachedAsset{asset: a, refs: 1}
	metrics.AssetCacheSize.WithLabelValues(r.backend.Name()).Set(float64(len(r.cache)))
	return a, nil
}

// InstantiateAsync creates one live instance bound to key, positioned by
// the given transform. Failure is logged and returned as a typed error
// with no instance.
func (r *Resolver) InstantiateAsync(ctx context.Context, key string, t Transform) (*Instance, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, poolerrors.New(poolerrors.ErrorTypeClosed, "resolver is closed")
	}
	r.mu.Unlock()

	timer := metrics.NewTimer()
	ctx, span := r.tracer.StartSpan(ctx, "instantiate", key)
	inst, err := r.backend.Instantiate(ctx, key)
	span.End()
	metrics.ObserveInstantiate(r.backend.Name(), timer.Stop())

	if err != nil {
		wrapped := poolerrors.Wrap(err, poolerrors.ErrorTypeInstantiate, "asset instantiate failed").
			WithDetail("key", key)
		r.logger.Error("asset instantiate failed", zap.String("key", key), zap.Error(err))
		return nil, wrapped
	}

	inst.SetTransform(t)
	r.logger.Debug("instance created",
		zap.String("key", key),
		zap.String("instance_id", inst.ID()))
	return inst, nil
}

// ReleaseInstance returns ownership of an instance to the backend. A nil
// instance is a no-op; release failures are logged, not returned, since
// the caller has already given up ownership.
func (r *Resolver) ReleaseInstance(inst *Instance) {
	if inst == nil {
		return
	}

	if err := r.backend.ReleaseInstance(inst); err != nil {
		r.logger.Warn("instance release failed",
			zap.String("key", inst.Key()),
			zap.String("instance_id", inst.ID()),
			zap.Error(err))
		return
	}

	r.logger.Debug("instance released",
		zap.String("key", inst.Key()),
		zap.String("instance_id", inst.ID()))
}

// ReleaseAsset drops one reference to a loaded asset. The cache entry is
// removed when the count reaches zero. Unknown keys are a logged no-op.
func (r *Resolver) ReleaseAsset(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.cache[key]
	if !ok {
		r.logger.Warn("release of unloaded asset", zap.String("key", key))
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(r.cache, key)
		if err := r.backend.Release(key); err != nil {
			r.logger.Warn("backend asset release failed", zap.String("key", key), zap.Error(err))
		}
	}
	metrics.AssetCacheSize.WithLabelValues(r.backend.Name()).Set(float64(len(r.cache)))
}

// ReleaseAllAssets drops every cached asset regardless of reference count.
func (r *Resolver) ReleaseAllAssets() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.cache {
		if err := r.backend.Release(key); err != nil {
			r.logger.Warn("backend asset release failed", zap.String("key", key), zap.Error(err))
		}
		delete(r.cache, key)
	}
	metrics.AssetCacheSize.WithLabelValues(r.backend.Name()).Set(0)
}

// CachedAssets returns the number of assets currently held by the cache.
func (r *Resolver) CachedAssets() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

// Refs returns the reference count for a cached key, zero if absent.
func (r *Resolver) Refs(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.cache[key]; ok {
		return entry.refs
	}
	return 0
}

// Close releases all cached assets and closes the backend. Idempotent.
func (r *Resolver) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	for key := range r.cache {
		delete(r.cache, key)
	}
	r.mu.Unlock()

	return r.backend.Close()
}
