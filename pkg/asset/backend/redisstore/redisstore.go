// Package redisstore provides an asset backend that fetches
// content-addressed payloads from Redis. Payloads live under
// "<prefix><key>" string values; instances are minted locally once the
// payload is known to exist, since the live object itself is
// process-bound.
package redisstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/playforge/spawnpool/pkg/asset"
	"github.com/playforge/spawnpool/pkg/config"
	"github.com/playforge/spawnpool/pkg/poolerrors"
)

func init() {
	_ = asset.RegisterBackend("redis", func(cfg *config.ResolverConfig) (asset.Backend, error) {
		return New(cfg), nil
	})
}

// Backend is a Redis-backed asset store.
type Backend struct {
	rdb    *redis.Client
	prefix string
}

// New creates a backend from resolver configuration.
func New(cfg *config.ResolverConfig) *Backend {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.Database,
	})
	return &Backend{rdb: rdb, prefix: cfg.KeyPrefix}
}

// NewWithClient wraps an existing client, for tests and embedders that
// manage their own connection.
func NewWithClient(rdb *redis.Client, prefix string) *Backend {
	return &Backend{rdb: rdb, prefix: prefix}
}

// Name implements asset.Backend.
func (b *Backend) Name() string { return "redis" }

// Load implements asset.Backend.
func (b *Backend) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := b.rdb.Get(ctx, b.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, poolerrors.Newf(poolerrors.ErrorTypeBackend, "no payload for key %q", key)
		}
		return nil, poolerrors.Wrap(err, poolerrors.ErrorTypeBackend, "redis get failed").
			WithDetail("key", key)
	}
	return data, nil
}

// Instantiate implements asset.Backend. The payload existence check is the
// only remote operation; the instance itself is a local object.
func (b *Backend) Instantiate(ctx context.Context, key string) (*asset.Instance, error) {
	exists, err := b.rdb.Exists(ctx, b.prefix+key).Result()
	if err != nil {
		return nil, poolerrors.Wrap(err, poolerrors.ErrorTypeBackend, "redis exists failed").
			WithDetail("key", key)
	}
	if exists == 0 {
		return nil, poolerrors.Newf(poolerrors.ErrorTypeBackend, "no payload for key %q", key)
	}
	return asset.NewInstance(key, ""), nil
}

// ReleaseInstance implements asset.Backend. Instances are local; there is
// nothing to tell Redis.
func (b *Backend) ReleaseInstance(inst *asset.Instance) error {
	return nil
}

// Release implements asset.Backend. Payloads in Redis are shared between
// processes, so dropping a local reference does not delete them.
func (b *Backend) Release(key string) error {
	return nil
}

// Close implements asset.Backend.
func (b *Backend) Close() error {
	return b.rdb.Close()
}
