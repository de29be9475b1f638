// Package memory provides an in-process asset backend backed by a plain
// map. It is the default backend for tests, examples, and the demo CLI.
// Optional simulated latency and per-key failure injection let tests
// exercise the resolver's asynchronous and error paths deterministically.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playforge/spawnpool/pkg/asset"
	"github.com/playforge/spawnpool/pkg/config"
	"github.com/playforge/spawnpool/pkg/poolerrors"
)

func init() {
	// Self-register so importing this package makes "memory" selectable.
	_ = asset.RegisterBackend("memory", func(_ *config.ResolverConfig) (asset.Backend, error) {
		return New(Options{}), nil
	})
}

// Options configures a memory backend.
type Options struct {
	// Latency is applied to every Load and Instantiate, simulating an
	// asynchronous store. Zero means immediate.
	Latency time.Duration
}

// Backend is a map-backed asset store.
type Backend struct {
	opts Options

	mu           sync.Mutex
	payloads     map[string][]byte
	failing      map[string]error
	live         map[string]*asset.Instance
	loads        int
	instantiates int
	released     int
	closed       bool
}

// New creates an empty memory backend.
func New(opts Options) *Backend {
	return &Backend{
		opts:     opts,
		payloads: make(map[string][]byte),
		failing:  make(map[string]error),
		live:     make(map[string]*asset.Instance),
	}
}

// Name implements asset.Backend.
func (b *Backend) Name() string { return "memory" }

// Seed stores a payload under a key.
func (b *Backend) Seed(key string, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.payloads[key] = payload
}

// FailKey makes every Load/Instantiate of key return err until cleared
// with a nil err.
func (b *Backend) FailKey(key string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failing, key)
		return
	}
	b.failing[key] = err
}

// Load implements asset.Backend.
func (b *Backend) Load(ctx context.Context, key string) ([]byte, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, poolerrors.New(poolerrors.ErrorTypeClosed, "memory backend is closed")
	}
	b.loads++
	if err, ok := b.failing[key]; ok {
		return nil, err
	}
	payload, ok := b.payloads[key]
	if !ok {
		return nil, poolerrors.Newf(poolerrors.ErrorTypeBackend, "no payload for key %q", key)
	}
	return payload, nil
}

// Instantiate implements asset.Backend.
func (b *Backend) Instantiate(ctx context.Context, key string) (*asset.Instance, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, poolerrors.New(poolerrors.ErrorTypeClosed, "memory backend is closed")
	}
	b.instantiates++
	if err, ok := b.failing[key]; ok {
		return nil, err
	}
	if _, ok := b.payloads[key]; !ok {
		return nil, poolerrors.Newf(poolerrors.ErrorTypeBackend, "no payload for key %q", key)
	}

	inst := asset.NewInstance(key, "")
	b.live[inst.ID()] = inst
	return inst, nil
}

// ReleaseInstance implements asset.Backend. Destroying an instance the
// backend does not know is reported as an error; releasing nil is a no-op.
func (b *Backend) ReleaseInstance(inst *asset.Instance) error {
	if inst == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.live[inst.ID()]; !ok {
		return fmt.Errorf("instance %s not owned by backend", inst.ID())
	}
	delete(b.live, inst.ID())
	return nil
}

// Release implements asset.Backend.
func (b *Backend) Release(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.released++
	return nil
}

// Loads returns how many Load calls reached the backend.
func (b *Backend) Loads() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loads
}

// Instantiates returns how many Instantiate calls reached the backend.
func (b *Backend) Instantiates() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.instantiates
}

// LiveInstances returns how many instances the backend has minted and not
// yet destroyed.
func (b *Backend) LiveInstances() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.live)
}

// ReleasedAssets returns how many asset releases the backend has seen.
func (b *Backend) ReleasedAssets() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

// Close implements asset.Backend.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.live = make(map[string]*asset.Instance)
	return nil
}

// wait simulates backend latency, honoring cancellation.
func (b *Backend) wait(ctx context.Context) error {
	if b.opts.Latency <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(b.opts.Latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
