// Package asset provides the asset resolver: load-by-key with a
// reference-counted cache, and instantiate-by-key producing live instances,
// over an opaque asynchronous backend. The object pool consumes this
// package; it never talks to a backend directly.
package asset

import (
	"strconv"
	"sync"
	"sync/atomic"
)

// Vec3 is a position or euler-rotation vector.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Transform describes where an instance sits when handed to a caller:
// position, rotation, and the name of the parent node it hangs under.
type Transform struct {
	Position Vec3   `json:"position"`
	Rotation Vec3   `json:"rotation"`
	Parent   string `json:"parent"`
}

// Asset is an immutable loaded payload bound to a key. The resolver hands
// out the same *Asset for repeated loads of one key while references remain.
type Asset struct {
	key  string
	data []byte
}

// NewAsset builds an asset. Backends call this after resolving a payload.
func NewAsset(key string, data []byte) *Asset {
	return &Asset{key: key, data: data}
}

// Key returns the asset's key.
func (a *Asset) Key() string { return a.key }

// Data returns the raw payload.
func (a *Asset) Data() []byte { return a.data }

// Instance is a live spawned object bound to a key. At any moment it is
// owned by exactly one of: the caller (active), the pool (inactive, queued),
// or nobody (released back to the backend). The instance carries its own key
// so a despawn never needs a separately supplied, possibly mismatched key.
type Instance struct {
	id     string
	key    string
	name   string
	active atomic.Bool

	mu        sync.Mutex
	transform Transform
}

// NewInstance builds a live, active instance. Backends call this from
// Instantiate. An empty name defaults to the generated id.
func NewInstance(key, name string) *Instance {
	inst := &Instance{
		id:  GenerateID(key),
		key: key,
	}
	if name == "" {
		name = inst.id
	}
	inst.name = name
	inst.active.Store(true)
	return inst
}

// ID returns the unique instance identifier.
func (i *Instance) ID() string { return i.id }

// Key returns the asset key this instance was spawned from.
func (i *Instance) Key() string { return i.key }

// Name returns the instance's display name.
func (i *Instance) Name() string { return i.name }

// Active reports whether the instance is currently held by a caller.
func (i *Instance) Active() bool { return i.active.Load() }

// SetActive flips the activity flag. Owned by the pool; callers should not
// toggle this themselves.
func (i *Instance) SetActive(active bool) { i.active.Store(active) }

// Transform returns the instance's current transform.
func (i *Instance) Transform() Transform {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.transform
}

// SetTransform repositions and reparents the instance.
func (i *Instance) SetTransform(t Transform) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.transform = t
}

var idCounter uint64

// GenerateID returns a process-unique id with the given prefix.
func GenerateID(prefix string) string {
	id := atomic.AddUint64(&idCounter, 1)
	return prefix + "-" + strconv.FormatUint(id, 10)
}
