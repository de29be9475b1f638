package asset

import "context"

// Backend is the opaque content-addressed asset store. Implementations
// resolve string keys to payloads and mint live instances. All methods may
// perform I/O; Load and Instantiate honor context cancellation. The
// resolver imposes no timeout of its own: a hung backend call hangs the
// corresponding caller.
type Backend interface {
	// Name identifies the backend type for logging and metrics.
	Name() string

	// Load resolves a key to its raw payload.
	Load(ctx context.Context, key string) ([]byte, error)

	// Instantiate creates one live instance bound to key.
	Instantiate(ctx context.Context, key string) (*Instance, error)

	// ReleaseInstance returns ownership of an instance to the backend,
	// destroying it. Must tolerate a nil instance.
	ReleaseInstance(inst *Instance) error

	// Release drops one reference to a loaded (non-instantiated) payload.
	Release(key string) error

	// Close tears down the backend.
	Close() error
}
