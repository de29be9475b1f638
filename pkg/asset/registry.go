package asset

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/playforge/spawnpool/pkg/config"
	"github.com/playforge/spawnpool/pkg/logger"
	"github.com/playforge/spawnpool/pkg/poolerrors"
)

// BackendFactory creates a backend instance from resolver configuration.
type BackendFactory func(cfg *config.ResolverConfig) (Backend, error)

// Registry manages backend registration and instantiation. Backends
// self-register from init() so importing a backend package is enough to
// make it selectable by name.
type Registry struct {
	backends map[string]BackendFactory
	mu       sync.RWMutex
	logger   *zap.Logger
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates a new backend registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]BackendFactory),
		logger:   logger.Get().With(zap.String("component", "backend_registry")),
	}
}

// Register registers a backend factory under a type name.
func (r *Registry) Register(name string, factory BackendFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[name]; exists {
		return poolerrors.New(poolerrors.ErrorTypeConfig,
			fmt.Sprintf("backend %s already registered", name))
	}

	r.backends[name] = factory
	r.logger.Info("asset backend registered", zap.String("name", name))
	return nil
}

// Create instantiates a backend by type name.
func (r *Registry) Create(name string, cfg *config.ResolverConfig) (Backend, error) {
	r.mu.RLock()
	factory, exists := r.backends[name]
	r.mu.RUnlock()

	if !exists {
		return nil, poolerrors.New(poolerrors.ErrorTypeConfig,
			fmt.Sprintf("backend %s not found", name))
	}

	backend, err := factory(cfg)
	if err != nil {
		return nil, poolerrors.Wrap(err, poolerrors.ErrorTypeConfig,
			fmt.Sprintf("failed to create backend %s", name))
	}

	return backend, nil
}

// List returns the registered backend type names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	return names
}

// RegisterBackend registers a factory with the global registry.
func RegisterBackend(name string, factory BackendFactory) error {
	return globalRegistry.Register(name, factory)
}

// CreateBackend instantiates a backend from the global registry.
func CreateBackend(name string, cfg *config.ResolverConfig) (Backend, error) {
	return globalRegistry.Create(name, cfg)
}

// ListBackends returns all backend type names in the global registry.
func ListBackends() []string {
	return globalRegistry.List()
}
