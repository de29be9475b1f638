// Package config provides the unified configuration system for spawnpool.
// It defines a single BaseConfig structure shared by the pool, the asset
// resolver, and the CLI, ensuring consistent configuration across the
// entire system.
//
// The configuration is organized into logical sections:
//   - Pool: sweep cadence and default per-key policy
//   - Resolver: asset backend selection and connection settings
//   - Observability: metrics, tracing, logging
//
// Example usage:
//
//	cfg := config.NewBaseConfig("game-client", "memory")
//	cfg.Pool.SweepInterval = 5 * time.Second
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"time"
)

// BaseConfig is the single unified configuration structure for a spawnpool
// deployment. Embedders should use the yaml inline tag.
type BaseConfig struct {
	// Name identifies the pool service instance
	Name string `yaml:"name" json:"name"`
	// Backend selects the asset backend type (e.g. "memory", "redis")
	Backend string `yaml:"backend" json:"backend"`
	// Version indicates the configuration version
	Version string `yaml:"version" json:"version"`

	// Pool settings control sweep cadence and default policies
	Pool PoolConfig `yaml:"pool" json:"pool"`

	// Resolver settings configure the asset backend
	Resolver ResolverConfig `yaml:"resolver" json:"resolver"`

	// Observability settings for monitoring and debugging
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// PoolConfig contains the object pool's sweep cadence and the policy
// applied to keys that are spawned without explicit registration.
type PoolConfig struct {
	// SweepInterval is how often the background sweep enforces policy
	SweepInterval time.Duration `yaml:"sweep_interval" json:"sweep_interval"`
	// DefaultInitialCount is the preload count for implicitly registered keys
	DefaultInitialCount uint `yaml:"default_initial_count" json:"default_initial_count"`
	// DefaultMaxCount caps queued instances for implicitly registered keys
	DefaultMaxCount uint `yaml:"default_max_count" json:"default_max_count"`
	// DefaultMaxLifetime bounds how long an idle instance stays queued
	DefaultMaxLifetime time.Duration `yaml:"default_max_lifetime" json:"default_max_lifetime"`
	// HoldingParent names the node inactive instances are reparented under
	HoldingParent string `yaml:"holding_parent" json:"holding_parent"`
}

// ResolverConfig contains asset backend connection and behavior settings.
type ResolverConfig struct {
	// Address of the backend store, for networked backends (host:port)
	Address string `yaml:"address" json:"address"`
	// Password for the backend store, if it requires one
	Password string `yaml:"password" json:"password"`
	// Database index, for backends that have one (Redis)
	Database int `yaml:"database" json:"database"`
	// KeyPrefix namespaces asset payload keys in the backend store
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
	// LoadTimeout bounds a single backend load; zero means no timeout,
	// matching the pool's accepted hung-backend limitation
	LoadTimeout time.Duration `yaml:"load_timeout" json:"load_timeout"`
}

// ObservabilityConfig contains monitoring and observability settings.
type ObservabilityConfig struct {
	// EnableMetrics activates Prometheus metrics collection
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics"`
	// EnableTracing activates OpenTelemetry tracing
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing"`
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate"`
}

// NewBaseConfig creates a BaseConfig with production defaults. The default
// per-key policy matches what Spawn applies when a key was never registered:
// no preload, at most 50 queued instances, 30 second idle lifetime.
func NewBaseConfig(name, backend string) *BaseConfig {
	return &BaseConfig{
		Name:    name,
		Backend: backend,
		Version: "1.0.0",
		Pool: PoolConfig{
			SweepInterval:       10 * time.Second,
			DefaultInitialCount: 0,
			DefaultMaxCount:     50,
			DefaultMaxLifetime:  30 * time.Second,
			HoldingParent:       "pool_holding",
		},
		Resolver: ResolverConfig{
			Address:     "localhost:6379",
			Database:    0,
			KeyPrefix:   "asset:",
			LoadTimeout: 0,
		},
		Observability: ObservabilityConfig{
			EnableMetrics:     true,
			EnableTracing:     false,
			LogLevel:          "info",
			TracingSampleRate: 0.1,
		},
	}
}

// Validate checks required fields and value ranges. Callers should invoke
// it after loading configuration to catch errors early.
func (bc *BaseConfig) Validate() error {
	if bc.Name == "" {
		return fmt.Errorf("name is required")
	}
	if bc.Backend == "" {
		return fmt.Errorf("backend is required")
	}
	if bc.Pool.SweepInterval <= 0 {
		return fmt.Errorf("sweep_interval must be positive")
	}
	if bc.Pool.DefaultMaxCount == 0 {
		return fmt.Errorf("default_max_count must be positive")
	}
	if bc.Pool.DefaultMaxLifetime <= 0 {
		return fmt.Errorf("default_max_lifetime must be positive")
	}
	if bc.Observability.TracingSampleRate < 0 || bc.Observability.TracingSampleRate > 1 {
		return fmt.Errorf("tracing_sample_rate must be between 0 and 1")
	}
	return nil
}
