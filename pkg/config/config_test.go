package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseConfigDefaults(t *testing.T) {
	cfg := NewBaseConfig("game-client", "memory")

	assert.Equal(t, "game-client", cfg.Name)
	assert.Equal(t, "memory", cfg.Backend)
	assert.Equal(t, 10*time.Second, cfg.Pool.SweepInterval)
	assert.Equal(t, uint(0), cfg.Pool.DefaultInitialCount)
	assert.Equal(t, uint(50), cfg.Pool.DefaultMaxCount)
	assert.Equal(t, 30*time.Second, cfg.Pool.DefaultMaxLifetime)

	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BaseConfig)
	}{
		{"missing name", func(c *BaseConfig) { c.Name = "" }},
		{"missing backend", func(c *BaseConfig) { c.Backend = "" }},
		{"zero sweep interval", func(c *BaseConfig) { c.Pool.SweepInterval = 0 }},
		{"zero max count", func(c *BaseConfig) { c.Pool.DefaultMaxCount = 0 }},
		{"zero max lifetime", func(c *BaseConfig) { c.Pool.DefaultMaxLifetime = 0 }},
		{"sample rate out of range", func(c *BaseConfig) { c.Observability.TracingSampleRate = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewBaseConfig("game-client", "memory")
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadSubstitutesEnvVars(t *testing.T) {
	t.Setenv("SPAWNPOOL_TEST_ADDR", "redis.internal:6380")

	raw := `
name: game-client
backend: redis
pool:
  default_max_count: 20
resolver:
  address: ${SPAWNPOOL_TEST_ADDR}
  key_prefix: "prefab:"
`
	path := filepath.Join(t.TempDir(), "spawnpool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	var cfg BaseConfig
	require.NoError(t, Load(path, &cfg))

	assert.Equal(t, "redis", cfg.Backend)
	assert.Equal(t, "redis.internal:6380", cfg.Resolver.Address)
	assert.Equal(t, "prefab:", cfg.Resolver.KeyPrefix)
	assert.Equal(t, uint(20), cfg.Pool.DefaultMaxCount)
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("SPAWNPOOL_SET", "value")
	t.Setenv("SPAWNPOOL_EMPTY", "")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"set variable", "addr: ${SPAWNPOOL_SET}", "addr: value"},
		{"empty variable substitutes empty", "x${SPAWNPOOL_EMPTY}y", "xy"},
		{"unset keeps placeholder", "${SPAWNPOOL_NEVER_SET_VAR}", "${SPAWNPOOL_NEVER_SET_VAR}"},
		{"unclosed reference passes through", "a: ${NOPE\nb: ${SPAWNPOOL_SET}", "a: ${NOPE\nb: value"},
		{"empty name is literal", "${}", "${}"},
		{"invalid name char is literal", "${A-B}", "${A-B}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnv(tt.in))
		})
	}
}

func TestLoadKeepsUnsetReferenceVisible(t *testing.T) {
	raw := "name: game-client\nbackend: redis\nresolver:\n  password: ${SPAWNPOOL_ABSENT_SECRET}\n"
	path := filepath.Join(t.TempDir(), "spawnpool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	var cfg BaseConfig
	require.NoError(t, Load(path, &cfg))
	assert.Equal(t, "${SPAWNPOOL_ABSENT_SECRET}", cfg.Resolver.Password,
		"a missing variable should stay visible rather than become empty")
}

func TestLoadMissingFile(t *testing.T) {
	var cfg BaseConfig
	assert.Error(t, Load(filepath.Join(t.TempDir(), "absent.yaml"), &cfg))
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := NewBaseConfig("roundtrip", "memory")
	cfg.Pool.DefaultMaxCount = 7

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Save(path, cfg))

	var loaded BaseConfig
	require.NoError(t, Load(path, &loaded))
	assert.Equal(t, cfg.Pool.DefaultMaxCount, loaded.Pool.DefaultMaxCount)
	assert.Equal(t, cfg.Name, loaded.Name)
}
