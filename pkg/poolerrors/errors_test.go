package poolerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCapturesTypeAndStack(t *testing.T) {
	err := New(ErrorTypeSpawn, "no instance produced")

	require.NotNil(t, err)
	assert.Equal(t, ErrorTypeSpawn, err.Type)
	assert.Equal(t, "spawn: no instance produced", err.Error())
	assert.NotEmpty(t, err.Stack, "stack should be captured at creation")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, ErrorTypeBackend, "asset fetch failed")

	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "backend: asset fetch failed: connection refused", err.Error())
}

func TestWrapNilReturnsNil(t *testing.T) {
	var err *Error = Wrap(nil, ErrorTypeLoad, "ignored")
	assert.Nil(t, err)
}

func TestWrapKeepsExistingStack(t *testing.T) {
	inner := New(ErrorTypeInstantiate, "backend exploded")
	outer := Wrap(inner, ErrorTypeSpawn, "spawn failed")

	require.NotNil(t, outer)
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.True(t, IsType(outer, ErrorTypeSpawn))
}

func TestIsTypeWalksWrappedChains(t *testing.T) {
	base := New(ErrorTypeUnknownKey, "no policy for key")
	wrapped := fmt.Errorf("despawn: %w", base)

	assert.True(t, IsType(wrapped, ErrorTypeUnknownKey))
	assert.False(t, IsType(wrapped, ErrorTypeDuplicateKey))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeUnknownKey))
	assert.False(t, IsType(nil, ErrorTypeUnknownKey))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeDuplicateKey, "pool already registered").
		WithDetail("key", "enemy").
		WithDetail("max_count", 50)

	require.NotNil(t, err.Details)
	assert.Equal(t, "enemy", err.Details["key"])
	assert.Equal(t, 50, err.Details["max_count"])
}
