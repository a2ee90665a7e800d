package testutil

import (
	"testing"

	"github.com/kdpb/inject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertResolvable resolves key as T and fails the test on error.
func AssertResolvable[T any](t *testing.T, r inject.Resolver, key inject.Key) T {
	t.Helper()
	v, err := inject.Resolve[T](r, key)
	require.NoError(t, err, "failed to resolve %q", key)
	return v
}

// AssertMissingBinding checks that resolving key fails with a missing
// binding error.
func AssertMissingBinding(t *testing.T, r inject.Resolver, key inject.Key) {
	t.Helper()
	_, err := r.Resolve(key)
	require.Error(t, err)
	assert.True(t, inject.IsMissingBinding(err), "expected missing binding error, got: %v", err)
}

// AssertSingleton checks that two resolutions of key are identical.
func AssertSingleton(t *testing.T, r inject.Resolver, key inject.Key) {
	t.Helper()
	first, err := r.Resolve(key)
	require.NoError(t, err)
	second, err := r.Resolve(key)
	require.NoError(t, err)
	assert.Same(t, first, second, "expected %q to resolve to one instance", key)
}

// AssertFactory checks that two resolutions of key are distinct.
func AssertFactory(t *testing.T, r inject.Resolver, key inject.Key) {
	t.Helper()
	first, err := r.Resolve(key)
	require.NoError(t, err)
	second, err := r.Resolve(key)
	require.NoError(t, err)
	assert.NotSame(t, first, second, "expected %q to resolve to new instances", key)
}

// AssertKeys checks the container's bound keys regardless of order.
func AssertKeys(t *testing.T, c *inject.Container, keys ...inject.Key) {
	t.Helper()
	assert.ElementsMatch(t, keys, c.Keys())
}
