package testutil

import (
	"testing"

	"github.com/kdpb/inject"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// NewContainer creates a container logging to the test output.
func NewContainer(t *testing.T, tags ...inject.Tag) *inject.Container {
	t.Helper()

	c := inject.NewContainer(
		inject.WithTags(tags...),
		inject.WithLogger(zaptest.NewLogger(t, zaptest.Level(zap.DebugLevel))),
	)
	t.Cleanup(func() { _ = c.Close() })

	return c
}

// MustRegister registers ctor in cat and fails the test on error.
func MustRegister(t *testing.T, cat *inject.Catalog, ctor any, opts ...inject.Option) *inject.Descriptor {
	t.Helper()

	d, err := cat.Register(ctor, opts...)
	require.NoError(t, err)
	require.NotNil(t, d)

	return d
}

// Discover runs discovery over root and fails the test on error.
func Discover(t *testing.T, cat *inject.Catalog, root string, c *inject.Container) inject.Report {
	t.Helper()

	report, err := cat.Discover(root, c)
	require.NoError(t, err)

	return report
}
