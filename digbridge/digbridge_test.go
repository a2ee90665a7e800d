package digbridge_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/dig"

	"github.com/kdpb/inject"
	"github.com/kdpb/inject/digbridge"
)

type Settings struct{ DSN string }

type Store struct{ Settings *Settings }

func TestExport(t *testing.T) {
	t.Parallel()

	c := inject.NewContainer()
	defer c.Close()

	settings := &Settings{DSN: "mongodb://db"}
	c.Bind("settings", inject.Singleton, inject.Instance(settings))
	inject.Provide(c, "store", inject.Singleton, func(r inject.Resolver) (*Store, error) {
		s, err := inject.Resolve[*Settings](r, "settings")
		return &Store{Settings: s}, err
	}, "settings")

	d := dig.New()
	require.NoError(t, digbridge.Export(c, d))

	type params struct {
		dig.In

		Store    *Store    `name:"store"`
		Settings *Settings `name:"settings"`
	}

	err := d.Invoke(func(p params) {
		assert.Same(t, settings, p.Settings)
		assert.Same(t, settings, p.Store.Settings)

		fromContainer, err := inject.Resolve[*Store](c, "store")
		require.NoError(t, err)
		assert.Same(t, fromContainer, p.Store)
	})
	require.NoError(t, err)
}

func TestExport_ResolutionError(t *testing.T) {
	t.Parallel()

	c := inject.NewContainer()
	defer c.Close()

	inject.Provide(c, "broken", inject.Factory, func(inject.Resolver) (*Store, error) {
		return nil, errors.New("boom")
	})

	d := dig.New()
	require.NoError(t, digbridge.Export(c, d))

	type params struct {
		dig.In

		Store *Store `name:"broken"`
	}

	err := d.Invoke(func(params) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestExport_NilContainer(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, digbridge.Export(nil, dig.New()), inject.ErrContainerNil)
}
