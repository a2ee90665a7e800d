package inject_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/kdpb/inject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderKind(t *testing.T) {
	t.Parallel()

	t.Run("string", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Singleton", inject.Singleton.String())
		assert.Equal(t, "Factory", inject.Factory.String())
		assert.Equal(t, "Unknown(7)", inject.ProviderKind(7).String())
	})

	t.Run("validity", func(t *testing.T) {
		t.Parallel()
		assert.True(t, inject.Singleton.IsValid())
		assert.True(t, inject.Factory.IsValid())
		assert.False(t, inject.ProviderKind(-1).IsValid())
		assert.False(t, inject.ProviderKind(2).IsValid())
	})

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		var k inject.ProviderKind
		require.NoError(t, k.UnmarshalText([]byte("factory")))
		assert.Equal(t, inject.Factory, k)

		require.NoError(t, k.UnmarshalText([]byte("Singleton")))
		assert.Equal(t, inject.Singleton, k)

		err := k.UnmarshalText([]byte("prototype"))
		var kindErr inject.ProviderKindError
		require.True(t, errors.As(err, &kindErr))
		assert.Equal(t, "prototype", kindErr.Value)
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		type config struct {
			Kind inject.ProviderKind `json:"kind"`
		}

		data, err := json.Marshal(config{Kind: inject.Factory})
		require.NoError(t, err)
		assert.JSONEq(t, `{"kind":"Factory"}`, string(data))

		var decoded config
		require.NoError(t, json.Unmarshal([]byte(`{"kind":"singleton"}`), &decoded))
		assert.Equal(t, inject.Singleton, decoded.Kind)

		assert.Error(t, json.Unmarshal([]byte(`{"kind":3}`), &decoded))
	})
}
