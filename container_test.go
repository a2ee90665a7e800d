package inject_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kdpb/inject"
	"github.com/kdpb/inject/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu         sync.Mutex
	binds      []inject.Key
	collisions []inject.Key
	skips      map[inject.Key]inject.SkipReason
	resolves   int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{skips: make(map[inject.Key]inject.SkipReason)}
}

func (o *recordingObserver) OnBind(key inject.Key, _ inject.ProviderKind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.binds = append(o.binds, key)
}

func (o *recordingObserver) OnCollision(key inject.Key) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.collisions = append(o.collisions, key)
}

func (o *recordingObserver) OnSkip(key inject.Key, reason inject.SkipReason) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.skips[key] = reason
}

func (o *recordingObserver) OnResolve(inject.Key, inject.ProviderKind, time.Duration, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resolves++
}

func TestContainer_Defaults(t *testing.T) {
	t.Parallel()

	c := inject.NewContainer()
	defer c.Close()

	assert.NotEmpty(t, c.ID())
	assert.NotEqual(t, c.ID(), inject.NewContainer().ID())
	assert.Equal(t, []inject.Tag{inject.DefaultTag}, c.Tags())
	assert.True(t, c.HasTag("DEFAULT"))
	assert.NotNil(t, c.Logger())
	assert.Zero(t, c.Len())

	tagged := inject.NewContainer(inject.WithTags("B", "A"))
	assert.Equal(t, []inject.Tag{"A", "B"}, tagged.Tags())
	assert.False(t, tagged.HasTag(inject.DefaultTag))
}

func TestContainer_Bind(t *testing.T) {
	t.Parallel()

	t.Run("first binding wins", func(t *testing.T) {
		t.Parallel()

		obs := newRecordingObserver()
		c := inject.NewContainer(inject.WithObserver(obs))

		first := &testutil.TestService{ID: "first"}
		second := &testutil.TestService{ID: "second"}

		assert.True(t, c.Bind("service", inject.Singleton, inject.Instance(first)))
		assert.False(t, c.Bind("service", inject.Factory, inject.Instance(second)))

		got := testutil.AssertResolvable[*testutil.TestService](t, c, "service")
		assert.Same(t, first, got)
		assert.Equal(t, []inject.Key{"service"}, obs.binds)
		assert.Equal(t, []inject.Key{"service"}, obs.collisions)

		infos := c.Bindings()
		require.Len(t, infos, 1)
		assert.Equal(t, inject.Singleton, infos[0].Kind)
	})

	t.Run("invalid bindings are ignored", func(t *testing.T) {
		t.Parallel()

		c := inject.NewContainer()
		assert.False(t, c.Bind("", inject.Singleton, inject.Instance(1)))
		assert.False(t, c.Bind("x", inject.Singleton, nil))
		assert.False(t, c.Bind("x", inject.ProviderKind(5), inject.Instance(1)))
		assert.False(t, c.Has("x"))
	})

	t.Run("keys keep binding order", func(t *testing.T) {
		t.Parallel()

		c := inject.NewContainer()
		for _, k := range []inject.Key{"b", "a", "c"} {
			c.Bind(k, inject.Singleton, inject.Instance(string(k)))
		}
		assert.Equal(t, []inject.Key{"b", "a", "c"}, c.Keys())
		assert.True(t, c.Has("a"))
		assert.False(t, c.Has("d"))
	})
}

func TestContainer_ProviderKinds(t *testing.T) {
	t.Parallel()

	counter := &testutil.CountingConstructor{}
	cat := inject.NewCatalog()
	singleton := testutil.MustRegister(t, cat, counter.New, inject.Name("singleton"))
	factory := testutil.MustRegister(t, cat, counter.New, inject.Name("factory"), inject.Kind(inject.Factory))

	c := testutil.NewContainer(t)
	require.True(t, singleton.BindTo(c))
	require.True(t, factory.BindTo(c))

	testutil.AssertSingleton(t, c, "singleton")
	testutil.AssertFactory(t, c, "factory")

	assert.Equal(t, 3, counter.Calls())
}

func TestContainer_SingletonConcurrency(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	c := inject.NewContainer()
	inject.Provide(c, "slow", inject.Singleton, func(inject.Resolver) (*testutil.TestService, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return testutil.NewTestService(), nil
	})

	const workers = 32
	results := make([]*testutil.TestService, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			results[i] = inject.MustResolve[*testutil.TestService](c, "slow")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestContainer_FailedBuildIsNotCached(t *testing.T) {
	t.Parallel()

	var attempts int
	c := inject.NewContainer()
	inject.Provide(c, "flaky", inject.Singleton, func(inject.Resolver) (*testutil.TestService, error) {
		attempts++
		if attempts == 1 {
			return nil, testutil.ErrTest
		}
		return testutil.NewTestService(), nil
	})

	_, err := c.Resolve("flaky")
	require.Error(t, err)
	assert.ErrorIs(t, err, testutil.ErrTest)

	var resErr inject.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, inject.Key("flaky"), resErr.Key)

	testutil.AssertResolvable[*testutil.TestService](t, c, "flaky")
	assert.Equal(t, 2, attempts)
}

func TestContainer_MissingBinding(t *testing.T) {
	t.Parallel()

	c := inject.NewContainer()
	c.Bind("mongo_database", inject.Singleton, inject.Instance(1))
	c.Bind("settings", inject.Singleton, inject.Instance(2))

	testutil.AssertMissingBinding(t, c, "mongo")

	_, err := c.Resolve("mongo")
	var missing inject.MissingBindingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, inject.Key("mongo"), missing.Key)
	assert.Contains(t, err.Error(), "Did you mean")
	assert.Contains(t, err.Error(), "mongo_database")
	assert.NotContains(t, err.Error(), "settings")
}

func TestContainer_CircularDependency(t *testing.T) {
	t.Parallel()

	c := inject.NewContainer()
	inject.Provide(c, "a", inject.Singleton, func(r inject.Resolver) (string, error) {
		v, err := inject.Resolve[string](r, "b")
		return "a" + v, err
	}, "b")
	inject.Provide(c, "b", inject.Singleton, func(r inject.Resolver) (string, error) {
		v, err := inject.Resolve[string](r, "a")
		return "b" + v, err
	}, "a")

	done := make(chan error, 1)
	go func() {
		_, err := c.Resolve("a")
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, inject.IsCircular(err))

		var cycle inject.CircularDependencyError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, []inject.Key{"a", "b"}, cycle.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("resolution of a cycle did not return")
	}

	assert.Error(t, c.Validate())
}

func TestContainer_GenericHelpers(t *testing.T) {
	t.Parallel()

	c := inject.NewContainer()
	c.Bind(inject.KeyOf[*Clock](), inject.Singleton, inject.Instance(&Clock{Name: "utc"}))

	clock, err := inject.ResolveOf[*Clock](c)
	require.NoError(t, err)
	assert.Equal(t, "utc", clock.Name)

	_, err = inject.Resolve[*Plain](c, "clock")
	var mismatch inject.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, inject.Key("clock"), mismatch.Key)

	_, err = inject.Resolve[*Clock](nil, "clock")
	assert.ErrorIs(t, err, inject.ErrResolverNil)

	assert.Panics(t, func() { inject.MustResolve[*Clock](c, "missing") })
}

func TestContainer_Close(t *testing.T) {
	t.Parallel()

	var order []string
	record := func(name string) error {
		order = append(order, name)
		if name == "broken" {
			return testutil.ErrClose
		}
		return nil
	}

	c := inject.NewContainer()
	for _, name := range []string{"first", "broken", "last", "unused"} {
		name := name
		inject.Provide(c, inject.Key(name), inject.Singleton, func(inject.Resolver) (*testutil.TestDatabase, error) {
			return &testutil.TestDatabase{Name: name, OnClose: record}, nil
		})
	}

	for _, k := range []inject.Key{"first", "broken", "last"} {
		_, err := c.Resolve(k)
		require.NoError(t, err)
	}

	err := c.Close()
	require.Error(t, err)
	assert.True(t, errors.Is(err, testutil.ErrClose))
	assert.Equal(t, []string{"last", "broken", "first"}, order)

	assert.NoError(t, c.Close())

	_, err = c.Resolve("first")
	assert.ErrorIs(t, err, inject.ErrContainerClosed)
	assert.False(t, c.Bind("new", inject.Singleton, inject.Instance(1)))
}

func TestContainer_Bindings(t *testing.T) {
	t.Parallel()

	cat := inject.NewCatalog()
	c := clockContainer(t, cat)
	greeter := testutil.MustRegister(t, cat, NewTrailingGreeter, inject.Default(0, "hi"))
	require.True(t, greeter.BindTo(c))

	_, err := c.Resolve("greeter")
	require.NoError(t, err)

	infos := c.Bindings()
	require.Len(t, infos, 3)

	assert.Equal(t, inject.Key("clock"), infos[0].Key)
	assert.True(t, infos[0].Resolved)
	assert.Equal(t, "*inject_test.Clock", infos[0].Type)

	assert.Equal(t, inject.Key("greeter"), infos[1].Key)
	assert.Equal(t, []inject.Key{"clock"}, infos[1].Dependencies)

	assert.Equal(t, inject.Key("memory_store"), infos[2].Key)
	assert.False(t, infos[2].Resolved)
}
