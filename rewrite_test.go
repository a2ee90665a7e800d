package inject_test

import (
	"errors"
	"testing"

	"github.com/kdpb/inject"
	"github.com/kdpb/inject/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Clock struct{ Name string }

func NewClock() *Clock { return &Clock{Name: "system"} }

type Greeter struct {
	Clock    *Clock
	Greeting string
}

// clock first, greeting last: the clock reference is not trailing.
func NewLeadingGreeter(clock *Clock, greeting string) *Greeter {
	return &Greeter{Clock: clock, Greeting: greeting}
}

func NewTrailingGreeter(greeting string, clock *Clock) *Greeter {
	return &Greeter{Clock: clock, Greeting: greeting}
}

type Plain struct {
	A int
	B string
}

func NewPlain(a int, b string) *Plain { return &Plain{A: a, B: b} }

type ReportParams struct {
	inject.In

	Clock  *Clock
	Store  DocumentStore `inject:"memory_store"`
	Title  string        `optional:"true"`
	Limit  int
	Hidden *Clock `inject:"-"`
}

type Report struct {
	Params ReportParams
}

func NewReport(p ReportParams) *Report { return &Report{Params: p} }

type memoryStore struct{ docs map[string]string }

func (s *memoryStore) Get(id string) (string, error) {
	doc, ok := s.docs[id]
	if !ok {
		return "", errors.New("not found")
	}
	return doc, nil
}

func clockContainer(t *testing.T, cat *inject.Catalog) *inject.Container {
	t.Helper()

	c := testutil.NewContainer(t)
	clock := testutil.MustRegister(t, cat, NewClock)
	require.True(t, clock.BindTo(c))
	require.True(t, c.Bind("memory_store", inject.Singleton, inject.Instance(DocumentStore(&memoryStore{}))))

	return c
}

func TestConstructor_UnmanagedContractUnchanged(t *testing.T) {
	t.Parallel()

	cat := inject.NewCatalog()
	d := testutil.MustRegister(t, cat, NewPlain)
	ctor := d.Constructor()

	assert.False(t, ctor.Injecting())
	assert.Equal(t, []string{"#0 (int)", "#1 (string)"}, ctor.Required())

	t.Run("same arguments same result", func(t *testing.T) {
		v, err := ctor.Call(nil, 3, "x")
		require.NoError(t, err)
		assert.Equal(t, NewPlain(3, "x"), v)
	})

	t.Run("missing argument", func(t *testing.T) {
		_, err := ctor.Call(nil, 3)
		assert.ErrorIs(t, err, inject.ErrMissingArgument)

		var argErr inject.ArgumentError
		require.ErrorAs(t, err, &argErr)
		assert.Equal(t, "#1 (string)", argErr.Parameter)
	})

	t.Run("too many arguments", func(t *testing.T) {
		_, err := ctor.Call(nil, 3, "x", 4)
		assert.ErrorIs(t, err, inject.ErrTooManyArguments)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := ctor.Call(nil, "three", "x")
		assert.ErrorIs(t, err, inject.ErrNotAssignable)
	})

	t.Run("unknown keyword", func(t *testing.T) {
		_, err := ctor.Call(nil, 3, "x", inject.Kw("C", 1))
		assert.ErrorIs(t, err, inject.ErrUnknownKeyword)
	})
}

func TestConstructor_InferredReference(t *testing.T) {
	t.Parallel()

	cat := inject.NewCatalog()
	c := clockContainer(t, cat)
	d := testutil.MustRegister(t, cat, NewTrailingGreeter)

	plan := d.Plan()
	require.Len(t, plan, 2)
	assert.Equal(t, inject.Unmanaged, plan[0].Strategy)
	assert.Equal(t, inject.InferredReference, plan[1].Strategy)
	assert.Equal(t, inject.Key("clock"), plan[1].Reference.Key())

	ctor := d.Constructor()
	assert.True(t, ctor.Injecting())
	assert.Equal(t, []inject.Key{"clock"}, ctor.Dependencies())

	t.Run("gap is filled from the container", func(t *testing.T) {
		v, err := ctor.Call(c, "hello")
		require.NoError(t, err)

		clock, err := c.Resolve("clock")
		require.NoError(t, err)

		g := v.(*Greeter)
		assert.Same(t, clock, g.Clock)
		assert.Equal(t, "hello", g.Greeting)
	})

	t.Run("caller value wins", func(t *testing.T) {
		custom := &Clock{Name: "custom"}
		v, err := ctor.Call(c, "hello", custom)
		require.NoError(t, err)
		assert.Same(t, custom, v.(*Greeter).Clock)
	})

	t.Run("resolver required only for references", func(t *testing.T) {
		_, err := ctor.Call(nil, "hello")
		assert.ErrorIs(t, err, inject.ErrResolverNil)

		_, err = ctor.Call(nil, "hello", &Clock{})
		assert.NoError(t, err)
	})
}

func TestConstructor_TrailingDefaults(t *testing.T) {
	t.Parallel()

	cat := inject.NewCatalog()
	c := clockContainer(t, cat)

	t.Run("reference before a required parameter is dropped", func(t *testing.T) {
		d := testutil.MustRegister(t, cat, NewLeadingGreeter)

		assert.Equal(t, inject.InferredReference, d.Plan()[0].Strategy)

		ctor := d.Constructor()
		assert.Equal(t, inject.Unmanaged, ctor.Parameters()[0].Strategy)
		assert.Len(t, ctor.Required(), 2)
		assert.Empty(t, ctor.Dependencies())
		assert.False(t, ctor.Injecting())

		_, err := ctor.Call(c, inject.Kw("greeting", "x"))
		assert.ErrorIs(t, err, inject.ErrUnknownKeyword)

		_, err = ctor.Call(c)
		assert.ErrorIs(t, err, inject.ErrMissingArgument)
	})

	t.Run("default completes the trailing run", func(t *testing.T) {
		d := testutil.MustRegister(t, cat, NewLeadingGreeter, inject.Default(1, "hi"))
		ctor := d.Constructor()

		assert.Empty(t, ctor.Required())

		v, err := ctor.Call(c)
		require.NoError(t, err)
		assert.Equal(t, "hi", v.(*Greeter).Greeting)
		assert.Equal(t, "system", v.(*Greeter).Clock.Name)
	})

	t.Run("default before a required parameter is dropped", func(t *testing.T) {
		d := testutil.MustRegister(t, cat, NewPlain, inject.Default(0, 7))
		ctor := d.Constructor()

		assert.Len(t, ctor.Required(), 2)
		assert.False(t, ctor.Injecting())
	})

	t.Run("nil default means zero value", func(t *testing.T) {
		d := testutil.MustRegister(t, cat, NewPlain, inject.Default(0, nil), inject.Default(1, nil))

		v, err := d.Constructor().Call(nil)
		require.NoError(t, err)
		assert.Equal(t, &Plain{}, v)
	})
}

func TestConstructor_ExplicitReference(t *testing.T) {
	t.Parallel()

	type AppSettings struct{ Name string }
	type Settings struct{ App *AppSettings }

	cat := inject.NewCatalog()
	c := testutil.NewContainer(t)
	c.Bind("settings", inject.Singleton, inject.Instance(&Settings{App: &AppSettings{Name: "dpb"}}))

	d := testutil.MustRegister(t, cat, func(app *AppSettings) string { return app.Name },
		inject.Param(0, inject.Ref("settings").Field("App")))

	plan := d.Plan()
	require.Len(t, plan, 1)
	assert.Equal(t, inject.ExplicitReference, plan[0].Strategy)
	assert.Equal(t, `Ref("settings").App`, plan[0].Reference.String())

	v, err := d.Constructor().Call(c)
	require.NoError(t, err)
	assert.Equal(t, "dpb", v)

	t.Run("missing field", func(t *testing.T) {
		d := testutil.MustRegister(t, cat, func(app *AppSettings) string { return app.Name },
			inject.Param(0, inject.Ref("settings").Field("Nope")))

		_, err := d.Constructor().Call(c)
		var refErr inject.ReferenceError
		assert.ErrorAs(t, err, &refErr)
	})

	t.Run("missing key", func(t *testing.T) {
		d := testutil.MustRegister(t, cat, func(app *AppSettings) string { return app.Name },
			inject.Param(0, inject.Ref("config")))

		_, err := d.Constructor().Call(c)
		assert.True(t, inject.IsMissingBinding(err))
	})
}

func TestConstructor_ParameterObject(t *testing.T) {
	t.Parallel()

	cat := inject.NewCatalog()
	c := clockContainer(t, cat)
	d := testutil.MustRegister(t, cat, NewReport)

	byName := make(map[string]inject.ParameterPlan)
	for _, p := range d.Plan() {
		assert.True(t, p.Keyword)
		byName[p.Name] = p
	}

	require.Len(t, byName, 4)
	assert.Equal(t, inject.InferredReference, byName["Clock"].Strategy)
	assert.Equal(t, inject.ExplicitReference, byName["Store"].Strategy)
	assert.Equal(t, inject.Key("memory_store"), byName["Store"].Reference.Key())
	assert.Equal(t, inject.Unmanaged, byName["Title"].Strategy)
	assert.True(t, byName["Title"].HasDefault)
	assert.False(t, byName["Limit"].HasDefault)

	ctor := d.Constructor()
	assert.Equal(t, []string{"Limit"}, ctor.Required())

	t.Run("keywords fill fields", func(t *testing.T) {
		v, err := ctor.Call(c, inject.Kw("Limit", 5), inject.Kw("Title", "weekly"))
		require.NoError(t, err)

		p := v.(*Report).Params
		assert.Equal(t, 5, p.Limit)
		assert.Equal(t, "weekly", p.Title)
		assert.Equal(t, "system", p.Clock.Name)
		assert.NotNil(t, p.Store)
		assert.Nil(t, p.Hidden)
	})

	t.Run("missing required field", func(t *testing.T) {
		_, err := ctor.Call(c)
		assert.ErrorIs(t, err, inject.ErrMissingArgument)
	})

	t.Run("repeated keyword", func(t *testing.T) {
		_, err := ctor.Call(c, inject.Kw("Limit", 1), inject.Kw("Limit", 2))
		assert.Error(t, err)
	})

	t.Run("whole object is used verbatim", func(t *testing.T) {
		v, err := ctor.Call(nil, ReportParams{Limit: 9})
		require.NoError(t, err)

		p := v.(*Report).Params
		assert.Equal(t, 9, p.Limit)
		assert.Nil(t, p.Clock)
	})

	t.Run("field defaults are independent", func(t *testing.T) {
		d := testutil.MustRegister(t, cat, NewReport, inject.KwDefault("Limit", 10))

		v, err := d.Constructor().Call(c)
		require.NoError(t, err)
		assert.Equal(t, 10, v.(*Report).Params.Limit)
	})
}

func TestConstructor_Failures(t *testing.T) {
	t.Parallel()

	cat := inject.NewCatalog()

	t.Run("returned error", func(t *testing.T) {
		d := testutil.MustRegister(t, cat, func() (*Plain, error) { return nil, testutil.ErrConstructor })

		_, err := d.Constructor().Call(nil)
		var invErr inject.ConstructorInvocationError
		require.ErrorAs(t, err, &invErr)
		assert.ErrorIs(t, err, testutil.ErrConstructor)
	})

	t.Run("panic", func(t *testing.T) {
		d := testutil.MustRegister(t, cat, func() *Plain { panic("boom") })

		_, err := d.Constructor().Call(nil)
		var panicErr inject.ConstructorPanicError
		require.ErrorAs(t, err, &panicErr)
		assert.Equal(t, "boom", panicErr.Panic)
		assert.NotEmpty(t, panicErr.Stack)
	})
}

func TestPlanErrors_AreNonFatal(t *testing.T) {
	t.Parallel()

	type BadTags struct {
		inject.In

		Clock *Clock `inject:"bad key"`
	}

	cat := inject.NewCatalog()
	testutil.MustRegister(t, cat, NewClock)

	tests := []struct {
		name string
		ctor any
		opts []inject.Option
	}{
		{"param index out of range", NewPlain, []inject.Option{inject.Param(5, inject.Ref("x"))}},
		{"default of wrong type", NewPlain, []inject.Option{inject.Default(0, "seven")}},
		{"param without key", NewPlain, []inject.Option{inject.Param(1, inject.Reference{})}},
		{"unknown keyword field", NewReport, []inject.Option{inject.KwDefault("Nope", 1)}},
		{"malformed tag", func(BadTags) *Plain { return nil }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testutil.MustRegister(t, cat, tt.ctor, tt.opts...)

			errs := d.PlanErrors()
			require.NotEmpty(t, errs)

			var planErr inject.SignaturePlanningError
			assert.ErrorAs(t, errs[0], &planErr)
			assert.NotNil(t, d.Constructor())
		})
	}

	t.Run("malformed tag degrades to inference", func(t *testing.T) {
		d := testutil.MustRegister(t, cat, func(BadTags) *Plain { return nil })
		assert.Equal(t, inject.InferredReference, d.Plan()[0].Strategy)
	})
}

func TestRegister_InvalidConstructors(t *testing.T) {
	t.Parallel()

	cat := inject.NewCatalog()

	tests := []struct {
		name string
		ctor any
	}{
		{"nil", nil},
		{"not a function", 42},
		{"no result", func() {}},
		{"only error", func() error { return nil }},
		{"second result not error", func() (*Plain, int) { return nil, 0 }},
		{"variadic", func(...int) *Plain { return nil }},
		{"nil function", (func() *Plain)(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cat.Register(tt.ctor)

			var regErr inject.RegistrationError
			assert.ErrorAs(t, err, &regErr)
		})
	}

	t.Run("invalid options", func(t *testing.T) {
		_, err := cat.Register(NewPlain, inject.Name("two words"))
		assert.Error(t, err)

		_, err = cat.Register(NewPlain, inject.Kind(inject.ProviderKind(9)))
		assert.Error(t, err)
	})

	t.Run("package helper panics", func(t *testing.T) {
		assert.Panics(t, func() { inject.Register("not a constructor") })
	})
}

type OptionalParams struct {
	inject.In

	Clock   *Clock `inject:"clock,optional"`
	Backup  *Clock `inject:"backup_clock,optional"`
	Primary *Clock `optional:"true"`
	Label   string `optional:"true"`
}

type Scheduler struct {
	Params OptionalParams
}

func NewScheduler(p OptionalParams) *Scheduler { return &Scheduler{Params: p} }

func TestConstructor_OptionalReference(t *testing.T) {
	t.Parallel()

	cat := inject.NewCatalog()
	c := clockContainer(t, cat)
	d := testutil.MustRegister(t, cat, NewScheduler)

	ctor := d.Constructor()
	assert.True(t, ctor.Injecting())
	assert.Empty(t, ctor.Required())
	assert.Empty(t, ctor.Dependencies())

	v, err := ctor.Call(c)
	require.NoError(t, err)

	p := v.(*Scheduler).Params
	require.NotNil(t, p.Clock)
	assert.Equal(t, "system", p.Clock.Name)
	assert.Same(t, p.Clock, p.Primary)
	assert.Nil(t, p.Backup)
	assert.Empty(t, p.Label)

	t.Run("unbound key validates", func(t *testing.T) {
		require.True(t, d.BindTo(c))
		assert.NoError(t, c.Validate())
	})

	t.Run("failure below an optional key is not hidden", func(t *testing.T) {
		c := testutil.NewContainer(t)
		c.Bind("clock", inject.Singleton, inject.Func(func(r inject.Resolver) (*Clock, error) {
			return inject.Resolve[*Clock](r, "time_source")
		}, "time_source"))

		_, err := ctor.Call(c)
		assert.True(t, inject.IsMissingBinding(err))
	})
}

//go:noinline
func plainFrom(a int) func() *Plain {
	return func() *Plain { return &Plain{A: a} }
}

type plainFactory struct{ a int }

func (f *plainFactory) New() *Plain { return &Plain{A: f.a} }

func TestRegister_SharedCodePointers(t *testing.T) {
	t.Parallel()

	resolveA := func(t *testing.T, c *inject.Container, key inject.Key) int {
		t.Helper()
		v, err := inject.Resolve[*Plain](c, key)
		require.NoError(t, err)
		return v.A
	}

	t.Run("closures", func(t *testing.T) {
		t.Parallel()

		cat := inject.NewCatalog()
		c := testutil.NewContainer(t)
		require.True(t, testutil.MustRegister(t, cat, plainFrom(1), inject.Name("one")).BindTo(c))
		require.True(t, testutil.MustRegister(t, cat, plainFrom(2), inject.Name("two")).BindTo(c))

		assert.Equal(t, 1, resolveA(t, c, "one"))
		assert.Equal(t, 2, resolveA(t, c, "two"))
	})

	t.Run("method values", func(t *testing.T) {
		t.Parallel()

		x, y := &plainFactory{a: 1}, &plainFactory{a: 2}
		cat := inject.NewCatalog()
		c := testutil.NewContainer(t)
		require.True(t, testutil.MustRegister(t, cat, x.New, inject.Name("one")).BindTo(c))
		require.True(t, testutil.MustRegister(t, cat, y.New, inject.Name("two")).BindTo(c))

		assert.Equal(t, 1, resolveA(t, c, "one"))
		assert.Equal(t, 2, resolveA(t, c, "two"))
	})
}
