package inject

import (
	"fmt"
	"reflect"
)

// Resolver produces instances by key. *Container implements it, and so does
// the resolver handed to a Source while it builds, which also tracks the
// chain of keys being resolved.
type Resolver interface {
	Resolve(key Key) (any, error)
}

// Source builds the instance of a binding.
type Source interface {
	Build(r Resolver) (any, error)
}

// typedSource is implemented by sources that know the type they produce.
type typedSource interface {
	Produces() reflect.Type
}

// dependentSource is implemented by sources that know the keys they resolve.
type dependentSource interface {
	Dependencies() []Key
}

// Produces returns the type the descriptor's constructor produces.
func (d *Descriptor) Produces() reflect.Type {
	return d.Type
}

// chain is the resolver passed to sources during a build. It remembers the
// keys currently being resolved so re-entering one fails fast instead of
// recursing until the stack is exhausted.
type chain struct {
	c    *Container
	path []Key
}

func (ch chain) Resolve(key Key) (any, error) {
	return ch.c.resolve(key, ch.path)
}

// funcSource adapts a typed build function.
type funcSource[T any] struct {
	fn   func(Resolver) (T, error)
	deps []Key
}

// Func adapts fn to a Source. deps names the keys fn resolves and is only
// used for graphs and validation.
func Func[T any](fn func(Resolver) (T, error), deps ...Key) Source {
	return funcSource[T]{fn: fn, deps: deps}
}

func (s funcSource[T]) Build(r Resolver) (any, error) {
	return s.fn(r)
}

func (s funcSource[T]) Produces() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (s funcSource[T]) Dependencies() []Key {
	return s.deps
}

// instanceSource returns a prebuilt value.
type instanceSource struct {
	v any
}

// Instance adapts an existing value to a Source.
//
//	c.Bind("settings", inject.Singleton, inject.Instance(settings))
func Instance(v any) Source {
	return instanceSource{v: v}
}

func (s instanceSource) Build(Resolver) (any, error) {
	return s.v, nil
}

func (s instanceSource) Produces() reflect.Type {
	return reflect.TypeOf(s.v)
}

// Provide binds a typed build function under key. It is the explicit
// counterpart of Register for code that prefers to spell out its wiring.
//
//	inject.Provide(c, "mongo_database", inject.Singleton,
//	    func(r inject.Resolver) (*MongoDatabase, error) {
//	        s, err := inject.Resolve[*Settings](r, "settings")
//	        if err != nil {
//	            return nil, err
//	        }
//	        return NewMongoDatabase(s)
//	    }, "settings")
func Provide[T any](c *Container, key Key, kind ProviderKind, fn func(Resolver) (T, error), deps ...Key) bool {
	return c.Bind(key, kind, Func(fn, deps...))
}

// Resolve resolves key and asserts the instance to T.
func Resolve[T any](r Resolver, key Key) (T, error) {
	var zero T

	if r == nil {
		return zero, ErrResolverNil
	}

	instance, err := r.Resolve(key)
	if err != nil {
		return zero, err
	}

	if instance == nil {
		return zero, nil
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, TypeMismatchError{
			Key:      key,
			Expected: reflect.TypeOf((*T)(nil)).Elem(),
			Actual:   reflect.TypeOf(instance),
		}
	}

	return typed, nil
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any](r Resolver, key Key) T {
	v, err := Resolve[T](r, key)
	if err != nil {
		panic(fmt.Sprintf("inject: resolve %q: %v", key, err))
	}
	return v
}

// ResolveOf resolves the key derived from T.
//
//	db, err := inject.ResolveOf[*MongoDatabase](c) // key "mongo_database"
func ResolveOf[T any](r Resolver) (T, error) {
	return Resolve[T](r, KeyOf[T]())
}
