package inject

import (
	"context"
	"errors"
	"io"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Container is a tagged set of bindings from Key to Source.
//
// Bindings accumulate during discovery and the first binding of a key wins:
// later Bind calls for a bound key are ignored. Resolve is safe for
// concurrent use. Singleton bindings build at most once per container,
// Factory bindings build on every call.
//
// Example:
//
//	c := inject.NewContainer(inject.WithTags("DPB"), inject.WithLogger(logger))
//	if _, err := inject.Discover("github.com/kdpb/inject/internal/docproc", c); err != nil {
//	    log.Fatal(err)
//	}
//	app, err := inject.Resolve[*app.Application](c, "application")
type Container struct {
	id       string
	tags     tagSet
	logger   *zap.Logger
	observer Observer

	mu       sync.RWMutex
	bindings map[Key]*binding
	order    []Key

	builtMu sync.Mutex
	built   []*binding

	closed atomic.Bool
}

var _ Resolver = (*Container)(nil)

// binding is one entry of the binding map and owns its singleton memo.
type binding struct {
	key    Key
	kind   ProviderKind
	source Source

	mu       sync.Mutex
	ready    atomic.Bool
	instance any
}

// BindingInfo describes a binding for inspection.
type BindingInfo struct {
	Key          Key          `json:"key"`
	Kind         ProviderKind `json:"kind"`
	Type         string       `json:"type,omitempty"`
	Resolved     bool         `json:"resolved"`
	Dependencies []Key        `json:"dependencies,omitempty"`
}

// NewContainer creates an empty container. Without WithTags it carries
// DefaultTag only.
func NewContainer(opts ...ContainerOption) *Container {
	o := &containerOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyContainerOption(o)
		}
	}

	tags := o.tags
	if len(tags) == 0 {
		tags = []Tag{DefaultTag}
	}

	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	observer := o.observer
	if observer == nil {
		observer = nopObserver{}
	}

	c := &Container{
		id:       uuid.NewString(),
		tags:     newTagSet(tags),
		observer: observer,
		bindings: make(map[Key]*binding),
	}
	c.logger = logger.With(zap.String("container", c.id))

	return c
}

// ID returns the container's unique identifier.
func (c *Container) ID() string {
	return c.id
}

// Tags returns the container tags, sorted.
func (c *Container) Tags() []Tag {
	return c.tags.sorted()
}

// HasTag reports whether the container carries tag.
func (c *Container) HasTag(tag Tag) bool {
	return c.tags.has(tag)
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Bind binds source under key and reports whether it did. If key is
// already bound the call does nothing: the first binding wins. A collision
// is logged at debug level and reported to the Observer but is not an
// error.
func (c *Container) Bind(key Key, kind ProviderKind, source Source) bool {
	if source == nil || key == "" || !kind.IsValid() {
		c.logger.Warn("ignoring invalid binding",
			zap.String("key", string(key)),
			zap.Stringer("kind", kind),
			zap.Bool("nil_source", source == nil))
		return false
	}

	if c.closed.Load() {
		return false
	}

	c.mu.Lock()
	if _, exists := c.bindings[key]; exists {
		c.mu.Unlock()

		c.logger.Debug("binding already present, keeping the first",
			zap.String("key", string(key)),
			zap.String("ignored", describeSource(source)))
		c.observer.OnCollision(key)
		return false
	}

	c.bindings[key] = &binding{key: key, kind: kind, source: source}
	c.order = append(c.order, key)
	c.mu.Unlock()

	c.logger.Debug("bound",
		zap.String("key", string(key)),
		zap.Stringer("kind", kind),
		zap.String("source", describeSource(source)))
	c.observer.OnBind(key, kind)

	return true
}

// Has reports whether key is bound.
func (c *Container) Has(key Key) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.bindings[key]
	return ok
}

// TypeOf returns the type produced by the binding under key. ok is false
// when key is unbound or its source does not report a type.
func (c *Container) TypeOf(key Key) (t reflect.Type, ok bool) {
	c.mu.RLock()
	b, bound := c.bindings[key]
	c.mu.RUnlock()

	if !bound {
		return nil, false
	}
	if ts, typed := b.source.(typedSource); typed && ts.Produces() != nil {
		return ts.Produces(), true
	}
	return nil, false
}

// Keys returns the bound keys in binding order.
func (c *Container) Keys() []Key {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]Key(nil), c.order...)
}

// Len returns the number of bindings.
func (c *Container) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.order)
}

// Bindings describes every binding, sorted by key.
func (c *Container) Bindings() []BindingInfo {
	c.mu.RLock()
	list := make([]*binding, 0, len(c.bindings))
	for _, b := range c.bindings {
		list = append(list, b)
	}
	c.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].key < list[j].key })

	out := make([]BindingInfo, 0, len(list))
	for _, b := range list {
		info := BindingInfo{
			Key:      b.key,
			Kind:     b.kind,
			Resolved: b.ready.Load(),
		}
		if ts, ok := b.source.(typedSource); ok && ts.Produces() != nil {
			info.Type = ts.Produces().String()
		}
		if ds, ok := b.source.(dependentSource); ok {
			info.Dependencies = ds.Dependencies()
		}
		out = append(out, info)
	}

	return out
}

// Resolve returns the instance bound to key.
func (c *Container) Resolve(key Key) (any, error) {
	return c.resolve(key, nil)
}

func (c *Container) resolve(key Key, path []Key) (any, error) {
	if c.closed.Load() {
		return nil, ErrContainerClosed
	}

	for i, k := range path {
		if k == key {
			cycle := append([]Key(nil), path[i:]...)
			return nil, CircularDependencyError{Path: cycle}
		}
	}

	c.mu.RLock()
	b, ok := c.bindings[key]
	c.mu.RUnlock()

	if !ok {
		err := MissingBindingError{Key: key, Available: c.Keys()}
		c.observer.OnResolve(key, Singleton, 0, err)
		return nil, err
	}

	start := time.Now()
	instance, err := c.instance(b, append(path[:len(path):len(path)], key))
	c.observer.OnResolve(key, b.kind, time.Since(start), err)

	return instance, err
}

func (c *Container) instance(b *binding, path []Key) (any, error) {
	if b.kind == Factory {
		return c.build(b, path)
	}

	if b.ready.Load() {
		return b.instance, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ready.Load() {
		return b.instance, nil
	}

	instance, err := c.build(b, path)
	if err != nil {
		return nil, err
	}

	b.instance = instance
	b.ready.Store(true)

	c.builtMu.Lock()
	c.built = append(c.built, b)
	c.builtMu.Unlock()

	return instance, nil
}

func (c *Container) build(b *binding, path []Key) (any, error) {
	instance, err := b.source.Build(chain{c: c, path: path})
	if err != nil {
		var cycle CircularDependencyError
		if errors.As(err, &cycle) {
			return nil, err
		}

		c.logger.Debug("build failed", zap.String("key", string(b.key)), zap.Error(err))
		return nil, ResolutionError{Key: b.key, Cause: err}
	}

	return instance, nil
}

// Close closes every built singleton implementing io.Closer, or
// Close(context.Context) error, in reverse build order. Afterwards Bind and
// Resolve fail.
func (c *Container) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.builtMu.Lock()
	built := c.built
	c.built = nil
	c.builtMu.Unlock()

	var errs []error
	for i := len(built) - 1; i >= 0; i-- {
		b := built[i]

		var err error
		switch v := b.instance.(type) {
		case io.Closer:
			err = v.Close()
		case interface{ Close(context.Context) error }:
			err = v.Close(context.Background())
		default:
			continue
		}

		if err != nil {
			c.logger.Warn("close failed", zap.String("key", string(b.key)), zap.Error(err))
			errs = append(errs, ResolutionError{Key: b.key, Cause: err})
		}
	}

	return errors.Join(errs...)
}

func describeSource(s Source) string {
	if ts, ok := s.(typedSource); ok && ts.Produces() != nil {
		return formatType(ts.Produces())
	}
	return formatType(reflect.TypeOf(s))
}
