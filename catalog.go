package inject

import (
	"reflect"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/kdpb/inject/internal/reflection"
)

// Catalog holds every registered Descriptor of a process, grouped by the
// package that registered it. It is safe for concurrent use.
type Catalog struct {
	mu       sync.RWMutex
	byType   map[reflect.Type]*Descriptor
	all      []*Descriptor
	analyzer *reflection.Analyzer
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byType:   make(map[reflect.Type]*Descriptor),
		analyzer: reflection.New(),
	}
}

// Register analyzes ctor and records a Descriptor for the type it produces.
// ctor must be a non-variadic function returning T or (T, error).
//
// Nothing is bound here; Discover binds descriptors into containers.
func (c *Catalog) Register(ctor any, opts ...Option) (*Descriptor, error) {
	return c.register(ctor, 3, opts)
}

func (c *Catalog) register(ctor any, skip int, opts []Option) (*Descriptor, error) {
	if c == nil {
		return nil, RegistrationError{Constructor: ctor, Operation: "register", Cause: ErrCatalogNil}
	}

	if ctor == nil {
		return nil, RegistrationError{Constructor: ctor, Operation: "register", Cause: ErrConstructorNil}
	}

	o := newOptions(opts)
	if err := o.Validate(); err != nil {
		return nil, RegistrationError{Constructor: ctor, Operation: "register", Cause: err}
	}

	sig, err := c.analyzer.Analyze(ctor)
	if err != nil {
		return nil, RegistrationError{Constructor: ctor, Operation: "register", Cause: err}
	}

	pkg := o.Package
	if pkg == "" {
		pkg = funcPackage(sig.Func.Pointer())
	}
	if pkg == "" {
		pkg = typePackage(sig.Result)
	}
	if pkg == "" {
		pkg = callerPackage(skip)
	}

	d := &Descriptor{
		Type:     sig.Result,
		Name:     o.Name,
		Kind:     o.Kind,
		Abstract: o.Abstract,
		Tags:     append([]Tag(nil), o.Tags...),
		Package:  pkg,
		catalog:  c,
		sig:      sig,
		opts:     o,
	}

	c.add(d)
	return d, nil
}

// Declare records an abstract type without a constructor, typically an
// interface that concrete registrations satisfy under its derived key.
// Parameters of type t are then planned as inferred references.
func (c *Catalog) Declare(t reflect.Type, opts ...Option) (*Descriptor, error) {
	return c.declare(t, 3, opts)
}

func (c *Catalog) declare(t reflect.Type, skip int, opts []Option) (*Descriptor, error) {
	if c == nil {
		return nil, RegistrationError{Constructor: t, Operation: "declare", Cause: ErrCatalogNil}
	}

	if t == nil {
		return nil, RegistrationError{Constructor: t, Operation: "declare", Cause: ErrConstructorNil}
	}

	o := newOptions(opts)
	if err := o.Validate(); err != nil {
		return nil, RegistrationError{Constructor: t, Operation: "declare", Cause: err}
	}

	pkg := o.Package
	if pkg == "" {
		pkg = typePackage(t)
	}
	if pkg == "" {
		pkg = callerPackage(skip)
	}

	d := &Descriptor{
		Type:     t,
		Name:     o.Name,
		Kind:     o.Kind,
		Abstract: true,
		Tags:     append([]Tag(nil), o.Tags...),
		Package:  pkg,
		catalog:  c,
		opts:     o,
	}

	c.add(d)
	return d, nil
}

func (c *Catalog) add(d *Descriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d.seq = len(c.all)
	c.all = append(c.all, d)
	if _, ok := c.byType[d.Type]; !ok {
		c.byType[d.Type] = d
	}
}

// Lookup returns the first descriptor registered for t.
func (c *Catalog) Lookup(t reflect.Type) (*Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.byType[t]
	return d, ok
}

// Descriptors returns every descriptor in registration order.
func (c *Catalog) Descriptors() []*Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]*Descriptor(nil), c.all...)
}

// Packages returns the sorted set of packages holding descriptors.
func (c *Catalog) Packages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, d := range c.all {
		seen[d.Package] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of descriptors.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.all)
}

// inPackage returns the descriptors of pkg ordered by type name, then by
// registration order.
func (c *Catalog) inPackage(pkg string) []*Descriptor {
	c.mu.RLock()
	var out []*Descriptor
	for _, d := range c.all {
		if d.Package == pkg {
			out = append(out, d)
		}
	}
	c.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		ni, nj := typeSortName(out[i].Type), typeSortName(out[j].Type)
		if ni != nj {
			return ni < nj
		}
		return out[i].seq < out[j].seq
	})
	return out
}

func (c *Catalog) isManaged(t reflect.Type) bool {
	_, ok := c.Lookup(t)
	return ok
}

func typeSortName(t reflect.Type) string {
	if name := typeName(namedType(t)); name != "" {
		return name
	}
	return t.String()
}

// funcPackage returns the import path of the package declaring the function
// at pc, or "" if it cannot be determined.
func funcPackage(pc uintptr) string {
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return ""
	}
	return packageOfSymbol(fn.Name())
}

// packageOfSymbol extracts the import path from a fully qualified symbol
// name such as "github.com/x/y.NewFoo" or "github.com/x/y.(*T).Method".
func packageOfSymbol(name string) string {
	slash := strings.LastIndexByte(name, '/')
	dot := strings.IndexByte(name[slash+1:], '.')
	if dot < 0 {
		return ""
	}
	return name[:slash+1+dot]
}

func typePackage(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return namedType(t).PkgPath()
}

func callerPackage(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return funcPackage(pc)
}
