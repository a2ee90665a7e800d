package inject

import "reflect"

// defaultCatalog receives every registration made through the package level
// helpers.
var defaultCatalog = NewCatalog()

// DefaultCatalog returns the process-wide catalog used by Register, Declare
// and Discover.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

// Register records ctor in the default catalog. It is meant to run during
// package initialisation and panics if ctor is not a usable constructor.
//
//	var _ = inject.Register(NewMongoDatabase)
//
//	func init() {
//	    inject.Register(NewLogger, inject.Name("logger"), inject.Kind(inject.Factory))
//	}
func Register(ctor any, opts ...Option) *Descriptor {
	d, err := defaultCatalog.register(ctor, 3, opts)
	if err != nil {
		panic(err)
	}
	return d
}

// Declare records T as an abstract type in the default catalog.
//
//	var _ = inject.Declare[DocumentStore]()
func Declare[T any](opts ...Option) *Descriptor {
	d, err := defaultCatalog.declare(reflect.TypeOf((*T)(nil)).Elem(), 3, opts)
	if err != nil {
		panic(err)
	}
	return d
}

// Lookup returns the first descriptor registered for T in the default
// catalog.
func Lookup[T any]() (*Descriptor, bool) {
	return defaultCatalog.Lookup(reflect.TypeOf((*T)(nil)).Elem())
}

// Discover binds every eligible descriptor of the default catalog found in
// root or below it into c.
func Discover(root string, c *Container) (Report, error) {
	return defaultCatalog.Discover(root, c)
}
