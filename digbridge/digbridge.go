// Package digbridge exposes the bindings of an inject.Container to a
// go.uber.org/dig container, so code wired with dig (or fx) can consume
// services discovered by inject.
//
// Each binding is provided under dig.Name(key) with the binding's produced
// type, or any when the source does not report one:
//
//	type Params struct {
//	    dig.In
//	    DB *MongoDatabase `name:"mongo_database"`
//	}
package digbridge

import (
	"fmt"
	"reflect"

	"go.uber.org/dig"

	"github.com/kdpb/inject"
)

var (
	anyType   = reflect.TypeOf((*any)(nil)).Elem()
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// Export provides every binding of c to d. dig calls each provider at most
// once, so Factory bindings are built once per dig container.
func Export(c *inject.Container, d *dig.Container) error {
	if c == nil {
		return inject.ErrContainerNil
	}

	for _, key := range c.Keys() {
		if err := provide(c, d, key); err != nil {
			return fmt.Errorf("digbridge: provide %q: %w", key, err)
		}
	}
	return nil
}

func provide(c *inject.Container, d *dig.Container, key inject.Key) error {
	t, ok := c.TypeOf(key)
	if !ok {
		t = anyType
	}

	fnType := reflect.FuncOf(nil, []reflect.Type{t, errorType}, false)
	fn := reflect.MakeFunc(fnType, func([]reflect.Value) []reflect.Value {
		out := reflect.New(t).Elem()
		errOut := reflect.New(errorType).Elem()

		v, err := c.Resolve(key)
		switch {
		case err != nil:
			errOut.Set(reflect.ValueOf(err))
		case v != nil:
			rv := reflect.ValueOf(v)
			if !rv.Type().AssignableTo(t) {
				errOut.Set(reflect.ValueOf(error(inject.TypeMismatchError{Key: key, Expected: t, Actual: rv.Type()})))
				break
			}
			out.Set(rv)
		}

		return []reflect.Value{out, errOut}
	})

	return d.Provide(fn.Interface(), dig.Name(string(key)))
}
