package inject

import (
	"fmt"
	"reflect"
	"strings"
)

// Reference is a deferred reference: a placeholder for "resolve this
// parameter from the active container at call time". It names exactly one
// Key and may select a field path on the resolved value.
//
//	inject.Ref("settings").Field("App") // the App field of the "settings" binding
type Reference struct {
	key    Key
	fields []string
}

// Ref returns a reference to the binding registered under key.
func Ref(key Key) Reference {
	return Reference{key: key}
}

// RefTo returns a reference to the binding under the derived key of T.
func RefTo[T any]() Reference {
	return Ref(KeyOf[T]())
}

// Key returns the referenced registration key.
func (r Reference) Key() Key {
	return r.key
}

// Field returns a copy of r that selects the named exported fields, in order,
// on the resolved value. Pointers are dereferenced along the way.
func (r Reference) Field(names ...string) Reference {
	fields := make([]string, 0, len(r.fields)+len(names))
	fields = append(fields, r.fields...)
	fields = append(fields, names...)
	return Reference{key: r.key, fields: fields}
}

// Fields returns the field selector path.
func (r Reference) Fields() []string {
	return append([]string(nil), r.fields...)
}

// IsZero reports whether r references nothing.
func (r Reference) IsZero() bool {
	return r.key == ""
}

func (r Reference) String() string {
	if len(r.fields) == 0 {
		return fmt.Sprintf("Ref(%q)", r.key)
	}
	return fmt.Sprintf("Ref(%q).%s", r.key, strings.Join(r.fields, "."))
}

// resolve produces the referenced value through res.
func (r Reference) resolve(res Resolver) (reflect.Value, error) {
	if r.IsZero() {
		return reflect.Value{}, ReferenceError{Reference: r, Cause: ErrReferenceUnresolved}
	}

	instance, err := res.Resolve(r.key)
	if err != nil {
		return reflect.Value{}, err
	}

	v := reflect.ValueOf(instance)
	for _, name := range r.fields {
		for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
			if v.IsNil() {
				return reflect.Value{}, ReferenceError{
					Reference: r,
					Cause:     fmt.Errorf("nil value before field %s", name),
				}
			}
			v = v.Elem()
		}

		if !v.IsValid() || v.Kind() != reflect.Struct {
			return reflect.Value{}, ReferenceError{
				Reference: r,
				Cause:     fmt.Errorf("cannot select field %s on %s", name, describeValue(v)),
			}
		}

		field, ok := v.Type().FieldByName(name)
		if !ok || !field.IsExported() {
			return reflect.Value{}, ReferenceError{
				Reference: r,
				Cause:     fmt.Errorf("%s has no exported field %s", formatType(v.Type()), name),
			}
		}

		next, err := v.FieldByIndexErr(field.Index)
		if err != nil {
			return reflect.Value{}, ReferenceError{Reference: r, Cause: err}
		}
		v = next
	}

	return v, nil
}

func describeValue(v reflect.Value) string {
	if !v.IsValid() {
		return "<nil>"
	}
	return formatType(v.Type())
}
