package inject

import (
	"reflect"
	"strings"
	"unicode"
)

// Key identifies a binding inside a Container. Keys are unique per container.
type Key string

// anonymousKey is returned for names that contain no usable identifier runes.
const anonymousKey Key = "anonymous"

// String returns the key as a plain string.
func (k Key) String() string {
	return string(k)
}

// DeriveKey converts a PascalCase or camelCase type name into the canonical
// registration key by inserting an underscore before every uppercase letter
// that is not the first character and lowercasing the result.
//
//	DeriveKey("MongoDatabase")          // "mongo_database"
//	DeriveKey("DocumentsUploadCommand") // "documents_upload_command"
//
// Runs of capitals are split letter by letter, so "HTTPClient" becomes
// "h_t_t_p_client".
func DeriveKey(typeName string) Key {
	if typeName == "" {
		return anonymousKey
	}

	var b strings.Builder
	b.Grow(len(typeName) + 4)

	for i, r := range typeName {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return Key(b.String())
}

// KeyFor returns the derived key for a reflected type. Pointer, slice, array
// and channel wrappers are stripped until a named type is reached. Unnamed
// types (func literals, anonymous structs, maps) fall back to a sanitised
// form of their type string.
func KeyFor(t reflect.Type) Key {
	if t == nil {
		return anonymousKey
	}

	named := namedType(t)
	if name := typeName(named); name != "" {
		return DeriveKey(name)
	}

	return sanitizeKey(t.String())
}

// KeyOf returns the derived key for T.
//
//	inject.KeyOf[*MongoDatabase]() // "mongo_database"
func KeyOf[T any]() Key {
	return KeyFor(reflect.TypeOf((*T)(nil)).Elem())
}

// namedType unwraps composite types until it finds one with a name.
func namedType(t reflect.Type) reflect.Type {
	for t.Name() == "" {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Chan:
			t = t.Elem()
		default:
			return t
		}
	}

	return t
}

// typeName returns the declared name of t without generic instantiation
// arguments: Cache[string] derives from "Cache".
func typeName(t reflect.Type) string {
	name := t.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}

	return name
}

func sanitizeKey(s string) Key {
	var b strings.Builder
	lastUnderscore := true

	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}

	key := strings.TrimSuffix(b.String(), "_")
	if key == "" {
		return anonymousKey
	}

	return Key(key)
}
