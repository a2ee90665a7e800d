package reflection

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
)

// In marks a struct as a parameter object. Its exported fields are the
// keyword parameters of the constructor that takes it as its last argument.
type In struct{}

var (
	inType  = reflect.TypeOf((*In)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

var (
	// ErrNotFunc is returned when the analyzed value is not a function.
	ErrNotFunc = errors.New("constructor must be a function")
	// ErrNilFunc is returned for nil constructors.
	ErrNilFunc = errors.New("constructor cannot be nil")
	// ErrBadReturns is returned when a constructor does not return T or (T, error).
	ErrBadReturns = errors.New("constructor must return T or (T, error)")
	// ErrVariadic is returned for variadic constructors.
	ErrVariadic = errors.New("variadic constructors are not supported")
)

// Analyzer performs reflection-based analysis of constructors.
// It caches analysis results per function type. Closures and method values
// share code pointers, so a cached Signature is never returned as is: every
// call gets a copy bound to its own function value.
type Analyzer struct {
	mu    sync.RWMutex
	cache map[reflect.Type]*Signature
}

// Signature describes a constructor: its positional parameters, an optional
// trailing parameter object and the produced type.
type Signature struct {
	Func           reflect.Value
	Type           reflect.Type
	Result         reflect.Type
	HasErrorReturn bool

	// Positional holds every function parameter except a trailing parameter
	// object.
	Positional []Parameter

	// Object is the trailing parameter object, or nil.
	Object *ParamObject

	// Warnings are problems that do not prevent the constructor from being
	// used, such as malformed field tags.
	Warnings []Warning
}

// Parameter describes a positional parameter or a parameter object field.
type Parameter struct {
	Name       string
	Index      int // function parameter index, or struct field index for keyword parameters
	FieldIndex []int
	Type       reflect.Type
	Keyword    bool
	Tag        TagInfo
}

// ParamObject describes a trailing struct parameter embedding In.
type ParamObject struct {
	Type    reflect.Type // struct type, dereferenced
	Pointer bool         // the function takes *Type
	Index   int          // function parameter index
	Fields  []Parameter
}

// TagInfo contains parsed struct tag information.
type TagInfo struct {
	Key      string // inject:"key"
	Optional bool   // optional:"true" or inject:"key,optional"
	Ignore   bool   // inject:"-"
}

// Warning is a non-fatal analysis problem tied to one parameter.
type Warning struct {
	Parameter string
	Cause     error
}

// New creates a new Analyzer.
func New() *Analyzer {
	return &Analyzer{cache: make(map[reflect.Type]*Signature)}
}

// Analyze inspects fn and returns its signature.
func (a *Analyzer) Analyze(fn any) (*Signature, error) {
	if fn == nil {
		return nil, ErrNilFunc
	}

	val := reflect.ValueOf(fn)
	if val.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w, got %T", ErrNotFunc, fn)
	}
	if val.IsNil() {
		return nil, ErrNilFunc
	}

	key := val.Type()

	a.mu.RLock()
	cached, ok := a.cache[key]
	a.mu.RUnlock()

	if !ok {
		sig, err := analyze(key)
		if err != nil {
			return nil, err
		}

		a.mu.Lock()
		a.cache[key] = sig
		a.mu.Unlock()
		cached = sig
	}

	sig := *cached
	sig.Func = val
	return &sig, nil
}

// CacheSize returns the number of cached analyses.
func (a *Analyzer) CacheSize() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.cache)
}

func analyze(fnType reflect.Type) (*Signature, error) {
	if fnType.IsVariadic() {
		return nil, ErrVariadic
	}

	sig := &Signature{Type: fnType}

	switch fnType.NumOut() {
	case 1:
		if fnType.Out(0).Implements(errType) {
			return nil, ErrBadReturns
		}
	case 2:
		if !fnType.Out(1).Implements(errType) || fnType.Out(0).Implements(errType) {
			return nil, ErrBadReturns
		}
		sig.HasErrorReturn = true
	default:
		return nil, ErrBadReturns
	}
	sig.Result = fnType.Out(0)

	numIn := fnType.NumIn()
	for i := 0; i < numIn; i++ {
		paramType := fnType.In(i)

		if IsParamObject(paramType) {
			if i == numIn-1 {
				sig.Object = analyzeParamObject(paramType, i, sig)
				continue
			}

			sig.Warnings = append(sig.Warnings, Warning{
				Parameter: positionalName(i, paramType),
				Cause:     errors.New("parameter object must be the last parameter; treated as positional"),
			})
		}

		sig.Positional = append(sig.Positional, Parameter{
			Name:  positionalName(i, paramType),
			Index: i,
			Type:  paramType,
		})
	}

	return sig, nil
}

func analyzeParamObject(paramType reflect.Type, index int, sig *Signature) *ParamObject {
	obj := &ParamObject{Type: paramType, Index: index}
	if paramType.Kind() == reflect.Pointer {
		obj.Type = paramType.Elem()
		obj.Pointer = true
	}

	for i := 0; i < obj.Type.NumField(); i++ {
		field := obj.Type.Field(i)

		if !field.IsExported() {
			continue
		}

		if field.Anonymous && field.Type == inType {
			continue
		}

		tag, err := ParseTags(field.Tag)
		if err != nil {
			sig.Warnings = append(sig.Warnings, Warning{Parameter: field.Name, Cause: err})
		}

		if tag.Ignore {
			continue
		}

		obj.Fields = append(obj.Fields, Parameter{
			Name:       field.Name,
			Index:      i,
			FieldIndex: field.Index,
			Type:       field.Type,
			Keyword:    true,
			Tag:        tag,
		})
	}

	return obj
}

// IsParamObject reports whether t (or *t) is a struct embedding In.
func IsParamObject(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return false
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous && field.Type == inType {
			return true
		}
	}

	return false
}

// ParseTags parses the inject and optional struct tags. A malformed key is
// reported as an error and dropped, leaving the rest of the tag usable.
func ParseTags(tag reflect.StructTag) (TagInfo, error) {
	var info TagInfo

	if val, ok := tag.Lookup("optional"); ok {
		info.Optional = val == "true"
	}

	val, ok := tag.Lookup("inject")
	if !ok {
		return info, nil
	}

	if val == "-" {
		info.Ignore = true
		return info, nil
	}

	parts := strings.Split(val, ",")
	for _, flag := range parts[1:] {
		switch strings.TrimSpace(flag) {
		case "optional":
			info.Optional = true
		case "":
		default:
			return info, fmt.Errorf("unknown inject tag flag %q", flag)
		}
	}

	key := parts[0]
	if key == "" {
		return info, nil
	}

	if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return info, fmt.Errorf("invalid inject key %q", key)
	}

	info.Key = key
	return info, nil
}

func positionalName(i int, t reflect.Type) string {
	return fmt.Sprintf("#%d (%s)", i, t)
}
