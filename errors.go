package inject

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// These are base errors that are wrapped in typed errors when returned.
// Match them with errors.Is.

var (
	// Resolution errors.
	ErrMissingBinding      = errors.New("no binding for key")
	ErrCircularDependency  = errors.New("circular dependency detected")
	ErrContainerClosed     = errors.New("container has been closed")
	ErrResolverNil         = errors.New("resolver cannot be nil")
	ErrReferenceUnresolved = errors.New("reference cannot be resolved")

	// Registration errors.
	ErrConstructorNil     = errors.New("constructor cannot be nil")
	ErrInvalidConstructor = errors.New("constructor must be a function returning T or (T, error)")
	ErrCatalogNil         = errors.New("catalog cannot be nil")
	ErrContainerNil       = errors.New("container cannot be nil")

	// Call errors.
	ErrMissingArgument  = errors.New("missing required argument")
	ErrTooManyArguments = errors.New("too many positional arguments")
	ErrUnknownKeyword   = errors.New("unknown keyword argument")
	ErrNotAssignable    = errors.New("value is not assignable to parameter")
)

var (
	_ error = ProviderKindError{}
	_ error = MissingBindingError{}
	_ error = CircularDependencyError{}
	_ error = ResolutionError{}
	_ error = ArgumentError{}
	_ error = ReferenceError{}
	_ error = SignaturePlanningError{}
	_ error = RegistrationError{}
	_ error = ConstructorInvocationError{}
	_ error = ConstructorPanicError{}
	_ error = TypeMismatchError{}
	_ error = MissingDependencyError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// ProviderKindError indicates an invalid provider kind value.
type ProviderKindError struct {
	Value any
}

func (e ProviderKindError) Error() string {
	return fmt.Sprintf("invalid provider kind: %v", e.Value)
}

// MissingBindingError is returned when a key has no bound provider.
type MissingBindingError struct {
	Key       Key
	Available []Key // Keys that ARE bound (optional, for suggestions)
}

func (e MissingBindingError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("no binding for key %q", e.Key))

	if similar := findSimilarKeys(e.Key, e.Available); len(similar) > 0 {
		b.WriteString("\n\nDid you mean one of these?\n")
		for _, k := range similar {
			b.WriteString(fmt.Sprintf("  • %s\n", k))
		}
	}

	return b.String()
}

func (e MissingBindingError) Unwrap() error {
	return ErrMissingBinding
}

// findSimilarKeys returns bound keys that share a name segment with target.
func findSimilarKeys(target Key, available []Key) []Key {
	if target == "" || len(available) == 0 {
		return nil
	}

	targetParts := strings.Split(string(target), "_")

	var similar []Key
	for _, k := range available {
		if k == target {
			continue
		}

		if strings.Contains(string(k), string(target)) || strings.Contains(string(target), string(k)) {
			similar = append(similar, k)
		} else {
			for _, part := range targetParts {
				if len(part) > 2 && strings.Contains(string(k), part) {
					similar = append(similar, k)
					break
				}
			}
		}

		if len(similar) >= 5 {
			break
		}
	}

	sort.Slice(similar, func(i, j int) bool { return similar[i] < similar[j] })
	return similar
}

// CircularDependencyError is returned when a resolution chain re-enters a key
// it is already resolving.
type CircularDependencyError struct {
	Path []Key
}

func (e CircularDependencyError) Error() string {
	var b strings.Builder
	b.WriteString("circular dependency detected:\n\n")

	for i, k := range e.Path {
		b.WriteString(fmt.Sprintf("    %s\n", k))
		if i < len(e.Path)-1 {
			b.WriteString("      ↓\n")
		}
	}

	if len(e.Path) > 0 {
		b.WriteString("      ↓\n")
		b.WriteString(fmt.Sprintf("    %s (cycle)\n", e.Path[0]))
	}

	return b.String()
}

func (e CircularDependencyError) Unwrap() error {
	return ErrCircularDependency
}

// ResolutionError wraps a failure that happened while constructing the
// instance bound to Key.
type ResolutionError struct {
	Key   Key
	Cause error
}

func (e ResolutionError) Error() string {
	return fmt.Sprintf("resolve %q: %v", e.Key, e.Cause)
}

func (e ResolutionError) Unwrap() error {
	return e.Cause
}

// ArgumentError reports a constructor call whose arguments could not be
// matched to the constructor's parameters.
type ArgumentError struct {
	Constructor reflect.Type
	Parameter   string
	Cause       error
}

func (e ArgumentError) Error() string {
	if e.Parameter == "" {
		return fmt.Sprintf("call %s: %v", formatType(e.Constructor), e.Cause)
	}
	return fmt.Sprintf("call %s: parameter %s: %v", formatType(e.Constructor), e.Parameter, e.Cause)
}

func (e ArgumentError) Unwrap() error {
	return e.Cause
}

// ReferenceError reports a deferred reference whose value could not be
// produced, either because the key failed to resolve or because a field
// selector does not exist on the resolved value.
type ReferenceError struct {
	Reference Reference
	Cause     error
}

func (e ReferenceError) Error() string {
	return fmt.Sprintf("reference %s: %v", e.Reference, e.Cause)
}

func (e ReferenceError) Unwrap() error {
	return e.Cause
}

// SignaturePlanningError records a non-fatal planning problem. The affected
// parameter is treated as unmanaged and registration proceeds.
type SignaturePlanningError struct {
	Type      reflect.Type
	Parameter string
	Cause     error
}

func (e SignaturePlanningError) Error() string {
	return fmt.Sprintf("plan %s: parameter %s: %v", formatType(e.Type), e.Parameter, e.Cause)
}

func (e SignaturePlanningError) Unwrap() error {
	return e.Cause
}

// RegistrationError wraps errors during descriptor registration.
type RegistrationError struct {
	Constructor any
	Operation   string // "register", "declare", "validate"
	Cause       error
}

func (e RegistrationError) Error() string {
	return fmt.Sprintf("failed to %s %T: %v", e.Operation, e.Constructor, e.Cause)
}

func (e RegistrationError) Unwrap() error {
	return e.Cause
}

// ConstructorInvocationError wraps an error returned by a constructor.
type ConstructorInvocationError struct {
	Constructor reflect.Type
	Cause       error
}

func (e ConstructorInvocationError) Error() string {
	return fmt.Sprintf("constructor %s failed: %v", formatType(e.Constructor), e.Cause)
}

func (e ConstructorInvocationError) Unwrap() error {
	return e.Cause
}

// ConstructorPanicError indicates a constructor panicked during invocation.
// It captures the panic value and stack trace for debugging.
type ConstructorPanicError struct {
	Constructor reflect.Type
	Panic       any
	Stack       []byte
}

func (e ConstructorPanicError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("constructor %s panicked: %v\n", formatType(e.Constructor), e.Panic))

	if len(e.Stack) > 0 {
		b.WriteString("\nStack trace:\n")
		b.Write(e.Stack)
	}

	return b.String()
}

// TypeMismatchError indicates a resolved instance is not of the requested type.
type TypeMismatchError struct {
	Key      Key
	Expected reflect.Type
	Actual   reflect.Type
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("key %q: expected %s, got %s", e.Key, formatType(e.Expected), formatType(e.Actual))
}

// MissingDependencyError is reported by Container.Validate when a bound
// provider references a key that has no binding.
type MissingDependencyError struct {
	From Key
	Key  Key
}

func (e MissingDependencyError) Error() string {
	return fmt.Sprintf("%q depends on %q, which is not bound", e.From, e.Key)
}

func (e MissingDependencyError) Unwrap() error {
	return ErrMissingBinding
}

// IsMissingBinding reports whether err is caused by an unbound key.
func IsMissingBinding(err error) bool {
	return errors.Is(err, ErrMissingBinding)
}

// IsCircular reports whether err is caused by a circular dependency.
func IsCircular(err error) bool {
	return errors.Is(err, ErrCircularDependency)
}

// formatType formats a reflect.Type for error messages.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Slice:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "[]" + elem.Name()
		}
		return t.String()
	case reflect.Func:
		return t.String()
	default:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}
