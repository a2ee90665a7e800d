package inject

import (
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"

	"github.com/kdpb/inject/internal/reflection"
)

// Constructor is a registered constructor with its defaults rewritten by the
// parameter plan. It is safe for concurrent use.
type Constructor struct {
	fn     reflect.Value
	sig    *reflection.Signature
	params []slot
	fields []slot

	injecting bool
}

// slot is one parameter with its effective default.
type slot struct {
	plan     ParameterPlan
	required bool
}

// rewrite applies plans to the analyzed constructor.
//
// Positional defaults only survive as a trailing run: the positional
// parameters are walked from the last one backwards and the run stops at the
// first parameter without a default. Anything planned before that point is
// dropped and the parameter becomes required. Parameter object fields keep
// their defaults independently.
func rewrite(sig *reflection.Signature, plans []ParameterPlan) *Constructor {
	c := &Constructor{fn: sig.Func, sig: sig}

	for _, p := range plans {
		if p.Keyword {
			c.fields = append(c.fields, slot{plan: p, required: !p.hasDefault()})
		} else {
			c.params = append(c.params, slot{plan: p})
		}
	}

	trailing := len(c.params)
	for trailing > 0 && c.params[trailing-1].plan.hasDefault() {
		trailing--
	}

	for i := range c.params {
		if i < trailing {
			c.params[i].required = true
			c.params[i].plan.Strategy = Unmanaged
			c.params[i].plan.Reference = Reference{}
			c.params[i].plan.Default = nil
			c.params[i].plan.HasDefault = false
		}
	}

	for _, p := range c.Parameters() {
		if p.IsReference() {
			c.injecting = true
			break
		}
	}

	return c
}

// Type returns the constructor's function type.
func (c *Constructor) Type() reflect.Type {
	return c.sig.Type
}

// Result returns the type the constructor produces.
func (c *Constructor) Result() reflect.Type {
	return c.sig.Result
}

// Func returns the original, unwrapped constructor.
func (c *Constructor) Func() any {
	return c.fn.Interface()
}

// Injecting reports whether any effective default is a reference. Calls to
// a constructor that is not injecting never use the resolver.
func (c *Constructor) Injecting() bool {
	return c.injecting
}

// Parameters returns the effective parameter plans after the trailing
// default rule has been applied.
func (c *Constructor) Parameters() []ParameterPlan {
	out := make([]ParameterPlan, 0, len(c.params)+len(c.fields))
	for _, s := range c.params {
		out = append(out, s.plan)
	}
	for _, s := range c.fields {
		out = append(out, s.plan)
	}
	return out
}

// Required returns the names of parameters the caller must supply.
func (c *Constructor) Required() []string {
	var out []string
	for _, s := range c.params {
		if s.required {
			out = append(out, s.plan.Name)
		}
	}
	for _, s := range c.fields {
		if s.required {
			out = append(out, s.plan.Name)
		}
	}
	return out
}

// Dependencies returns the keys of every effective reference default that
// must be bound. Optional references are left out.
func (c *Constructor) Dependencies() []Key {
	var keys []Key
	for _, p := range c.Parameters() {
		if p.IsReference() && !p.Optional {
			keys = append(keys, p.Reference.Key())
		}
	}
	return keys
}

// Call invokes the constructor. Plain args fill positional parameters left
// to right; KwArg values fill parameter object fields by name. One extra
// positional argument of the parameter object's type supplies the whole
// object. Parameters the caller leaves out take their effective default, and
// reference defaults are resolved through r. Caller values always win.
func (c *Constructor) Call(r Resolver, args ...any) (any, error) {
	var (
		positional []any
		keywords   []KwArg
	)
	for _, arg := range args {
		if kw, ok := arg.(KwArg); ok {
			keywords = append(keywords, kw)
			continue
		}
		positional = append(positional, arg)
	}

	var object any
	hasObject := false
	if c.sig.Object != nil && len(positional) == len(c.params)+1 {
		object, hasObject = positional[len(positional)-1], true
		positional = positional[:len(positional)-1]
	}

	if len(positional) > len(c.params) {
		return nil, c.argError("", fmt.Errorf("%w: got %d, want at most %d", ErrTooManyArguments, len(positional), len(c.params)))
	}

	if c.sig.Object == nil && len(keywords) > 0 {
		return nil, c.argError(keywords[0].Name, ErrUnknownKeyword)
	}

	in := make([]reflect.Value, c.sig.Type.NumIn())

	for i, s := range c.params {
		var (
			v   reflect.Value
			err error
		)

		if i < len(positional) {
			v, err = assignable(reflect.ValueOf(positional[i]), s.plan.Type)
		} else {
			v, err = c.fill(r, s)
		}
		if err != nil {
			return nil, c.argError(s.plan.Name, err)
		}

		in[s.plan.Index] = v
	}

	if c.sig.Object != nil {
		obj, err := c.buildObject(r, object, hasObject, keywords)
		if err != nil {
			return nil, err
		}
		in[c.sig.Object.Index] = obj
	}

	return c.invoke(in)
}

func (c *Constructor) fill(r Resolver, s slot) (reflect.Value, error) {
	switch {
	case s.required:
		return reflect.Value{}, ErrMissingArgument
	case s.plan.IsReference():
		if r == nil {
			return reflect.Value{}, ErrResolverNil
		}
		v, err := s.plan.Reference.resolve(r)
		if err != nil {
			var missing MissingBindingError
			if s.plan.Optional && errors.As(err, &missing) && missing.Key == s.plan.Reference.Key() {
				return reflect.Zero(s.plan.Type), nil
			}
			return reflect.Value{}, err
		}
		return assignable(v, s.plan.Type)
	default:
		return assignable(reflect.ValueOf(s.plan.Default), s.plan.Type)
	}
}

func (c *Constructor) buildObject(r Resolver, object any, hasObject bool, keywords []KwArg) (reflect.Value, error) {
	po := c.sig.Object
	obj := reflect.New(po.Type).Elem()

	if hasObject {
		v, err := assignable(reflect.ValueOf(object), c.sig.Type.In(po.Index))
		if err != nil {
			return reflect.Value{}, c.argError(formatType(po.Type), err)
		}
		if po.Pointer {
			if !v.IsNil() {
				obj.Set(v.Elem())
			}
		} else {
			obj.Set(v)
		}
	}

	supplied := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		s, ok := c.field(kw.Name)
		if !ok {
			return reflect.Value{}, c.argError(kw.Name, ErrUnknownKeyword)
		}
		if supplied[kw.Name] {
			return reflect.Value{}, c.argError(kw.Name, fmt.Errorf("keyword argument repeated"))
		}
		supplied[kw.Name] = true

		v, err := assignable(reflect.ValueOf(kw.Value), s.plan.Type)
		if err != nil {
			return reflect.Value{}, c.argError(kw.Name, err)
		}
		obj.FieldByIndex(s.plan.fieldIndex).Set(v)
	}

	if !hasObject {
		for _, s := range c.fields {
			if supplied[s.plan.Name] {
				continue
			}

			v, err := c.fill(r, s)
			if err != nil {
				return reflect.Value{}, c.argError(s.plan.Name, err)
			}
			obj.FieldByIndex(s.plan.fieldIndex).Set(v)
		}
	}

	if po.Pointer {
		return obj.Addr(), nil
	}
	return obj, nil
}

func (c *Constructor) field(name string) (slot, bool) {
	for _, s := range c.fields {
		if s.plan.Name == name {
			return s, true
		}
	}
	return slot{}, false
}

func (c *Constructor) invoke(in []reflect.Value) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = ConstructorPanicError{Constructor: c.sig.Type, Panic: p, Stack: debug.Stack()}
		}
	}()

	out := c.fn.Call(in)

	if c.sig.HasErrorReturn && !out[1].IsNil() {
		return nil, ConstructorInvocationError{Constructor: c.sig.Type, Cause: out[1].Interface().(error)}
	}

	return out[0].Interface(), nil
}

func (c *Constructor) argError(param string, cause error) error {
	return ArgumentError{Constructor: c.sig.Type, Parameter: param, Cause: cause}
}
