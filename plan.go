package inject

import (
	"fmt"
	"reflect"

	"github.com/kdpb/inject/internal/reflection"
)

// Strategy says how a constructor parameter gets its value when the caller
// does not supply one.
type Strategy int

const (
	// Unmanaged parameters are left to the caller. An unmanaged default, if
	// any, is kept verbatim.
	Unmanaged Strategy = iota
	// InferredReference parameters are resolved from the key derived from
	// their declared type, which is itself registered.
	InferredReference
	// ExplicitReference parameters were pre-wired to a key with Param,
	// KwParam or an inject struct tag.
	ExplicitReference
)

func (s Strategy) String() string {
	switch s {
	case Unmanaged:
		return "Unmanaged"
	case InferredReference:
		return "InferredReference"
	case ExplicitReference:
		return "ExplicitReference"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParameterPlan is the planned treatment of one constructor parameter.
type ParameterPlan struct {
	// Name is "#i (type)" for positional parameters and the field name for
	// parameter object fields.
	Name string

	// Index is the positional index, or the field index inside the
	// parameter object for keyword parameters.
	Index int

	Type     reflect.Type
	Keyword  bool
	Strategy Strategy

	// Reference is set for ExplicitReference and InferredReference.
	Reference Reference

	// Optional references take the zero value when their key is unbound.
	Optional bool

	// Default holds the unmanaged default when HasDefault is set.
	Default    any
	HasDefault bool

	fieldIndex []int
}

// IsReference reports whether the parameter defaults to a deferred reference.
func (p ParameterPlan) IsReference() bool {
	return p.Strategy == ExplicitReference || p.Strategy == InferredReference
}

// hasDefault reports whether the parameter carries any default at all.
func (p ParameterPlan) hasDefault() bool {
	return p.IsReference() || p.HasDefault
}

// planner decides, parameter by parameter, which values a constructor gets
// from the container.
type planner struct {
	sig       *reflection.Signature
	opts      *options
	isManaged func(reflect.Type) bool
	owner     reflect.Type

	errs []error
}

// planSignature produces the parameter plans of sig, positional parameters
// first and parameter object fields after. Problems are collected as
// SignaturePlanningErrors and the affected parameter degrades to Unmanaged.
func planSignature(sig *reflection.Signature, opts *options, isManaged func(reflect.Type) bool) ([]ParameterPlan, []error) {
	p := &planner{sig: sig, opts: opts, isManaged: isManaged, owner: sig.Result}

	for _, w := range sig.Warnings {
		p.fail(w.Parameter, w.Cause)
	}

	p.checkOptionTargets()

	plans := make([]ParameterPlan, 0, len(sig.Positional))
	for i, param := range sig.Positional {
		plans = append(plans, p.planPositional(i, param))
	}

	if sig.Object != nil {
		for _, field := range sig.Object.Fields {
			plans = append(plans, p.planField(field))
		}
	}

	return plans, p.errs
}

func (p *planner) fail(param string, cause error) {
	p.errs = append(p.errs, SignaturePlanningError{Type: p.owner, Parameter: param, Cause: cause})
}

func (p *planner) checkOptionTargets() {
	n := len(p.sig.Positional)
	for _, i := range sortedIndexes(p.opts.Params) {
		if i < 0 || i >= n {
			p.fail(fmt.Sprintf("#%d", i), fmt.Errorf("Param index out of range [0,%d)", n))
		}
	}
	for _, i := range sortedIndexes(p.opts.Defaults) {
		if i < 0 || i >= n {
			p.fail(fmt.Sprintf("#%d", i), fmt.Errorf("Default index out of range [0,%d)", n))
		}
	}

	fields := make(map[string]bool)
	if p.sig.Object != nil {
		for _, f := range p.sig.Object.Fields {
			fields[f.Name] = true
		}
	}
	for _, name := range sortedNames(p.opts.KwParams) {
		if !fields[name] {
			p.fail(name, fmt.Errorf("KwParam names no parameter object field"))
		}
	}
	for _, name := range sortedNames(p.opts.KwDefaults) {
		if !fields[name] {
			p.fail(name, fmt.Errorf("KwDefault names no parameter object field"))
		}
	}
}

func (p *planner) planPositional(i int, param reflection.Parameter) ParameterPlan {
	plan := ParameterPlan{Name: param.Name, Index: i, Type: param.Type}

	ref, hasRef := p.opts.Params[i]
	def, hasDef := p.opts.Defaults[i]

	if hasRef && ref.IsZero() {
		p.fail(param.Name, fmt.Errorf("Param reference has no key"))
		hasRef = false
	}

	if hasRef && hasDef {
		p.fail(param.Name, fmt.Errorf("both Param and Default given; Default ignored"))
	}

	p.decide(&plan, ref, hasRef, def, hasDef)
	return plan
}

func (p *planner) planField(field reflection.Parameter) ParameterPlan {
	plan := ParameterPlan{
		Name:       field.Name,
		Index:      field.Index,
		Type:       field.Type,
		Keyword:    true,
		fieldIndex: field.FieldIndex,
	}

	ref, hasRef := p.opts.KwParams[field.Name]
	if hasRef && ref.IsZero() {
		p.fail(field.Name, fmt.Errorf("KwParam reference has no key"))
		hasRef = false
	}
	if !hasRef && field.Tag.Key != "" {
		ref, hasRef = Ref(Key(field.Tag.Key)), true
	}

	def, hasDef := p.opts.KwDefaults[field.Name]
	if !hasDef && field.Tag.Optional {
		def, hasDef = nil, true
	}

	p.decide(&plan, ref, hasRef, def, hasDef)
	plan.Optional = plan.IsReference() && field.Tag.Optional
	return plan
}

func (p *planner) decide(plan *ParameterPlan, ref Reference, hasRef bool, def any, hasDef bool) {
	switch {
	case hasRef:
		plan.Strategy = ExplicitReference
		plan.Reference = ref
		return
	case p.isManaged != nil && p.isManaged(plan.Type):
		plan.Strategy = InferredReference
		plan.Reference = Ref(KeyFor(plan.Type))
		return
	}

	plan.Strategy = Unmanaged
	if !hasDef {
		return
	}

	v, err := assignable(reflect.ValueOf(def), plan.Type)
	if err != nil {
		p.fail(plan.Name, fmt.Errorf("default %v: %w", def, err))
		return
	}

	plan.Default = v.Interface()
	plan.HasDefault = true
}

// assignable converts v into a value usable for a parameter of type t.
// An invalid v (untyped nil) becomes the zero value of t when t is nillable,
// and of any type for defaults declared with a nil value.
func assignable(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	if !v.IsValid() {
		return reflect.Zero(t), nil
	}

	if v.Type().AssignableTo(t) {
		if v.Type() != t {
			out := reflect.New(t).Elem()
			out.Set(v)
			return out, nil
		}
		return v, nil
	}

	if v.Kind() == reflect.Interface && !v.IsNil() {
		return assignable(v.Elem(), t)
	}

	return reflect.Value{}, fmt.Errorf("%w: %s is not assignable to %s", ErrNotAssignable, formatType(v.Type()), formatType(t))
}
