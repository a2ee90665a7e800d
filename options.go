package inject

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/kdpb/inject/internal/reflection"
)

// In marks a struct as a parameter object. When the last parameter of a
// registered constructor is a struct (or pointer to a struct) embedding In,
// its exported fields become keyword parameters: each is planned on its own
// and can be supplied at call time with Kw.
//
//	type PipelineParams struct {
//	    inject.In
//
//	    Settings *Settings
//	    Store    DocumentStore `inject:"mongo_database"`
//	    Retries  int           `optional:"true"`
//	}
//
// Supported field tags:
//
//	inject:"key"          resolve the field from the binding named key
//	inject:"key,optional" same, but the zero value when key is unbound
//	inject:"-"            never managed, left at its zero value
//	optional:"true"       zero value when unmanaged or when its reference is unbound
type In = reflection.In

// An Option modifies the registration of a constructor with Register,
// Declare or (*Catalog).Register.
type Option interface {
	applyOption(*options)
}

type options struct {
	Name     Key
	Kind     ProviderKind
	Abstract bool
	Tags     []Tag
	Package  string

	Params     map[int]Reference
	Defaults   map[int]any
	KwParams   map[string]Reference
	KwDefaults map[string]any
}

func newOptions(opts []Option) *options {
	o := &options{Kind: Singleton}
	for _, opt := range opts {
		if opt != nil {
			opt.applyOption(o)
		}
	}

	return o
}

func (o *options) Validate() error {
	if o.Name != "" {
		if strings.IndexFunc(string(o.Name), unicode.IsSpace) >= 0 {
			return fmt.Errorf("invalid inject.Name(%q): names cannot contain whitespace", o.Name)
		}
	}

	if !o.Kind.IsValid() {
		return ProviderKindError{Value: int(o.Kind)}
	}

	for _, tag := range o.Tags {
		if tag == "" {
			return fmt.Errorf("invalid inject.Tags: tags cannot be empty")
		}
	}

	return nil
}

// Name is an Option that registers the constructor under an explicit key
// instead of the key derived from its result type.
//
//	inject.Register(NewLogger, inject.Name("logger"), inject.Kind(inject.Factory))
func Name(name Key) Option {
	return nameOption(name)
}

type nameOption Key

func (o nameOption) String() string {
	return fmt.Sprintf("Name(%q)", string(o))
}

func (o nameOption) applyOption(opts *options) {
	opts.Name = Key(o)
}

// Kind is an Option that selects the provider kind. The default is Singleton.
func Kind(kind ProviderKind) Option {
	return kindOption(kind)
}

type kindOption ProviderKind

func (o kindOption) String() string {
	return fmt.Sprintf("Kind(%s)", ProviderKind(o))
}

func (o kindOption) applyOption(opts *options) {
	opts.Kind = ProviderKind(o)
}

// Abstract is an Option that keeps the constructor out of every container.
// Its type still counts as managed when other constructors are planned.
func Abstract() Option {
	return abstractOption{}
}

type abstractOption struct{}

func (abstractOption) String() string {
	return "Abstract()"
}

func (abstractOption) applyOption(opts *options) {
	opts.Abstract = true
}

// Tags is an Option that limits the registration to containers carrying at
// least one of the given tags. Without it the registration carries DefaultTag.
func Tags(tags ...Tag) Option {
	return tagsOption(tags)
}

type tagsOption []Tag

func (o tagsOption) String() string {
	parts := make([]string, len(o))
	for i, t := range o {
		parts[i] = string(t)
	}
	return fmt.Sprintf("Tags(%s)", strings.Join(parts, ", "))
}

func (o tagsOption) applyOption(opts *options) {
	opts.Tags = append(opts.Tags, o...)
}

// Package is an Option that overrides the package a registration is
// discovered under. By default it is the package declaring the constructor.
func Package(path string) Option {
	return packageOption(path)
}

type packageOption string

func (o packageOption) applyOption(opts *options) {
	opts.Package = string(o)
}

// Param is an Option that pre-wires the positional parameter at index to an
// explicit reference. It takes precedence over inference.
//
//	inject.Register(NewApp, inject.Param(0, inject.Ref("settings").Field("App")))
func Param(index int, ref Reference) Option {
	return paramOption{index: index, ref: ref}
}

type paramOption struct {
	index int
	ref   Reference
}

func (o paramOption) String() string {
	return fmt.Sprintf("Param(%d, %s)", o.index, o.ref)
}

func (o paramOption) applyOption(opts *options) {
	if opts.Params == nil {
		opts.Params = make(map[int]Reference)
	}
	opts.Params[o.index] = o.ref
}

// Default is an Option that gives the positional parameter at index an
// unmanaged default value. A nil value stands for the parameter's zero value.
func Default(index int, value any) Option {
	return defaultOption{index: index, value: value}
}

type defaultOption struct {
	index int
	value any
}

func (o defaultOption) String() string {
	return fmt.Sprintf("Default(%d, %v)", o.index, o.value)
}

func (o defaultOption) applyOption(opts *options) {
	if opts.Defaults == nil {
		opts.Defaults = make(map[int]any)
	}
	opts.Defaults[o.index] = o.value
}

// KwParam is an Option that pre-wires the parameter object field name to an
// explicit reference. It overrides an inject struct tag on the same field.
func KwParam(name string, ref Reference) Option {
	return kwParamOption{name: name, ref: ref}
}

type kwParamOption struct {
	name string
	ref  Reference
}

func (o kwParamOption) applyOption(opts *options) {
	if opts.KwParams == nil {
		opts.KwParams = make(map[string]Reference)
	}
	opts.KwParams[o.name] = o.ref
}

// KwDefault is an Option that gives the parameter object field name an
// unmanaged default value.
func KwDefault(name string, value any) Option {
	return kwDefaultOption{name: name, value: value}
}

type kwDefaultOption struct {
	name  string
	value any
}

func (o kwDefaultOption) applyOption(opts *options) {
	if opts.KwDefaults == nil {
		opts.KwDefaults = make(map[string]any)
	}
	opts.KwDefaults[o.name] = o.value
}

// sortedIndexes returns the keys of m in ascending order.
func sortedIndexes[V any](m map[int]V) []int {
	out := make([]int, 0, len(m))
	for i := range m {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func sortedNames[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// KwArg is a keyword argument passed to (*Constructor).Call.
type KwArg struct {
	Name  string
	Value any
}

// Kw returns a keyword argument filling the parameter object field name.
func Kw(name string, value any) KwArg {
	return KwArg{Name: name, Value: value}
}
