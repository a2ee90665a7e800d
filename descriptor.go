package inject

import (
	"reflect"
	"sync"

	"github.com/kdpb/inject/internal/reflection"
)

// Descriptor is the registration metadata of one constructor: its key, its
// provider kind, whether it is abstract and which containers it applies to.
// Descriptors are created by Register and Declare and never change
// afterwards.
type Descriptor struct {
	// Type is the type the constructor produces.
	Type reflect.Type

	// Name is the explicit registration key, empty when the key is derived.
	Name Key

	Kind     ProviderKind
	Abstract bool

	// Tags as given at registration; see EffectiveTags.
	Tags []Tag

	// Package is the import path the descriptor is discovered under.
	Package string

	catalog *Catalog
	sig     *reflection.Signature
	opts    *options
	seq     int

	once     sync.Once
	plans    []ParameterPlan
	planErrs []error
	ctor     *Constructor
}

var _ Source = (*Descriptor)(nil)

// Key returns the explicit name, or the key derived from Type.
func (d *Descriptor) Key() Key {
	if d.Name != "" {
		return d.Name
	}
	return KeyFor(d.Type)
}

// EffectiveTags returns the registration tags, or DefaultTag when none were
// given.
func (d *Descriptor) EffectiveTags() []Tag {
	if len(d.Tags) == 0 {
		return []Tag{DefaultTag}
	}
	return append([]Tag(nil), d.Tags...)
}

// Declared reports whether the descriptor was created by Declare and has no
// constructor.
func (d *Descriptor) Declared() bool {
	return d.sig == nil
}

// Plan returns the parameter plans, planning on first use.
func (d *Descriptor) Plan() []ParameterPlan {
	d.ensurePlanned()
	return append([]ParameterPlan(nil), d.plans...)
}

// PlanErrors returns the non-fatal SignaturePlanningErrors found while
// planning.
func (d *Descriptor) PlanErrors() []error {
	d.ensurePlanned()
	return append([]error(nil), d.planErrs...)
}

// Constructor returns the rewritten constructor, or nil for declared types.
func (d *Descriptor) Constructor() *Constructor {
	d.ensurePlanned()
	return d.ctor
}

// Dependencies returns the keys the constructor resolves when called without
// arguments.
func (d *Descriptor) Dependencies() []Key {
	if c := d.Constructor(); c != nil {
		return c.Dependencies()
	}
	return nil
}

// Planning is deferred until the descriptor is first used so that every
// registration of the process has been made by then.
func (d *Descriptor) ensurePlanned() {
	d.once.Do(func() {
		if d.sig == nil {
			return
		}

		d.plans, d.planErrs = planSignature(d.sig, d.opts, d.catalog.isManaged)
		d.ctor = rewrite(d.sig, d.plans)
	})
}

// Build calls the constructor with every parameter left to its default.
func (d *Descriptor) Build(r Resolver) (any, error) {
	c := d.Constructor()
	if c == nil {
		return nil, RegistrationError{Constructor: d.Type, Operation: "build", Cause: ErrInvalidConstructor}
	}
	return c.Call(r)
}

// BindTo binds the descriptor into c and reports whether a binding was made.
// Abstract descriptors, descriptors whose effective tags miss every tag of c,
// and keys that are already bound are skipped.
func (d *Descriptor) BindTo(c *Container) bool {
	return d.bindTo(c) == outcomeBound
}

type bindOutcome int

const (
	outcomeBound bindOutcome = iota
	outcomeAbstract
	outcomeTags
	outcomeCollision
)

func (d *Descriptor) bindTo(c *Container) bindOutcome {
	if d.Abstract {
		return outcomeAbstract
	}

	if !c.tags.intersects(d.EffectiveTags()) {
		return outcomeTags
	}

	if !c.Bind(d.Key(), d.Kind, d) {
		return outcomeCollision
	}

	return outcomeBound
}

func (d *Descriptor) String() string {
	return string(d.Key()) + " (" + formatType(d.Type) + ", " + d.Kind.String() + ")"
}
