package inject

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// ModuleItem is either a *Descriptor or a *Module.
type ModuleItem interface {
	moduleItem()
}

func (*Descriptor) moduleItem() {}
func (*Module) moduleItem() {}

// Module groups descriptors and other modules into an explicit tree that
// DiscoverModules walks instead of the package tree. Modules may include
// each other; each is walked once.
//
// Example:
//
//	var Storage = inject.NewModule("storage",
//	    inject.Register(NewMongoDatabase),
//	    inject.Register(NewProviderSettingsRepository),
//	)
//
//	var App = inject.NewModule("app", Storage, inject.Register(NewApplication))
type Module struct {
	name  string
	items []ModuleItem
}

// NewModule creates a module holding items.
func NewModule(name string, items ...ModuleItem) *Module {
	m := &Module{name: name}
	m.Add(items...)
	return m
}

// Add appends items to the module. Nil items are ignored.
func (m *Module) Add(items ...ModuleItem) *Module {
	for _, item := range items {
		switch v := item.(type) {
		case nil:
		case *Descriptor:
			if v != nil {
				m.items = append(m.items, v)
			}
		case *Module:
			if v != nil {
				m.items = append(m.items, v)
			}
		}
	}
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.name
}

func (m *Module) String() string {
	return fmt.Sprintf("Module(%s)", m.name)
}

// DiscoverModules binds the descriptors of modules and their sub-modules
// into c. Sub-modules are walked before a module's own descriptors, which
// are taken in type name order.
func DiscoverModules(c *Container, modules ...*Module) (Report, error) {
	if c == nil {
		return Report{}, ErrContainerNil
	}

	d := &discoverer{c: c, modules: make(map[*Module]bool)}
	for _, m := range modules {
		d.walkModule(m)
	}

	c.logger.Info("module discovery finished",
		zap.Int("modules", len(d.report.Packages)),
		zap.Int("bound", len(d.report.Bound)),
		zap.Int("collisions", len(d.report.Collisions)))

	return d.report, nil
}

func sortDescriptors(list []*Descriptor) {
	sort.SliceStable(list, func(i, j int) bool {
		return typeSortName(list[i].Type) < typeSortName(list[j].Type)
	})
}
