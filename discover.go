package inject

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ErrUnknownPackage is returned by Discover when no registration lives in or
// below the root package.
var ErrUnknownPackage = errors.New("no registrations in package")

// Report summarises one discovery pass.
type Report struct {
	// Packages lists the visited packages or modules in visit order.
	Packages []string

	Bound           []Key
	SkippedAbstract []Key
	SkippedTags     []Key
	Collisions      []Key

	// PlanErrors collects the SignaturePlanningErrors of every visited
	// descriptor.
	PlanErrors []error
}

// Discover binds every eligible descriptor registered in root or any package
// below it into c. An empty root walks the whole catalog.
//
// Each package is visited once. Sub-packages are visited in path order
// before the package's own descriptors, which are taken in type name order.
// That order decides which descriptor wins when several map to one key.
// Running Discover again on the same container binds nothing new.
func (cat *Catalog) Discover(root string, c *Container) (Report, error) {
	if cat == nil {
		return Report{}, ErrCatalogNil
	}
	if c == nil {
		return Report{}, ErrContainerNil
	}

	root = strings.TrimSuffix(root, "/")

	tree := newPackageTree(root)
	for _, pkg := range cat.Packages() {
		if root == "" || pkg == root || strings.HasPrefix(pkg, root+"/") {
			tree.add(pkg)
		}
	}

	if tree.empty() {
		return Report{}, fmt.Errorf("discover %q: %w", root, ErrUnknownPackage)
	}

	d := &discoverer{c: c, visited: make(map[string]bool)}
	d.walkPackage(tree, root, cat)

	c.logger.Info("discovery finished",
		zap.String("root", root),
		zap.Int("packages", len(d.report.Packages)),
		zap.Int("bound", len(d.report.Bound)),
		zap.Int("collisions", len(d.report.Collisions)),
		zap.Int("plan_errors", len(d.report.PlanErrors)))

	return d.report, nil
}

// packageTree holds package paths as a tree of path segments. Intermediate
// directories without registrations of their own are part of the tree.
type packageTree struct {
	root     string
	children map[string][]string
	nonEmpty bool
}

func newPackageTree(root string) *packageTree {
	return &packageTree{root: root, children: make(map[string][]string)}
}

func (t *packageTree) add(pkg string) {
	t.nonEmpty = true

	for pkg != t.root {
		parent := t.root
		if i := strings.LastIndexByte(pkg, '/'); i >= 0 && len(pkg[:i]) >= len(t.root) {
			parent = pkg[:i]
		}

		if !contains(t.children[parent], pkg) {
			t.children[parent] = append(t.children[parent], pkg)
		}
		pkg = parent
	}
}

func (t *packageTree) empty() bool {
	return !t.nonEmpty
}

func (t *packageTree) childrenOf(pkg string) []string {
	out := append([]string(nil), t.children[pkg]...)
	sort.Strings(out)
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type discoverer struct {
	c       *Container
	report  Report
	visited map[string]bool
	modules map[*Module]bool
}

func (d *discoverer) walkPackage(tree *packageTree, pkg string, cat *Catalog) {
	if d.visited[pkg] {
		return
	}
	d.visited[pkg] = true

	for _, child := range tree.childrenOf(pkg) {
		d.walkPackage(tree, child, cat)
	}

	descriptors := cat.inPackage(pkg)
	if len(descriptors) == 0 {
		return
	}

	d.report.Packages = append(d.report.Packages, pkg)
	for _, desc := range descriptors {
		d.process(desc)
	}
}

func (d *discoverer) walkModule(m *Module) {
	if m == nil || d.modules[m] {
		return
	}
	d.modules[m] = true

	var descriptors []*Descriptor
	for _, item := range m.items {
		switch v := item.(type) {
		case *Module:
			d.walkModule(v)
		case *Descriptor:
			descriptors = append(descriptors, v)
		}
	}

	sortDescriptors(descriptors)

	d.report.Packages = append(d.report.Packages, m.name)
	for _, desc := range descriptors {
		d.process(desc)
	}
}

func (d *discoverer) process(desc *Descriptor) {
	key := desc.Key()
	d.report.PlanErrors = append(d.report.PlanErrors, desc.PlanErrors()...)

	switch desc.bindTo(d.c) {
	case outcomeBound:
		d.report.Bound = append(d.report.Bound, key)
	case outcomeAbstract:
		d.report.SkippedAbstract = append(d.report.SkippedAbstract, key)
		d.c.observer.OnSkip(key, SkipAbstract)
	case outcomeTags:
		d.report.SkippedTags = append(d.report.SkippedTags, key)
		d.c.observer.OnSkip(key, SkipTags)
		d.c.logger.Debug("skipped, no common tag",
			zap.String("key", string(key)),
			zap.Any("tags", desc.EffectiveTags()))
	case outcomeCollision:
		d.report.Collisions = append(d.report.Collisions, key)
	}
}
