package inject

import (
	"errors"
	"io"

	"github.com/kdpb/inject/internal/graph"
)

// Graph is the dependency graph of a container's bindings, built from the
// references each binding resolves when called without arguments.
type Graph struct {
	g *graph.DependencyGraph
}

// Graph snapshots the current bindings.
func (c *Container) Graph() *Graph {
	g := graph.NewDependencyGraph()

	for _, info := range c.Bindings() {
		deps := make([]string, len(info.Dependencies))
		for i, k := range info.Dependencies {
			deps[i] = string(k)
		}
		g.AddNode(string(info.Key), info.Kind.String(), info.Type, deps)
	}

	return &Graph{g: g}
}

// Order returns the bound keys with dependencies before dependents.
func (g *Graph) Order() ([]Key, error) {
	sorted, err := g.g.TopologicalSort()
	if err != nil {
		return nil, err
	}

	keys := make([]Key, len(sorted))
	for i, k := range sorted {
		keys[i] = Key(k)
	}
	return keys, nil
}

// DependenciesOf returns every key reachable from key.
func (g *Graph) DependenciesOf(key Key) []Key {
	deps := g.g.TransitiveDependencies(string(key))
	keys := make([]Key, len(deps))
	for i, k := range deps {
		keys[i] = Key(k)
	}
	return keys
}

// WriteDOT renders the graph in Graphviz DOT format.
func (g *Graph) WriteDOT(w io.Writer) error {
	return graph.NewVisualizer(g.g).WriteDOT(w)
}

// WriteText renders the graph as text grouped by depth.
func (g *Graph) WriteText(w io.Writer) error {
	return graph.NewVisualizer(g.g).WriteText(w)
}

// Validate checks the binding graph without building anything. It reports
// a MissingDependencyError for every reference to an unbound key and a
// CircularDependencyError for the first cycle found.
func (c *Container) Validate() error {
	g := c.Graph().g

	var errs []error
	for _, e := range g.Missing() {
		errs = append(errs, MissingDependencyError{From: Key(e.From), Key: Key(e.To)})
	}

	if err := g.DetectCycles(); err != nil {
		var cycle graph.CircularDependencyError
		if errors.As(err, &cycle) {
			path := make([]Key, len(cycle.Path))
			for i, k := range cycle.Path {
				path[i] = Key(k)
			}
			errs = append(errs, CircularDependencyError{Path: path})
		} else {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
