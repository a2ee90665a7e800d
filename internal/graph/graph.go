package graph

import (
	"fmt"
	"sort"
	"sync"
)

// Node is a binding in the dependency graph.
type Node struct {
	Key   string
	Kind  string // provider kind label, empty for nodes that are only referenced
	Type  string
	Bound bool

	// Dependencies are the keys this node resolves.
	Dependencies []string
	// Dependents are the keys that resolve this node.
	Dependents []string
	// Depth is the longest dependency chain below the node, -1 inside cycles.
	Depth int
}

// Edge is a dependency from one key to another.
type Edge struct {
	From string
	To   string
}

// DependencyGraph manages the dependency relationships between bindings.
// It provides cycle detection, topological sorting and missing-key reports.
type DependencyGraph struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	edges map[string][]string
}

// NewDependencyGraph creates a new dependency graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[string]*Node),
		edges: make(map[string][]string),
	}
}

// AddNode adds a bound key and its dependencies. Dependencies that are not
// added themselves show up as unbound nodes.
func (g *DependencyGraph) AddNode(key, kind, typ string, deps []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	node := g.node(key)
	node.Kind = kind
	node.Type = typ
	node.Bound = true

	seen := make(map[string]bool, len(deps))
	edges := make([]string, 0, len(deps))
	for _, dep := range deps {
		if seen[dep] {
			continue
		}
		seen[dep] = true
		edges = append(edges, dep)
		g.node(dep)
	}

	g.edges[key] = edges
	g.updateDegrees()
}

func (g *DependencyGraph) node(key string) *Node {
	n, ok := g.nodes[key]
	if !ok {
		n = &Node{Key: key}
		g.nodes[key] = n
	}
	return n
}

// updateDegrees rebuilds the dependency and dependent lists from edges.
func (g *DependencyGraph) updateDegrees() {
	for _, n := range g.nodes {
		n.Dependencies = nil
		n.Dependents = nil
	}

	for _, from := range g.sortedKeys() {
		tos := g.edges[from]
		g.nodes[from].Dependencies = append([]string(nil), tos...)
		for _, to := range tos {
			g.nodes[to].Dependents = append(g.nodes[to].Dependents, from)
		}
	}
}

func (g *DependencyGraph) sortedKeys() []string {
	keys := make([]string, 0, len(g.nodes))
	for k := range g.nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Node returns a copy of the node for key.
func (g *DependencyGraph) Node(key string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[key]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns copies of every node sorted by key, with depths filled in.
func (g *DependencyGraph) Nodes() []Node {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calculateDepths()

	out := make([]Node, 0, len(g.nodes))
	for _, k := range g.sortedKeys() {
		out = append(out, *g.nodes[k])
	}
	return out
}

// Size returns the number of nodes in the graph.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.nodes)
}

// Missing returns every edge pointing at a key that was never added.
func (g *DependencyGraph) Missing() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []Edge
	for _, from := range g.sortedKeys() {
		for _, to := range g.edges[from] {
			if !g.nodes[to].Bound {
				out = append(out, Edge{From: from, To: to})
			}
		}
	}
	return out
}

// TopologicalSort returns keys in dependency order, dependencies first.
// Ties are broken by key so the order is stable.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	// Kahn's algorithm over reversed edges: a node is ready once all of
	// its dependencies are emitted.
	remaining := make(map[string]int, len(g.nodes))
	for k := range g.nodes {
		remaining[k] = len(g.edges[k])
	}

	var ready []string
	for _, k := range g.sortedKeys() {
		if remaining[k] == 0 {
			ready = append(ready, k)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		result = append(result, current)

		var next []string
		for _, dependent := range g.nodes[current].Dependents {
			remaining[dependent]--
			if remaining[dependent] == 0 {
				next = append(next, dependent)
			}
		}
		sort.Strings(next)
		ready = append(ready, next...)
	}

	if len(result) != len(g.nodes) {
		return nil, fmt.Errorf("circular dependency detected: graph contains %d nodes but only %d could be sorted",
			len(g.nodes), len(result))
	}

	return result, nil
}

// DetectCycles returns a CircularDependencyError for the first cycle found,
// visiting nodes in key order.
func (g *DependencyGraph) DetectCycles() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	const (
		unvisited = iota
		visiting
		done
	)

	state := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(key string) error
	visit = func(key string) error {
		switch state[key] {
		case done:
			return nil
		case visiting:
			for i, k := range stack {
				if k == key {
					return CircularDependencyError{Path: append([]string(nil), stack[i:]...)}
				}
			}
		}

		state[key] = visiting
		stack = append(stack, key)

		for _, dep := range g.edges[key] {
			if err := visit(dep); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		state[key] = done
		return nil
	}

	for _, k := range g.sortedKeys() {
		if err := visit(k); err != nil {
			return err
		}
	}

	return nil
}

// IsAcyclic returns true if the graph has no cycles.
func (g *DependencyGraph) IsAcyclic() bool {
	return g.DetectCycles() == nil
}

// TransitiveDependencies returns every key reachable from key, in visit order.
func (g *DependencyGraph) TransitiveDependencies(key string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := map[string]bool{key: true}
	var result []string

	var collect func(current string)
	collect = func(current string) {
		for _, dep := range g.edges[current] {
			if !visited[dep] {
				visited[dep] = true
				result = append(result, dep)
				collect(dep)
			}
		}
	}

	collect(key)
	return result
}

// calculateDepths assigns depths. Callers hold the write lock.
func (g *DependencyGraph) calculateDepths() {
	memo := make(map[string]int, len(g.nodes))
	onStack := make(map[string]bool)

	var depth func(key string) int
	depth = func(key string) int {
		if d, ok := memo[key]; ok {
			return d
		}
		if onStack[key] {
			return -1
		}

		onStack[key] = true
		d := 0
		for _, dep := range g.edges[key] {
			dd := depth(dep)
			if dd < 0 {
				d = -1
				break
			}
			if dd+1 > d {
				d = dd + 1
			}
		}
		onStack[key] = false

		memo[key] = d
		return d
	}

	for k, n := range g.nodes {
		n.Depth = depth(k)
	}
}

func (n Node) String() string {
	return fmt.Sprintf("Node{%s, deps:%d, dependents:%d, depth:%d}",
		n.Key, len(n.Dependencies), len(n.Dependents), n.Depth)
}
