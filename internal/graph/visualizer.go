package graph

import (
	"fmt"
	"io"
	"strings"
)

// Visualizer renders a DependencyGraph.
type Visualizer struct {
	graph *DependencyGraph
}

// NewVisualizer creates a new graph visualizer.
func NewVisualizer(graph *DependencyGraph) *Visualizer {
	return &Visualizer{graph: graph}
}

// WriteDOT writes the graph in Graphviz DOT format.
func (v *Visualizer) WriteDOT(w io.Writer) error {
	nodes := v.graph.Nodes()

	var b strings.Builder
	b.WriteString("digraph dependencies {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box];\n")

	for _, n := range nodes {
		fmt.Fprintf(&b, "  %q [label=\"%s\", fillcolor=\"%s\", style=filled];\n",
			n.Key, formatNodeLabel(n), nodeColor(n))
	}

	for _, n := range nodes {
		for _, dep := range n.Dependencies {
			fmt.Fprintf(&b, "  %q -> %q;\n", n.Key, dep)
		}
	}

	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteText writes the graph grouped by depth.
func (v *Visualizer) WriteText(w io.Writer) error {
	nodes := v.graph.Nodes()

	var b strings.Builder
	b.WriteString("Dependency Graph:\n")
	b.WriteString("=================\n\n")

	groups := make(map[int][]Node)
	maxDepth := 0
	for _, n := range nodes {
		groups[n.Depth] = append(groups[n.Depth], n)
		if n.Depth > maxDepth {
			maxDepth = n.Depth
		}
	}

	for depth := 0; depth <= maxDepth; depth++ {
		level, ok := groups[depth]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "Level %d:\n", depth)
		b.WriteString("--------\n")
		for _, n := range level {
			writeNodeDetails(&b, n, "  ")
		}
		b.WriteString("\n")
	}

	if cyclic, ok := groups[-1]; ok {
		b.WriteString("Nodes in Cycles:\n")
		b.WriteString("----------------\n")
		for _, n := range cyclic {
			writeNodeDetails(&b, n, "  ")
		}
		b.WriteString("\n")
	}

	edges := 0
	for _, n := range nodes {
		edges += len(n.Dependencies)
	}

	b.WriteString("Statistics:\n")
	b.WriteString("-----------\n")
	fmt.Fprintf(&b, "  Total nodes: %d\n", len(nodes))
	fmt.Fprintf(&b, "  Total edges: %d\n", edges)
	fmt.Fprintf(&b, "  Missing keys: %d\n", len(v.graph.Missing()))
	if v.graph.IsAcyclic() {
		b.WriteString("  Cycles: None (graph is acyclic)\n")
	} else {
		b.WriteString("  Cycles: DETECTED (graph contains circular dependencies)\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func formatNodeLabel(n Node) string {
	if !n.Bound {
		return fmt.Sprintf("%s\\n(unbound)", n.Key)
	}
	return fmt.Sprintf("%s\\n%s\\n%s", n.Key, n.Type, n.Kind)
}

func nodeColor(n Node) string {
	if !n.Bound {
		return "lightgray"
	}

	switch n.Kind {
	case "Singleton":
		return "lightblue"
	case "Factory":
		return "lightyellow"
	default:
		return "white"
	}
}

func writeNodeDetails(b *strings.Builder, n Node, indent string) {
	fmt.Fprintf(b, "%s%s\n", indent, n.Key)

	if n.Bound {
		fmt.Fprintf(b, "%s  Kind: %s\n", indent, n.Kind)
		if n.Type != "" {
			fmt.Fprintf(b, "%s  Type: %s\n", indent, n.Type)
		}
	} else {
		fmt.Fprintf(b, "%s  (unbound)\n", indent)
	}

	if len(n.Dependencies) > 0 {
		fmt.Fprintf(b, "%s  Dependencies: [%s]\n", indent, strings.Join(n.Dependencies, ", "))
	}

	if len(n.Dependents) > 0 {
		fmt.Fprintf(b, "%s  Dependents: [%s]\n", indent, strings.Join(n.Dependents, ", "))
	}
}
