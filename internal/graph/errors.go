package graph

import (
	"fmt"
	"strings"
)

// CircularDependencyError represents a cycle between bound keys.
type CircularDependencyError struct {
	Path []string
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

	b.WriteString("\nTo resolve this:\n")
	b.WriteString("  • Depend on a declared interface instead of the concrete type\n")
	b.WriteString("  • Resolve one side lazily through a Factory binding\n")

	return b.String()
}
