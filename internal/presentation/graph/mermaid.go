package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/contentgraph/pkg/domain"
)

// Overlay highlights part of the graph.
type Overlay struct {
	// Focus is the key of the descriptor to highlight, together with its dependencies.
	Focus string
}

// GenerateMermaid produces a Mermaid flowchart from a list of descriptors.
// Edges point from a dependency to the descriptor that reads it. Shapes follow the kind:
// - Item: [Rectangle]
// - Sub-reference: [(Database)]
// - Unknown dependency (not in the list): {{Hexagon}}
func GenerateMermaid(descs []domain.Descriptor, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	ids := newNodeIDs()
	for _, d := range descs {
		ids.add(d.Key.String())
	}

	for _, d := range descs {
		opener, closer := "[", "]"
		if d.Kind == domain.ContentTypeSubReference {
			opener, closer = "[(", ")]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", ids.get(d.Key.String()), opener, label(d), closer))
	}

	for _, d := range descs {
		for _, dep := range d.Deps {
			depKey := dep.String()
			if _, ok := ids.byKey[depKey]; !ok {
				ids.add(depKey)
				sb.WriteString(fmt.Sprintf("    %s{{\"%s\"}}\n", ids.get(depKey), escape(depKey)))
			}
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", ids.get(depKey), ids.get(d.Key.String())))
		}
	}

	if overlay != nil && overlay.Focus != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef dependency fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef focus fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for _, d := range descs {
			if d.Key.String() != overlay.Focus {
				continue
			}
			seen := make(map[string]bool)
			for _, dep := range d.Deps {
				id := ids.get(dep.String())
				if !seen[id] {
					seen[id] = true
					sb.WriteString(fmt.Sprintf("    class %s dependency;\n", id))
				}
			}
		}
		if _, ok := ids.byKey[overlay.Focus]; ok {
			sb.WriteString(fmt.Sprintf("    class %s focus;\n", ids.get(overlay.Focus)))
		}
	}

	return sb.String()
}

// nodeIDs numbers keys n0, n1, ... in first-seen order.
type nodeIDs struct {
	byKey map[string]int
}

func newNodeIDs() *nodeIDs {
	return &nodeIDs{byKey: make(map[string]int)}
}

func (n *nodeIDs) add(key string) {
	if _, ok := n.byKey[key]; !ok {
		n.byKey[key] = len(n.byKey)
	}
}

func (n *nodeIDs) get(key string) string {
	return "n" + strconv.Itoa(n.byKey[key])
}

func label(d domain.Descriptor) string {
	if name, ok := domain.AsString(d.Properties["name"]); ok {
		return escape(name)
	}
	return escape(d.Key.String())
}

// escape replaces double quotes, which would end a Mermaid label.
func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
