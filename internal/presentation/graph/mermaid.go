package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/remodel/internal/workflow"
	"github.com/aretw0/remodel/pkg/domain"
)

// GraphOverlay contains session state to highlight on the diagram.
type GraphOverlay struct {
	Visited []domain.Phase
	Current domain.Phase
}

// OverlayFor builds an overlay from a snapshot's visited phases and current phase.
func OverlayFor(s *domain.Snapshot) *GraphOverlay {
	if s == nil {
		return nil
	}
	return &GraphOverlay{Visited: s.Visited, Current: s.Phase}
}

// GenerateMermaid produces a Mermaid flowchart of a family's transition table.
// It applies semantic styling:
// - Initial phase: ((Circle))
// - Painting: ([Stadium])
// - Patch editing: [[Subroutine]]
// - Default: [Rectangle]
// User actions are solid edges, engine events dotted ones.
func GenerateMermaid(table *workflow.Table, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	fmt.Fprintf(&sb, "    %%%% %s\n", table.Family.Title())

	for _, phase := range table.Phases {
		opener, closer := "[", "]"
		switch {
		case phase == table.Initial:
			opener, closer = "((", "))"
		case phase == domain.PhasePainting:
			opener, closer = "([", "])"
		case phase.IsPatchEditing():
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(string(phase)), opener, phase, closer)
	}

	for _, e := range table.Edges() {
		from, to := sanitizeMermaidID(string(e.From)), sanitizeMermaidID(string(e.To))
		label := strings.ReplaceAll(e.Trigger, "\"", "'")
		if domain.ActionKind(e.Trigger).Valid() {
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", from, label, to)
		} else {
			fmt.Fprintf(&sb, "    %s -. \"⚡ %s\" .-> %s\n", from, label, to)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps the highlight readable on both themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, p := range overlay.Visited {
			id := sanitizeMermaidID(string(p))
			if id == "" || seen[id] || p == overlay.Current {
				continue
			}
			seen[id] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", id)
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(string(overlay.Current)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return r.Replace(id)
}
