package graph

import (
	"fmt"
	"strings"

	"github.com/scrm/trolley/internal/runtime"
	"github.com/scrm/trolley/pkg/domain"
)

// GraphOverlay contains live data to visualize on the diagram.
type GraphOverlay struct {
	Visited []domain.OperatingState
	Current domain.OperatingState
}

// GenerateMermaid produces a Mermaid state diagram from the legal state
// changes. Parallel edges between the same pair of states share one arrow
// with their triggers joined. Faulted is drawn as an alert state.
func GenerateMermaid(edges []runtime.Edge, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("stateDiagram-v2\n")
	sb.WriteString(fmt.Sprintf("    [*] --> %s\n", stateID(domain.StateIdle)))

	type pair struct{ from, to domain.OperatingState }
	var order []pair
	labels := make(map[pair][]string)
	for _, e := range edges {
		p := pair{e.From, e.To}
		if _, ok := labels[p]; !ok {
			order = append(order, p)
			labels[p] = nil
		}
		if e.Trigger == "" || contains(labels[p], e.Trigger) {
			continue
		}
		labels[p] = append(labels[p], e.Trigger)
	}

	for _, p := range order {
		line := fmt.Sprintf("    %s --> %s", stateID(p.from), stateID(p.to))
		if l := labels[p]; len(l) > 0 {
			line += " : " + strings.ReplaceAll(strings.Join(l, ", "), ":", "")
		}
		sb.WriteString(line + "\n")
	}

	sb.WriteString("\n    classDef fault fill:#ffcdd2,stroke:#b71c1c,color:#000;\n")
	sb.WriteString(fmt.Sprintf("    class %s fault\n", stateID(domain.StateFaulted)))

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[domain.OperatingState]bool)
		for _, s := range overlay.Visited {
			if s == "" || seen[s] || s == overlay.Current {
				continue
			}
			seen[s] = true
			sb.WriteString(fmt.Sprintf("    class %s visited\n", stateID(s)))
		}
		if overlay.Current != "" {
			sb.WriteString(fmt.Sprintf("    class %s current\n", stateID(overlay.Current)))
		}
	}

	return sb.String()
}

// stateID capitalizes the state name; Mermaid reserves lower-case "state".
func stateID(s domain.OperatingState) string {
	name := string(s)
	if name == "" {
		return "Unknown"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
