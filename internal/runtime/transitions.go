package runtime

import "github.com/scrm/trolley/pkg/domain"

// Edge is one legal change of operating state.
type Edge struct {
	From    domain.OperatingState
	To      domain.OperatingState
	Trigger string
}

// Transitions lists the operating state changes possible in a mode.
func Transitions(mode domain.Mode) []Edge {
	edges := []Edge{
		{domain.StateIdle, domain.StateRunning, "run request allowed"},
		{domain.StateIdle, domain.StateFaulted, "run request denied"},
		{domain.StateRunning, domain.StateRunning, "run level raised"},
		{domain.StateRunning, domain.StateCoasting, "run-0 while moving"},
		{domain.StateRunning, domain.StateIdle, "run-0 while stopped"},
		{domain.StateCoasting, domain.StateRunning, "run request allowed"},
		{domain.StateCoasting, domain.StateIdle, "speed reached 0"},
		{domain.StateRunning, domain.StateFaulted, "deadman released"},
		{domain.StateCoasting, domain.StateFaulted, "deadman released"},
		{domain.StateRunning, domain.StateFaulted, "end of line"},
		{domain.StateCoasting, domain.StateFaulted, "end of line"},
	}
	if mode != domain.ModeEasy {
		edges = append(edges,
			Edge{domain.StateRunning, domain.StateFaulted, "reverser or brake interlock"},
			Edge{domain.StateRunning, domain.StateFaulted, "run segment timeout"},
		)
	}
	return append(edges,
		Edge{domain.StateFaulted, domain.StateReset, "reset"},
		Edge{domain.StateIdle, domain.StateReset, "reset"},
		Edge{domain.StateRunning, domain.StateReset, "reset"},
		Edge{domain.StateCoasting, domain.StateReset, "reset"},
		Edge{domain.StateIdle, domain.StateReset, "stopped at store"},
		Edge{domain.StateReset, domain.StateIdle, ""},
	)
}
