package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/termenv"
	"github.com/scrm/trolley/pkg/domain"
)

var stateColors = map[domain.OperatingState]string{
	domain.StateIdle:     "#9ca3af",
	domain.StateRunning:  "#22c55e",
	domain.StateCoasting: "#38bdf8",
	domain.StateFaulted:  "#ef4444",
	domain.StateReset:    "#eab308",
}

// StatusLine renders the one-line operator display.
func StatusLine(p termenv.Profile, st domain.Status) string {
	state := p.String(fmt.Sprintf("%-8s", strings.ToUpper(string(st.State)))).
		Foreground(p.Color(stateColors[st.State])).Bold()

	c := st.Controls
	line := fmt.Sprintf("%s %s  speed %.2f  pos %5.1f%%  | deadman %s  rev %s  brake %s",
		state, st.RunLevel, st.Speed, st.Position*100, c.Deadman, c.Reverser, c.Brake)

	if st.Fault != nil {
		line += "  " + p.String(st.Fault.Reason).Foreground(p.Color("#ef4444")).String()
	}
	return line
}

// EventLine renders one event for the scrolling log under the status line.
func EventLine(p termenv.Profile, e domain.Event) string {
	ts := e.Timestamp.Format("15:04:05.000")
	switch e.Kind {
	case domain.EventFault:
		return fmt.Sprintf("%s %s %s", ts, p.String("FAULT").Foreground(p.Color("#ef4444")).Bold(), e.Reason)
	case domain.EventWarning:
		return fmt.Sprintf("%s %s %s", ts, p.String("WARN ").Foreground(p.Color("#f59e0b")), e.Reason)
	case domain.EventTransition:
		return fmt.Sprintf("%s %s -> %s %s", ts, e.From, e.State, e.Reason)
	case domain.EventNotice:
		return fmt.Sprintf("%s %s %s (%s)", ts, p.String("NOTE ").Foreground(p.Color("#22c55e")), e.Reason, e.Note)
	}
	return fmt.Sprintf("%s %s %s", ts, e.Kind, e.Note)
}
