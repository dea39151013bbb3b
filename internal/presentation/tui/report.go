package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/scrm/trolley/pkg/domain"
)

// Summary is the tally of one event log.
type Summary struct {
	Events      int
	Runs        int // Completed trips ending at the store or end of line
	Faults      map[domain.FaultKind]int
	Warnings    int
	Marks       int
	MaxPosition float64
	First, Last time.Time
}

// Summarize tallies events.
func Summarize(events []domain.Event) Summary {
	s := Summary{Events: len(events), Faults: make(map[domain.FaultKind]int)}
	for i, e := range events {
		if i == 0 || e.Timestamp.Before(s.First) {
			s.First = e.Timestamp
		}
		if e.Timestamp.After(s.Last) {
			s.Last = e.Timestamp
		}
		if e.Position > s.MaxPosition {
			s.MaxPosition = e.Position
		}
		switch e.Kind {
		case domain.EventFault:
			if e.Fault == domain.FaultEndOfLine {
				s.Runs++
			} else {
				s.Faults[e.Fault]++
			}
		case domain.EventNotice:
			s.Runs++
		case domain.EventWarning:
			s.Warnings++
		case domain.EventMark:
			s.Marks++
		}
	}
	return s
}

// Report renders a markdown session report, suitable for NewRenderer.
func Report(title string, events []domain.Event) string {
	s := Summarize(events)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if s.Events == 0 {
		sb.WriteString("_No events recorded._\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "| | |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Session | %s to %s (%s) |\n", s.First.Format(time.DateTime), s.Last.Format("15:04:05"), s.Last.Sub(s.First).Round(time.Second))
	fmt.Fprintf(&sb, "| Events | %d |\n", s.Events)
	fmt.Fprintf(&sb, "| Completed runs | %d |\n", s.Runs)
	fmt.Fprintf(&sb, "| Rule warnings | %d |\n", s.Warnings)
	fmt.Fprintf(&sb, "| Furthest position | %.1f%% |\n\n", s.MaxPosition*100)

	if len(s.Faults) > 0 {
		sb.WriteString("## Faults\n\n")
		for _, kind := range []domain.FaultKind{domain.FaultInterlock, domain.FaultSequence, domain.FaultOverspeed, domain.FaultTimeout} {
			if n := s.Faults[kind]; n > 0 {
				fmt.Fprintf(&sb, "- **%s**: %d\n", kind, n)
			}
		}
		sb.WriteString("\n")
	}

	var notable []domain.Event
	for _, e := range events {
		switch e.Kind {
		case domain.EventFault, domain.EventWarning, domain.EventMark, domain.EventNotice:
			notable = append(notable, e)
		}
	}
	if len(notable) > 0 {
		sb.WriteString("## Timeline\n\n")
		for _, e := range notable {
			text := e.Reason
			if text == "" {
				text = e.Note
			}
			fmt.Fprintf(&sb, "- `%s` %s at %.1f%%: %s\n", e.Timestamp.Format("15:04:05"), e.Kind, e.Position*100, text)
		}
	}
	return sb.String()
}
