package tui_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/scrm/trolley/internal/presentation/tui"
	"github.com/scrm/trolley/pkg/domain"
	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func TestStatusLine(t *testing.T) {
	st := domain.NewStatus(domain.ModeFull)
	st.State = domain.StateRunning
	st.RunLevel = 2
	st.Speed = 0.5
	st.Position = 0.25

	line := tui.StatusLine(termenv.Ascii, st)
	assert.Contains(t, line, "RUNNING")
	assert.Contains(t, line, "run-2")
	assert.Contains(t, line, "speed 0.50")
	assert.Contains(t, line, "25.0%")
	assert.Contains(t, line, "deadman released")

	st.State = domain.StateFaulted
	st.Fault = domain.NewFault(domain.FaultInterlock, domain.ReasonBrake)
	assert.Contains(t, tui.StatusLine(termenv.Ascii, st), domain.ReasonBrake)
}

func TestEventLine(t *testing.T) {
	tests := []struct {
		name  string
		event domain.Event
		want  string
	}{
		{"Fault", domain.Event{Timestamp: t0, Kind: domain.EventFault, Reason: "brake applied"}, "10:00:00.000 FAULT brake applied"},
		{"Transition", domain.Event{Timestamp: t0, Kind: domain.EventTransition, From: domain.StateIdle, State: domain.StateRunning, Reason: "run-0 to run-1"}, "idle -> running run-0 to run-1"},
		{"Mark", domain.Event{Timestamp: t0, Kind: domain.EventMark, Note: "bell"}, "mark bell"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, tui.EventLine(termenv.Ascii, tt.event), tt.want)
		})
	}
}

func TestAsciiProfileHasNoEscapes(t *testing.T) {
	st := domain.NewStatus(domain.ModeEasy)
	st.State = domain.StateFaulted
	st.Fault = domain.NewFault(domain.FaultInterlock, domain.ReasonBrake)

	assert.Equal(t, "IDLE     run-0", tui.StatusLine(termenv.Ascii, domain.NewStatus(domain.ModeEasy))[:14])
	assert.NotContains(t, tui.StatusLine(termenv.Ascii, st), "\x1b")

	fault := domain.Event{Timestamp: t0, Kind: domain.EventFault, Reason: "brake applied"}
	assert.Equal(t, "10:00:00.000 FAULT brake applied", tui.EventLine(termenv.Ascii, fault))

	warn := domain.Event{Timestamp: t0, Kind: domain.EventWarning, Reason: "zorched Spur"}
	assert.Equal(t, "10:00:00.000 WARN  zorched Spur", tui.EventLine(termenv.Ascii, warn))

	assert.Contains(t, tui.EventLine(termenv.TrueColor, fault), "\x1b[")
}

func TestReport(t *testing.T) {
	events := []domain.Event{
		{Timestamp: t0, Kind: domain.EventTransition, State: domain.StateRunning},
		{Timestamp: t0.Add(5 * time.Second), Kind: domain.EventFault, Fault: domain.FaultInterlock, Reason: "deadman released while moving", Position: 0.1},
		{Timestamp: t0.Add(10 * time.Second), Kind: domain.EventMark, Note: "visitor group"},
		{Timestamp: t0.Add(70 * time.Second), Kind: domain.EventWarning, Reason: "zorched Spur", Position: 0.6},
		{Timestamp: t0.Add(90 * time.Second), Kind: domain.EventFault, Fault: domain.FaultEndOfLine, Reason: "end of run", Position: 1},
	}

	s := tui.Summarize(events)
	assert.Equal(t, 5, s.Events)
	assert.Equal(t, 1, s.Runs)
	assert.Equal(t, 1, s.Faults[domain.FaultInterlock])
	assert.Equal(t, 1, s.Warnings)
	assert.Equal(t, 1, s.Marks)
	assert.InDelta(t, 1.0, s.MaxPosition, 1e-9)

	md := tui.Report("Session", events)
	assert.Contains(t, md, "# Session")
	assert.Contains(t, md, "| Completed runs | 1 |")
	assert.Contains(t, md, "**interlock**: 1")
	assert.Contains(t, md, "visitor group")
	assert.Contains(t, md, "(1m30s)")

	assert.Contains(t, tui.Report("Empty", nil), "No events recorded")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf, "0.3.0", "Full Mode")
	assert.Contains(t, buf.String(), "v0.3.0")
	assert.Contains(t, buf.String(), "Full Mode")
	assert.NotContains(t, buf.String(), "\x1b")
}

func TestRenderer(t *testing.T) {
	out, err := tui.NewRenderer()("# Title\n\nbody")
	assert.NoError(t, err)
	assert.Contains(t, out, "Title")
}
