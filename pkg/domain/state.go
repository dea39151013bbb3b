package domain

import (
	"fmt"
	"strings"
	"time"
)

// OperatingState is the mode of the simulated vehicle.
type OperatingState string

const (
	StateIdle     OperatingState = "idle"     // Stopped, no power
	StateRunning  OperatingState = "running"  // Power applied
	StateCoasting OperatingState = "coasting" // Moving without power
	StateFaulted  OperatingState = "faulted"  // Safety violation, waiting for reset
	StateReset    OperatingState = "reset"    // Transient, always followed by Idle
)

// Moving reports whether the state may carry non-zero speed.
func (s OperatingState) Moving() bool {
	return s == StateRunning || s == StateCoasting
}

// Mode selects the rule set for a session. It is fixed once the session starts.
type Mode string

const (
	ModeEasy      Mode = "easy"
	ModeStartStop Mode = "start_stop"
	ModeFull      Mode = "full"
)

// Modes lists every mode in presentation order.
var Modes = []Mode{ModeEasy, ModeStartStop, ModeFull}

// ParseMode accepts the canonical names plus a few spellings used on the panel.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy", "":
		return ModeEasy, nil
	case "start_stop", "start-stop", "startstop", "start/stop":
		return ModeStartStop, nil
	case "full":
		return ModeFull, nil
	}
	return "", fmt.Errorf("unknown mode %q (want easy, start_stop or full)", s)
}

// Title is the human label of the mode.
func (m Mode) Title() string {
	switch m {
	case ModeStartStop:
		return "Start/Stop Mode"
	case ModeFull:
		return "Full Mode"
	}
	return "Easy Mode"
}

// Status is the snapshot of everything the simulator owns.
type Status struct {
	Mode     Mode           `json:"mode"`
	State    OperatingState `json:"state"`
	RunLevel RunLevel       `json:"run_level"` // Accepted (honored) run level
	Speed    float64        `json:"speed"`
	Position float64        `json:"position"`
	Controls Controls       `json:"controls"`

	// Fault is the active fault while State == StateFaulted.
	Fault *Fault `json:"fault,omitempty"`

	// Warnings collected during the current run (Full mode route rules).
	Warnings []string `json:"warnings,omitempty"`

	// SegmentStart is when the current non-zero run level was entered.
	SegmentStart time.Time `json:"segment_start,omitzero"`

	LastTick time.Time `json:"last_tick,omitzero"`
	Ticks    uint64    `json:"ticks"`
}

// NewStatus creates the session-start status: stopped at the start of the line.
func NewStatus(mode Mode) Status {
	return Status{
		Mode:     mode,
		State:    StateIdle,
		Controls: InitialControls(),
	}
}

// Clone returns a copy that shares no slices with the receiver.
func (s Status) Clone() Status {
	out := s
	if s.Warnings != nil {
		out.Warnings = append([]string(nil), s.Warnings...)
	}
	if s.Fault != nil {
		f := *s.Fault
		out.Fault = &f
	}
	return out
}
