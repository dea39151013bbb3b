package domain

import (
	"fmt"
	"strings"
)

// RunLevel is the throttle notch. 0 is off (coast), 1..MaxRunLevel add power.
type RunLevel int

// MaxRunLevel is the highest notch the track allows.
const MaxRunLevel RunLevel = 3

// Valid reports whether the level is a notch the controller can hold.
func (l RunLevel) Valid() bool {
	return l >= 0 && l <= MaxRunLevel
}

func (l RunLevel) String() string {
	return fmt.Sprintf("run-%d", int(l))
}

// Reverser selects the direction of travel.
type Reverser string

const (
	ReverserForward Reverser = "forward"
	ReverserNeutral Reverser = "neutral"
	ReverserReverse Reverser = "reverse"
)

// ParseReverser converts user text (e.g. "f", "Forward") into a Reverser.
func ParseReverser(s string) (Reverser, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f", "fwd", "forward":
		return ReverserForward, nil
	case "n", "neutral":
		return ReverserNeutral, nil
	case "r", "rev", "reverse":
		return ReverserReverse, nil
	}
	return "", fmt.Errorf("unknown reverser position %q", s)
}

// Brake is the service brake valve position.
type Brake string

const (
	BrakeReleased Brake = "released"
	BrakeApplied  Brake = "applied"
)

// Deadman is the state of the operator's deadman switch.
type Deadman string

const (
	DeadmanReleased Deadman = "released"
	DeadmanSet      Deadman = "set"
)

// DeadmanFrom maps a held/not-held boolean to a Deadman value.
func DeadmanFrom(held bool) Deadman {
	if held {
		return DeadmanSet
	}
	return DeadmanReleased
}

// Controls is a read-only snapshot of the operator controls.
// It is owned by the UI layer and sampled by the simulator once per tick.
type Controls struct {
	Deadman  Deadman  `json:"deadman"`
	RunLevel RunLevel `json:"run_level"`
	Reverser Reverser `json:"reverser"`
	Brake    Brake    `json:"brake"`
}

// InitialControls is the panel layout at session start: deadman released,
// controller off, reverser in neutral and the brake applied.
func InitialControls() Controls {
	return Controls{
		Deadman:  DeadmanReleased,
		RunLevel: 0,
		Reverser: ReverserNeutral,
		Brake:    BrakeApplied,
	}
}

// Apply folds a command into the snapshot, returning the resulting controls.
// Commands that do not move a physical control leave the snapshot untouched.
func (c Controls) Apply(cmd Command) Controls {
	switch cmd.Kind {
	case CommandDeadman:
		c.Deadman = cmd.Deadman
	case CommandRun:
		c.RunLevel = cmd.RunLevel
	case CommandReverser:
		c.Reverser = cmd.Reverser
	case CommandBrake:
		c.Brake = cmd.Brake
	case CommandReset:
		c.RunLevel = 0
	}
	return c
}
