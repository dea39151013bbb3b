package domain

import (
	"errors"
	"fmt"
)

// FaultKind classifies a fault.
type FaultKind string

const (
	FaultInterlock FaultKind = "interlock" // Deadman, reverser or brake rule broken
	FaultSequence  FaultKind = "sequence"  // Illegal run level transition
	FaultTimeout   FaultKind = "timeout"   // Run segment held too long
	FaultEndOfLine FaultKind = "end_of_line"
	FaultOverspeed FaultKind = "overspeed" // Controller advanced past the last notch
)

var (
	ErrInterlock = errors.New("interlock violation")
	ErrSequence  = errors.New("run sequence violation")
	ErrTimeout   = errors.New("run timeout")
	ErrEndOfLine = errors.New("end of line")
	ErrOverspeed = errors.New("overspeed")
)

// Reasons shown to the operator.
const (
	ReasonDeadman         = "deadman not engaged"
	ReasonDeadmanReleased = "deadman released while moving"
	ReasonReverser        = "reverser not set"
	ReasonReverseTravel   = "reverser not set to forward"
	ReasonBrake           = "brake applied"
	ReasonSequence        = "invalid run sequence"
	ReasonOverspeed       = "too fast: do not advance the controller past run 3"
	ReasonEndOfLine       = "end of run"
)

// Fault is a safety violation. It is surfaced to the operator and logged,
// never retried.
type Fault struct {
	Kind   FaultKind `json:"kind"`
	Reason string    `json:"reason"`
}

// NewFault builds a fault of the given kind.
func NewFault(kind FaultKind, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Reason)
}

// Unwrap maps the kind onto its sentinel so callers can use errors.Is.
func (f *Fault) Unwrap() error {
	switch f.Kind {
	case FaultInterlock:
		return ErrInterlock
	case FaultSequence:
		return ErrSequence
	case FaultTimeout:
		return ErrTimeout
	case FaultEndOfLine:
		return ErrEndOfLine
	case FaultOverspeed:
		return ErrOverspeed
	}
	return nil
}

// Completion reports whether the fault marks the end of a run rather than
// an operator error.
func (f *Fault) Completion() bool {
	return f != nil && f.Kind == FaultEndOfLine
}
