// Package policy implements the mode-dependent operating rules of the trolley.
//
// A Policy is a value selected once per session. It holds no mutable state:
// every method is a pure decision over the inputs it is given.
package policy

import (
	"fmt"
	"time"

	"github.com/scrm/trolley/pkg/domain"
)

// Request describes a run level change the operator asked for.
type Request struct {
	Deadman   domain.Deadman
	Current   domain.RunLevel // Level currently honored by the simulator
	Requested domain.RunLevel
	Reverser  domain.Reverser
	Brake     domain.Brake
	State     domain.OperatingState
}

// Decision is the outcome of evaluating a Request.
type Decision struct {
	Allowed bool
	Fault   *domain.Fault // Set when denied
}

// Reason is the operator-facing denial text, empty when allowed.
func (d Decision) Reason() string {
	if d.Fault == nil {
		return ""
	}
	return d.Fault.Reason
}

func allow() Decision { return Decision{Allowed: true} }

func deny(kind domain.FaultKind, reason string) Decision {
	return Decision{Fault: &domain.Fault{Kind: kind, Reason: reason}}
}

// Policy is the rule set for one mode.
type Policy struct {
	Mode domain.Mode

	// CheckReverser and CheckBrake enable the reverser and brake interlocks.
	CheckReverser bool
	CheckBrake    bool

	// RouteRules enables the signal/crossing/stop checks along the route.
	RouteRules bool

	// MaxRunSegment bounds how long one non-zero run level may be held. Zero disables.
	MaxRunSegment time.Duration
}

// New returns the policy for a mode. maxRunSegment is only honored by modes
// that supervise run time.
func New(mode domain.Mode, maxRunSegment time.Duration) Policy {
	switch mode {
	case domain.ModeStartStop:
		return Policy{Mode: mode, CheckReverser: true, CheckBrake: true, MaxRunSegment: maxRunSegment}
	case domain.ModeFull:
		return Policy{Mode: mode, CheckReverser: true, CheckBrake: true, RouteRules: true, MaxRunSegment: maxRunSegment}
	default:
		return Policy{Mode: domain.ModeEasy}
	}
}

// Evaluate decides a run request under the default rules of mode.
func Evaluate(mode domain.Mode, req Request) Decision {
	return New(mode, 0).Evaluate(req)
}

// Evaluate decides whether the requested run level may be honored.
func (p Policy) Evaluate(req Request) Decision {
	if req.Requested > domain.MaxRunLevel {
		return deny(domain.FaultOverspeed, domain.ReasonOverspeed)
	}
	if req.Requested < 0 {
		return deny(domain.FaultSequence, fmt.Sprintf("%s (%s)", domain.ReasonSequence, req.Requested))
	}
	if req.Requested == 0 || req.Requested == req.Current {
		return allow()
	}

	if req.Deadman != domain.DeadmanSet {
		return deny(domain.FaultInterlock, domain.ReasonDeadman)
	}
	if f := p.powerInterlocks(req.Reverser, req.Brake); f != nil {
		return Decision{Fault: f}
	}

	// Only a monotonic increase or a drop straight to 0 is legal.
	if req.Current > 0 && req.Requested < req.Current {
		return deny(domain.FaultSequence,
			fmt.Sprintf("%s (%s to %s)", domain.ReasonSequence, req.Current, req.Requested))
	}
	return allow()
}

func (p Policy) powerInterlocks(rev domain.Reverser, brake domain.Brake) *domain.Fault {
	if p.CheckReverser {
		switch rev {
		case domain.ReverserForward:
		case domain.ReverserReverse:
			return &domain.Fault{Kind: domain.FaultInterlock, Reason: domain.ReasonReverseTravel}
		default:
			return &domain.Fault{Kind: domain.FaultInterlock, Reason: domain.ReasonReverser}
		}
	}
	if p.CheckBrake && brake == domain.BrakeApplied {
		return &domain.Fault{Kind: domain.FaultInterlock, Reason: domain.ReasonBrake}
	}
	return nil
}

// Supervision is the per-tick view the continuous interlocks are checked against.
type Supervision struct {
	Controls   domain.Controls
	RunLevel   domain.RunLevel // Honored level
	Speed      float64
	State      domain.OperatingState
	SegmentAge time.Duration // Time spent at the current non-zero level
}

// Supervise returns the first continuous interlock broken by s, or nil.
func (p Policy) Supervise(s Supervision) *domain.Fault {
	if s.State == domain.StateFaulted {
		return nil
	}
	moving := s.Speed > 0 || s.RunLevel > 0
	if moving && s.Controls.Deadman != domain.DeadmanSet {
		return &domain.Fault{Kind: domain.FaultInterlock, Reason: domain.ReasonDeadmanReleased}
	}
	if s.RunLevel == 0 {
		return nil
	}
	if f := p.powerInterlocks(s.Controls.Reverser, s.Controls.Brake); f != nil {
		return f
	}
	if p.MaxRunSegment > 0 && s.SegmentAge > p.MaxRunSegment {
		return domain.NewFault(domain.FaultTimeout, "%s held longer than %s", s.RunLevel, p.MaxRunSegment)
	}
	return nil
}

// BrakeEffective reports whether the brake valve slows the vehicle in this mode.
func (p Policy) BrakeEffective(c domain.Controls) bool {
	return p.CheckBrake && c.Brake == domain.BrakeApplied
}
