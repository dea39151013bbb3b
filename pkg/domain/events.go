package domain

import (
	"context"
	"time"
)

// EventKind defines the category of a log record.
type EventKind string

const (
	EventTransition EventKind = "transition"
	EventFault      EventKind = "fault"
	EventMark       EventKind = "mark"
	EventWarning    EventKind = "warning" // Route rule broken, run continues
	EventNotice     EventKind = "notice"  // Informational, e.g. stopped at the store
)

// Event is an append-only log record emitted by the simulator.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Kind      EventKind      `json:"kind"`
	From      OperatingState `json:"from,omitempty"`
	State     OperatingState `json:"state"`
	RunLevel  RunLevel       `json:"run_level"`
	Speed     float64        `json:"speed"`
	Position  float64        `json:"position"`
	Fault     FaultKind      `json:"fault,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Note      string         `json:"note,omitempty"`
}

// TransitionEvent is passed to lifecycle hooks when the operating state changes.
type TransitionEvent struct {
	At    time.Time
	From  OperatingState
	To    OperatingState
	Cause string
}

// TickEvent is passed to lifecycle hooks after every processed tick.
type TickEvent struct {
	At       time.Time
	Delta    time.Duration
	Status   Status
	Commands int
}

// LifecycleHooks defines callbacks for simulator observability.
type LifecycleHooks struct {
	OnTransition func(context.Context, *TransitionEvent)
	OnFault      func(context.Context, *Fault)
	OnTick       func(context.Context, *TickEvent)
	OnEvent      func(context.Context, *Event)
}

// Merge combines two hook sets; both callbacks run when both are set.
func (h LifecycleHooks) Merge(o LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransition: chain(h.OnTransition, o.OnTransition),
		OnFault:      chain(h.OnFault, o.OnFault),
		OnTick:       chain(h.OnTick, o.OnTick),
		OnEvent:      chain(h.OnEvent, o.OnEvent),
	}
}

func chain[T any](a, b func(context.Context, T)) func(context.Context, T) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, v T) {
		a(ctx, v)
		b(ctx, v)
	}
}
