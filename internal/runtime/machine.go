// Package runtime holds the trolley simulation state machine.
//
// A Machine owns the simulated speed, position and operating state. It is
// driven exclusively by Step, one call per tick, and is not safe for
// concurrent use: the runner serializes ticks and operator commands.
package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/scrm/trolley/pkg/clock"
	"github.com/scrm/trolley/pkg/domain"
	"github.com/scrm/trolley/pkg/policy"
	"github.com/scrm/trolley/pkg/route"
)

// DefaultAutoReset is how long a fault stays on display before the
// simulator resets itself.
const DefaultAutoReset = 3 * time.Second

// Machine is the trolley simulation state machine.
type Machine struct {
	policy    policy.Policy
	physics   Physics
	tracker   *route.Tracker
	autoReset time.Duration
	logger    *slog.Logger
	hooks     domain.LifecycleHooks

	status    domain.Status
	faultedAt time.Time

	// Per-step output, reset at the start of every Step.
	events      []domain.Event
	transitions []domain.TransitionEvent
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Machine) {
		m.hooks = m.hooks.Merge(hooks)
	}
}

// WithPhysics overrides the speed and position tuning.
func WithPhysics(p Physics) Option {
	return func(m *Machine) {
		m.physics = p
	}
}

// WithRoute sets the landmarks of the clip.
func WithRoute(r route.Route) Option {
	return func(m *Machine) {
		m.tracker = route.NewTracker(r)
	}
}

// WithAutoReset sets how long a fault is held before resetting. Zero waits
// for an explicit Reset command.
func WithAutoReset(d time.Duration) Option {
	return func(m *Machine) {
		m.autoReset = d
	}
}

// Result is the outcome of one Step.
type Result struct {
	Status      domain.Status
	Events      []domain.Event
	Transitions []domain.TransitionEvent
}

// Faulted reports whether the step left the machine in the Faulted state.
func (r Result) Faulted() bool {
	return r.Status.State == domain.StateFaulted
}

// New creates a machine at the start of the line, stopped and idle.
func New(p policy.Policy, opts ...Option) *Machine {
	m := &Machine{
		policy:    p,
		physics:   DefaultPhysics(),
		autoReset: DefaultAutoReset,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		status:    domain.NewStatus(p.Mode),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.tracker == nil {
		m.tracker = route.NewTracker(route.Default())
	}
	m.logger = m.logger.With("mode", string(p.Mode))
	return m
}

// Status returns a snapshot of the current state.
func (m *Machine) Status() domain.Status {
	return m.status.Clone()
}

// Policy returns the rule set the machine was built with.
func (m *Machine) Policy() policy.Policy {
	return m.policy
}

// Physics returns the tuning in use.
func (m *Machine) Physics() Physics {
	return m.physics
}

// Step advances the simulation to tick.At.
//
// Pending commands are applied in order at the tick boundary, each against the
// controls as they stood when it was issued. The sampled snapshot then becomes
// the current controls, the continuous interlocks are checked and speed and
// position are integrated over the elapsed wall time.
func (m *Machine) Step(ctx context.Context, tick clock.Tick, controls domain.Controls, cmds []domain.Command) Result {
	m.events = nil
	m.transitions = nil

	now := tick.At
	dt := m.physics.delta(m.status.LastTick, now)
	if m.status.LastTick.IsZero() || now.After(m.status.LastTick) {
		m.status.LastTick = now
	}
	m.status.Ticks++

	if m.status.State == domain.StateFaulted && m.autoReset > 0 && now.Sub(m.faultedAt) >= m.autoReset {
		m.reset(ctx, now, "automatic reset")
	}

	working := m.status.Controls
	for _, cmd := range cmds {
		working = working.Apply(cmd)
		m.apply(ctx, now, cmd, working)
	}
	m.status.Controls = controls

	if m.status.State != domain.StateFaulted {
		if f := m.policy.Supervise(m.supervision(now)); f != nil {
			m.fault(ctx, now, f)
		}
	}

	switch {
	case m.status.State.Moving():
		m.integrate(ctx, now, dt.Seconds())
	case m.status.State == domain.StateIdle:
		m.observe(ctx, now)
	}

	res := Result{
		Status:      m.status.Clone(),
		Events:      m.events,
		Transitions: m.transitions,
	}
	if m.hooks.OnTick != nil {
		m.hooks.OnTick(ctx, &domain.TickEvent{At: now, Delta: dt, Status: res.Status, Commands: len(cmds)})
	}
	return res
}

func (m *Machine) apply(ctx context.Context, now time.Time, cmd domain.Command, c domain.Controls) {
	log := m.logger.With("cmd", cmd.String())

	switch cmd.Kind {
	case domain.CommandReset:
		m.reset(ctx, now, "operator reset")
		return
	case domain.CommandMark:
		m.emit(ctx, now, domain.EventMark, func(e *domain.Event) { e.Note = cmd.Note })
		return
	case domain.CommandBell:
		m.tracker.Bell(now, m.status.Position)
		m.emit(ctx, now, domain.EventMark, func(e *domain.Event) { e.Note = "bell" })
		return
	case domain.CommandRun:
	default:
		return
	}

	if m.status.State == domain.StateFaulted {
		log.DebugContext(ctx, "run request ignored while faulted")
		return
	}

	d := m.policy.Evaluate(policy.Request{
		Deadman:   c.Deadman,
		Current:   m.status.RunLevel,
		Requested: cmd.RunLevel,
		Reverser:  c.Reverser,
		Brake:     c.Brake,
		State:     m.status.State,
	})
	if !d.Allowed {
		log.InfoContext(ctx, "run request denied", "reason", d.Reason())
		m.fault(ctx, now, d.Fault)
		return
	}
	m.setRunLevel(ctx, now, cmd.RunLevel)
}

func (m *Machine) setRunLevel(ctx context.Context, now time.Time, level domain.RunLevel) {
	prev := m.status.RunLevel
	if level == prev {
		return
	}
	m.status.RunLevel = level

	if level == 0 {
		m.status.SegmentStart = time.Time{}
		if m.status.Speed > 0 {
			m.transition(ctx, now, domain.StateCoasting, "run-0 while moving")
		} else {
			m.transition(ctx, now, domain.StateIdle, "run-0 while stopped")
		}
		return
	}

	m.status.SegmentStart = now
	m.transition(ctx, now, domain.StateRunning, fmt.Sprintf("%s to %s", prev, level))
}

func (m *Machine) supervision(now time.Time) policy.Supervision {
	var age time.Duration
	if m.status.RunLevel > 0 && !m.status.SegmentStart.IsZero() {
		age = now.Sub(m.status.SegmentStart)
	}
	return policy.Supervision{
		Controls:   m.status.Controls,
		RunLevel:   m.status.RunLevel,
		Speed:      m.status.Speed,
		State:      m.status.State,
		SegmentAge: age,
	}
}

func (m *Machine) integrate(ctx context.Context, now time.Time, dt float64) {
	target := m.physics.Target(m.status.RunLevel)
	braking := m.policy.BrakeEffective(m.status.Controls)

	m.status.Speed = m.physics.Advance(m.status.Speed, target, braking, dt)
	m.status.Position = m.physics.Travel(m.status.Position, m.status.Speed, dt)

	if m.status.Position >= 1 && m.status.Speed > 0 {
		m.fault(ctx, now, &domain.Fault{Kind: domain.FaultEndOfLine, Reason: domain.ReasonEndOfLine})
		return
	}

	stopped := false
	if m.status.State == domain.StateCoasting && m.status.Speed == 0 {
		m.transition(ctx, now, domain.StateIdle, "speed reached 0")
		stopped = true
	}

	m.observe(ctx, now)

	if stopped && m.tracker.AtStore(m.status.Position, m.status.Speed) {
		m.emit(ctx, now, domain.EventNotice, func(e *domain.Event) {
			e.Reason = "stopped correctly at store"
			e.Note = m.summary()
		})
		m.logger.InfoContext(ctx, "run complete", "position", m.status.Position, "warnings", len(m.status.Warnings))
		m.reset(ctx, now, "stopped at store")
	}
}

// observe runs the route rules, which also watch the vehicle at rest.
func (m *Machine) observe(ctx context.Context, now time.Time) {
	if !m.policy.RouteRules {
		return
	}
	for _, w := range m.tracker.Observe(now, m.status.Position, m.status.Speed, m.status.RunLevel > 0) {
		m.warn(ctx, now, w)
	}
}

func (m *Machine) summary() string {
	switch n := len(m.status.Warnings); n {
	case 0:
		return "no rule violations"
	case 1:
		return "1 rule violation"
	default:
		return fmt.Sprintf("%d rule violations", n)
	}
}

func (m *Machine) warn(ctx context.Context, now time.Time, msg string) {
	m.status.Warnings = append(m.status.Warnings, msg)
	m.logger.WarnContext(ctx, "route rule broken", "warning", msg, "position", m.status.Position)
	m.emit(ctx, now, domain.EventWarning, func(e *domain.Event) { e.Reason = msg })
}

// fault forces the machine into Faulted and stops the vehicle. The first
// fault wins; later ones are ignored until reset.
func (m *Machine) fault(ctx context.Context, now time.Time, f *domain.Fault) {
	if m.status.State == domain.StateFaulted {
		return
	}
	from := m.status.State

	m.status.State = domain.StateFaulted
	m.status.Fault = f
	m.status.Speed = 0
	m.status.RunLevel = 0
	m.status.SegmentStart = time.Time{}
	m.faultedAt = now

	if f.Completion() {
		m.logger.InfoContext(ctx, "end of run", "position", m.status.Position)
	} else {
		m.logger.WarnContext(ctx, "fault", "kind", string(f.Kind), "reason", f.Reason, "from", string(from))
	}

	m.record(ctx, now, from, domain.StateFaulted, f.Error())
	m.emit(ctx, now, domain.EventFault, func(e *domain.Event) {
		e.From = from
		e.Fault = f.Kind
		e.Reason = f.Reason
	})
	if m.hooks.OnFault != nil {
		m.hooks.OnFault(ctx, f)
	}
}

// reset zeroes the vehicle and returns to Idle through the transient Reset
// state. The operator controls are left where they are.
func (m *Machine) reset(ctx context.Context, now time.Time, cause string) {
	m.transition(ctx, now, domain.StateReset, cause)

	m.status.Speed = 0
	m.status.Position = 0
	m.status.RunLevel = 0
	m.status.SegmentStart = time.Time{}
	m.status.Fault = nil
	m.status.Warnings = nil
	m.faultedAt = time.Time{}
	m.tracker.Reset()

	m.transition(ctx, now, domain.StateIdle, "")
}

func (m *Machine) transition(ctx context.Context, now time.Time, to domain.OperatingState, cause string) {
	from := m.status.State
	if from == to && to != domain.StateRunning {
		return
	}
	m.status.State = to
	m.logger.DebugContext(ctx, "transition", "from", string(from), "to", string(to), "cause", cause)
	m.record(ctx, now, from, to, cause)
}

func (m *Machine) record(ctx context.Context, now time.Time, from, to domain.OperatingState, cause string) {
	t := domain.TransitionEvent{At: now, From: from, To: to, Cause: cause}
	m.transitions = append(m.transitions, t)
	if m.hooks.OnTransition != nil {
		m.hooks.OnTransition(ctx, &t)
	}
	if to == domain.StateFaulted {
		return
	}
	m.emit(ctx, now, domain.EventTransition, func(e *domain.Event) {
		e.From = from
		e.Reason = cause
	})
}

func (m *Machine) emit(ctx context.Context, now time.Time, kind domain.EventKind, fill func(*domain.Event)) {
	e := domain.Event{
		Timestamp: now,
		Kind:      kind,
		State:     m.status.State,
		RunLevel:  m.status.RunLevel,
		Speed:     m.status.Speed,
		Position:  m.status.Position,
	}
	if fill != nil {
		fill(&e)
	}
	m.events = append(m.events, e)
	if m.hooks.OnEvent != nil {
		m.hooks.OnEvent(ctx, &e)
	}
}
