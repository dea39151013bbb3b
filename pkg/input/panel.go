// Package input implements the operator panel: the current position of every
// control plus the ordered queue of discrete commands issued since the last
// poll.
package input

import (
	"sync"

	"github.com/scrm/trolley/pkg/clock"
	"github.com/scrm/trolley/pkg/domain"
)

// Panel is safe for concurrent use. UI goroutines write to it; the runner
// samples and polls it once per tick.
type Panel struct {
	mu       sync.Mutex
	clock    clock.Clock
	controls domain.Controls
	seq      uint64
	pending  []domain.Command
}

// NewPanel creates a panel in the session-start layout.
func NewPanel(clk clock.Clock) *Panel {
	if clk == nil {
		clk = clock.System{}
	}
	return &Panel{
		clock:    clk,
		controls: domain.InitialControls(),
	}
}

// Submit stamps cmd with the next sequence number and the current time,
// folds it into the control snapshot and queues it.
func (p *Panel) Submit(cmd domain.Command) domain.Command {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	cmd.Seq = p.seq
	if cmd.At.IsZero() {
		cmd.At = p.clock.Now()
	}
	p.controls = p.controls.Apply(cmd)
	p.pending = append(p.pending, cmd)
	return cmd
}

// SetDeadman sets or releases the deadman switch.
func (p *Panel) SetDeadman(held bool) domain.Command {
	return p.Submit(domain.Command{Kind: domain.CommandDeadman, Deadman: domain.DeadmanFrom(held)})
}

// ToggleDeadman flips the deadman switch.
func (p *Panel) ToggleDeadman() domain.Command {
	return p.SetDeadman(p.Sample().Deadman != domain.DeadmanSet)
}

// PressRun moves the controller handle to level. Levels past the last notch
// are passed through so the simulator can report them.
func (p *Panel) PressRun(level domain.RunLevel) domain.Command {
	return p.Submit(domain.Command{Kind: domain.CommandRun, RunLevel: level})
}

// SetReverser moves the reverser.
func (p *Panel) SetReverser(r domain.Reverser) domain.Command {
	return p.Submit(domain.Command{Kind: domain.CommandReverser, Reverser: r})
}

// SetBrake applies or releases the service brake.
func (p *Panel) SetBrake(b domain.Brake) domain.Command {
	return p.Submit(domain.Command{Kind: domain.CommandBrake, Brake: b})
}

// ToggleBrake flips the service brake.
func (p *Panel) ToggleBrake() domain.Command {
	if p.Sample().Brake == domain.BrakeApplied {
		return p.SetBrake(domain.BrakeReleased)
	}
	return p.SetBrake(domain.BrakeApplied)
}

// Reset asks the simulator to reset.
func (p *Panel) Reset() domain.Command {
	return p.Submit(domain.Command{Kind: domain.CommandReset})
}

// Mark adds an annotation to the event log.
func (p *Panel) Mark(note string) domain.Command {
	return p.Submit(domain.Command{Kind: domain.CommandMark, Note: note})
}

// Bell sounds the gong.
func (p *Panel) Bell() domain.Command {
	return p.Submit(domain.Command{Kind: domain.CommandBell})
}

// Sample returns the current control positions.
func (p *Panel) Sample() domain.Controls {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.controls
}

// PollCommands drains the command queue.
func (p *Panel) PollCommands() []domain.Command {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.pending
	p.pending = nil
	return out
}
