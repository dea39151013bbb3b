// Package virtual provides a Player that models playback without decoding
// any video. It backs headless sessions and tests.
package virtual

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/scrm/trolley/pkg/clock"
)

// DefaultDuration is the length assumed for a clip.
const DefaultDuration = 10 * time.Minute

// ErrNoClip is returned by playback calls before Load.
var ErrNoClip = errors.New("no clip loaded")

// State is a snapshot of the virtual player.
type State struct {
	Clip     string
	Position float64
	Rate     float64
	Playing  bool
}

// Player is safe for concurrent use.
type Player struct {
	mu       sync.Mutex
	clock    clock.Clock
	duration time.Duration

	state  State
	anchor time.Time
	calls  []string
	fail   map[string]error
}

// New creates a player whose clips last duration.
func New(clk clock.Clock, duration time.Duration) *Player {
	if clk == nil {
		clk = clock.System{}
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Player{clock: clk, duration: duration, fail: map[string]error{}}
}

// FailNext makes the next call to op ("load", "rate", "seek", "pause",
// "play" or "position") return err.
func (p *Player) FailNext(op string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail[op] = err
}

// Calls returns the commands received, in order.
func (p *Player) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Snapshot returns the current playback state.
func (p *Player) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settle()
	return p.state
}

func (p *Player) Load(_ context.Context, clip string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.take("load"); err != nil {
		return err
	}
	p.calls = append(p.calls, "load "+clip)
	p.state = State{Clip: clip, Rate: 1}
	p.anchor = p.clock.Now()
	return nil
}

func (p *Player) SetRate(_ context.Context, rate float64) error {
	return p.do("rate", fmt.Sprintf("rate %.3f", rate), func() error {
		if rate <= 0 {
			return fmt.Errorf("invalid rate %.3f", rate)
		}
		p.state.Rate = rate
		return nil
	})
}

func (p *Player) SeekTo(_ context.Context, position float64) error {
	return p.do("seek", fmt.Sprintf("seek %.4f", position), func() error {
		if position < 0 || position > 1 {
			return fmt.Errorf("seek target %.4f outside [0,1]", position)
		}
		p.state.Position = position
		return nil
	})
}

func (p *Player) Pause(context.Context) error {
	return p.do("pause", "pause", func() error {
		p.state.Playing = false
		return nil
	})
}

func (p *Player) Play(context.Context) error {
	return p.do("play", "play", func() error {
		p.state.Playing = true
		return nil
	})
}

func (p *Player) Position(context.Context) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.take("position"); err != nil {
		return 0, err
	}
	if p.state.Clip == "" {
		return 0, ErrNoClip
	}
	p.settle()
	return p.state.Position, nil
}

func (p *Player) do(op, call string, fn func() error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.take(op); err != nil {
		return err
	}
	if p.state.Clip == "" {
		return ErrNoClip
	}
	p.settle()
	if err := fn(); err != nil {
		return err
	}
	p.calls = append(p.calls, call)
	return nil
}

func (p *Player) take(op string) error {
	err, ok := p.fail[op]
	if ok {
		delete(p.fail, op)
	}
	return err
}

// settle folds elapsed playback into the stored position.
func (p *Player) settle() {
	now := p.clock.Now()
	if p.state.Playing && now.After(p.anchor) {
		p.state.Position += p.state.Rate * now.Sub(p.anchor).Seconds() / p.duration.Seconds()
		if p.state.Position >= 1 {
			p.state.Position = 1
			p.state.Playing = false
		}
	}
	p.anchor = now
}
