package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/scrm/trolley/pkg/ports"
)

// DefaultCallTimeout bounds a single round of player calls.
const DefaultCallTimeout = 500 * time.Millisecond

// Emitter drives a Player from simulated frames.
//
// Sync issues the commands inline. Submit hands the frame to a background
// worker through a single-slot mailbox: if the player is slow, older frames
// are replaced by newer ones and the caller never waits.
type Emitter struct {
	player      ports.Player
	cfg         Config
	logger      *slog.Logger
	callTimeout time.Duration
	observe     func(Command, error)

	mu  sync.Mutex // Serializes player calls and guards mem
	mem Memory

	mailbox  chan Frame
	replaced atomic.Uint64
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithConfig sets the emitter tuning.
func WithConfig(cfg Config) Option {
	return func(e *Emitter) {
		e.cfg = cfg
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Emitter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCallTimeout bounds each Sync performed by the background worker.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Emitter) {
		e.callTimeout = d
	}
}

// WithCommandObserver is called after every player command with its result.
func WithCommandObserver(fn func(Command, error)) Option {
	return func(e *Emitter) {
		e.observe = fn
	}
}

// NewEmitter creates an emitter for player.
func NewEmitter(player ports.Player, opts ...Option) *Emitter {
	e := &Emitter{
		player:      player,
		cfg:         DefaultConfig(),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		callTimeout: DefaultCallTimeout,
		mailbox:     make(chan Frame, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load opens a clip. The player starts paused at the beginning.
func (e *Emitter) Load(ctx context.Context, clip string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.player.Load(ctx, clip); err != nil {
		return fmt.Errorf("load %s: %w", clip, err)
	}
	e.mem = Memory{Paused: true}
	e.logger.InfoContext(ctx, "clip loaded", "clip", clip)
	return nil
}

// Sync brings the player in line with f and returns the commands issued.
func (e *Emitter) Sync(ctx context.Context, f Frame) ([]Command, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var view PlayerView
	if pos, err := e.player.Position(ctx); err == nil {
		view = PlayerView{Known: true, Position: pos}
	} else {
		e.logger.DebugContext(ctx, "player position unavailable", "error", err)
	}

	cmds, next := Plan(e.cfg, f, view, e.mem)

	var errs []error
	for _, cmd := range cmds {
		err := e.exec(ctx, cmd)
		if e.observe != nil {
			e.observe(cmd, err)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", cmd, err))
		}
	}

	if len(errs) > 0 {
		// Forget what was sent so the next frame re-issues it.
		e.mem = Memory{Seeked: next.Seeked, SeekTarget: next.SeekTarget, SeekAt: next.SeekAt}
		err := errors.Join(errs...)
		e.logger.WarnContext(ctx, "player command failed", "error", err)
		return cmds, err
	}
	e.mem = next
	return cmds, nil
}

func (e *Emitter) exec(ctx context.Context, cmd Command) error {
	switch cmd.Kind {
	case CommandSetRate:
		return e.player.SetRate(ctx, cmd.Value)
	case CommandSeek:
		return e.player.SeekTo(ctx, cmd.Value)
	case CommandPause:
		return e.player.Pause(ctx)
	case CommandPlay:
		return e.player.Play(ctx)
	}
	return fmt.Errorf("unknown command %q", cmd.Kind)
}

// Submit queues f for the background worker without blocking. A frame
// still waiting in the mailbox is replaced.
func (e *Emitter) Submit(f Frame) {
	select {
	case e.mailbox <- f:
		return
	default:
	}
	select {
	case <-e.mailbox:
		e.replaced.Add(1)
	default:
	}
	select {
	case e.mailbox <- f:
	default:
		// Lost the race with another submitter; its frame is as recent.
		e.replaced.Add(1)
	}
}

// Replaced returns how many frames were superseded before being played out.
func (e *Emitter) Replaced() uint64 {
	return e.replaced.Load()
}

// Run is the background worker. It returns when ctx is cancelled.
func (e *Emitter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case f := <-e.mailbox:
			callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
			_, _ = e.Sync(callCtx, f)
			cancel()
		}
	}
}
