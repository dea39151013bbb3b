package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/scrm/trolley/internal/runtime"
	"github.com/scrm/trolley/pkg/clock"
	"github.com/scrm/trolley/pkg/video"
)

// ErrNoTicker is returned by Run when no tick source was configured.
var ErrNoTicker = errors.New("runner: no tick source")

// Simulator is the part of the simulator the loop drives.
type Simulator interface {
	Step(ctx context.Context, tick clock.Tick) runtime.Result
}

// Runner handles the execution loop of a simulator session.
type Runner struct {
	Sim      Simulator
	Ticks    clock.Source
	Emitter  *video.Emitter
	Observer func(runtime.Result)
	StopWhen func(runtime.Result) bool

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	steps uint64
}

// NewRunner creates a Runner for sim.
func NewRunner(sim Simulator, opts ...Option) *Runner {
	r := &Runner{Sim: sim}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r
}

// Steps returns how many ticks have been processed. Only meaningful after
// Run returns.
func (r *Runner) Steps() uint64 { return r.steps }

// Run executes the loop until ctx is done, the tick source closes or
// StopWhen is satisfied. Cancellation is a normal exit.
func (r *Runner) Run(ctx context.Context) error {
	if r.Ticks == nil {
		return ErrNoTicker
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	if r.Emitter != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Emitter.Run(ctx)
		}()
	}

	ticks := r.Ticks.Ticks()
	for {
		select {
		case <-ctx.Done():
			r.Logger.Debug("runner stopped", "steps", r.steps)
			return nil
		case tick, ok := <-ticks:
			if !ok {
				r.Logger.Debug("tick source closed", "steps", r.steps)
				return nil
			}
			if r.Step(ctx, tick) {
				return nil
			}
		}
	}
}

// Step processes one tick and reports whether StopWhen was satisfied.
// Run calls it for every tick; scripted sessions call it directly.
func (r *Runner) Step(ctx context.Context, tick clock.Tick) (stop bool) {
	res := r.Sim.Step(ctx, tick)
	r.steps++

	if r.Emitter != nil {
		r.Emitter.Submit(video.Frame{
			At:       tick.At,
			Position: res.Status.Position,
			Speed:    res.Status.Speed,
		})
	}
	if r.Observer != nil {
		r.Observer(res)
	}
	return r.StopWhen != nil && r.StopWhen(res)
}
