package trolley

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/scrm/trolley/internal/config"
	"github.com/scrm/trolley/internal/runtime"
	"github.com/scrm/trolley/pkg/clock"
	"github.com/scrm/trolley/pkg/domain"
	"github.com/scrm/trolley/pkg/input"
	"github.com/scrm/trolley/pkg/ports"
)

// Config is the simulator configuration.
type Config = config.Config

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config { return config.Default() }

// LoadConfig reads a YAML file over the defaults.
func LoadConfig(path string) (Config, error) { return config.Load(path) }

// Simulator is the high-level entry point. It owns the state machine and
// an operator panel, and records every event to the configured sink.
type Simulator struct {
	machine *runtime.Machine
	mode    domain.Mode
	panel   *input.Panel
	surface ports.InputSurface
	sink    ports.EventSink
	clock   clock.Clock
	hooks   domain.LifecycleHooks
	logger  *slog.Logger

	mu     sync.RWMutex // Guards status and seq for concurrent readers
	status domain.Status
	seq    uint64
}

// Option defines a functional option for configuring the Simulator.
type Option func(*Simulator)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. Repeated use merges them.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Simulator) {
		s.hooks = s.hooks.Merge(hooks)
	}
}

// WithEventSink sets where events are recorded.
func WithEventSink(sink ports.EventSink) Option {
	return func(s *Simulator) {
		s.sink = sink
	}
}

// WithClock sets the time base for the panel and for Advance.
func WithClock(clk clock.Clock) Option {
	return func(s *Simulator) {
		s.clock = clk
	}
}

// WithPanel shares an operator panel created by the caller, e.g. one a
// keyboard console is already bound to.
func WithPanel(p *input.Panel) Option {
	return func(s *Simulator) {
		s.panel = p
	}
}

// WithInputSurface replaces the built-in panel as the source of controls.
func WithInputSurface(surface ports.InputSurface) Option {
	return func(s *Simulator) {
		s.surface = surface
	}
}

// New validates cfg and builds a simulator in the configured mode.
// The mode is fixed for the life of the simulator.
func New(cfg Config, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	mode, err := cfg.ParsedMode()
	if err != nil {
		return nil, err
	}

	s := &Simulator{mode: mode}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.panel == nil {
		s.panel = input.NewPanel(s.clock)
	}
	if s.surface == nil {
		s.surface = s.panel
	}

	s.machine = runtime.New(cfg.Policy(mode),
		runtime.WithLogger(s.logger),
		runtime.WithLifecycleHooks(s.hooks),
		runtime.WithPhysics(cfg.Physics),
		runtime.WithRoute(cfg.Route),
		runtime.WithAutoReset(cfg.AutoResetAfter),
	)
	s.status = s.machine.Status()
	return s, nil
}

// Mode returns the session's operating mode.
func (s *Simulator) Mode() domain.Mode { return s.mode }

// Panel returns the built-in operator panel.
func (s *Simulator) Panel() *input.Panel { return s.panel }

// Clock returns the simulator's time base.
func (s *Simulator) Clock() clock.Clock { return s.clock }

// Status returns the latest snapshot. Safe to call from any goroutine.
func (s *Simulator) Status() domain.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.Clone()
}

// Transitions lists the operating state changes possible in this mode.
func (s *Simulator) Transitions() []runtime.Edge {
	return runtime.Transitions(s.mode)
}

// Step applies the commands queued on the input surface and advances the
// simulation to tick.At. Steps must not run concurrently with each other.
func (s *Simulator) Step(ctx context.Context, tick clock.Tick) runtime.Result {
	cmds := s.surface.PollCommands()
	controls := s.surface.Sample()

	res := s.machine.Step(ctx, tick, controls, cmds)

	if s.sink != nil {
		for _, e := range res.Events {
			if err := s.sink.Record(ctx, e); err != nil {
				s.logger.ErrorContext(ctx, "failed to record event", "kind", string(e.Kind), "error", err)
			}
		}
	}

	s.mu.Lock()
	s.status = res.Status
	if tick.Seq > s.seq {
		s.seq = tick.Seq
	}
	s.mu.Unlock()
	return res
}

// Advance steps the simulation to the clock's current time.
func (s *Simulator) Advance(ctx context.Context) runtime.Result {
	s.mu.Lock()
	s.seq++
	tick := clock.Tick{Seq: s.seq, At: s.clock.Now()}
	s.mu.Unlock()
	return s.Step(ctx, tick)
}
