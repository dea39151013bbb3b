package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/muesli/termenv"
	"github.com/scrm/trolley"
	"github.com/scrm/trolley/internal/config"
	"github.com/scrm/trolley/internal/console"
	"github.com/scrm/trolley/internal/presentation/tui"
	"github.com/scrm/trolley/internal/runtime"
	"github.com/scrm/trolley/pkg/adapters/http"
	"github.com/scrm/trolley/pkg/clock"
	"github.com/scrm/trolley/pkg/input"
	"github.com/scrm/trolley/pkg/observability"
	"github.com/scrm/trolley/pkg/ports"
	"github.com/scrm/trolley/pkg/runner"
	"github.com/scrm/trolley/pkg/script"
	"github.com/scrm/trolley/pkg/video"
)

// RunSession executes one simulator session: interactive on the terminal,
// headless until interrupted, or replaying a script.
func RunSession(opts RunOptions, stdin *os.File, stdout io.Writer) error {
	cfg, scr, err := opts.resolve()
	if err != nil {
		return err
	}
	logger := createLogger(opts, cfg)
	mode, _ := cfg.ParsedMode()
	interactive := scr == nil && !opts.Headless

	signals := runner.NewSignalManager(context.Background())
	defer signals.Stop()
	ctx, cancel := context.WithCancel(signals.Context())
	defer cancel()

	// Scripted sessions run in simulated time, as fast as they replay.
	var clk clock.Clock = clock.System{}
	var manual *clock.Manual
	if scr != nil {
		manual = clock.NewManual(time.Now())
		clk = manual
	}

	panel := input.NewPanel(clk)
	var con *console.Console
	if interactive {
		tui.PrintBanner(stdout, trolley.Version, mode.Title())
		if help, err := tui.NewRenderer()(console.Help(mode)); err == nil {
			fmt.Fprint(stdout, help)
		}
		con = console.New(stdin, stdout, panel).WithProfile(termenv.ColorProfile())
	}

	var extra []ports.EventSink
	if con != nil {
		extra = append(extra, con)
	}
	sinks, err := openSinks(ctx, cfg.Log, logger, extra...)
	if err != nil {
		return err
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Error("failed to close event log", "error", err)
		}
	}()

	metrics := observability.NewMetrics()
	sim, err := trolley.New(cfg,
		trolley.WithLogger(logger),
		trolley.WithClock(clk),
		trolley.WithPanel(panel),
		trolley.WithEventSink(sinks),
		trolley.WithLifecycleHooks(metrics.Hooks()),
		trolley.WithLifecycleHooks(observability.LoggingHooks(logger)),
	)
	if err != nil {
		return err
	}

	player, clip, closePlayer, err := openPlayer(ctx, cfg.Video, clk)
	if err != nil {
		return err
	}
	defer closePlayer()

	emitter := video.NewEmitter(player,
		video.WithConfig(cfg.Video.Config),
		video.WithLogger(logger),
		video.WithCommandObserver(metrics.ObservePlayerCommand),
	)
	if err := emitter.Load(ctx, clip); err != nil {
		return fmt.Errorf("failed to load clip: %w", err)
	}

	if cfg.Diagnostics.Addr != "" {
		handler := http.NewHandler(sim,
			http.WithMetrics(metrics.Handler()),
			http.WithStreams(sinks.streams),
			http.WithVersion(trolley.Version),
			http.WithLogger(logger),
		)
		go func() {
			if err := http.Serve(ctx, cfg.Diagnostics.Addr, handler, logger); err != nil {
				logger.Error("diagnostics server failed", "error", err)
			}
		}()
	}

	logger.Info("session started", "mode", string(mode), "log", sinks.file.Path(), "player", cfg.Video.Player)

	var runErr error
	switch {
	case scr != nil:
		runErr = replay(ctx, scr, manual, sim, emitter, logger)
	case interactive:
		runErr = interact(ctx, cfg, stdin, con, sim, emitter, logger)
	default:
		ticker := clock.NewTicker(ctx, cfg.TickInterval, clk)
		defer ticker.Stop()
		runErr = runner.NewRunner(sim,
			runner.WithTicker(ticker),
			runner.WithEmitter(emitter),
			runner.WithLogger(logger),
		).Run(ctx)
	}

	logger.Info("session ended", "state", string(sim.Status().State), "interrupted", signals.Context().Err() != nil)

	if !interactive {
		if out, err := tui.NewRenderer()(tui.Report(fmt.Sprintf("%s session", mode.Title()), sinks.recent.Events())); err == nil {
			fmt.Fprint(stdout, out)
		}
	}
	return runErr
}

// interact runs the raw-mode keyboard console until the operator quits.
func interact(ctx context.Context, cfg config.Config, stdin *os.File, con *console.Console, sim *trolley.Simulator, emitter *video.Emitter, logger *slog.Logger) error {
	restore, err := console.MakeRaw(stdin)
	if err != nil {
		return err
	}
	defer restore()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ticker := clock.NewTicker(ctx, cfg.TickInterval, sim.Clock())
	defer ticker.Stop()

	keysDone := make(chan error, 1)
	go func() {
		keysDone <- con.Run(ctx)
		cancel()
	}()

	err = runner.NewRunner(sim,
		runner.WithTicker(ticker),
		runner.WithEmitter(emitter),
		runner.WithLogger(logger),
		runner.WithObserver(func(res runtime.Result) { con.Show(res.Status) }),
	).Run(ctx)

	cancel()
	if keyErr := <-keysDone; keyErr != nil && !errors.Is(keyErr, console.ErrQuit) && !errors.Is(keyErr, context.Canceled) {
		return keyErr
	}
	fmt.Fprint(os.Stdout, "\r\n")
	return err
}

// replay plays a script in simulated time and stops early on a fault.
func replay(ctx context.Context, scr *script.Script, clk *clock.Manual, sim *trolley.Simulator, emitter *video.Emitter, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = emitter.Run(ctx) }()

	r := runner.NewRunner(sim,
		runner.WithEmitter(emitter),
		runner.WithLogger(logger),
	)
	logger.Info("replaying script", "name", scr.Name, "steps", len(scr.Steps), "duration", scr.Duration)
	if err := scr.Play(ctx, clk, sim.Panel(), r.Step); err != nil {
		return err
	}
	logger.Info("script finished", "ticks", r.Steps())
	return nil
}
