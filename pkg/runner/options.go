package runner

import (
	"log/slog"

	"github.com/scrm/trolley/internal/runtime"
	"github.com/scrm/trolley/pkg/clock"
	"github.com/scrm/trolley/pkg/video"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithTicker sets the tick source. Required.
func WithTicker(src clock.Source) Option {
	return func(r *Runner) {
		r.Ticks = src
	}
}

// WithEmitter drives a video player from every step.
func WithEmitter(e *video.Emitter) Option {
	return func(r *Runner) {
		r.Emitter = e
	}
}

// WithObserver is called with every step result on the loop goroutine.
// It must not block.
func WithObserver(fn func(runtime.Result)) Option {
	return func(r *Runner) {
		r.Observer = fn
	}
}

// WithStopWhen ends the loop after the first step for which fn is true.
func WithStopWhen(fn func(runtime.Result) bool) Option {
	return func(r *Runner) {
		r.StopWhen = fn
	}
}
