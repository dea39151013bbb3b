package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/scrm/trolley/internal/config"
	"github.com/scrm/trolley/internal/logging"
	"github.com/scrm/trolley/pkg/script"
)

// RunOptions are the command-line overrides of a session.
type RunOptions struct {
	ConfigPath  string
	Mode        string
	LogPath     string
	ScriptPath  string
	Tick        time.Duration
	Diagnostics string
	Debug       bool
	Headless    bool
}

// resolve loads the configuration, applies the overrides and loads the
// script when one is given. A script's mode applies unless --mode is set.
func (o RunOptions) resolve() (config.Config, *script.Script, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return cfg, nil, err
	}

	var s *script.Script
	if o.ScriptPath != "" {
		loaded, err := script.Load(o.ScriptPath)
		if err != nil {
			return cfg, nil, err
		}
		s = &loaded
		if loaded.Mode != "" {
			cfg.Mode = loaded.Mode
		}
		cfg.TickInterval = loaded.Tick
	}

	if o.Mode != "" {
		cfg.Mode = o.Mode
	}
	if o.LogPath != "" {
		cfg.Log.Path = o.LogPath
	}
	if o.Tick > 0 {
		cfg.TickInterval = o.Tick
		if s != nil {
			s.Tick = o.Tick
		}
	}
	if o.Diagnostics != "" {
		cfg.Diagnostics.Addr = o.Diagnostics
	}

	if err := cfg.Validate(); err != nil {
		return cfg, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, s, nil
}

// createLogger configures the diagnostic logger. It always writes to
// stderr; interactive sessions without --debug stay quiet so the status
// line is not torn.
func createLogger(opts RunOptions, cfg config.Config) *slog.Logger {
	if opts.Debug {
		return logging.New(slog.LevelDebug)
	}
	if !opts.Headless && opts.ScriptPath == "" {
		return logging.NewNop()
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	return logging.New(level)
}
