// Package video translates the simulated vehicle into commands for the
// external video player.
//
// Plan is a pure function over the desired frame, what the player reports
// and what was already commanded. The Emitter wraps it with a player and a
// mailbox so tick processing never waits on player I/O.
package video

import (
	"fmt"
	"math"
	"time"
)

// Defaults for Config.
const (
	DefaultRateScale       = 1.0
	DefaultDriftTolerance  = 0.01
	DefaultMinSeekInterval = time.Second
)

// Config tunes the emitter.
type Config struct {
	// RateScale converts simulated speed into a playback rate.
	RateScale float64 `mapstructure:"rate_scale" yaml:"rate_scale" json:"rate_scale"`

	// DriftTolerance is how far, in normalized units, the player may wander
	// from the simulated position before a corrective seek.
	DriftTolerance float64 `mapstructure:"drift_tolerance" yaml:"drift_tolerance" json:"drift_tolerance"`

	// MinSeekInterval rate-limits corrective seeks.
	MinSeekInterval time.Duration `mapstructure:"min_seek_interval" yaml:"min_seek_interval" json:"min_seek_interval"`
}

// DefaultConfig returns the emitter defaults.
func DefaultConfig() Config {
	return Config{
		RateScale:       DefaultRateScale,
		DriftTolerance:  DefaultDriftTolerance,
		MinSeekInterval: DefaultMinSeekInterval,
	}
}

// Validate rejects unusable tuning.
func (c Config) Validate() error {
	if c.RateScale <= 0 {
		return fmt.Errorf("rate_scale must be positive")
	}
	if c.DriftTolerance <= 0 || c.DriftTolerance >= 1 {
		return fmt.Errorf("drift_tolerance must be within (0,1)")
	}
	if c.MinSeekInterval < 0 {
		return fmt.Errorf("min_seek_interval must not be negative")
	}
	return nil
}

// Frame is the desired playback state.
type Frame struct {
	At       time.Time
	Position float64
	Speed    float64
}

// PlayerView is what the player last reported.
type PlayerView struct {
	Known    bool // False when the position query failed
	Position float64
}

// Memory is what has already been commanded. The zero value means nothing
// has been sent yet.
type Memory struct {
	RateSet    bool
	Rate       float64
	Paused     bool
	Seeked     bool
	SeekTarget float64
	SeekAt     time.Time
}

// CommandKind is a player operation.
type CommandKind string

const (
	CommandSetRate CommandKind = "set_rate"
	CommandSeek    CommandKind = "seek"
	CommandPause   CommandKind = "pause"
	CommandPlay    CommandKind = "play"
)

// Command is one call to make on the player.
type Command struct {
	Kind  CommandKind
	Value float64 // Rate for set_rate, position for seek
}

func (c Command) String() string {
	switch c.Kind {
	case CommandSetRate:
		return fmt.Sprintf("set_rate(%.3f)", c.Value)
	case CommandSeek:
		return fmt.Sprintf("seek(%.4f)", c.Value)
	}
	return string(c.Kind)
}

// Plan returns the commands that bring the player in line with f, and the
// memory to use next time. Repeating a call with the same frame issues no
// further commands and at most one corrective seek.
func Plan(cfg Config, f Frame, view PlayerView, mem Memory) ([]Command, Memory) {
	var cmds []Command

	rate := f.Speed * cfg.RateScale
	if rate <= 0 {
		if !mem.Paused {
			cmds = append(cmds, Command{Kind: CommandPause})
			mem.Paused = true
		}
	} else {
		resume := mem.Paused || !mem.RateSet
		if !mem.RateSet || mem.Rate != rate {
			cmds = append(cmds, Command{Kind: CommandSetRate, Value: rate})
			mem.RateSet = true
			mem.Rate = rate
		}
		if resume {
			cmds = append(cmds, Command{Kind: CommandPlay})
			mem.Paused = false
		}
	}

	if view.Known && math.Abs(view.Position-f.Position) > cfg.DriftTolerance {
		repeated := mem.Seeked && mem.SeekTarget == f.Position
		limited := !mem.SeekAt.IsZero() && f.At.Sub(mem.SeekAt) < cfg.MinSeekInterval
		if !repeated && !limited {
			cmds = append(cmds, Command{Kind: CommandSeek, Value: f.Position})
			mem.Seeked = true
			mem.SeekTarget = f.Position
			mem.SeekAt = f.At
		}
	}

	return cmds, mem
}
