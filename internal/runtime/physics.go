package runtime

import (
	"fmt"
	"math"
	"time"

	"github.com/scrm/trolley/pkg/domain"
)

// Physics tunes the speed and position integration.
// Speeds are playback-rate multipliers where 1.0 is the filmed speed.
type Physics struct {
	// RunTargets maps run-1..run-3 onto target speeds.
	RunTargets []float64 `mapstructure:"run_targets" yaml:"run_targets" json:"run_targets"`

	Acceleration      float64 `mapstructure:"acceleration" yaml:"acceleration" json:"acceleration"`                   // speed per second
	CoastDeceleration float64 `mapstructure:"coast_deceleration" yaml:"coast_deceleration" json:"coast_deceleration"` // speed per second
	BrakeDeceleration float64 `mapstructure:"brake_deceleration" yaml:"brake_deceleration" json:"brake_deceleration"` // speed per second

	// PositionScale converts speed-seconds into normalized position.
	// At speed 1.0 the whole clip takes 1/PositionScale seconds.
	PositionScale float64 `mapstructure:"position_scale" yaml:"position_scale" json:"position_scale"`

	// MaxTickDelta caps the integration step after a stall.
	MaxTickDelta time.Duration `mapstructure:"max_tick_delta" yaml:"max_tick_delta" json:"max_tick_delta"`
}

// DefaultPhysics returns the tuning used on the museum floor.
func DefaultPhysics() Physics {
	return Physics{
		RunTargets:        []float64{0.33, 0.66, 1.0},
		Acceleration:      0.15,
		CoastDeceleration: 0.05,
		BrakeDeceleration: 0.3,
		PositionScale:     1.0 / 600,
		MaxTickDelta:      time.Second,
	}
}

// Validate checks the tuning for values the integrator cannot use.
func (p Physics) Validate() error {
	if len(p.RunTargets) != int(domain.MaxRunLevel) {
		return fmt.Errorf("run_targets: want %d entries, got %d", domain.MaxRunLevel, len(p.RunTargets))
	}
	prev := 0.0
	for i, v := range p.RunTargets {
		if v <= prev || v > 1 {
			return fmt.Errorf("run_targets[%d]=%.3f: targets must increase within (0,1]", i, v)
		}
		prev = v
	}
	if p.Acceleration <= 0 || p.CoastDeceleration <= 0 || p.BrakeDeceleration <= 0 {
		return fmt.Errorf("acceleration and deceleration rates must be positive")
	}
	if p.BrakeDeceleration < p.CoastDeceleration {
		return fmt.Errorf("brake_deceleration (%.3f) must not be below coast_deceleration (%.3f)", p.BrakeDeceleration, p.CoastDeceleration)
	}
	if p.PositionScale <= 0 {
		return fmt.Errorf("position_scale must be positive")
	}
	if p.MaxTickDelta <= 0 {
		return fmt.Errorf("max_tick_delta must be positive")
	}
	return nil
}

// Target returns the speed the vehicle settles at for a run level.
func (p Physics) Target(level domain.RunLevel) float64 {
	if level <= 0 || int(level) > len(p.RunTargets) {
		return 0
	}
	return p.RunTargets[level-1]
}

// Advance moves speed toward target with a bounded rate of change.
func (p Physics) Advance(speed, target float64, braking bool, dt float64) float64 {
	decel := p.CoastDeceleration
	if braking {
		decel = p.BrakeDeceleration
		target = 0
	}
	step := clamp(target-speed, -decel*dt, p.Acceleration*dt)
	return clamp(speed+step, 0, 1)
}

// Travel returns the position after moving at speed for dt seconds.
func (p Physics) Travel(position, speed, dt float64) float64 {
	return clamp(position+speed*dt*p.PositionScale, 0, 1)
}

func (p Physics) delta(prev, now time.Time) time.Duration {
	if prev.IsZero() || !now.After(prev) {
		return 0
	}
	return min(now.Sub(prev), p.MaxTickDelta)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
