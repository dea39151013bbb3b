// Package script replays a timed sequence of operator actions against the
// panel. Scripts make sessions reproducible for demonstrations and tests:
//
//	name: start-stop demo
//	tick: 100ms
//	duration: 30s
//	steps:
//	  - {at: 0s, deadman: true}
//	  - {at: 0s, reverser: forward}
//	  - {at: 0s, brake: released}
//	  - {at: 1s, run: 1}
//	  - {at: 8s, run: 0}
//	  - {at: 20s, mark: "done"}
//
// Each step carries exactly one action.
package script

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/scrm/trolley/pkg/clock"
	"github.com/scrm/trolley/pkg/domain"
	"github.com/scrm/trolley/pkg/input"
	"gopkg.in/yaml.v3"
)

// Script is a timed list of operator actions.
type Script struct {
	Name     string        `mapstructure:"name"`
	Mode     string        `mapstructure:"mode"`
	Tick     time.Duration `mapstructure:"tick"`
	Duration time.Duration `mapstructure:"duration"`
	Steps    []Step        `mapstructure:"steps"`
}

// Step is one action at an offset from the start of the script.
type Step struct {
	At       time.Duration `mapstructure:"at"`
	Deadman  *bool         `mapstructure:"deadman"`
	Run      *int          `mapstructure:"run"`
	Reverser string        `mapstructure:"reverser"`
	Brake    string        `mapstructure:"brake"`
	Bell     bool          `mapstructure:"bell"`
	Mark     string        `mapstructure:"mark"`
	Reset    bool          `mapstructure:"reset"`
}

// Load reads and validates a script file.
func Load(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("failed to read script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return Script{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a script.
func Parse(data []byte) (Script, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Script{}, fmt.Errorf("failed to parse yaml: %w", err)
	}

	s := Script{Tick: clock.DefaultInterval}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &s,
	})
	if err != nil {
		return Script{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Script{}, fmt.Errorf("invalid script: %w", err)
	}

	sort.SliceStable(s.Steps, func(i, j int) bool { return s.Steps[i].At < s.Steps[j].At })
	if s.Duration == 0 && len(s.Steps) > 0 {
		s.Duration = s.Steps[len(s.Steps)-1].At
	}
	return s, s.Validate()
}

// Validate checks timing and that every step has exactly one action.
func (s Script) Validate() error {
	if s.Tick <= 0 {
		return fmt.Errorf("tick must be positive")
	}
	if s.Mode != "" {
		if _, err := domain.ParseMode(s.Mode); err != nil {
			return err
		}
	}
	for i, st := range s.Steps {
		if st.At < 0 {
			return fmt.Errorf("steps[%d]: negative offset", i)
		}
		if n := st.actions(); n != 1 {
			return fmt.Errorf("steps[%d] at %s: want exactly one action, got %d", i, st.At, n)
		}
		if st.Reverser != "" {
			if _, err := domain.ParseReverser(st.Reverser); err != nil {
				return fmt.Errorf("steps[%d]: %w", i, err)
			}
		}
		if st.Brake != "" && st.Brake != string(domain.BrakeApplied) && st.Brake != string(domain.BrakeReleased) {
			return fmt.Errorf("steps[%d]: unknown brake position %q", i, st.Brake)
		}
	}
	return nil
}

func (st Step) actions() int {
	n := 0
	for _, set := range []bool{st.Deadman != nil, st.Run != nil, st.Reverser != "", st.Brake != "", st.Bell, st.Mark != "", st.Reset} {
		if set {
			n++
		}
	}
	return n
}

// Apply performs the step's action on the panel.
func (st Step) Apply(p *input.Panel) domain.Command {
	switch {
	case st.Deadman != nil:
		return p.SetDeadman(*st.Deadman)
	case st.Run != nil:
		return p.PressRun(domain.RunLevel(*st.Run))
	case st.Reverser != "":
		r, _ := domain.ParseReverser(st.Reverser)
		return p.SetReverser(r)
	case st.Brake != "":
		return p.SetBrake(domain.Brake(st.Brake))
	case st.Bell:
		return p.Bell()
	case st.Mark != "":
		return p.Mark(st.Mark)
	}
	return p.Reset()
}

// StepFunc processes one tick and reports whether the session should end.
type StepFunc func(context.Context, clock.Tick) bool

// Play replays the script in simulated time: the clock jumps one tick at a
// time, due steps are applied to the panel and then step is called. It
// returns once the script's duration has elapsed, step asks to stop or ctx
// is done.
func (s Script) Play(ctx context.Context, clk *clock.Manual, panel *input.Panel, step StepFunc) error {
	start := clk.Now()
	next := 0
	var seq uint64
	for offset := time.Duration(0); offset <= s.Duration; offset += s.Tick {
		if err := ctx.Err(); err != nil {
			return err
		}
		clk.Set(start.Add(offset))
		for next < len(s.Steps) && s.Steps[next].At <= offset {
			s.Steps[next].Apply(panel)
			next++
		}
		seq++
		if step(ctx, clock.Tick{Seq: seq, At: clk.Now()}) {
			return nil
		}
	}
	return nil
}
