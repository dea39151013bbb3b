// Package route describes the landmarks along the filmed line and checks the
// operating rules tied to them: start and stop signals, crossing bells,
// required stops and power-off sections.
package route

import (
	"fmt"
	"time"
)

// Zone is a stretch of the route in normalized position units.
type Zone struct {
	Name  string  `mapstructure:"name" yaml:"name" json:"name"`
	Start float64 `mapstructure:"start" yaml:"start" json:"start"`
	End   float64 `mapstructure:"end" yaml:"end" json:"end"`
}

// Contains reports whether pos lies inside the zone (inclusive).
func (z Zone) Contains(pos float64) bool {
	return pos >= z.Start && pos <= z.End
}

// Route is the set of landmarks for one clip.
type Route struct {
	// StorePosition is where the line ends at the car barn store.
	StorePosition float64 `mapstructure:"store_position" yaml:"store_position" json:"store_position"`

	// SignalWindow is how recent the two start bells must be when moving off.
	SignalWindow time.Duration `mapstructure:"signal_window" yaml:"signal_window" json:"signal_window"`
	// SignalGap is the longest pause allowed between the two start bells.
	SignalGap time.Duration `mapstructure:"signal_gap" yaml:"signal_gap" json:"signal_gap"`

	// StopCheck is how long after coming to rest the stop signal is checked
	// if no bell sounds first. Zero disables the stop signal rule.
	StopCheck time.Duration `mapstructure:"stop_check" yaml:"stop_check" json:"stop_check"`
	// StopSignal is how fresh the single stop bell must be, and how far it
	// must stand apart from the bell before it.
	StopSignal time.Duration `mapstructure:"stop_signal" yaml:"stop_signal" json:"stop_signal"`

	// CrossingBells is how many bells must sound inside each crossing.
	CrossingBells int `mapstructure:"crossing_bells" yaml:"crossing_bells" json:"crossing_bells"`

	Crossings []Zone `mapstructure:"crossings" yaml:"crossings" json:"crossings"`
	Stops     []Zone `mapstructure:"stops" yaml:"stops" json:"stops"`
	Zorches   []Zone `mapstructure:"zorches" yaml:"zorches" json:"zorches"` // Section insulators, no power allowed
}

// Default returns the landmarks of the museum's demonstration line.
func Default() Route {
	return Route{
		StorePosition: 0.95,
		SignalWindow:  10 * time.Second,
		SignalGap:     2 * time.Second,
		StopCheck:     10 * time.Second,
		StopSignal:    2 * time.Second,
		CrossingBells: 3,
		Crossings: []Zone{
			{Name: "Broadway north", Start: 0.12, End: 0.15},
			{Name: "Central", Start: 0.39, End: 0.42},
			{Name: "Broadway south", Start: 0.70, End: 0.75},
		},
		Stops: []Zone{
			{Name: "Broadway", Start: 0.09, End: 0.12},
			{Name: "Carbarn 2", Start: 0.58, End: 0.61},
			{Name: "Thomas", Start: 0.87, End: 0.93},
		},
		Zorches: []Zone{
			{Name: "Carbarn 1 lead", Start: 0.70, End: 0.73},
			{Name: "Main line spur", Start: 0.77, End: 0.79},
		},
	}
}

// Validate checks that every zone is well formed and inside the clip.
func (r Route) Validate() error {
	if r.StorePosition <= 0 || r.StorePosition > 1 {
		return fmt.Errorf("store_position %.3f outside (0,1]", r.StorePosition)
	}
	for name, d := range map[string]time.Duration{
		"signal_window": r.SignalWindow, "signal_gap": r.SignalGap,
		"stop_check": r.StopCheck, "stop_signal": r.StopSignal,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	groups := map[string][]Zone{"crossings": r.Crossings, "stops": r.Stops, "zorches": r.Zorches}
	for group, zones := range groups {
		for i, z := range zones {
			if z.Start < 0 || z.End > 1 || z.Start > z.End {
				return fmt.Errorf("%s[%d] %q: invalid range [%.3f, %.3f]", group, i, z.Name, z.Start, z.End)
			}
		}
	}
	return nil
}

// Bell is one sounding of the gong.
type Bell struct {
	At       time.Time
	Position float64
}

// Tracker follows one run along the route and reports broken rules.
// It is owned by the simulator loop and is not safe for concurrent use.
type Tracker struct {
	route     Route
	bells     []Bell
	crossings []bool
	stops     []bool
	zorches   []bool
	lastSpeed float64
	stoppedAt time.Time
}

// NewTracker starts tracking a fresh run.
func NewTracker(r Route) *Tracker {
	t := &Tracker{route: r}
	t.Reset()
	return t
}

// Reset forgets everything about the current run.
func (t *Tracker) Reset() {
	t.bells = nil
	t.crossings = make([]bool, len(t.route.Crossings))
	t.stops = make([]bool, len(t.route.Stops))
	t.zorches = make([]bool, len(t.route.Zorches))
	t.lastSpeed = 0
	t.stoppedAt = time.Time{}
}

// Route returns the landmarks being tracked.
func (t *Tracker) Route() Route { return t.route }

// Bell records the gong being sounded.
func (t *Tracker) Bell(at time.Time, pos float64) {
	t.bells = append(t.bells, Bell{At: at, Position: pos})
}

// Bells returns the recorded bells.
func (t *Tracker) Bells() []Bell {
	return append([]Bell(nil), t.bells...)
}

// Observe checks the rules against the vehicle after a tick and returns the
// warnings raised by this observation. It must also be called while the
// vehicle stands still so the stop signal is checked.
func (t *Tracker) Observe(now time.Time, pos, speed float64, powered bool) []string {
	var warnings []string

	last := t.lastSpeed
	t.lastSpeed = speed
	if last == 0 && speed > 0 {
		if w := t.checkStartSignal(now); w != "" {
			warnings = append(warnings, w)
		}
	}
	if w := t.checkStopSignal(now); w != "" {
		warnings = append(warnings, w)
	}
	if last > 0 && speed == 0 && t.route.StopCheck > 0 {
		t.stoppedAt = now
	}

	for i, z := range t.route.Crossings {
		if t.crossings[i] || pos < z.End {
			continue
		}
		t.crossings[i] = true
		if t.bellsIn(z) < t.route.CrossingBells {
			warnings = append(warnings, fmt.Sprintf("failed to sound bell crossing %s", z.Name))
		}
	}

	for i, z := range t.route.Stops {
		if t.stops[i] {
			continue
		}
		if speed == 0 && z.Contains(pos) {
			t.stops[i] = true
			continue
		}
		if pos > z.End {
			t.stops[i] = true
			warnings = append(warnings, fmt.Sprintf("failed stop at %s", z.Name))
		}
	}

	for i, z := range t.route.Zorches {
		if !t.zorches[i] && powered && z.Contains(pos) {
			t.zorches[i] = true
			warnings = append(warnings, fmt.Sprintf("zorched %s", z.Name))
		}
	}

	return warnings
}

// AtStore reports whether the vehicle has come to rest at the store.
func (t *Tracker) AtStore(pos, speed float64) bool {
	return speed == 0 && pos >= t.route.StorePosition
}

func (t *Tracker) checkStartSignal(now time.Time) string {
	n := len(t.bells)
	if n < 2 || now.Sub(t.bells[n-2].At) > t.route.SignalWindow {
		return "started moving without sounding start signal"
	}
	if t.bells[n-1].At.Sub(t.bells[n-2].At) > t.route.SignalGap {
		return "start signal is ding-ding, not ding-wait-ding"
	}
	return ""
}

// checkStopSignal expects one bell after coming to rest. The check runs once,
// at the first bell after the stop or StopCheck after it, whichever is first.
func (t *Tracker) checkStopSignal(now time.Time) string {
	if t.stoppedAt.IsZero() {
		return ""
	}
	n := len(t.bells)
	rang := n > 0 && t.bells[n-1].At.After(t.stoppedAt)
	if !rang && now.Sub(t.stoppedAt) < t.route.StopCheck {
		return ""
	}
	t.stoppedAt = time.Time{}

	switch {
	case n == 0:
		return "no stop signal"
	case now.Sub(t.bells[n-1].At) > t.route.StopSignal:
		return "stop signal too slow or missing"
	case n > 1 && t.bells[n-1].At.Sub(t.bells[n-2].At) < t.route.StopSignal:
		return "stop signal confused with other signals"
	}
	return ""
}

func (t *Tracker) bellsIn(z Zone) int {
	count := 0
	for _, b := range t.bells {
		if z.Contains(b.Position) {
			count++
		}
	}
	return count
}
