// Package console drives the operator panel from a raw-mode terminal and
// keeps a one-line status display up to date.
package console

import (
	"errors"
	"fmt"
	"strings"

	"github.com/scrm/trolley/pkg/domain"
	"github.com/scrm/trolley/pkg/input"
)

// Action is what a key press does to the panel.
type Action struct {
	Key   byte
	Label string
	Do    func(*input.Panel)
}

// ErrQuit is returned by Run when the operator presses the quit key.
var ErrQuit = errors.New("operator quit")

const quitKey = 'q'

// Keymap is the default keyboard layout.
var Keymap = []Action{
	{' ', "toggle deadman", func(p *input.Panel) { p.ToggleDeadman() }},
	{'0', "controller to run-0", run(0)},
	{'1', "controller to run-1", run(1)},
	{'2', "controller to run-2", run(2)},
	{'3', "controller to run-3", run(3)},
	{'4', "controller past run-3", run(4)},
	{'f', "reverser forward", reverser(domain.ReverserForward)},
	{'n', "reverser neutral", reverser(domain.ReverserNeutral)},
	{'r', "reverser reverse", reverser(domain.ReverserReverse)},
	{'b', "toggle brake", func(p *input.Panel) { p.ToggleBrake() }},
	{'d', "sound the bell", func(p *input.Panel) { p.Bell() }},
	{'m', "mark position", func(p *input.Panel) { p.Mark("") }},
	{'x', "reset", func(p *input.Panel) { p.Reset() }},
}

func run(level domain.RunLevel) func(*input.Panel) {
	return func(p *input.Panel) { p.PressRun(level) }
}

func reverser(r domain.Reverser) func(*input.Panel) {
	return func(p *input.Panel) { p.SetReverser(r) }
}

// Lookup finds the action bound to key. Letters are case-insensitive.
func Lookup(key byte) (Action, bool) {
	if key >= 'A' && key <= 'Z' {
		key += 'a' - 'A'
	}
	for _, a := range Keymap {
		if a.Key == key {
			return a, true
		}
	}
	return Action{}, false
}

// Help renders the keymap as markdown.
func Help(mode domain.Mode) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n| Key | Action |\n|---|---|\n", mode.Title())
	for _, a := range Keymap {
		fmt.Fprintf(&sb, "| `%s` | %s |\n", keyName(a.Key), a.Label)
	}
	fmt.Fprintf(&sb, "| `%c` | quit |\n", quitKey)
	if mode == domain.ModeEasy {
		sb.WriteString("\nOnly the deadman and the controller matter in this mode.\n")
	}
	return sb.String()
}

func keyName(k byte) string {
	if k == ' ' {
		return "space"
	}
	return string(k)
}
