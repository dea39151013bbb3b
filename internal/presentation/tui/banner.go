package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the startup banner with the version and mode title.
func PrintBanner(w io.Writer, version, mode string) {
	p := termenv.NewOutput(w).EnvColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{" _____           _ _            ", "#fbbf24"},
		{"|_   _| __ ___  | | | ___ _   _ ", "#f59e0b"},
		{"  | || '__/ _ \\ | | |/ _ \\ | | |", "#d97706"},
		{"  | || | | (_) || | |  __/ |_| |", "#b45309"},
		{"  |_||_|  \\___/ |_|_|\\___|\\__, |", "#92400e"},
		{"                          |___/ ", "#78350f"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintf(w, "  %s  %s\n\n", p.String("v"+version).Faint(), p.String(mode).Bold())
}
