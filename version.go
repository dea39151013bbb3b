package trolley

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var rawVersion string

// Version is the release of the simulator.
var Version = strings.TrimSpace(rawVersion)
