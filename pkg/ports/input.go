package ports

import "github.com/scrm/trolley/pkg/domain"

// InputSurface is the operator panel as seen by the simulator.
// Neither method blocks: no new input means "hold the last values".
type InputSurface interface {
	// Sample returns the current control positions.
	Sample() domain.Controls

	// PollCommands returns the commands issued since the previous poll,
	// ordered by sequence number.
	PollCommands() []domain.Command
}
