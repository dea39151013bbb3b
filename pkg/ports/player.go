package ports

import "context"

// Player is the external video player. Positions are normalized offsets
// into the loaded clip, rates are playback speed multipliers.
type Player interface {
	// Load opens a clip, paused at its start.
	Load(ctx context.Context, clip string) error

	SetRate(ctx context.Context, rate float64) error
	SeekTo(ctx context.Context, position float64) error
	Pause(ctx context.Context) error
	Play(ctx context.Context) error

	// Position reports where playback currently is.
	Position(ctx context.Context) (float64, error)
}
