package cli

import (
	"context"
	"fmt"

	"github.com/scrm/trolley/internal/config"
	"github.com/scrm/trolley/pkg/adapters/player/mpv"
	"github.com/scrm/trolley/pkg/adapters/player/virtual"
	"github.com/scrm/trolley/pkg/clock"
	"github.com/scrm/trolley/pkg/ports"
)

// defaultClip is loaded into the virtual player when no clip is configured.
const defaultClip = "virtual"

// openPlayer connects the configured player backend. The returned func
// releases it.
func openPlayer(ctx context.Context, cfg config.Video, clk clock.Clock) (ports.Player, string, func() error, error) {
	switch cfg.Player {
	case config.PlayerMPV:
		if cfg.Clip == "" {
			return nil, "", nil, fmt.Errorf("video.clip is required for the mpv player")
		}
		var (
			p   *mpv.Player
			err error
		)
		if cfg.MPVLaunch {
			p, err = mpv.Launch(ctx, cfg.MPVBinary, cfg.MPVSocket)
		} else {
			p, err = mpv.Dial(ctx, cfg.MPVSocket)
		}
		if err != nil {
			return nil, "", nil, fmt.Errorf("mpv: %w", err)
		}
		return p, cfg.Clip, p.Close, nil
	}

	clip := cfg.Clip
	if clip == "" {
		clip = defaultClip
	}
	return virtual.New(clk, cfg.Duration), clip, func() error { return nil }, nil
}
