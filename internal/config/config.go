// Package config loads the simulator configuration from YAML.
//
// The file is decoded into a generic map and then onto the defaults with
// mapstructure, so any key left out keeps its default value. Lists replace
// their default wholesale.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/scrm/trolley/internal/runtime"
	"github.com/scrm/trolley/pkg/adapters/eventlog/file"
	"github.com/scrm/trolley/pkg/clock"
	"github.com/scrm/trolley/pkg/domain"
	"github.com/scrm/trolley/pkg/policy"
	"github.com/scrm/trolley/pkg/route"
	"github.com/scrm/trolley/pkg/video"
	"gopkg.in/yaml.v3"
)

// Player backends.
const (
	PlayerVirtual = "virtual"
	PlayerMPV     = "mpv"
)

// Config is the full simulator configuration.
type Config struct {
	Mode         string        `mapstructure:"mode" yaml:"mode"`
	TickInterval time.Duration `mapstructure:"tick_interval" yaml:"tick_interval"`

	runtime.Physics `mapstructure:",squash" yaml:",inline"`

	MaxRunSegment  RunLimits     `mapstructure:"max_run_segment" yaml:"max_run_segment"`
	AutoResetAfter time.Duration `mapstructure:"auto_reset_after" yaml:"auto_reset_after"`

	Route       route.Route `mapstructure:"route" yaml:"route"`
	Video       Video       `mapstructure:"video" yaml:"video"`
	Log         Log         `mapstructure:"log" yaml:"log"`
	Diagnostics Diagnostics `mapstructure:"diagnostics" yaml:"diagnostics"`
}

// RunLimits bounds how long one run level may be held, per mode.
// Easy mode has no timer.
type RunLimits struct {
	StartStop time.Duration `mapstructure:"start_stop" yaml:"start_stop"`
	Full      time.Duration `mapstructure:"full" yaml:"full"`
}

// Video selects the player and tunes the emitter.
type Video struct {
	Clip   string `mapstructure:"clip" yaml:"clip"`
	Player string `mapstructure:"player" yaml:"player"`

	// Duration is the clip length assumed by the virtual player.
	Duration time.Duration `mapstructure:"duration" yaml:"duration"`

	MPVBinary string `mapstructure:"mpv_binary" yaml:"mpv_binary"`
	MPVSocket string `mapstructure:"mpv_socket" yaml:"mpv_socket"`
	// MPVLaunch starts mpv instead of attaching to a running instance.
	MPVLaunch bool `mapstructure:"mpv_launch" yaml:"mpv_launch"`

	video.Config `mapstructure:",squash" yaml:",inline"`
}

// Log configures the event log and the diagnostic logger.
type Log struct {
	Path   string `mapstructure:"path" yaml:"path"`
	Format string `mapstructure:"format" yaml:"format"`
	Level  string `mapstructure:"level" yaml:"level"`
	Redis  Redis  `mapstructure:"redis" yaml:"redis"`
}

// Redis configures the optional event mirror. Empty Addr disables it.
type Redis struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Key      string `mapstructure:"key" yaml:"key"`
	MaxLen   int64  `mapstructure:"max_len" yaml:"max_len"`
}

// Diagnostics configures the read-only HTTP endpoint. Empty Addr disables it.
type Diagnostics struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Mode:           string(domain.ModeEasy),
		TickInterval:   clock.DefaultInterval,
		Physics:        runtime.DefaultPhysics(),
		MaxRunSegment:  RunLimits{StartStop: 10 * time.Second, Full: 10 * time.Second},
		AutoResetAfter: runtime.DefaultAutoReset,
		Route:          route.Default(),
		Video: Video{
			Player:    PlayerVirtual,
			Duration:  10 * time.Minute,
			MPVBinary: "mpv",
			MPVSocket: "/tmp/trolley-mpv.sock",
			Config:    video.DefaultConfig(),
		},
		Log: Log{
			Path:   file.DefaultPath(),
			Format: string(file.FormatJSON),
			Level:  "info",
			Redis:  Redis{Key: "trolley:events", MaxLen: 10000},
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode overlays YAML data onto cfg.
func Decode(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse yaml: %w", err)
	}
	if raw == nil {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
		WeaklyTypedInput: true,
		ZeroFields:       true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// ParsedMode returns the configured mode.
func (c Config) ParsedMode() (domain.Mode, error) {
	return domain.ParseMode(c.Mode)
}

// Policy builds the rule set for mode with the configured run limits.
func (c Config) Policy(mode domain.Mode) policy.Policy {
	switch mode {
	case domain.ModeStartStop:
		return policy.New(mode, c.MaxRunSegment.StartStop)
	case domain.ModeFull:
		return policy.New(mode, c.MaxRunSegment.Full)
	}
	return policy.New(mode, 0)
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if _, err := c.ParsedMode(); err != nil {
		return err
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive")
	}
	if err := c.Physics.Validate(); err != nil {
		return err
	}
	if c.MaxRunSegment.StartStop < 0 || c.MaxRunSegment.Full < 0 {
		return fmt.Errorf("max_run_segment must not be negative")
	}
	if c.AutoResetAfter < 0 {
		return fmt.Errorf("auto_reset_after must not be negative")
	}
	if err := c.Route.Validate(); err != nil {
		return fmt.Errorf("route: %w", err)
	}
	if err := c.Video.Config.Validate(); err != nil {
		return fmt.Errorf("video: %w", err)
	}
	switch c.Video.Player {
	case PlayerVirtual, PlayerMPV:
	default:
		return fmt.Errorf("video.player: unknown player %q", c.Video.Player)
	}
	switch file.Format(c.Log.Format) {
	case file.FormatJSON, file.FormatText:
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	if c.Diagnostics.Addr != "" {
		if err := loopback(c.Diagnostics.Addr); err != nil {
			return fmt.Errorf("diagnostics.addr: %w", err)
		}
	}
	return nil
}

func loopback(addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if host == "localhost" {
		return nil
	}
	ip := net.ParseIP(host)
	if ip == nil || !ip.IsLoopback() {
		return fmt.Errorf("%s is not a loopback address", addr)
	}
	return nil
}
