package video_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scrm/trolley/pkg/adapters/player/virtual"
	"github.com/scrm/trolley/pkg/clock"
	"github.com/scrm/trolley/pkg/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func kinds(cmds []video.Command) []video.CommandKind {
	out := make([]video.CommandKind, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.Kind)
	}
	return out
}

func TestPlan(t *testing.T) {
	cfg := video.DefaultConfig()
	loaded := video.Memory{Paused: true}

	tests := []struct {
		name  string
		frame video.Frame
		view  video.PlayerView
		mem   video.Memory
		want  []video.CommandKind
	}{
		{
			name:  "Stopped After Load",
			frame: video.Frame{At: t0},
			view:  video.PlayerView{Known: true},
			mem:   loaded,
			want:  []video.CommandKind{},
		},
		{
			name:  "Pull Away",
			frame: video.Frame{At: t0, Speed: 0.2},
			view:  video.PlayerView{Known: true},
			mem:   loaded,
			want:  []video.CommandKind{video.CommandSetRate, video.CommandPlay},
		},
		{
			name:  "Speed Change",
			frame: video.Frame{At: t0, Speed: 0.3},
			view:  video.PlayerView{Known: true},
			mem:   video.Memory{RateSet: true, Rate: 0.2},
			want:  []video.CommandKind{video.CommandSetRate},
		},
		{
			name:  "Come To Rest",
			frame: video.Frame{At: t0},
			view:  video.PlayerView{Known: true},
			mem:   video.Memory{RateSet: true, Rate: 0.2},
			want:  []video.CommandKind{video.CommandPause},
		},
		{
			name:  "Small Drift Ignored",
			frame: video.Frame{At: t0, Position: 0.500},
			view:  video.PlayerView{Known: true, Position: 0.505},
			mem:   loaded,
			want:  []video.CommandKind{},
		},
		{
			name:  "Large Drift Corrected",
			frame: video.Frame{At: t0, Position: 0.5},
			view:  video.PlayerView{Known: true, Position: 0.52},
			mem:   loaded,
			want:  []video.CommandKind{video.CommandSeek},
		},
		{
			name:  "Unknown Player Position",
			frame: video.Frame{At: t0, Position: 0.5},
			view:  video.PlayerView{},
			mem:   loaded,
			want:  []video.CommandKind{},
		},
		{
			name:  "Seek Rate Limited",
			frame: video.Frame{At: t0.Add(500 * time.Millisecond), Position: 0.6},
			view:  video.PlayerView{Known: true, Position: 0.4},
			mem:   video.Memory{Paused: true, Seeked: true, SeekTarget: 0.5, SeekAt: t0},
			want:  []video.CommandKind{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds, _ := video.Plan(cfg, tt.frame, tt.view, tt.mem)
			assert.Equal(t, tt.want, kinds(cmds))
		})
	}
}

func TestPlan_IdempotentSeek(t *testing.T) {
	cfg := video.DefaultConfig()
	cfg.MinSeekInterval = 0

	f := video.Frame{At: t0, Position: 0.3, Speed: 0.5}
	view := video.PlayerView{Known: true, Position: 0.1}

	first, mem := video.Plan(cfg, f, view, video.Memory{Paused: true})
	assert.Contains(t, kinds(first), video.CommandSeek)

	// The player has not caught up yet; the same frame must not seek again.
	second, _ := video.Plan(cfg, f, view, mem)
	assert.Empty(t, second)
}

func TestPlan_RateScale(t *testing.T) {
	cfg := video.DefaultConfig()
	cfg.RateScale = 2

	cmds, mem := video.Plan(cfg, video.Frame{At: t0, Speed: 0.25}, video.PlayerView{}, video.Memory{})
	require.NotEmpty(t, cmds)
	assert.Equal(t, video.Command{Kind: video.CommandSetRate, Value: 0.5}, cmds[0])
	assert.Equal(t, 0.5, mem.Rate)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, video.DefaultConfig().Validate())
	assert.Error(t, video.Config{RateScale: 0, DriftTolerance: 0.01}.Validate())
	assert.Error(t, video.Config{RateScale: 1, DriftTolerance: 0}.Validate())
}

func TestEmitter_Sync(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(t0)
	player := virtual.New(clk, 100*time.Second)

	var observed []video.Command
	e := video.NewEmitter(player, video.WithCommandObserver(func(c video.Command, err error) {
		observed = append(observed, c)
	}))
	require.NoError(t, e.Load(ctx, "line.mp4"))

	cmds, err := e.Sync(ctx, video.Frame{At: clk.Now(), Speed: 0.5})
	require.NoError(t, err)
	assert.Equal(t, []video.CommandKind{video.CommandSetRate, video.CommandPlay}, kinds(cmds))

	// Player tracks the simulation: no further commands.
	clk.Advance(10 * time.Second)
	cmds, err = e.Sync(ctx, video.Frame{At: clk.Now(), Speed: 0.5, Position: 0.05})
	require.NoError(t, err)
	assert.Empty(t, cmds)

	// The simulation jumps ahead: one corrective seek.
	cmds, err = e.Sync(ctx, video.Frame{At: clk.Now(), Speed: 0.5, Position: 0.2})
	require.NoError(t, err)
	assert.Equal(t, []video.CommandKind{video.CommandSeek}, kinds(cmds))
	assert.InDelta(t, 0.2, player.Snapshot().Position, 1e-9)

	cmds, err = e.Sync(ctx, video.Frame{At: clk.Now(), Position: 0.2})
	require.NoError(t, err)
	assert.Equal(t, []video.CommandKind{video.CommandPause}, kinds(cmds))

	assert.Len(t, observed, 4)
	assert.Equal(t, []string{"load line.mp4", "rate 0.500", "play", "seek 0.2000", "pause"}, player.Calls())
}

func TestEmitter_SyncRetriesAfterFailure(t *testing.T) {
	ctx := context.Background()
	player := virtual.New(clock.NewManual(t0), 0)
	e := video.NewEmitter(player)
	require.NoError(t, e.Load(ctx, "clip"))

	player.FailNext("rate", errors.New("ipc closed"))
	_, err := e.Sync(ctx, video.Frame{At: t0, Speed: 0.3})
	require.Error(t, err)

	cmds, err := e.Sync(ctx, video.Frame{At: t0, Speed: 0.3})
	require.NoError(t, err)
	assert.Contains(t, kinds(cmds), video.CommandSetRate)
}

// slowPlayer blocks every call until released.
type slowPlayer struct {
	*virtual.Player
	gate chan struct{}
}

func (s *slowPlayer) Position(ctx context.Context) (float64, error) {
	<-s.gate
	return s.Player.Position(ctx)
}

func TestEmitter_SubmitNeverBlocks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	player := &slowPlayer{Player: virtual.New(nil, 0), gate: make(chan struct{})}
	require.NoError(t, player.Load(ctx, "clip"))

	e := video.NewEmitter(player, video.WithCallTimeout(time.Second))
	go func() { _ = e.Run(ctx) }()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			e.Submit(video.Frame{At: t0, Speed: float64(i) / 100})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on a slow player")
	}
	assert.Positive(t, e.Replaced())
	close(player.gate)
}
