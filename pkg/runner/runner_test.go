package runner_test

import (
	"context"
	"testing"
	"time"

	"github.com/scrm/trolley"
	"github.com/scrm/trolley/internal/runtime"
	"github.com/scrm/trolley/pkg/adapters/player/virtual"
	"github.com/scrm/trolley/pkg/clock"
	"github.com/scrm/trolley/pkg/domain"
	"github.com/scrm/trolley/pkg/runner"
	"github.com/scrm/trolley/pkg/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newSim(t *testing.T) (*trolley.Simulator, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(t0)
	sim, err := trolley.New(trolley.DefaultConfig(), trolley.WithClock(clk))
	require.NoError(t, err)
	return sim, clk
}

func TestRun_NoTicker(t *testing.T) {
	sim, _ := newSim(t)
	assert.ErrorIs(t, runner.NewRunner(sim).Run(context.Background()), runner.ErrNoTicker)
}

func TestRun_StepsUntilFeedCloses(t *testing.T) {
	sim, _ := newSim(t)
	feed := clock.NewFeed(16)

	var seen []runtime.Result
	r := runner.NewRunner(sim,
		runner.WithTicker(feed),
		runner.WithObserver(func(res runtime.Result) { seen = append(seen, res) }),
	)

	sim.Panel().SetDeadman(true)
	sim.Panel().PressRun(3)
	for i := 0; i < 10; i++ {
		feed.Fire(t0.Add(time.Duration(i) * 100 * time.Millisecond))
	}
	feed.Close()

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, uint64(10), r.Steps())
	require.Len(t, seen, 10)
	assert.Equal(t, domain.StateRunning, seen[9].Status.State)
	assert.Greater(t, seen[9].Status.Speed, seen[1].Status.Speed)
}

func TestRun_StopWhen(t *testing.T) {
	sim, _ := newSim(t)
	feed := clock.NewFeed(16)
	r := runner.NewRunner(sim,
		runner.WithTicker(feed),
		runner.WithStopWhen(func(res runtime.Result) bool { return res.Faulted() }),
	)

	sim.Panel().PressRun(1) // Deadman released
	feed.Fire(t0)
	feed.Fire(t0.Add(100 * time.Millisecond))

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, uint64(1), r.Steps())
	assert.Equal(t, domain.StateFaulted, sim.Status().State)
}

func TestRun_CancelIsNormalExit(t *testing.T) {
	sim, _ := newSim(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := runner.NewRunner(sim, runner.WithTicker(clock.NewFeed(1)))
	assert.NoError(t, r.Run(ctx))
}

func TestRun_DrivesPlayer(t *testing.T) {
	sim, clk := newSim(t)
	player := virtual.New(clk, 10*time.Minute)
	emitter := video.NewEmitter(player)
	require.NoError(t, emitter.Load(context.Background(), "line.mp4"))

	feed := clock.NewFeed(64)
	r := runner.NewRunner(sim, runner.WithTicker(feed), runner.WithEmitter(emitter))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	sim.Panel().SetDeadman(true)
	sim.Panel().PressRun(2)
	for i := 0; i < 20; i++ {
		feed.Fire(clk.Advance(100 * time.Millisecond))
	}

	require.Eventually(t, func() bool { return player.Snapshot().Playing }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Greater(t, player.Snapshot().Rate, 0.0)
}

func TestSignalManager_Lifecycle(t *testing.T) {
	sm := runner.NewSignalManager(context.Background())

	ctx := sm.Context()
	assert.NotNil(t, ctx)
	assert.NoError(t, ctx.Err())

	sm.Stop()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestSignalManager_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	sm := runner.NewSignalManager(parent)
	defer sm.Stop()

	cancel()
	<-sm.Context().Done()
}
