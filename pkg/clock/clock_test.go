package clock_test

import (
	"context"
	"testing"
	"time"

	"github.com/scrm/trolley/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := clock.NewManual(start)

	assert.Equal(t, start, m.Now())
	assert.Equal(t, start.Add(time.Second), m.Advance(time.Second))

	m.Set(start)
	assert.Equal(t, start, m.Now())
}

func TestTicker_Ordered(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tk := clock.NewTicker(ctx, 5*time.Millisecond, nil)
	defer tk.Stop()

	var last uint64
	for i := 0; i < 5; i++ {
		select {
		case tick := <-tk.Ticks():
			assert.Greater(t, tick.Seq, last)
			last = tick.Seq
		case <-time.After(time.Second):
			t.Fatal("ticker did not fire")
		}
	}
}

func TestTicker_CoalescesSlowConsumer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tk := clock.NewTicker(ctx, 2*time.Millisecond, nil)
	time.Sleep(50 * time.Millisecond)

	tick := <-tk.Ticks()
	assert.Greater(t, tick.Seq, uint64(1), "pending tick should be the newest one")
	assert.Positive(t, tk.Coalesced())

	tk.Stop()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-tk.Ticks():
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestFeed(t *testing.T) {
	f := clock.NewFeed(2)
	at := time.Unix(100, 0)

	first := f.Fire(at)
	second := f.Fire(at.Add(time.Second))
	f.Close()

	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, uint64(2), second.Seq)

	var got []clock.Tick
	for tick := range f.Ticks() {
		got = append(got, tick)
	}
	assert.Equal(t, []clock.Tick{first, second}, got)

	// Firing after close is a no-op.
	assert.Zero(t, f.Fire(at).Seq)
}
