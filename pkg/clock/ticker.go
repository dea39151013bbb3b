package clock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultInterval is the tick period used when none is configured.
const DefaultInterval = 100 * time.Millisecond

// Tick is one firing of the tick source.
// Seq is strictly increasing; At is read from the source's Clock.
type Tick struct {
	Seq uint64
	At  time.Time
}

// Source delivers ticks in order. A closed channel means the source stopped.
type Source interface {
	Ticks() <-chan Tick
}

// Ticker fires ticks at a fixed interval.
//
// The delivery channel holds a single pending tick. When the consumer falls
// behind, the pending tick is replaced by the newer one: ticks are coalesced,
// never reordered.
type Ticker struct {
	interval  time.Duration
	clock     Clock
	ch        chan Tick
	seq       uint64
	coalesced atomic.Uint64
	done      chan struct{}
	stopOnce  sync.Once
}

// NewTicker starts a ticker that runs until ctx is cancelled or Stop is called.
func NewTicker(ctx context.Context, interval time.Duration, clk Clock) *Ticker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if clk == nil {
		clk = System{}
	}
	t := &Ticker{
		interval: interval,
		clock:    clk,
		ch:       make(chan Tick, 1),
		done:     make(chan struct{}),
	}
	go t.loop(ctx)
	return t
}

// Ticks returns the delivery channel.
func (t *Ticker) Ticks() <-chan Tick { return t.ch }

// Interval returns the configured period.
func (t *Ticker) Interval() time.Duration { return t.interval }

// Coalesced returns how many ticks were replaced before being consumed.
func (t *Ticker) Coalesced() uint64 { return t.coalesced.Load() }

// Stop halts the ticker and closes the delivery channel.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.done) })
}

func (t *Ticker) loop(ctx context.Context) {
	defer close(t.ch)

	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.done:
			return
		case <-tk.C:
			t.seq++
			t.offer(Tick{Seq: t.seq, At: t.clock.Now()})
		}
	}
}

// offer is only called from loop, so there is a single producer.
func (t *Ticker) offer(tick Tick) {
	select {
	case t.ch <- tick:
		return
	default:
	}
	select {
	case <-t.ch:
		t.coalesced.Add(1)
	default:
	}
	select {
	case t.ch <- tick:
	default:
		t.coalesced.Add(1)
	}
}

// Feed is a Source fired by hand. Used by scripted sessions and tests.
type Feed struct {
	mu     sync.Mutex
	ch     chan Tick
	seq    uint64
	closed bool
}

// NewFeed creates a feed with room for buffer pending ticks.
func NewFeed(buffer int) *Feed {
	return &Feed{ch: make(chan Tick, buffer)}
}

// Ticks returns the delivery channel.
func (f *Feed) Ticks() <-chan Tick { return f.ch }

// Fire queues a tick at the given time. It blocks while the buffer is full.
func (f *Feed) Fire(at time.Time) Tick {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return Tick{}
	}
	f.seq++
	tick := Tick{Seq: f.seq, At: at}
	f.ch <- tick
	return tick
}

// Close ends the feed.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.ch)
	}
}
