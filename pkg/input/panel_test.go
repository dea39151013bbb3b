package input_test

import (
	"sync"
	"testing"
	"time"

	"github.com/scrm/trolley/pkg/clock"
	"github.com/scrm/trolley/pkg/domain"
	"github.com/scrm/trolley/pkg/input"
	"github.com/scrm/trolley/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.InputSurface = (*input.Panel)(nil)

func TestPanel_SampleAndPoll(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	p := input.NewPanel(clk)

	assert.Equal(t, domain.InitialControls(), p.Sample())
	assert.Empty(t, p.PollCommands())

	p.SetDeadman(true)
	clk.Advance(time.Second)
	p.SetReverser(domain.ReverserForward)
	p.ToggleBrake()
	p.PressRun(2)

	assert.Equal(t, domain.Controls{
		Deadman:  domain.DeadmanSet,
		RunLevel: 2,
		Reverser: domain.ReverserForward,
		Brake:    domain.BrakeReleased,
	}, p.Sample())

	cmds := p.PollCommands()
	require.Len(t, cmds, 4)
	assert.Equal(t, domain.CommandDeadman, cmds[0].Kind)
	assert.Equal(t, time.Unix(1000, 0), cmds[0].At)
	assert.Equal(t, time.Unix(1001, 0), cmds[3].At)
	for i := 1; i < len(cmds); i++ {
		assert.Greater(t, cmds[i].Seq, cmds[i-1].Seq)
	}

	// Drained.
	assert.Empty(t, p.PollCommands())
}

func TestPanel_ResetKeepsDeadman(t *testing.T) {
	p := input.NewPanel(nil)
	p.SetDeadman(true)
	p.PressRun(3)
	p.Reset()

	c := p.Sample()
	assert.Equal(t, domain.RunLevel(0), c.RunLevel)
	assert.Equal(t, domain.DeadmanSet, c.Deadman)

	p.ToggleDeadman()
	assert.Equal(t, domain.DeadmanReleased, p.Sample().Deadman)
}

func TestPanel_MarksDoNotMoveControls(t *testing.T) {
	p := input.NewPanel(nil)
	before := p.Sample()
	p.Mark("school group")
	p.Bell()

	assert.Equal(t, before, p.Sample())
	cmds := p.PollCommands()
	require.Len(t, cmds, 2)
	assert.Equal(t, "school group", cmds[0].Note)
	assert.Equal(t, domain.CommandBell, cmds[1].Kind)
}

func TestPanel_ConcurrentSubmit(t *testing.T) {
	p := input.NewPanel(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				p.Bell()
			}
		}()
	}
	wg.Wait()

	cmds := p.PollCommands()
	require.Len(t, cmds, 400)
	for i := 1; i < len(cmds); i++ {
		assert.Equal(t, cmds[i-1].Seq+1, cmds[i].Seq)
	}
}
