package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"easy", ModeEasy, false},
		{"", ModeEasy, false},
		{"Start/Stop", ModeStartStop, false},
		{"start-stop", ModeStartStop, false},
		{"FULL", ModeFull, false},
		{"expert", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestControls_Apply(t *testing.T) {
	c := InitialControls()
	assert.Equal(t, DeadmanReleased, c.Deadman)
	assert.Equal(t, BrakeApplied, c.Brake)

	c = c.Apply(Command{Kind: CommandDeadman, Deadman: DeadmanSet})
	c = c.Apply(Command{Kind: CommandReverser, Reverser: ReverserForward})
	c = c.Apply(Command{Kind: CommandBrake, Brake: BrakeReleased})
	c = c.Apply(Command{Kind: CommandRun, RunLevel: 2})
	assert.Equal(t, Controls{Deadman: DeadmanSet, RunLevel: 2, Reverser: ReverserForward, Brake: BrakeReleased}, c)

	// Reset returns the controller handle to off but leaves the other controls alone.
	c = c.Apply(Command{Kind: CommandReset})
	assert.Equal(t, RunLevel(0), c.RunLevel)
	assert.Equal(t, DeadmanSet, c.Deadman)

	// Marks do not touch the controls.
	assert.Equal(t, c, c.Apply(Command{Kind: CommandMark, Note: "x"}))
}

func TestFault_ErrorsIs(t *testing.T) {
	var err error = NewFault(FaultSequence, "%s (run-%d to run-%d)", ReasonSequence, 2, 1)

	assert.ErrorIs(t, err, ErrSequence)
	assert.NotErrorIs(t, err, ErrInterlock)
	assert.Equal(t, "sequence: invalid run sequence (run-2 to run-1)", err.Error())

	var f *Fault
	require.True(t, errors.As(err, &f))
	assert.False(t, f.Completion())
	assert.True(t, NewFault(FaultEndOfLine, ReasonEndOfLine).Completion())
}

func TestLifecycleHooks_Merge(t *testing.T) {
	var calls []string
	a := LifecycleHooks{OnFault: func(context.Context, *Fault) { calls = append(calls, "a") }}
	b := LifecycleHooks{
		OnFault:      func(context.Context, *Fault) { calls = append(calls, "b") },
		OnTransition: func(context.Context, *TransitionEvent) { calls = append(calls, "t") },
	}

	m := a.Merge(b)
	m.OnFault(context.Background(), &Fault{})
	m.OnTransition(context.Background(), &TransitionEvent{})
	assert.Nil(t, m.OnTick)
	assert.Equal(t, []string{"a", "b", "t"}, calls)
}

func TestStatus_Clone(t *testing.T) {
	s := NewStatus(ModeFull)
	s.Warnings = []string{"one"}
	s.Fault = &Fault{Kind: FaultTimeout, Reason: "slow"}

	c := s.Clone()
	c.Warnings[0] = "changed"
	c.Fault.Reason = "changed"

	assert.Equal(t, "one", s.Warnings[0])
	assert.Equal(t, "slow", s.Fault.Reason)
}
