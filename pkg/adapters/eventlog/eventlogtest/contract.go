// Package eventlogtest holds the shared contract suite for event sinks.
package eventlogtest

import (
	"context"
	"testing"
	"time"

	"github.com/scrm/trolley/pkg/domain"
	"github.com/scrm/trolley/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSinkContract verifies that sink appends events in order without
// altering them. read returns everything the sink holds, oldest first.
func RunSinkContract(t *testing.T, sink ports.EventSink, read func() ([]domain.Event, error)) {
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	batch := []domain.Event{
		{Timestamp: at, Kind: domain.EventTransition, From: domain.StateIdle, State: domain.StateRunning, RunLevel: 1, Reason: "run-0 to run-1"},
		{Timestamp: at.Add(time.Second), Kind: domain.EventFault, From: domain.StateRunning, State: domain.StateFaulted, Speed: 0, Position: 0.12, Fault: domain.FaultInterlock, Reason: domain.ReasonBrake},
		{Timestamp: at.Add(2 * time.Second), Kind: domain.EventMark, State: domain.StateFaulted, Note: "visitor asked about the brake"},
	}

	t.Run("Record Preserves Order", func(t *testing.T) {
		before, err := read()
		require.NoError(t, err)

		for _, e := range batch {
			require.NoError(t, sink.Record(ctx, e))
		}

		after, err := read()
		require.NoError(t, err)
		require.Len(t, after, len(before)+len(batch))

		got := after[len(before):]
		for i := range batch {
			assert.True(t, batch[i].Timestamp.Equal(got[i].Timestamp), "event %d timestamp", i)
			got[i].Timestamp = batch[i].Timestamp
			assert.Equal(t, batch[i], got[i])
		}
	})

	t.Run("Append Only", func(t *testing.T) {
		before, err := read()
		require.NoError(t, err)

		require.NoError(t, sink.Record(ctx, domain.Event{Timestamp: at, Kind: domain.EventNotice, Reason: "stopped correctly at store"}))

		after, err := read()
		require.NoError(t, err)
		require.Len(t, after, len(before)+1)
		assert.Equal(t, before, after[:len(before)])
	})
}
