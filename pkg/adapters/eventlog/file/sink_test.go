package file_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/scrm/trolley/pkg/adapters/eventlog/eventlogtest"
	"github.com/scrm/trolley/pkg/adapters/eventlog/file"
	"github.com/scrm/trolley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSink_Contract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "trolley.log")
	s, err := file.Open(path)
	require.NoError(t, err)
	defer s.Close()

	eventlogtest.RunSinkContract(t, s, func() ([]domain.Event, error) {
		events, err := file.ReadFile(path)
		if os.IsNotExist(err) {
			return nil, nil
		}
		return events, err
	})
}

func TestSink_AppendsAcrossSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trolley.log")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		s, err := file.Open(path)
		require.NoError(t, err)
		require.NoError(t, s.Record(ctx, domain.Event{Kind: domain.EventMark, Note: "session"}))
		require.NoError(t, s.Close())
	}

	events, err := file.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestSink_TextFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trolley.log")
	s, err := file.Open(path, file.WithFormat(file.FormatText))
	require.NoError(t, err)

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Record(context.Background(), domain.Event{
		Timestamp: at,
		Kind:      domain.EventFault,
		State:     domain.StateFaulted,
		Fault:     domain.FaultInterlock,
		Reason:    domain.ReasonDeadman,
	}))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.True(t, strings.HasPrefix(line, "2024-05-01T10:00:00.000Z fault"))
	assert.Contains(t, line, `reason="deadman not engaged"`)
	assert.Contains(t, line, "fault=interlock")

	// Closed sinks refuse writes.
	assert.ErrorIs(t, s.Record(context.Background(), domain.Event{}), os.ErrClosed)
}

func TestOpen_Errors(t *testing.T) {
	_, err := file.Open(filepath.Join(t.TempDir(), "x.log"), file.WithFormat("xml"))
	assert.Error(t, err)

	_, err = file.ReadAll(strings.NewReader("{not json}\n"))
	assert.Error(t, err)

	assert.Equal(t, file.DefaultName, filepath.Base(file.DefaultPath()))
}
