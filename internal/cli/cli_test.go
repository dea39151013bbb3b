package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/scrm/trolley/internal/config"
	"github.com/scrm/trolley/internal/logging"
	"github.com/scrm/trolley/pkg/adapters/eventlog/file"
	"github.com/scrm/trolley/pkg/adapters/player/virtual"
	"github.com/scrm/trolley/pkg/clock"
	"github.com/scrm/trolley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const easyRun = `
name: easy run
mode: easy
tick: 100ms
duration: 5s
steps:
  - {at: 0s, deadman: true}
  - {at: 500ms, run: 1}
  - {at: 1s, run: 2}
  - {at: 2s, run: 3}
  - {at: 3s, mark: "full power"}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolve_Overrides(t *testing.T) {
	cfgPath := writeFile(t, "trolley.yaml", "mode: full\ntick_interval: 50ms\n")

	cfg, scr, err := RunOptions{ConfigPath: cfgPath}.resolve()
	require.NoError(t, err)
	assert.Nil(t, scr)
	assert.Equal(t, "full", cfg.Mode)
	assert.Equal(t, 50*time.Millisecond, cfg.TickInterval)

	cfg, _, err = RunOptions{ConfigPath: cfgPath, Mode: "start_stop", Tick: 200 * time.Millisecond, LogPath: "/tmp/x.log"}.resolve()
	require.NoError(t, err)
	assert.Equal(t, "start_stop", cfg.Mode)
	assert.Equal(t, 200*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, "/tmp/x.log", cfg.Log.Path)
}

func TestResolve_ScriptMode(t *testing.T) {
	scrPath := writeFile(t, "run.yaml", easyRun)

	cfg, scr, err := RunOptions{ScriptPath: scrPath}.resolve()
	require.NoError(t, err)
	require.NotNil(t, scr)
	assert.Equal(t, "easy", cfg.Mode)

	cfg, _, err = RunOptions{ScriptPath: scrPath, Mode: "full"}.resolve()
	require.NoError(t, err)
	assert.Equal(t, "full", cfg.Mode, "flag wins over script")
}

func TestResolve_Invalid(t *testing.T) {
	_, _, err := RunOptions{Mode: "expert"}.resolve()
	assert.Error(t, err)

	_, _, err = RunOptions{Diagnostics: "0.0.0.0:9100"}.resolve()
	assert.ErrorContains(t, err, "loopback")
}

func TestOpenSinks(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default().Log
	cfg.Path = filepath.Join(t.TempDir(), "events.log")
	cfg.Redis.Addr = mr.Addr()

	ctx := context.Background()
	s, err := openSinks(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	require.NotNil(t, s.redis)

	e := domain.Event{Kind: domain.EventMark, Note: "hello"}
	require.NoError(t, s.Record(ctx, e))
	require.NoError(t, s.Close())

	fromFile, err := file.ReadFile(cfg.Path)
	require.NoError(t, err)
	require.Len(t, fromFile, 1)
	assert.Equal(t, "hello", fromFile[0].Note)

	assert.Len(t, s.recent.Events(), 1)
	n, err := mr.List(cfg.Redis.Key)
	require.NoError(t, err)
	assert.Len(t, n, 1)
}

func TestOpenSinks_RedisDown(t *testing.T) {
	cfg := config.Default().Log
	cfg.Path = filepath.Join(t.TempDir(), "events.log")
	cfg.Redis.Addr = "127.0.0.1:1"

	s, err := openSinks(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer s.Close()
	assert.Nil(t, s.redis)
}

func TestOpenPlayer(t *testing.T) {
	cfg := config.Default().Video
	p, clip, closeFn, err := openPlayer(context.Background(), cfg, clock.System{})
	require.NoError(t, err)
	assert.IsType(t, &virtual.Player{}, p)
	assert.Equal(t, defaultClip, clip)
	assert.NoError(t, closeFn())

	cfg.Player = config.PlayerMPV
	_, _, _, err = openPlayer(context.Background(), cfg, clock.System{})
	assert.ErrorContains(t, err, "video.clip is required")
}

func TestRunSession_Script(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "session.log")
	var out bytes.Buffer

	err := RunSession(RunOptions{
		ScriptPath: writeFile(t, "run.yaml", easyRun),
		LogPath:    logPath,
	}, nil, &out)
	require.NoError(t, err)

	events, err := file.ReadFile(logPath)
	require.NoError(t, err)
	require.NotEmpty(t, events)

	var kinds []domain.EventKind
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	assert.Contains(t, kinds, domain.EventTransition)
	assert.Contains(t, kinds, domain.EventMark)
	assert.NotContains(t, kinds, domain.EventFault)

	last := events[len(events)-1]
	assert.Equal(t, "full power", last.Note)
	assert.Greater(t, last.Position, 0.0)

	assert.Contains(t, out.String(), "Easy Mode session")
}

func TestRunReportAndGraph(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "session.log")
	require.NoError(t, RunSession(RunOptions{ScriptPath: writeFile(t, "run.yaml", easyRun), LogPath: logPath}, nil, &bytes.Buffer{}))

	var out bytes.Buffer
	require.NoError(t, RunReport(logPath, true, &out))
	assert.Contains(t, out.String(), "# session.log")
	assert.Contains(t, out.String(), "full power")

	out.Reset()
	require.NoError(t, RunGraph("full", &out))
	assert.Contains(t, out.String(), "stateDiagram-v2")

	assert.Error(t, RunGraph("expert", &out))
	assert.Error(t, RunReport(filepath.Join(t.TempDir(), "missing.log"), true, &out))
}

func TestRunConfig(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RunConfig("", &out))
	assert.Contains(t, out.String(), "mode: easy")
	assert.Contains(t, out.String(), "store_position")
}
